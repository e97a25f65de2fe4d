package snapshot

import (
	"context"
	"path"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"go.trai.ch/stagehand/internal/core/domain"
	"go.trai.ch/zerr"
)

// DefaultRegion is used when the configuration names none.
const DefaultRegion = "us-east-1"

// Remote is an object store holding snapshot archives.
type Remote interface {
	// Fetch downloads key into the file dst.
	Fetch(ctx context.Context, key, dst string) error
	// Upload publishes the file src under key.
	Upload(ctx context.Context, key, src string) error
}

// S3Remote is a Remote backed by an S3-compatible bucket.
type S3Remote struct {
	client *minio.Client
	bucket string
	prefix string
}

// NewS3Remote connects to the object store described by src.
func NewS3Remote(src domain.SnapshotSource) (*S3Remote, error) {
	endpoint := strings.TrimSpace(src.Endpoint)
	bucket := strings.TrimSpace(src.Bucket)
	if endpoint == "" || bucket == "" {
		return nil, zerr.Wrap(domain.ErrConfigInvalid, "snapshot endpoint and bucket are required")
	}
	region := strings.TrimSpace(src.Region)
	if region == "" {
		region = DefaultRegion
	}

	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(src.AccessKey, src.SecretKey, ""),
		Secure: src.Secure,
		Region: region,
	})
	if err != nil {
		return nil, zerr.With(zerr.Wrap(err, domain.ErrConfigInvalid.Error()), "endpoint", endpoint)
	}
	return &S3Remote{client: client, bucket: bucket, prefix: strings.Trim(src.Prefix, "/")}, nil
}

func (r *S3Remote) object(key string) string {
	if r.prefix == "" {
		return key
	}
	return path.Join(r.prefix, key)
}

// Fetch downloads key into dst.
func (r *S3Remote) Fetch(ctx context.Context, key, dst string) error {
	obj := r.object(key)
	if err := r.client.FGetObject(ctx, r.bucket, obj, dst, minio.GetObjectOptions{}); err != nil {
		if minio.ToErrorResponse(err).Code == "NoSuchKey" {
			return zerr.With(zerr.Wrap(domain.ErrSnapshotNotFound, "archive not in bucket"), "object", obj)
		}
		return zerr.With(zerr.With(zerr.Wrap(err, domain.ErrSnapshotFetchFailed.Error()), "bucket", r.bucket), "object", obj)
	}
	return nil
}

// Upload publishes src under key.
func (r *S3Remote) Upload(ctx context.Context, key, src string) error {
	obj := r.object(key)
	opts := minio.PutObjectOptions{ContentType: "application/gzip"}
	if strings.HasSuffix(key, HashExt) {
		opts.ContentType = "text/plain"
	}
	if _, err := r.client.FPutObject(ctx, r.bucket, obj, src, opts); err != nil {
		return zerr.With(zerr.With(zerr.Wrap(err, domain.ErrSnapshotUploadFailed.Error()), "bucket", r.bucket), "object", obj)
	}
	return nil
}
