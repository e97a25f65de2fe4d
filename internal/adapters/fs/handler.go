package fs

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"go.trai.ch/stagehand/internal/core/domain"
	"go.trai.ch/stagehand/internal/core/ports"
	"go.trai.ch/zerr"
)

var _ ports.ActionHandler = (*Handler)(nil)

// Handler executes the in-process file actions: copies, promotions, installs,
// removals and stage verification.
type Handler struct{}

// NewHandler creates a new Handler.
func NewHandler() *Handler {
	return &Handler{}
}

// Kinds returns the action kinds the handler accepts.
func (h *Handler) Kinds() []domain.ActionKind {
	return []domain.ActionKind{
		domain.ActionCopy,
		domain.ActionPromote,
		domain.ActionInstall,
		domain.ActionRemove,
		domain.ActionVerify,
	}
}

// Handle runs the action.
func (h *Handler) Handle(ctx context.Context, root string, a *domain.Action, out io.Writer) error {
	switch a.Kind {
	case domain.ActionCopy, domain.ActionPromote, domain.ActionInstall:
		return h.copy(ctx, root, a)
	case domain.ActionRemove:
		return h.remove(ctx, root, a, out)
	case domain.ActionVerify:
		return h.verify(ctx, root, a, out)
	default:
		return zerr.With(zerr.Wrap(domain.ErrNoHandler, "unsupported kind"), "kind", string(a.Kind))
	}
}

func (h *Handler) copy(ctx context.Context, root string, a *domain.Action) error {
	if len(a.Sources) != len(a.Outputs) {
		return zerr.With(zerr.New("copy sources and outputs differ in length"), "action", a.Name())
	}
	mode := os.FileMode(a.Mode)
	if mode == 0 {
		mode = domain.FilePerm
	}
	for i, src := range a.Sources {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := AtomicCopy(Abs(root, src), Abs(root, a.Outputs[i]), mode); err != nil {
			return err
		}
	}
	return nil
}

func (h *Handler) remove(ctx context.Context, root string, a *domain.Action, out io.Writer) error {
	for _, p := range a.Remove {
		if err := ctx.Err(); err != nil {
			return err
		}
		if !filepath.IsAbs(p) && escapes(p) {
			return zerr.With(zerr.Wrap(domain.ErrOutputPathOutsideRoot, "refusing to remove"), "path", p)
		}
		abs := Abs(root, p)
		if _, err := os.Lstat(abs); errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err := os.RemoveAll(abs); err != nil {
			return zerr.With(zerr.Wrap(err, "failed to remove path"), "path", p)
		}
		_, _ = fmt.Fprintf(out, "removed %s\n", p)
	}
	return nil
}

// verify compares Sources[i] and Against[i] by content and reports every mismatch.
func (h *Handler) verify(ctx context.Context, root string, a *domain.Action, out io.Writer) error {
	if len(a.Sources) != len(a.Against) {
		return zerr.With(zerr.New("verify sources and counterparts differ in length"), "action", a.Name())
	}

	var mismatched []string
	for i, left := range a.Sources {
		if err := ctx.Err(); err != nil {
			return err
		}
		right := a.Against[i]
		lh, err := hashExisting(Abs(root, left))
		if err != nil {
			return err
		}
		rh, err := hashExisting(Abs(root, right))
		if err != nil {
			return err
		}
		if lh != rh {
			mismatched = append(mismatched, right)
			_, _ = fmt.Fprintf(out, "mismatch: %s %016x, %s %016x\n", left, lh, right, rh)
		}
	}

	if len(mismatched) > 0 {
		return zerr.With(zerr.Wrap(domain.ErrReproducibilityMismatch, "stages differ"),
			"paths", strings.Join(mismatched, ","))
	}
	_, _ = fmt.Fprintf(out, "%d artifact(s) identical\n", len(a.Sources))
	return nil
}

func hashExisting(path string) (uint64, error) {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return 0, zerr.With(zerr.Wrap(domain.ErrMissingInput, "artifact to verify is missing"), "path", path)
	}
	return HashFile(path)
}

// Abs joins a relative path with root. Absolute paths are returned unchanged.
func Abs(root, p string) string {
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(root, p)
}

func escapes(p string) bool {
	clean := filepath.Clean(p)
	return clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator))
}
