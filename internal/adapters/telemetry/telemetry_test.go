package telemetry_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/stagehand/internal/adapters/telemetry"
	"go.trai.ch/stagehand/internal/core/ports"
	"go.trai.ch/stagehand/internal/core/ports/mocks"
	"go.uber.org/mock/gomock"
)

func TestOTelTracer_ReportsActionLifecycle(t *testing.T) {
	ctrl := gomock.NewController(t)
	renderer := mocks.NewMockRenderer(ctrl)

	tp := telemetry.NewProvider(renderer)
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })
	tracer := telemetry.NewOTelTracer("stagehand", tp).WithRenderer(renderer)

	const name = "x86_64-unknown-linux-gnu/stage1/lib/libstd.so"
	var spanID string
	gomock.InOrder(
		renderer.EXPECT().OnPlanEmit([]string{name}),
		renderer.EXPECT().OnActionStart(gomock.Any(), name, "compile", "rustc -O", gomock.Any()).
			Do(func(id, _, _, _ string, _ any) { spanID = id }),
		renderer.EXPECT().OnActionLog(gomock.Any(), []byte("warning: unused variable\n")),
		renderer.EXPECT().OnActionComplete(gomock.Any(), gomock.Any(), false, gomock.Any()).
			Do(func(id string, _ any, _ bool, err error) {
				assert.Equal(t, spanID, id)
				require.Error(t, err)
				assert.Equal(t, "exit status 1", err.Error())
			}),
	)

	tracer.EmitPlan(t.Context(), []string{name})
	_, span := tracer.Start(t.Context(), name,
		ports.WithAttribute(ports.AttrKind, "compile"),
		ports.WithAttribute(ports.AttrArgv, "rustc -O"),
	)
	_, err := span.Write([]byte("warning: unused variable\n"))
	require.NoError(t, err)
	span.RecordError(errors.New("exit status 1"))
	span.End()
}

func TestOTelTracer_UpToDate(t *testing.T) {
	ctrl := gomock.NewController(t)
	renderer := mocks.NewMockRenderer(ctrl)

	tp := telemetry.NewProvider(renderer)
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })
	tracer := telemetry.NewOTelTracer("stagehand", tp)

	renderer.EXPECT().OnActionStart(gomock.Any(), "verify", "", "", gomock.Any())
	renderer.EXPECT().OnActionComplete(gomock.Any(), gomock.Any(), true, nil)

	_, span := tracer.Start(t.Context(), "verify")
	span.SetAttribute(ports.AttrUpToDate, true)
	span.End()
}

func TestOTelTracer_NilProvider(t *testing.T) {
	tracer := telemetry.NewOTelTracer("stagehand", nil)
	ctx, span := tracer.Start(t.Context(), "noop")
	assert.NotNil(t, ctx)

	n, err := span.Write([]byte("dropped"))
	require.NoError(t, err)
	assert.Equal(t, 7, n)
	span.SetAttribute("count", 3)
	span.End()
}

func TestBridge_NilRenderer(t *testing.T) {
	tp := telemetry.NewProvider(nil)
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })

	_, span := tp.Tracer("test").Start(t.Context(), "span")
	span.End()
}
