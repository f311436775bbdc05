package engine

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/bdreader/ncnn-upscaler-go/internal/engine/runtime"
	"github.com/bdreader/ncnn-upscaler-go/internal/raster"
)

// mockBackend lets the fallback-once property (spec.md §8 "Fallback once")
// be tested without a real ncnn/Vulkan device.
type mockBackend struct {
	vulkan      bool
	failUntil   int
	inferCalls  int
	fellBack    bool
	fallbackErr error
}

func (m *mockBackend) Init(runtime.DeviceProfile) error        { return nil }
func (m *mockBackend) LoadModel(string, string) error          { return nil }
func (m *mockBackend) UsingVulkan() bool                       { return m.vulkan }
func (m *mockBackend) Close()                                  {}

func (m *mockBackend) Infer(src *raster.RGB, bindings []runtime.BlobBinding, scale int) (*raster.RGB, error) {
	m.inferCalls++
	if m.inferCalls <= m.failUntil {
		return nil, errors.New("simulated device failure")
	}
	return raster.New(src.Width*scale, src.Height*scale), nil
}

func (m *mockBackend) FallbackToCPU() error {
	m.fellBack = true
	m.vulkan = false
	return m.fallbackErr
}

func TestInferPaddedFallsBackOnce(t *testing.T) {
	backend := &mockBackend{vulkan: true, failUntil: 1}
	fallenBack := false
	src := raster.New(10, 10)

	out, err := inferPadded(backend, &fallenBack, src, cuganBindings, 2)
	require.NoError(t, err)
	require.Equal(t, 20, out.Width)
	require.Equal(t, 20, out.Height)
	require.True(t, fallenBack)
	require.True(t, backend.fellBack)
	require.Equal(t, 2, backend.inferCalls)
}

func TestInferPaddedDoesNotRecurseFallback(t *testing.T) {
	// Fails every call: after the single allowed fallback, UsingVulkan is
	// false, so a second failure must propagate instead of looping.
	backend := &mockBackend{vulkan: true, failUntil: 100}
	fallenBack := false
	src := raster.New(10, 10)

	_, err := inferPadded(backend, &fallenBack, src, cuganBindings, 2)
	require.Error(t, err)
	require.True(t, fallenBack)
	require.Equal(t, 2, backend.inferCalls)
}

func TestInferPaddedNoFallbackWhenAlreadyCPU(t *testing.T) {
	backend := &mockBackend{vulkan: false, failUntil: 100}
	fallenBack := false
	src := raster.New(10, 10)

	_, err := inferPadded(backend, &fallenBack, src, cuganBindings, 2)
	require.Error(t, err)
	require.False(t, backend.fellBack)
	require.Equal(t, 1, backend.inferCalls)
}
