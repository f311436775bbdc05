//go:build !ncnn_native

package runtime

import (
	"os"

	"github.com/bdreader/ncnn-upscaler-go/internal/raster"
	"github.com/bdreader/ncnn-upscaler-go/internal/upserrors"
)

// Enabled reports whether this build links the native ncnn/Vulkan runtime.
func Enabled() bool { return false }

// fallbackBackend is the default Backend: a deterministic pure-Go bilinear
// resampler that never touches the GPU. It satisfies Init/LoadModel the same
// way the CGo backend does, so callers can't distinguish the two except by
// UsingVulkan always reporting false.
type fallbackBackend struct {
	profile DeviceProfile
	loaded  bool
	closed  bool
}

// NewBackend constructs the Backend implementation selected at build time.
func NewBackend() Backend {
	return &fallbackBackend{}
}

func (b *fallbackBackend) Init(profile DeviceProfile) error {
	b.profile = profile
	return nil
}

func (b *fallbackBackend) LoadModel(paramPath, binPath string) error {
	if paramPath == "" || binPath == "" {
		return upserrors.Wrapf(upserrors.ErrModelMissing, "empty model path pair")
	}
	for _, p := range []string{paramPath, binPath} {
		if _, err := os.Stat(p); err != nil {
			return upserrors.Wrapf(upserrors.ErrModelMissing, "model file %q", p)
		}
	}
	b.loaded = true
	return nil
}

func (b *fallbackBackend) Infer(src *raster.RGB, bindings []BlobBinding, scale int) (*raster.RGB, error) {
	if !b.loaded {
		return nil, upserrors.Wrapf(upserrors.ErrInferenceFailure, "no model loaded")
	}
	if !src.Valid() {
		return nil, upserrors.Wrapf(upserrors.ErrInferenceFailure, "invalid source raster")
	}
	if len(bindings) == 0 {
		return nil, upserrors.Wrapf(upserrors.ErrInferenceFailure, "no blob bindings configured")
	}
	return bicubicUpscale(src, scale), nil
}

// UsingVulkan always reports false: the fallback never had Vulkan to begin
// with, so there is nothing for the engine layer to fall back away from.
func (b *fallbackBackend) UsingVulkan() bool { return false }

func (b *fallbackBackend) FallbackToCPU() error { return nil }

func (b *fallbackBackend) Close() {
	if b.closed {
		return
	}
	b.closed = true
	b.loaded = false
}
