// Package runtime wraps the embedded neural inference runtime (ncnn) behind
// a small Backend interface, with two implementations selected by Go build
// tags — the same native/pure-Go split the teacher pack uses for optional
// CGo acceleration (am-sokolov-go-astc-encoder's astc/native package).
//
// The "ncnn_native" build tag links against the real ncnn C API with Vulkan
// support (bridge_cgo.go). The default build (no tag) runs a deterministic
// pure-Go resampler that satisfies the exact same padded-raster-in,
// scaled-padded-raster-out contract (bridge_fallback.go), so the rest of
// this module builds and tests without a native toolchain.
package runtime

import "github.com/bdreader/ncnn-upscaler-go/internal/raster"

// BlobBinding names one input/output blob pair to try when running a
// forward pass. Engines probe bindings in order and use the first that the
// loaded network accepts (spec.md §4.5 "Model invocation").
type BlobBinding struct {
	Input  string
	Output string
}

// DeviceProfile captures how Init should configure compute backend, FP16
// flags, and allocators (spec.md §4.5 steps 2-4).
type DeviceProfile struct {
	// DeviceID >= 0 selects a Vulkan device; negative means CPU-only.
	DeviceID int
	// Integrated reports whether the selected device is an integrated GPU,
	// so Init can apply the reduced-feature iGPU profile.
	Integrated bool
}

// Backend is the capability set the ncnn bridge exposes to the engine
// layer. Both the CGo and fallback implementations satisfy it.
type Backend interface {
	// Init configures compute backend (Vulkan or CPU), FP16 flags,
	// allocators, and the iGPU/low-mem profile per spec.md §4.5.
	Init(profile DeviceProfile) error

	// LoadModel loads a model pair by its two sibling files. Returns an
	// error if either file is missing or the runtime rejects them.
	LoadModel(paramPath, binPath string) error

	// Infer tries each binding in order and runs the first one the loaded
	// network accepts, returning the raw (still padded) output raster.
	// scale is the model's known upscale factor, passed so a backend can
	// validate or, in the pure-Go fallback, drive its resampler.
	Infer(src *raster.RGB, bindings []BlobBinding, scale int) (*raster.RGB, error)

	// UsingVulkan reports whether Init currently has Vulkan compute
	// enabled (false after a FallbackToCPU call).
	UsingVulkan() bool

	// FallbackToCPU releases Vulkan allocators, switches to CPU mode, and
	// re-applies the low-memory CPU profile. Safe to call only once —
	// callers are responsible for not recursing (spec.md §4.5 "Runtime
	// fallback").
	FallbackToCPU() error

	// Close is idempotent: releases allocators and clears the loaded
	// network. A second call is a no-op.
	Close()
}
