//go:build ncnn_native

// Package runtime, native build: links the real ncnn inference library and
// its Vulkan compute backend via CGo.
//
// Build requirements:
//
//	ncnn built with NCNN_VULKAN=ON, headers on the CGo include path
//	CGO_ENABLED=1
//	Build tag: -tags ncnn_native
package runtime

/*
#cgo CFLAGS: -I${SRCDIR}/../../../third_party/ncnn/include
#cgo LDFLAGS: -L${SRCDIR}/../../../third_party/ncnn/lib -lncnn -lvulkan -lstdc++ -lm

#include "ncnn_bridge.h"
#include <stdlib.h>
*/
import "C"

import (
	"runtime"
	"unsafe"

	"github.com/bdreader/ncnn-upscaler-go/internal/raster"
	"github.com/bdreader/ncnn-upscaler-go/internal/upserrors"
)

// Enabled reports whether this build links the native ncnn/Vulkan runtime.
func Enabled() bool { return true }

// cgoBackend wraps an ncnn_net_t handle and the allocators bound to it.
type cgoBackend struct {
	net        *C.ncnn_net_t
	vulkan     bool
	deviceID   C.int
	integrated bool
	paramPath  string
	binPath    string
}

// NewBackend constructs the Backend implementation selected at build time.
func NewBackend() Backend {
	b := &cgoBackend{}
	runtime.SetFinalizer(b, func(x *cgoBackend) { x.Close() })
	return b
}

func (b *cgoBackend) Init(profile DeviceProfile) error {
	b.integrated = profile.Integrated
	b.deviceID = C.int(profile.DeviceID)

	net := C.ncnn_net_create()
	if net == nil {
		return upserrors.Wrapf(upserrors.ErrInferenceFailure, "ncnn_net_create failed")
	}
	b.net = net

	if profile.DeviceID >= 0 {
		C.ncnn_net_set_vulkan_device(net, b.deviceID)
		C.ncnn_net_opt_use_vulkan_compute(net, 1)
		C.ncnn_net_opt_use_fp16_packed(net, 1)
		C.ncnn_net_opt_use_fp16_storage(net, 1)
		C.ncnn_net_opt_use_fp16_arithmetic(net, 1)
		if b.integrated {
			// Reduced feature set: disable winograd and the packed SGEMM
			// paths that thrash an iGPU's shared memory budget.
			C.ncnn_net_opt_use_winograd_convolution(net, 0)
			C.ncnn_net_opt_use_sgemm_convolution(net, 0)
			C.ncnn_net_opt_lightmode(net, 1)
		}
		b.vulkan = true
	} else {
		b.applyCPUProfile(net)
	}
	return nil
}

func (b *cgoBackend) applyCPUProfile(net *C.ncnn_net_t) {
	C.ncnn_net_opt_use_vulkan_compute(net, 0)
	C.ncnn_net_opt_num_threads(net, C.int(cpuThreadCap()))
	C.ncnn_net_opt_use_winograd_convolution(net, 0)
	C.ncnn_net_opt_lightmode(net, 1)
	C.ncnn_net_opt_use_pooled_allocator(net, 1)
	b.vulkan = false
}

func (b *cgoBackend) LoadModel(paramPath, binPath string) error {
	if b.net == nil {
		return upserrors.Wrapf(upserrors.ErrInferenceFailure, "backend not initialised")
	}
	cParam := C.CString(paramPath)
	cBin := C.CString(binPath)
	defer C.free(unsafe.Pointer(cParam))
	defer C.free(unsafe.Pointer(cBin))

	if C.ncnn_net_load_param(b.net, cParam) != 0 {
		return upserrors.Wrapf(upserrors.ErrModelMissing, "load param file %q", paramPath)
	}
	if C.ncnn_net_load_model(b.net, cBin) != 0 {
		return upserrors.Wrapf(upserrors.ErrModelMissing, "load bin file %q", binPath)
	}
	b.paramPath = paramPath
	b.binPath = binPath
	return nil
}

func (b *cgoBackend) Infer(src *raster.RGB, bindings []BlobBinding, scale int) (*raster.RGB, error) {
	if b.net == nil {
		return nil, upserrors.Wrapf(upserrors.ErrInferenceFailure, "backend not initialised")
	}
	if !src.Valid() {
		return nil, upserrors.Wrapf(upserrors.ErrInferenceFailure, "invalid source raster")
	}

	var lastErr error
	for _, binding := range bindings {
		out, err := b.inferOne(src, binding, scale)
		if err == nil {
			return out, nil
		}
		lastErr = err
	}
	return nil, upserrors.Wrapf(lastErr, "no blob binding accepted by loaded network")
}

func (b *cgoBackend) inferOne(src *raster.RGB, binding BlobBinding, scale int) (*raster.RGB, error) {
	ex := C.ncnn_extractor_create(b.net)
	if ex == nil {
		return nil, upserrors.Wrapf(upserrors.ErrInferenceFailure, "ncnn_extractor_create failed")
	}
	defer C.ncnn_extractor_destroy(ex)

	mat := C.ncnn_mat_from_pixels(
		(*C.uchar)(unsafe.Pointer(&src.Pix[0])),
		C.int(src.Width), C.int(src.Height), C.int(raster.Channels),
		C.int(src.Width*raster.Channels),
	)
	if mat == nil {
		return nil, upserrors.Wrapf(upserrors.ErrInferenceFailure, "ncnn_mat_from_pixels failed")
	}
	defer C.ncnn_mat_destroy(mat)

	cIn := C.CString(binding.Input)
	cOut := C.CString(binding.Output)
	defer C.free(unsafe.Pointer(cIn))
	defer C.free(unsafe.Pointer(cOut))

	if C.ncnn_extractor_input(ex, cIn, mat) != 0 {
		return nil, upserrors.Wrapf(upserrors.ErrInferenceFailure, "input blob %q rejected", binding.Input)
	}

	var outMat C.ncnn_mat_t
	if C.ncnn_extractor_extract(ex, cOut, &outMat) != 0 {
		return nil, upserrors.Wrapf(upserrors.ErrInferenceFailure, "output blob %q rejected", binding.Output)
	}
	defer C.ncnn_mat_destroy(outMat)

	outW := int(C.ncnn_mat_width(outMat))
	outH := int(C.ncnn_mat_height(outMat))
	out := raster.New(outW, outH)
	C.ncnn_mat_to_pixels(outMat, (*C.uchar)(unsafe.Pointer(&out.Pix[0])), C.int(outW*raster.Channels))
	return out, nil
}

func (b *cgoBackend) UsingVulkan() bool { return b.vulkan }

// FallbackToCPU releases the Vulkan-backed net, creates a freshly
// CPU-configured one, and reloads the model that was active on the old
// net — without this, the replacement net is empty and every subsequent
// Infer call fails outright. Idempotent: a second call after UsingVulkan
// has already flipped to false is a no-op.
func (b *cgoBackend) FallbackToCPU() error {
	if !b.vulkan || b.net == nil {
		return nil
	}
	C.ncnn_net_destroy(b.net)
	net := C.ncnn_net_create()
	if net == nil {
		return upserrors.Wrapf(upserrors.ErrInferenceFailure, "ncnn_net_create failed during CPU fallback")
	}
	b.net = net
	b.applyCPUProfile(net)

	if b.paramPath == "" || b.binPath == "" {
		return upserrors.Wrapf(upserrors.ErrInferenceFailure, "CPU fallback: no model was previously loaded")
	}
	return b.LoadModel(b.paramPath, b.binPath)
}

func (b *cgoBackend) Close() {
	if b.net == nil {
		return
	}
	C.ncnn_net_destroy(b.net)
	b.net = nil
}

func cpuThreadCap() int {
	n := runtime.NumCPU()
	if n > 4 {
		return 4
	}
	if n < 1 {
		return 1
	}
	return n
}
