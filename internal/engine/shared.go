package engine

import (
	"github.com/bdreader/ncnn-upscaler-go/internal/codec"
	"github.com/bdreader/ncnn-upscaler-go/internal/engine/runtime"
	"github.com/bdreader/ncnn-upscaler-go/internal/raster"
	"github.com/bdreader/ncnn-upscaler-go/internal/upserrors"
)

// inferPadded runs the shared pad → infer → fallback-once → crop sequence
// both variants share (spec.md §4.5 "Inference" and "Runtime fallback").
// fallenBack is owned by the caller's engine value so the one-shot nature
// of the fallback persists across calls for the engine's lifetime.
func inferPadded(backend runtime.Backend, fallenBack *bool, src *raster.RGB, bindings []runtime.BlobBinding, scale int) (*raster.RGB, error) {
	padded := raster.Pad(src, raster.DefaultPadding)

	out, err := backend.Infer(padded, bindings, scale)
	if err != nil && !*fallenBack && backend.UsingVulkan() {
		log.Warnw("inference failed on GPU, falling back to CPU", "error", err)
		if fbErr := backend.FallbackToCPU(); fbErr == nil {
			*fallenBack = true
			out, err = backend.Infer(padded, bindings, scale)
		}
	}
	if err != nil {
		return nil, upserrors.Wrap(upserrors.ErrInferenceFailure, err.Error())
	}

	cropPad := raster.DefaultPadding * scale
	return raster.CropCenter(out, src.Width*scale, src.Height*scale, cropPad), nil
}

// singleProcessor is the subset of Engine needed to run one image through
// ProcessSingle, used by processBatch so both variants share one loop.
type singleProcessor interface {
	ProcessSingle(input []byte) ([]byte, error)
}

// processBatch runs every input independently, matching spec.md §4.7's
// "abort this image, continue the batch" rule: a failed image becomes a
// nil slot rather than aborting the whole call.
func processBatch(e singleProcessor, inputs [][]byte) ([][]byte, error) {
	results := make([][]byte, len(inputs))
	for i, input := range inputs {
		out, err := e.ProcessSingle(input)
		if err != nil {
			log.Warnw("batch item failed, continuing", "index", i, "error", err)
			continue
		}
		results[i] = out
	}
	return results, nil
}

func resolveFormat(s string) (codec.Format, error) {
	if s == "" {
		return codec.FormatWebP, nil
	}
	return codec.ParseFormat(s)
}
