package engine

import (
	"fmt"

	"github.com/bdreader/ncnn-upscaler-go/internal/codec"
	"github.com/bdreader/ncnn-upscaler-go/internal/engine/runtime"
	"github.com/bdreader/ncnn-upscaler-go/internal/raster"
	"github.com/bdreader/ncnn-upscaler-go/internal/tiling"
	"github.com/bdreader/ncnn-upscaler-go/internal/upserrors"
)

const esrganFallbackModel = "realesr-animevideov3-x2"

// esrganBindings are probed in order: the animevideov3 family first, then
// the general ESRGAN naming convention (spec.md §4.5 "Model invocation").
var esrganBindings = []runtime.BlobBinding{
	{Input: "data", Output: "output"},
	{Input: "in0", Output: "out0"},
}

// esrganScaleModel selects the bundled animevideov3 model for a scale
// factor, defaulting (with a warning left to the caller) to x2.
func esrganScaleModel(scale int) string {
	switch scale {
	case 2:
		return "realesr-animevideov3-x2"
	case 3:
		return "realesr-animevideov3-x3"
	case 4:
		return "realesr-animevideov3-x4"
	default:
		return esrganFallbackModel
	}
}

type realesrganEngine struct {
	backend     runtime.Backend
	modelRoot   string
	modelName   string
	scaleFactor int
	outFormat   codec.Format
	tileCfg     tiling.Config
	fallenBack  bool
	cleanup     cleanupOnce
}

func newRealESRGAN(cfg Config) (Engine, error) {
	validateModelRoot(cfg.ModelRoot)

	name := cfg.ModelName
	if name == "" {
		if cfg.ScaleFactor != 2 && cfg.ScaleFactor != 3 && cfg.ScaleFactor != 4 {
			log.Warnw("unsupported scale factor for RealESRGAN, defaulting to x2", "scale", cfg.ScaleFactor)
		}
		name = esrganScaleModel(cfg.ScaleFactor)
	}
	if !modelPairExists(cfg.ModelRoot, name) {
		log.Warnw("selected RealESRGAN model pair missing, falling back", "model", name)
		name = esrganFallbackModel
		if !modelPairExists(cfg.ModelRoot, name) {
			return nil, upserrors.Wrapf(upserrors.ErrModelMissing, "RealESRGAN model %q (and fallback) not found under %q", name, cfg.ModelRoot)
		}
	}

	scale := cfg.ScaleFactor
	if scale != 2 && scale != 3 && scale != 4 {
		scale = 2
	}
	if cfg.ModelName != "" {
		if derived := scaleFromModelName(name); derived > 0 {
			scale = derived
		}
	}

	format, err := resolveFormat(cfg.OutputFormat)
	if err != nil {
		return nil, err
	}

	backend := runtime.NewBackend()
	profile := resolveDeviceProfile(cfg.GPUID)
	if err := backend.Init(profile); err != nil {
		return nil, upserrors.Wrap(err, "init RealESRGAN backend")
	}

	paramPath, binPath := modelPairPaths(cfg.ModelRoot, name)
	if err := backend.LoadModel(paramPath, binPath); err != nil {
		backend.Close()
		return nil, upserrors.Wrapf(err, "load RealESRGAN model %q", name)
	}

	tileCfg := deriveTilingConfig(scale, cfg.TileSizeOverride, profile.Integrated)

	return &realesrganEngine{
		backend:     backend,
		modelRoot:   cfg.ModelRoot,
		modelName:   name,
		scaleFactor: scale,
		outFormat:   format,
		tileCfg:     tileCfg,
	}, nil
}

// scaleFromModelName recovers the scale suffix ("-x2"/"-x3"/"-x4") from an
// explicit model name override, returning 0 if none matches so the caller
// keeps the caller-supplied scale.
func scaleFromModelName(name string) int {
	for _, s := range []int{2, 3, 4} {
		if wantsSuffix(name, fmt.Sprintf("x%d", s)) {
			return s
		}
	}
	return 0
}

func wantsSuffix(name, suffix string) bool {
	n := len(name)
	s := len(suffix)
	return n >= s && name[n-s:] == suffix
}

func (e *realesrganEngine) ProcessRGB(src *raster.RGB) (*raster.RGB, error) {
	return inferPadded(e.backend, &e.fallenBack, src, esrganBindings, e.scaleFactor)
}

func (e *realesrganEngine) ProcessSingle(input []byte) ([]byte, error) {
	return tiling.Process(e, input, e.outFormat)
}

func (e *realesrganEngine) ProcessBatch(inputs [][]byte) ([][]byte, error) {
	return processBatch(e, inputs)
}

func (e *realesrganEngine) ScaleFactor() int            { return e.scaleFactor }
func (e *realesrganEngine) TilingConfig() tiling.Config { return e.tileCfg }

func (e *realesrganEngine) Cleanup() {
	e.cleanup.run(func() {
		e.backend.Close()
	})
}
