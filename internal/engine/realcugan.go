package engine

import (
	"github.com/bdreader/ncnn-upscaler-go/internal/codec"
	"github.com/bdreader/ncnn-upscaler-go/internal/engine/runtime"
	"github.com/bdreader/ncnn-upscaler-go/internal/raster"
	"github.com/bdreader/ncnn-upscaler-go/internal/tiling"
	"github.com/bdreader/ncnn-upscaler-go/internal/upserrors"
)

const cuganFallbackModel = "up2x-conservative"

var cuganBindings = []runtime.BlobBinding{{Input: "in0", Output: "out0"}}

// cuganNoiseModel maps a resolved noise level to its base model name
// (spec.md §4.5 "Per-variant model selection").
func cuganNoiseModel(noise int) string {
	switch noise {
	case -1:
		return "up2x-no-denoise"
	case 0:
		return "up2x-denoise1x"
	case 1:
		return "up2x-denoise2x"
	case 2, 3:
		return "up2x-denoise3x"
	default:
		return cuganFallbackModel
	}
}

// resolveCuganNoise applies spec.md §3/§4.5's noise-vs-quality derivation
// rules: an explicit out-of-range integer collapses to -1, same as an
// absent or unrecognised quality letter.
func resolveCuganNoise(cfg Config) int {
	if cfg.NoiseSet {
		if cfg.Noise < -1 || cfg.Noise > 3 {
			return -1
		}
		return cfg.Noise
	}
	switch cfg.Quality {
	case "F":
		return -1
	case "E":
		return 0
	case "Q":
		return 1
	case "H":
		return 2
	default:
		return -1
	}
}

type realcuganEngine struct {
	backend    runtime.Backend
	modelRoot  string
	modelName  string
	outFormat  codec.Format
	tileCfg    tiling.Config
	fallenBack bool
	cleanup    cleanupOnce
}

func newRealCUGAN(cfg Config) (Engine, error) {
	validateModelRoot(cfg.ModelRoot)

	noise := resolveCuganNoise(cfg)
	name := cuganNoiseModel(noise)
	if !modelPairExists(cfg.ModelRoot, name) {
		log.Warnw("selected RealCUGAN model pair missing, falling back", "model", name)
		name = cuganFallbackModel
		if !modelPairExists(cfg.ModelRoot, name) {
			return nil, upserrors.Wrapf(upserrors.ErrModelMissing, "RealCUGAN model %q (and fallback) not found under %q", name, cfg.ModelRoot)
		}
	}

	format, err := resolveFormat(cfg.OutputFormat)
	if err != nil {
		return nil, err
	}

	backend := runtime.NewBackend()
	profile := resolveDeviceProfile(cfg.GPUID)
	if err := backend.Init(profile); err != nil {
		return nil, upserrors.Wrap(err, "init RealCUGAN backend")
	}

	paramPath, binPath := modelPairPaths(cfg.ModelRoot, name)
	if err := backend.LoadModel(paramPath, binPath); err != nil {
		backend.Close()
		return nil, upserrors.Wrapf(err, "load RealCUGAN model %q", name)
	}

	tileCfg := deriveTilingConfig(2, cfg.TileSizeOverride, profile.Integrated)

	return &realcuganEngine{
		backend:   backend,
		modelRoot: cfg.ModelRoot,
		modelName: name,
		outFormat: format,
		tileCfg:   tileCfg,
	}, nil
}

func (e *realcuganEngine) ProcessRGB(src *raster.RGB) (*raster.RGB, error) {
	return inferPadded(e.backend, &e.fallenBack, src, cuganBindings, e.ScaleFactor())
}

func (e *realcuganEngine) ProcessSingle(input []byte) ([]byte, error) {
	return tiling.Process(e, input, e.outFormat)
}

func (e *realcuganEngine) ProcessBatch(inputs [][]byte) ([][]byte, error) {
	return processBatch(e, inputs)
}

func (e *realcuganEngine) ScaleFactor() int            { return 2 }
func (e *realcuganEngine) TilingConfig() tiling.Config { return e.tileCfg }

func (e *realcuganEngine) Cleanup() {
	e.cleanup.run(func() {
		e.backend.Close()
	})
}
