// Package engine wraps the neural super-resolution runtime: model load,
// inference, allocator lifecycle, and GPU→CPU fallback (spec.md §4.5).
package engine

import (
	"github.com/bdreader/ncnn-upscaler-go/internal/raster"
	"github.com/bdreader/ncnn-upscaler-go/internal/tiling"
)

// Kind selects the engine implementation.
type Kind int

const (
	KindRealCUGAN Kind = iota
	KindRealESRGAN
)

// Config is the opaque record capturing everything needed to initialise an
// Engine (spec.md §3 "Engine configuration").
type Config struct {
	Kind Kind

	// ScaleFactor: 2/3/4 for RealESRGAN, always 2 for RealCUGAN.
	ScaleFactor int

	// Noise is the RealCUGAN noise/quality selector in {-1,0,1,2,3}. It is
	// used only when NoiseSet is true; otherwise the level is derived from
	// Quality.
	Noise int
	// NoiseSet reports whether Noise was explicitly provided on the CLI,
	// matching spec.md §4.5 "derived from a single-letter quality flag ...
	// if the integer is absent".
	NoiseSet bool
	Quality  string // one of F/E/Q/H

	ModelRoot string
	ModelName string // explicit model base name override, RealESRGAN only

	// GPUID: "auto"/"" => 0, parseable int => that int, negative => CPU-only.
	GPUID string

	TileSizeOverride int
	OutputFormat     string // webp|png|jpg
}

// Engine is the shared capability set both variants implement
// (spec.md §4.5, §9 "Engine polymorphism").
type Engine interface {
	// ProcessSingle auto-selects tiling or direct processing and returns
	// compressed output bytes in the configured output format.
	ProcessSingle(input []byte) ([]byte, error)

	// ProcessRGB runs inference on a raw RGB raster and returns the
	// upscaled raster of exactly (W*scale, H*scale): the source is padded
	// before inference and the scaled padding is cropped off before return.
	// Used directly by the tiling orchestrator for both the direct and
	// per-tile paths.
	ProcessRGB(src *raster.RGB) (*raster.RGB, error)

	// ProcessBatch processes a slice of compressed inputs independently,
	// never aborting the whole batch on a single failure — a nil entry in
	// the result marks a failed image.
	ProcessBatch(inputs [][]byte) ([][]byte, error)

	ScaleFactor() int
	TilingConfig() tiling.Config

	// Cleanup is idempotent and must only be called once all inference on
	// this engine has finished.
	Cleanup()
}

// New constructs and initialises an Engine for cfg, returning
// upserrors.ErrModelMissing if neither the requested nor the fallback model
// pair can be found on disk.
func New(cfg Config) (Engine, error) {
	switch cfg.Kind {
	case KindRealESRGAN:
		return newRealESRGAN(cfg)
	default:
		return newRealCUGAN(cfg)
	}
}
