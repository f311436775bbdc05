package tiling

import (
	"github.com/bdreader/ncnn-upscaler-go/internal/codec"
	"github.com/bdreader/ncnn-upscaler-go/internal/raster"
	"github.com/bdreader/ncnn-upscaler-go/internal/upserrors"
)

// Upscaler is the slice of engine.Engine the orchestrator needs. Defined
// locally instead of imported to keep internal/tiling free of a dependency
// on internal/engine (which already depends on internal/tiling for Config).
type Upscaler interface {
	ProcessRGB(src *raster.RGB) (*raster.RGB, error)
	ScaleFactor() int
	TilingConfig() Config
}

// Process runs the full decode → tile-or-direct → reassemble → encode
// pipeline for one image (spec.md §4.4).
func Process(u Upscaler, input []byte, format codec.Format) ([]byte, error) {
	src, err := codec.Decode(input)
	if err != nil {
		return nil, err
	}

	out, err := ProcessRaster(u, src)
	if err != nil {
		return nil, err
	}

	return codec.Encode(out, format)
}

// ProcessRaster is Process without the codec round trip, used directly by
// the tiling property tests and by callers that already hold a raster.
func ProcessRaster(u Upscaler, src *raster.RGB) (*raster.RGB, error) {
	cfg := u.TilingConfig()

	if !ShouldTile(src.Width, src.Height, cfg) {
		out, err := u.ProcessRGB(src)
		if err != nil {
			return nil, upserrors.Wrap(err, "direct inference")
		}
		return out, nil
	}

	tiles := CalculateTiles(src.Width, src.Height, cfg)
	out := raster.New(src.Width*cfg.ScaleFactor, src.Height*cfg.ScaleFactor)

	for i, tile := range tiles {
		tileSrc := ExtractTile(src, tile)
		tileOut, err := u.ProcessRGB(tileSrc)
		if err != nil {
			return nil, upserrors.Wrapf(err, "inference on tile %d/%d", i+1, len(tiles))
		}
		BlendTile(tileOut, tile, out)
	}
	return out, nil
}
