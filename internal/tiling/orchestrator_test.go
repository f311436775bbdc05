package tiling

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/bdreader/ncnn-upscaler-go/internal/raster"
)

// fakeUpscaler doubles every pixel dimension by nearest-neighbour repeat,
// standing in for engine.Engine.ProcessRGB in these orchestrator tests.
type fakeUpscaler struct {
	cfg    Config
	scale  int
	failOn int // tile index to fail on, -1 to never fail
	calls  int
}

func (f *fakeUpscaler) ScaleFactor() int     { return f.scale }
func (f *fakeUpscaler) TilingConfig() Config { return f.cfg }

func (f *fakeUpscaler) ProcessRGB(src *raster.RGB) (*raster.RGB, error) {
	idx := f.calls
	f.calls++
	if f.failOn >= 0 && idx == f.failOn {
		return nil, errors.New("simulated inference failure")
	}
	out := raster.New(src.Width*f.scale, src.Height*f.scale)
	for y := 0; y < out.Height; y++ {
		sy := y / f.scale
		for x := 0; x < out.Width; x++ {
			sx := x / f.scale
			s := src.At(sx, sy)
			d := out.At(x, y)
			copy(out.Pix[d:d+raster.Channels], src.Pix[s:s+raster.Channels])
		}
	}
	return out, nil
}

func TestProcessRasterDirectPath(t *testing.T) {
	cfg := DefaultConfig(2)
	cfg.ThresholdW, cfg.ThresholdH = 4096, 4096 // force direct path
	u := &fakeUpscaler{cfg: cfg, scale: 2, failOn: -1}

	src := raster.New(100, 80)
	for i := range src.Pix {
		src.Pix[i] = byte(i)
	}

	out, err := ProcessRaster(u, src)
	require.NoError(t, err)
	require.Equal(t, src.Width*2, out.Width)
	require.Equal(t, src.Height*2, out.Height)
	require.Equal(t, 1, u.calls)
}

func TestProcessRasterTiledPath(t *testing.T) {
	cfg := DefaultConfig(2)
	cfg.ThresholdW, cfg.ThresholdH = 100, 100 // force tiling
	u := &fakeUpscaler{cfg: cfg, scale: 2, failOn: -1}

	src := raster.New(600, 500)
	for y := 0; y < src.Height; y++ {
		for x := 0; x < src.Width; x++ {
			off := src.At(x, y)
			src.Pix[off] = byte(x % 256)
			src.Pix[off+1] = byte(y % 256)
			src.Pix[off+2] = 1
		}
	}

	out, err := ProcessRaster(u, src)
	require.NoError(t, err)
	require.Equal(t, src.Width*2, out.Width)
	require.Equal(t, src.Height*2, out.Height)
	require.Greater(t, u.calls, 1)
}

// TestProcessRasterTiledMatchesDirectPath checks property 3 (spec.md §8):
// tiling is an implementation detail that must not change the output. It
// forces tiling on one run and the direct path on another, against the
// same fakeUpscaler (whose output at (x,y) only ever depends on the
// absolute source pixel at (x/scale, y/scale), never on tile-relative
// coordinates), and requires the two rasters to match byte-for-byte.
func TestProcessRasterTiledMatchesDirectPath(t *testing.T) {
	src := raster.New(600, 500)
	for y := 0; y < src.Height; y++ {
		for x := 0; x < src.Width; x++ {
			off := src.At(x, y)
			src.Pix[off] = byte(x % 256)
			src.Pix[off+1] = byte(y % 256)
			src.Pix[off+2] = byte((x + y) % 256)
		}
	}

	direct := DefaultConfig(2)
	direct.ThresholdW, direct.ThresholdH = 4096, 4096
	directOut, err := ProcessRaster(&fakeUpscaler{cfg: direct, scale: 2, failOn: -1}, src)
	require.NoError(t, err)

	tiled := DefaultConfig(2)
	tiled.ThresholdW, tiled.ThresholdH = 100, 100
	u := &fakeUpscaler{cfg: tiled, scale: 2, failOn: -1}
	tiledOut, err := ProcessRaster(u, src)
	require.NoError(t, err)
	require.Greater(t, u.calls, 1)

	require.Equal(t, directOut.Width, tiledOut.Width)
	require.Equal(t, directOut.Height, tiledOut.Height)
	require.Equal(t, directOut.Pix, tiledOut.Pix)
}

func TestProcessRasterTileFailurePropagates(t *testing.T) {
	cfg := DefaultConfig(2)
	cfg.ThresholdW, cfg.ThresholdH = 100, 100
	u := &fakeUpscaler{cfg: cfg, scale: 2, failOn: 1}

	src := raster.New(600, 500)
	_, err := ProcessRaster(u, src)
	require.Error(t, err)
}
