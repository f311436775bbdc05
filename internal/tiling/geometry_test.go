package tiling

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/bdreader/ncnn-upscaler-go/internal/raster"
)

func TestShouldTile(t *testing.T) {
	cfg := DefaultConfig(4)
	require.False(t, ShouldTile(1024, 1024, cfg))
	require.True(t, ShouldTile(2049, 1024, cfg))
	require.True(t, ShouldTile(1024, 2049, cfg))

	cfg.Enable = false
	require.False(t, ShouldTile(4096, 4096, cfg))
}

// TestTileCover checks that every source pixel is claimed by at least one
// tile (spec.md §8 "Tile cover").
func TestTileCover(t *testing.T) {
	cfg := DefaultConfig(2)
	width, height := 1300, 900
	tiles := CalculateTiles(width, height, cfg)
	require.NotEmpty(t, tiles)

	covered := make([][]bool, height)
	for i := range covered {
		covered[i] = make([]bool, width)
	}
	for _, tl := range tiles {
		for y := tl.Y; y < tl.Y+tl.Height; y++ {
			for x := tl.X; x < tl.X+tl.Width; x++ {
				covered[y][x] = true
			}
		}
	}
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			require.Truef(t, covered[y][x], "pixel (%d,%d) not covered by any tile", x, y)
		}
	}
}

// TestOutputCover checks that every scaled output pixel is written by
// exactly one tile's output anchor region (spec.md §8 "Output cover").
func TestOutputCover(t *testing.T) {
	cfg := DefaultConfig(2)
	width, height := 1300, 900
	tiles := CalculateTiles(width, height, cfg)

	outW, outH := width*cfg.ScaleFactor, height*cfg.ScaleFactor
	writer := make([][]int, outH)
	for i := range writer {
		writer[i] = make([]int, outW)
	}

	for idx, tl := range tiles {
		scaledW := tl.Width*cfg.ScaleFactor - tl.SrcOffsetX
		scaledH := tl.Height*cfg.ScaleFactor - tl.SrcOffsetY
		for y := tl.OutY; y < tl.OutY+scaledH && y < outH; y++ {
			for x := tl.OutX; x < tl.OutX+scaledW && x < outW; x++ {
				writer[y][x]++
				_ = idx
			}
		}
	}

	for y := 0; y < outH; y++ {
		for x := 0; x < outW; x++ {
			require.Equalf(t, 1, writer[y][x], "output pixel (%d,%d) written %d times", x, y, writer[y][x])
		}
	}
}

func TestExtractAndBlendTileRoundTrip(t *testing.T) {
	src := raster.New(8, 8)
	for i := range src.Pix {
		src.Pix[i] = byte(i)
	}
	tile := Tile{X: 2, Y: 2, Width: 4, Height: 4, OutX: 2, OutY: 2}

	extracted := ExtractTile(src, tile)
	require.Equal(t, tile.Width, extracted.Width)
	require.Equal(t, tile.Height, extracted.Height)

	out := raster.New(8, 8)
	BlendTile(extracted, tile, out)
	for y := 0; y < tile.Height; y++ {
		for x := 0; x < tile.Width; x++ {
			require.Equal(t,
				src.Pix[src.At(tile.X+x, tile.Y+y):src.At(tile.X+x, tile.Y+y)+raster.Channels],
				out.Pix[out.At(tile.OutX+x, tile.OutY+y):out.At(tile.OutX+x, tile.OutY+y)+raster.Channels],
			)
		}
	}
}

func TestBlendTileClampsAtBoundary(t *testing.T) {
	tileRGB := raster.New(4, 4)
	out := raster.New(5, 5)
	tile := Tile{OutX: 3, OutY: 3}

	require.NotPanics(t, func() {
		BlendTile(tileRGB, tile, out)
	})
}
