// Package tiling implements the tile grid geometry and the end-to-end
// orchestration that splits oversized images into overlapping tiles, runs
// inference per tile, and reassembles a seamless output (spec.md §4.3, §4.4).
package tiling

import (
	"github.com/bdreader/ncnn-upscaler-go/internal/raster"
)

// Config mirrors the "Tiling configuration" data model of spec.md §3.
type Config struct {
	TileSize    int  // base tile size before upscaling; default 512.
	Overlap     int  // overlap between adjacent tiles; default 32.
	ScaleFactor int  // upscale factor, taken from the engine.
	Enable      bool // auto-enable for large images.
	ThresholdW  int  // tile if width exceeds this; default 2048.
	ThresholdH  int  // tile if height exceeds this; default 2048.
}

// DefaultConfig returns the baseline tiling configuration before any
// engine-specific override (tile-size flag, iGPU profile) is applied.
func DefaultConfig(scaleFactor int) Config {
	return Config{
		TileSize:    512,
		Overlap:     32,
		ScaleFactor: scaleFactor,
		Enable:      true,
		ThresholdW:  2048,
		ThresholdH:  2048,
	}
}

// Tile describes one tile's source rectangle and its scaled destination
// anchor in the output raster (spec.md §3 "Tile descriptor").
type Tile struct {
	X, Y          int // source origin
	Width, Height int // source extent
	OutX, OutY    int // destination origin in output raster, already scaled

	// SrcOffsetX/Y is the leading overlap, already scaled, that must be
	// stripped from this tile's inference output before it is blended: a
	// tile whose grid index on that axis is > 0 was padded with overlap
	// columns/rows its neighbour already owns (spec.md §4.4 step d).
	SrcOffsetX, SrcOffsetY int
}

// ShouldTile reports whether an image of the given dimensions should be
// split into tiles under cfg, matching spec.md §4.4 step 2's condition.
func ShouldTile(width, height int, cfg Config) bool {
	return cfg.Enable && (width > cfg.ThresholdW || height > cfg.ThresholdH)
}

// CalculateTiles computes the ordered tile grid for an image of the given
// dimensions, iterated y-major then x-major (spec.md §4.3).
func CalculateTiles(width, height int, cfg Config) []Tile {
	step := cfg.TileSize - cfg.Overlap

	tilesX := ceilDiv(width-cfg.Overlap, step)
	tilesY := ceilDiv(height-cfg.Overlap, step)

	tiles := make([]Tile, 0, tilesX*tilesY)
	for ty := 0; ty < tilesY; ty++ {
		for tx := 0; tx < tilesX; tx++ {
			x := tx * step
			y := ty * step
			w := minInt(cfg.TileSize, width-x)
			h := minInt(cfg.TileSize, height-y)

			// Output anchor excludes the leading overlap for non-border
			// tiles: the region written by this tile has no counterpart
			// from any earlier tile, so overlaps are never double-written.
			ex, ey := x, y
			srcOffX, srcOffY := 0, 0
			if tx != 0 {
				ex = x + cfg.Overlap
				srcOffX = cfg.Overlap * cfg.ScaleFactor
			} else {
				ex = 0
			}
			if ty != 0 {
				ey = y + cfg.Overlap
				srcOffY = cfg.Overlap * cfg.ScaleFactor
			} else {
				ey = 0
			}

			tiles = append(tiles, Tile{
				X: x, Y: y, Width: w, Height: h,
				OutX:       ex * cfg.ScaleFactor,
				OutY:       ey * cfg.ScaleFactor,
				SrcOffsetX: srcOffX,
				SrcOffsetY: srcOffY,
			})
		}
	}
	return tiles
}

// ExtractTile copies tile.Height rows of tile.Width*3 bytes out of src,
// starting at (tile.X, tile.Y).
func ExtractTile(src *raster.RGB, tile Tile) *raster.RGB {
	out := raster.New(tile.Width, tile.Height)
	for row := 0; row < tile.Height; row++ {
		srcOff := src.At(tile.X, tile.Y+row)
		dstOff := out.At(0, row)
		n := tile.Width * raster.Channels
		copy(out.Pix[dstOff:dstOff+n], src.Pix[srcOff:srcOff+n])
	}
	return out
}

// BlendTile copies tile's inference output into out starting at
// (tile.OutX, tile.OutY), first skipping tile.SrcOffsetX/Y rows and columns
// off the leading edge of tileRGB — the overlap this tile's neighbour
// already owns — then clamping rows/columns that would fall outside out.
// No alpha blending happens here — overlap avoidance is purely geometric,
// handled by CalculateTiles's output-anchor convention plus this offset.
func BlendTile(tileRGB *raster.RGB, tile Tile, out *raster.RGB) {
	copyWidth := tileRGB.Width - tile.SrcOffsetX
	copyHeight := tileRGB.Height - tile.SrcOffsetY
	if tile.OutX+copyWidth > out.Width {
		copyWidth = out.Width - tile.OutX
	}
	if tile.OutY+copyHeight > out.Height {
		copyHeight = out.Height - tile.OutY
	}
	if copyWidth <= 0 || copyHeight <= 0 {
		return
	}

	for row := 0; row < copyHeight; row++ {
		srcOff := tileRGB.At(tile.SrcOffsetX, tile.SrcOffsetY+row)
		dstOff := out.At(tile.OutX, tile.OutY+row)
		n := copyWidth * raster.Channels
		copy(out.Pix[dstOff:dstOff+n], tileRGB.Pix[srcOff:srcOff+n])
	}
}

func ceilDiv(a, b int) int {
	if a <= 0 {
		return 1
	}
	return (a + b - 1) / b
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
