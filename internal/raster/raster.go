// Package raster holds the uncompressed RGB image buffer that flows between
// the codec adapter, the tiling engine, and the inference runtime.
package raster

// Channels is fixed: every raster in this module is 3-channel RGB, 8 bits
// per sample, row-major.
const Channels = 3

// RGB is an uncompressed 8-bit, 3-channel, row-major image buffer.
//
// Invariant: len(Pix) == Width*Height*Channels.
type RGB struct {
	Width  int
	Height int
	Pix    []byte
}

// New allocates a zero-initialised raster of the given dimensions.
func New(width, height int) *RGB {
	return &RGB{
		Width:  width,
		Height: height,
		Pix:    make([]byte, width*height*Channels),
	}
}

// Valid reports whether the buffer length matches the declared dimensions.
func (r *RGB) Valid() bool {
	return r != nil && len(r.Pix) == r.Width*r.Height*Channels
}

// At returns the byte offset of pixel (x, y) within Pix.
func (r *RGB) At(x, y int) int {
	return (y*r.Width + x) * Channels
}

// DefaultPadding is the edge-replicate padding applied before inference to
// absorb the network's boundary ringing artefacts (spec.md §4.2).
const DefaultPadding = 18

// Pad returns a new raster of size (W+2p, H+2p) where each output pixel
// (x, y) is src.clamp(x-p, y-p): edge-replicate padding. p <= 0 is a no-op
// that returns src unchanged.
func Pad(src *RGB, p int) *RGB {
	if p <= 0 || src.Width <= 0 || src.Height <= 0 {
		return src
	}

	out := New(src.Width+2*p, src.Height+2*p)
	maxX := src.Width - 1
	maxY := src.Height - 1

	for y := 0; y < out.Height; y++ {
		srcY := clamp(y-p, 0, maxY)
		for x := 0; x < out.Width; x++ {
			srcX := clamp(x-p, 0, maxX)
			dst := out.At(x, y)
			s := src.At(srcX, srcY)
			copy(out.Pix[dst:dst+Channels], src.Pix[s:s+Channels])
		}
	}
	return out
}

// CropCenter extracts the centred (width, height) rectangle from src,
// offsetting by min(p, maxOffset) along each axis so an over-sized crop
// request degrades gracefully instead of going out of bounds. This is the
// exact inverse of Pad for p == the padding originally applied, and is used
// both to undo Pad itself and to strip the scaled padding a tile's inference
// pass leaves behind (spec.md §4.4 step 4c / step 5).
func CropCenter(src *RGB, width, height, p int) *RGB {
	if width >= src.Width && height >= src.Height {
		return src
	}

	maxOffsetX := maxInt(0, src.Width-width)
	maxOffsetY := maxInt(0, src.Height-height)
	startX := minInt(p, maxOffsetX)
	startY := minInt(p, maxOffsetY)

	out := New(width, height)
	for y := 0; y < height; y++ {
		srcRow := src.At(startX, startY+y)
		dstRow := out.At(0, y)
		n := width * Channels
		copy(out.Pix[dstRow:dstRow+n], src.Pix[srcRow:srcRow+n])
	}
	return out
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
