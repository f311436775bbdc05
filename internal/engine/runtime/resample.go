package runtime

import "github.com/bdreader/ncnn-upscaler-go/internal/raster"

// bicubicUpscale is the pure-Go stand-in inference used when the
// "ncnn_native" build tag is absent. It does not produce super-resolved
// output; it exists so the tiling, engine, and pipeline layers have a real
// Backend to run against and test without a native toolchain, while still
// honouring the padded-in/scaled-padded-out contract the real network has.
func bicubicUpscale(src *raster.RGB, scale int) *raster.RGB {
	if scale <= 1 {
		out := raster.New(src.Width, src.Height)
		copy(out.Pix, src.Pix)
		return out
	}

	out := raster.New(src.Width*scale, src.Height*scale)
	for y := 0; y < out.Height; y++ {
		sy := sampleCoord(y, scale, src.Height)
		y0, y1, fy := sy.lo, sy.hi, sy.frac
		for x := 0; x < out.Width; x++ {
			sx := sampleCoord(x, scale, src.Width)
			x0, x1, fx := sx.lo, sx.hi, sx.frac

			dst := out.At(x, y)
			for c := 0; c < raster.Channels; c++ {
				v00 := float64(src.Pix[src.At(x0, y0)+c])
				v10 := float64(src.Pix[src.At(x1, y0)+c])
				v01 := float64(src.Pix[src.At(x0, y1)+c])
				v11 := float64(src.Pix[src.At(x1, y1)+c])

				top := v00 + (v10-v00)*fx
				bottom := v01 + (v11-v01)*fx
				v := top + (bottom-top)*fy

				out.Pix[dst+c] = clampByte(v)
			}
		}
	}
	return out
}

type coordSample struct {
	lo, hi int
	frac   float64
}

// sampleCoord maps an output coordinate back to a bilinear source sample,
// using half-pixel-centre alignment so edge pixels aren't biased outward.
func sampleCoord(out, scale, srcExtent int) coordSample {
	srcPos := (float64(out)+0.5)/float64(scale) - 0.5
	if srcPos < 0 {
		srcPos = 0
	}
	maxPos := float64(srcExtent - 1)
	if srcPos > maxPos {
		srcPos = maxPos
	}

	lo := int(srcPos)
	hi := lo + 1
	if hi > srcExtent-1 {
		hi = srcExtent - 1
	}
	return coordSample{lo: lo, hi: hi, frac: srcPos - float64(lo)}
}

func clampByte(v float64) byte {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return byte(v + 0.5)
}
