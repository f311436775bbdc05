// Package codec adapts compressed image bytes (JPEG/PNG/WebP) to and from
// the uncompressed raster.RGB buffer the tiling and engine layers operate
// on (spec.md §3 "Image codec adapter").
package codec

import (
	"bytes"
	"image"
	"image/jpeg"
	"image/png"
	"io"
	"strings"
	"sync"

	"github.com/HugoSmits86/nativewebp"
	"golang.org/x/image/webp"

	"github.com/bdreader/ncnn-upscaler-go/internal/raster"
	"github.com/bdreader/ncnn-upscaler-go/internal/upserrors"
)

// Format names the three compressed formats this module understands.
type Format string

const (
	FormatJPEG Format = "jpg"
	FormatPNG  Format = "png"
	FormatWebP Format = "webp"
)

// ParseFormat normalises a CLI/flag format string to a Format, returning
// upserrors.ErrFormatUnsupported for anything else.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimPrefix(s, ".")) {
	case "jpg", "jpeg":
		return FormatJPEG, nil
	case "png":
		return FormatPNG, nil
	case "webp":
		return FormatWebP, nil
	default:
		return "", upserrors.Wrapf(upserrors.ErrFormatUnsupported, "format %q", s)
	}
}

// Decode sniffs the container (JPEG/PNG/WebP magic bytes via the standard
// image.Decode registry plus x/image/webp) and returns an RGB raster.
func Decode(data []byte) (*raster.RGB, error) {
	img, format, err := decodeAny(data)
	if err != nil {
		return nil, upserrors.Wrapf(upserrors.ErrDecode, "decode %s image", format)
	}
	return fromImage(img), nil
}

func decodeAny(data []byte) (image.Image, string, error) {
	if img, err := webp.Decode(bytes.NewReader(data)); err == nil {
		return img, "webp", nil
	}
	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, format, err
	}
	return img, format, nil
}

// Encode compresses rgb into the requested format with fixed settings (no
// per-call quality knob): JPEG at quality 90; PNG and WebP take no quality
// setting, and WebP is written by nativewebp's lossless encoder.
func Encode(rgb *raster.RGB, format Format) ([]byte, error) {
	img := toImage(rgb)

	var buf bytes.Buffer
	var err error
	switch format {
	case FormatJPEG:
		err = jpeg.Encode(&buf, img, &jpeg.Options{Quality: 90})
	case FormatPNG:
		err = png.Encode(&buf, img)
	case FormatWebP:
		err = nativewebp.Encode(&buf, img, nil)
	default:
		return nil, upserrors.Wrapf(upserrors.ErrFormatUnsupported, "format %q", format)
	}
	if err != nil {
		return nil, upserrors.Wrapf(upserrors.ErrEncode, "encode %s image", format)
	}
	return buf.Bytes(), nil
}

// fromImage converts any decoded image.Image to an RGB raster, row-parallel
// for large images — the conversion pattern is grounded on the pack's WebP
// rescaler's worker-pool row split, adapted here to plain image.Image
// access instead of YCbCr-plane access.
func fromImage(img image.Image) *raster.RGB {
	bounds := img.Bounds()
	width, height := bounds.Dx(), bounds.Dy()
	out := raster.New(width, height)

	const rowsPerWorker = 64
	if height <= rowsPerWorker {
		convertRows(img, bounds, out, 0, height)
		return out
	}

	var wg sync.WaitGroup
	for y0 := 0; y0 < height; y0 += rowsPerWorker {
		y1 := y0 + rowsPerWorker
		if y1 > height {
			y1 = height
		}
		wg.Add(1)
		go func(y0, y1 int) {
			defer wg.Done()
			convertRows(img, bounds, out, y0, y1)
		}(y0, y1)
	}
	wg.Wait()
	return out
}

func convertRows(img image.Image, bounds image.Rectangle, out *raster.RGB, y0, y1 int) {
	for y := y0; y < y1; y++ {
		srcY := bounds.Min.Y + y
		off := out.At(0, y)
		for x := 0; x < out.Width; x++ {
			r, g, b, _ := img.At(bounds.Min.X+x, srcY).RGBA()
			out.Pix[off] = byte(r >> 8)
			out.Pix[off+1] = byte(g >> 8)
			out.Pix[off+2] = byte(b >> 8)
			off += raster.Channels
		}
	}
}

func toImage(rgb *raster.RGB) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, rgb.Width, rgb.Height))
	for y := 0; y < rgb.Height; y++ {
		src := rgb.At(0, y)
		dst := img.PixOffset(0, y)
		for x := 0; x < rgb.Width; x++ {
			img.Pix[dst] = rgb.Pix[src]
			img.Pix[dst+1] = rgb.Pix[src+1]
			img.Pix[dst+2] = rgb.Pix[src+2]
			img.Pix[dst+3] = 255
			src += raster.Channels
			dst += 4
		}
	}
	return img
}

// DecodeReader is a convenience wrapper for modes that stream from stdin.
func DecodeReader(r io.Reader) (*raster.RGB, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, upserrors.Wrapf(upserrors.ErrIO, "read image stream")
	}
	return Decode(data)
}
