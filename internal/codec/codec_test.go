package codec

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/bdreader/ncnn-upscaler-go/internal/raster"
)

func checkerboard(w, h int) *raster.RGB {
	img := raster.New(w, h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			off := img.At(x, y)
			if (x+y)%2 == 0 {
				img.Pix[off], img.Pix[off+1], img.Pix[off+2] = 255, 255, 255
			}
		}
	}
	return img
}

func TestPNGRoundTrip(t *testing.T) {
	src := checkerboard(16, 12)

	encoded, err := Encode(src, FormatPNG)
	require.NoError(t, err)

	decoded, err := Decode(encoded)
	require.NoError(t, err)
	require.Equal(t, src.Width, decoded.Width)
	require.Equal(t, src.Height, decoded.Height)
	require.Equal(t, src.Pix, decoded.Pix)
}

func TestParseFormat(t *testing.T) {
	cases := map[string]Format{
		"png":  FormatPNG,
		".PNG": FormatPNG,
		"jpg":  FormatJPEG,
		"jpeg": FormatJPEG,
		"webp": FormatWebP,
	}
	for in, want := range cases {
		got, err := ParseFormat(in)
		require.NoError(t, err)
		require.Equal(t, want, got)
	}

	_, err := ParseFormat("bmp")
	require.Error(t, err)
}

func TestEncodeUnsupportedFormat(t *testing.T) {
	_, err := Encode(checkerboard(2, 2), Format("bmp"))
	require.Error(t, err)
}
