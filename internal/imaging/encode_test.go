package imaging

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/jpeg"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncode_JPEGFlattensAlpha(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 8, 8)) // fully transparent

	data, err := Encode(img, FormatJPEG, EncodeOptions{Quality: 90})
	require.NoError(t, err)

	decoded, err := jpeg.Decode(bytes.NewReader(data))
	require.NoError(t, err)

	r, g, b, _ := decoded.At(4, 4).RGBA()
	assert.Greater(t, r>>8, uint32(250), "transparent pixels should become white")
	assert.Greater(t, g>>8, uint32(250))
	assert.Greater(t, b>>8, uint32(250))
}

func TestEncode_JPEGQualityAffectsSize(t *testing.T) {
	img := createPatternImage(200, 200)
	// Add noise so the quality setting matters.
	for i := 0; i < len(img.Pix); i += 7 {
		img.Pix[i] ^= 0x5a
	}

	low, err := Encode(img, FormatJPEG, EncodeOptions{Quality: 10})
	require.NoError(t, err)
	high, err := Encode(img, FormatJPEG, EncodeOptions{Quality: 95})
	require.NoError(t, err)

	assert.Less(t, len(low), len(high))
}

func TestEncode_UnsupportedFormat(t *testing.T) {
	_, err := Encode(createInMemoryImage(4, 4, color.Black), Format("bmp"), EncodeOptions{})
	assert.Error(t, err)
}

func TestEncodeOptions_Quality(t *testing.T) {
	assert.Equal(t, DefaultQuality, EncodeOptions{}.quality())
	assert.Equal(t, 100, EncodeOptions{Quality: 150}.quality())
	assert.Equal(t, 42, EncodeOptions{Quality: 42}.quality())
}

func TestFlatten(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 2, 1))
	img.SetNRGBA(0, 0, color.NRGBA{255, 0, 0, 255})
	img.SetNRGBA(1, 0, color.NRGBA{255, 0, 0, 0})

	flat := Flatten(img, color.White)
	assert.Equal(t, color.NRGBA{255, 0, 0, 255}, flat.NRGBAAt(0, 0))
	assert.Equal(t, color.NRGBA{255, 255, 255, 255}, flat.NRGBAAt(1, 0))
}

func TestSave_WebP(t *testing.T) {
	out := filepath.Join(t.TempDir(), "out.webp")

	err := Save(context.Background(), createPatternImage(32, 32), out, FormatWebP, EncodeOptions{Quality: 75})
	require.NoError(t, err)

	format, err := DetectFormat(out)
	require.NoError(t, err)
	assert.Equal(t, FormatWebP, format)
}
