package imaging

import (
	"context"
	"image"
	"image/color"
	"image/jpeg"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ironsheep/file-tools/internal/errs"
)

func TestLoad(t *testing.T) {
	imgPath := createTestImage(t, 100, 80, color.RGBA{255, 0, 0, 255})

	img, err := Load(context.Background(), imgPath)
	require.NoError(t, err)

	bounds := img.Bounds()
	assert.Equal(t, 100, bounds.Dx())
	assert.Equal(t, 80, bounds.Dy())
}

func TestLoad_NonExistent(t *testing.T) {
	_, err := Load(context.Background(), "/nonexistent/path/to/image.png")
	require.Error(t, err)
	assert.True(t, errs.IsCategory(err, errs.CategoryDecode))
}

func TestLoad_InvalidImage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "invalid.png")
	require.NoError(t, os.WriteFile(path, []byte("not an image"), 0o644))

	_, err := Load(context.Background(), path)
	assert.Error(t, err)
}

func TestLoad_CanceledContext(t *testing.T) {
	imgPath := createTestImage(t, 10, 10, color.White)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Load(ctx, imgPath)
	assert.Error(t, err)
}

func TestLoad_AboveMaxPixels(t *testing.T) {
	imgPath := createTestImage(t, 100, 80, color.White)

	SetMaxPixels(100 * 79)
	t.Cleanup(func() { SetMaxPixels(DefaultMaxPixels) })

	_, err := Load(context.Background(), imgPath)
	require.Error(t, err)
	assert.True(t, errs.IsCategory(err, errs.CategoryInput))
	assert.Contains(t, err.Error(), "100x80")

	SetMaxPixels(100 * 80)
	_, err = Load(context.Background(), imgPath)
	assert.NoError(t, err)
}

func TestSetMaxPixels_NonPositiveRestoresDefault(t *testing.T) {
	SetMaxPixels(10)
	SetMaxPixels(0)
	assert.Equal(t, DefaultMaxPixels, MaxPixels())
}

func TestLoadImageInfo(t *testing.T) {
	imgPath := createTestImage(t, 200, 150, color.RGBA{255, 128, 64, 255})

	info, err := LoadImageInfo(context.Background(), imgPath)
	require.NoError(t, err)

	assert.Equal(t, 200, info.Width)
	assert.Equal(t, 150, info.Height)
	assert.Equal(t, "png", info.Format)
	assert.Equal(t, "image/png", info.MimeType)
	assert.Equal(t, "8-bit", info.ColorDepth)
	assert.Positive(t, info.FileSizeBytes)
}

func TestLoadWithInfo_ReturnsDecodedImage(t *testing.T) {
	imgPath := createTestImage(t, 30, 20, color.RGBA{0, 0, 255, 255})

	img, info, err := LoadWithInfo(context.Background(), imgPath)
	require.NoError(t, err)
	require.NotNil(t, img)
	assert.Equal(t, img.Bounds().Dx(), info.Width)
	assert.Equal(t, img.Bounds().Dy(), info.Height)
}

func TestLoadImageInfo_PalettedAlpha(t *testing.T) {
	dir := t.TempDir()

	tests := []struct {
		name    string
		palette color.Palette
		want    bool
	}{
		{"opaque palette", color.Palette{color.Black, color.White}, false},
		{"transparent entry", color.Palette{color.NRGBA{0, 0, 0, 0}, color.White}, true},
		{"translucent entry", color.Palette{color.Black, color.NRGBA{255, 0, 0, 0x80}}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			img := image.NewPaletted(image.Rect(0, 0, 8, 8), tt.palette)
			img.SetColorIndex(1, 1, 1)
			path := filepath.Join(dir, tt.name+".png")
			writePNG(t, path, img)

			info, err := LoadImageInfo(context.Background(), path)
			require.NoError(t, err)
			assert.Equal(t, tt.want, info.HasAlpha)
		})
	}
}

func TestDetectFormat_UsesContentNotExtension(t *testing.T) {
	dir := t.TempDir()

	// A PNG with a .jpg name is still a PNG.
	pngAsJPG := filepath.Join(dir, "photo.jpg")
	writePNG(t, pngAsJPG, image.NewRGBA(image.Rect(0, 0, 10, 10)))

	realJPG := filepath.Join(dir, "real.png")
	f, err := os.Create(realJPG)
	require.NoError(t, err)
	require.NoError(t, jpeg.Encode(f, createInMemoryImage(10, 10, color.Black), nil))
	require.NoError(t, f.Close())

	tests := []struct {
		path string
		want Format
	}{
		{pngAsJPG, FormatPNG},
		{realJPG, FormatJPEG},
	}
	for _, tt := range tests {
		t.Run(filepath.Base(tt.path), func(t *testing.T) {
			got, err := DetectFormat(tt.path)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    Format
		wantErr bool
	}{
		{"png", FormatPNG, false},
		{"PNG", FormatPNG, false},
		{".jpg", FormatJPEG, false},
		{"jpeg", FormatJPEG, false},
		{"webp", FormatWebP, false},
		{"gif", FormatGIF, false},
		{"bmp", "", true},
		{"", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseFormat(tt.in)
			if tt.wantErr {
				assert.ErrorIs(t, err, errs.ErrUnsupportedFormat)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFormat_MimeType(t *testing.T) {
	assert.Equal(t, "image/png", FormatPNG.MimeType())
	assert.Equal(t, "image/jpeg", FormatJPEG.MimeType())
	assert.Equal(t, "image/webp", FormatWebP.MimeType())
}
