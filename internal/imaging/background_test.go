package imaging

import (
	"context"
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ironsheep/file-tools/internal/errs"
)

// subjectOnBackground draws a filled square of fg on a bg canvas.
func subjectOnBackground(size, margin int, bg, fg color.Color) *image.RGBA {
	img := createInMemoryImage(size, size, bg)
	for y := margin; y < size-margin; y++ {
		for x := margin; x < size-margin; x++ {
			img.Set(x, y, fg)
		}
	}
	return img
}

func TestRemoveBackground(t *testing.T) {
	img := subjectOnBackground(60, 20, color.White, color.RGBA{200, 0, 0, 255})

	out, err := RemoveBackground(context.Background(), img, BackgroundOptions{Tolerance: 0.12})
	require.NoError(t, err)

	assert.Equal(t, uint8(0), out.NRGBAAt(0, 0).A, "corner should be transparent")
	assert.Equal(t, uint8(0), out.NRGBAAt(59, 59).A)
	assert.Equal(t, uint8(0), out.NRGBAAt(10, 30).A)

	center := out.NRGBAAt(30, 30)
	assert.Equal(t, uint8(255), center.A, "subject should stay opaque")
	assert.Equal(t, uint8(200), center.R)
}

func TestRemoveBackground_Feathered(t *testing.T) {
	img := subjectOnBackground(60, 20, color.White, color.RGBA{0, 0, 0, 255})

	out, err := RemoveBackground(context.Background(), img, BackgroundOptions{Tolerance: 0.12, Feather: 1.0})
	require.NoError(t, err)

	assert.Less(t, out.NRGBAAt(0, 0).A, uint8(5))
	assert.Greater(t, out.NRGBAAt(30, 30).A, uint8(250))
}

func TestRemoveBackground_KeepsEnclosedRegions(t *testing.T) {
	// A white hole inside a black ring is not connected to the border.
	img := subjectOnBackground(60, 10, color.White, color.Black)
	for y := 25; y < 35; y++ {
		for x := 25; x < 35; x++ {
			img.Set(x, y, color.White)
		}
	}

	out, err := RemoveBackground(context.Background(), img, BackgroundOptions{Tolerance: 0.12})
	require.NoError(t, err)

	assert.Equal(t, uint8(0), out.NRGBAAt(2, 2).A)
	assert.Equal(t, uint8(255), out.NRGBAAt(30, 30).A, "enclosed hole should be kept")
}

func TestRemoveBackground_PreservesSourceAlpha(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 30, 30))
	for y := 0; y < 30; y++ {
		for x := 0; x < 30; x++ {
			img.SetNRGBA(x, y, color.NRGBA{255, 255, 255, 255})
		}
	}
	for y := 10; y < 20; y++ {
		for x := 10; x < 20; x++ {
			img.SetNRGBA(x, y, color.NRGBA{0, 0, 255, 128})
		}
	}

	out, err := RemoveBackground(context.Background(), img, BackgroundOptions{Tolerance: 0.12})
	require.NoError(t, err)
	assert.Equal(t, uint8(128), out.NRGBAAt(15, 15).A)
}

func TestBackgroundOptions_Validate(t *testing.T) {
	tests := []struct {
		name string
		opts BackgroundOptions
		ok   bool
	}{
		{"defaults", DefaultBackgroundOptions, true},
		{"zero tolerance", BackgroundOptions{Tolerance: 0}, false},
		{"tolerance one", BackgroundOptions{Tolerance: 1}, false},
		{"negative feather", BackgroundOptions{Tolerance: 0.1, Feather: -1}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.opts.Validate()
			if tt.ok {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.True(t, errs.IsCategory(err, errs.CategoryInput))
		})
	}
}

func TestRemoveBackground_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := RemoveBackground(ctx, createInMemoryImage(10, 10, color.White), DefaultBackgroundOptions)
	assert.ErrorIs(t, err, context.Canceled)
}
