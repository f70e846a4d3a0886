package imaging

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"os"

	"github.com/disintegration/imaging"

	"github.com/ironsheep/file-tools/internal/errs"
)

// DefaultQuality is used when EncodeOptions.Quality is zero.
const DefaultQuality = 80

// EncodeOptions carries format-specific encoding parameters.
type EncodeOptions struct {
	// Quality applies to JPEG and WebP (1-100). 0 selects DefaultQuality.
	Quality int

	// Compress selects the smallest lossless PNG encoding.
	Compress bool
}

func (o EncodeOptions) quality() int {
	if o.Quality <= 0 {
		return DefaultQuality
	}
	if o.Quality > 100 {
		return 100
	}
	return o.Quality
}

// Encode serialises img in the given format.
//
// JPEG has no alpha channel, so transparent pixels are composited onto
// white first; otherwise they would come out black.
func Encode(img image.Image, format Format, opts EncodeOptions) ([]byte, error) {
	var buf bytes.Buffer
	var err error

	switch format {
	case FormatPNG:
		level := png.DefaultCompression
		if opts.Compress {
			level = png.BestCompression
		}
		err = imaging.Encode(&buf, img, imaging.PNG, imaging.PNGCompressionLevel(level))
	case FormatJPEG:
		err = imaging.Encode(&buf, Flatten(img, color.White), imaging.JPEG, imaging.JPEGQuality(opts.quality()))
	case FormatGIF:
		err = imaging.Encode(&buf, img, imaging.GIF)
	case FormatWebP:
		return encodeWebP(img, opts.quality())
	default:
		return nil, errs.New(errs.CategoryEncode, "imaging.encode", fmt.Errorf("%w: %q", errs.ErrUnsupportedFormat, format))
	}
	if err != nil {
		return nil, errs.Wrap(errs.CategoryEncode, "imaging.encode", fmt.Errorf("failed to encode %s: %w", format, err))
	}
	return buf.Bytes(), nil
}

// Save encodes img and writes it to path.
func Save(ctx context.Context, img image.Image, path string, format Format, opts EncodeOptions) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := Encode(img, format, opts)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return errs.Wrap(errs.CategoryStorage, "imaging.save", err)
	}
	return nil
}

// Flatten composites img onto an opaque background of color bg.
func Flatten(img image.Image, bg color.Color) *image.NRGBA {
	b := img.Bounds()
	canvas := imaging.New(b.Dx(), b.Dy(), bg)
	return imaging.Overlay(canvas, img, image.Pt(0, 0), 1.0)
}
