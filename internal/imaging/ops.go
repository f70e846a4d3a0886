package imaging

import (
	"context"
	"path/filepath"

	"github.com/ironsheep/file-tools/internal/errs"
)

// The *File functions are the one-shot transforms behind the HTTP
// endpoints: decode in, apply one operation, encode out. The output format
// is taken from the output path's extension.

// ResizeFile resizes the image at in and writes it to out.
func ResizeFile(ctx context.Context, in, out string, width, height int, keepAspect bool, opts EncodeOptions) error {
	format, err := formatForPath(out)
	if err != nil {
		return err
	}
	img, err := Load(ctx, in)
	if err != nil {
		return err
	}
	resized, err := Resize(img, width, height, keepAspect)
	if err != nil {
		return err
	}
	return Save(ctx, resized, out, format, opts)
}

// CropFile crops the image at in to box and writes it to out.
func CropFile(ctx context.Context, in, out string, box Box, opts EncodeOptions) error {
	format, err := formatForPath(out)
	if err != nil {
		return err
	}
	img, err := Load(ctx, in)
	if err != nil {
		return err
	}
	cropped, err := Crop(img, box)
	if err != nil {
		return err
	}
	return Save(ctx, cropped, out, format, opts)
}

// ConvertFile re-encodes the image at in into the format implied by out.
func ConvertFile(ctx context.Context, in, out string, opts EncodeOptions) error {
	format, err := formatForPath(out)
	if err != nil {
		return err
	}
	img, err := Load(ctx, in)
	if err != nil {
		return err
	}
	return Save(ctx, img, out, format, opts)
}

// CompressFile re-encodes the image at in with the given quality. JPEG and
// WebP are lossy at that quality; PNG is written with best compression and
// the quality is ignored.
func CompressFile(ctx context.Context, in, out string, quality int) error {
	if quality < 1 || quality > 100 {
		return errs.Invalid("Quality must be between 1 and 100")
	}
	format, err := formatForPath(out)
	if err != nil {
		return err
	}
	img, err := Load(ctx, in)
	if err != nil {
		return err
	}
	return Save(ctx, img, out, format, EncodeOptions{Quality: quality, Compress: true})
}

// RemoveBackgroundFile cuts the background out of the image at in and
// writes a PNG to out regardless of out's extension.
func RemoveBackgroundFile(ctx context.Context, in, out string, opts BackgroundOptions) error {
	img, err := Load(ctx, in)
	if err != nil {
		return err
	}
	cut, err := RemoveBackground(ctx, img, opts)
	if err != nil {
		return err
	}
	return Save(ctx, cut, out, FormatPNG, EncodeOptions{})
}

func formatForPath(path string) (Format, error) {
	format, err := ParseFormat(filepath.Ext(path))
	if err != nil {
		return "", errs.New(errs.CategoryInput, "", err)
	}
	return format, nil
}
