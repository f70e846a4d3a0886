package imaging

import (
	"context"
	"fmt"
	"image"
	"image/color"
	_ "image/gif"  // Register GIF format decoder
	_ "image/jpeg" // Register JPEG format decoder
	_ "image/png"  // Register PNG format decoder
	"os"
	"strings"
	"sync/atomic"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/webp" // Register WebP format decoder

	"github.com/ironsheep/file-tools/internal/errs"
)

// Format identifies an image encoding.
type Format string

const (
	FormatPNG  Format = "png"
	FormatJPEG Format = "jpeg"
	FormatGIF  Format = "gif"
	FormatWebP Format = "webp"
)

// MimeType returns the media type for f.
func (f Format) MimeType() string {
	return "image/" + string(f)
}

// ParseFormat maps a user-supplied format or extension ("jpg", "PNG",
// ".webp") to a Format.
func ParseFormat(s string) (Format, error) {
	switch strings.TrimPrefix(strings.ToLower(s), ".") {
	case "png":
		return FormatPNG, nil
	case "jpg", "jpeg":
		return FormatJPEG, nil
	case "gif":
		return FormatGIF, nil
	case "webp":
		return FormatWebP, nil
	}
	return "", fmt.Errorf("%w: %q", errs.ErrUnsupportedFormat, s)
}

// DefaultMaxPixels is the decoded pixel budget used until SetMaxPixels is
// called: 100 megapixels, about 400 MB as 8-bit RGBA.
const DefaultMaxPixels int64 = 100_000_000

var maxPixels atomic.Int64

func init() { maxPixels.Store(DefaultMaxPixels) }

// SetMaxPixels sets the largest width*height that Load decodes and Resize
// produces. Values below 1 restore DefaultMaxPixels.
func SetMaxPixels(n int64) {
	if n < 1 {
		n = DefaultMaxPixels
	}
	maxPixels.Store(n)
}

// MaxPixels returns the current pixel budget.
func MaxPixels() int64 { return maxPixels.Load() }

// checkPixels rejects a width x height raster above the pixel budget.
func checkPixels(width, height int) error {
	if limit := MaxPixels(); int64(width)*int64(height) > limit {
		return errs.Invalid("Image of %dx%d pixels exceeds the limit of %d pixels", width, height, limit)
	}
	return nil
}

// Load decodes the image at path. JPEG EXIF orientation is applied so the
// returned pixels are upright.
//
// The header is read first and images above MaxPixels are rejected as
// input errors before any pixel memory is allocated.
func Load(ctx context.Context, path string) (image.Image, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	cfg, _, err := decodeConfig(path)
	if err != nil {
		return nil, errs.Wrap(errs.CategoryDecode, "imaging.load", fmt.Errorf("failed to decode image: %w", err))
	}
	if err := checkPixels(cfg.Width, cfg.Height); err != nil {
		return nil, err
	}

	img, err := imaging.Open(path, imaging.AutoOrientation(true))
	if err != nil {
		return nil, errs.Wrap(errs.CategoryDecode, "imaging.load", fmt.Errorf("failed to decode image: %w", err))
	}
	return img, nil
}

func decodeConfig(path string) (image.Config, string, error) {
	f, err := os.Open(path)
	if err != nil {
		return image.Config{}, "", err
	}
	defer f.Close()
	return image.DecodeConfig(f)
}

// ImageInfo contains metadata about an image file.
type ImageInfo struct {
	// Width is the image width in pixels.
	Width int `json:"width"`

	// Height is the image height in pixels.
	Height int `json:"height"`

	// Format is the format detected from the file contents: "png",
	// "jpeg", "gif" or "webp".
	Format string `json:"format"`

	// MimeType is the media type matching Format, e.g. "image/png".
	MimeType string `json:"mime_type"`

	// ColorDepth indicates the bit depth per channel: "8-bit" or "16-bit".
	ColorDepth string `json:"color_depth"`

	// HasAlpha indicates whether the image has an alpha channel.
	HasAlpha bool `json:"has_alpha"`

	// FileSizeBytes is the size of the image file on disk in bytes.
	FileSizeBytes int64 `json:"file_size_bytes"`
}

// LoadImageInfo returns metadata about the image at path.
func LoadImageInfo(ctx context.Context, path string) (*ImageInfo, error) {
	_, info, err := LoadWithInfo(ctx, path)
	return info, err
}

// LoadWithInfo decodes the image at path and returns it together with its
// metadata, so callers that need both decode once.
//
// The format is sniffed from the file header rather than the extension,
// so a PNG saved as "photo.jpg" reports "png". Color depth and alpha are
// determined by the decoded Go image type:
//   - *image.RGBA64, *image.NRGBA64, *image.Gray16 -> "16-bit"
//   - *image.RGBA, *image.NRGBA, *image.RGBA64, *image.NRGBA64 -> alpha
//   - *image.Paletted -> alpha when any palette entry is not opaque
func LoadWithInfo(ctx context.Context, path string) (image.Image, *ImageInfo, error) {
	stat, err := os.Stat(path)
	if err != nil {
		return nil, nil, errs.Wrap(errs.CategoryStorage, "imaging.info", fmt.Errorf("failed to stat file: %w", err))
	}

	format, err := DetectFormat(path)
	if err != nil {
		return nil, nil, err
	}

	img, err := Load(ctx, path)
	if err != nil {
		return nil, nil, err
	}

	hasAlpha := false
	colorDepth := "8-bit"
	switch m := img.(type) {
	case *image.RGBA, *image.NRGBA:
		hasAlpha = true
	case *image.RGBA64, *image.NRGBA64:
		hasAlpha = true
		colorDepth = "16-bit"
	case *image.Gray16:
		colorDepth = "16-bit"
	case *image.Paletted:
		hasAlpha = paletteHasAlpha(m.Palette)
	}

	bounds := img.Bounds()
	return img, &ImageInfo{
		Width:         bounds.Dx(),
		Height:        bounds.Dy(),
		Format:        string(format),
		MimeType:      format.MimeType(),
		ColorDepth:    colorDepth,
		HasAlpha:      hasAlpha,
		FileSizeBytes: stat.Size(),
	}, nil
}

func paletteHasAlpha(p color.Palette) bool {
	for _, c := range p {
		if _, _, _, a := c.RGBA(); a < 0xffff {
			return true
		}
	}
	return false
}

// DetectFormat sniffs the encoding of the image at path from its header.
func DetectFormat(path string) (Format, error) {
	_, name, err := decodeConfig(path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", errs.Wrap(errs.CategoryStorage, "imaging.detect", fmt.Errorf("failed to open image: %w", err))
		}
		return "", errs.Wrap(errs.CategoryDecode, "imaging.detect", fmt.Errorf("failed to read image header: %w", err))
	}
	format, err := ParseFormat(name)
	if err != nil {
		return "", errs.Wrap(errs.CategoryDecode, "imaging.detect", err)
	}
	return format, nil
}
