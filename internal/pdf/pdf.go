package pdf

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/lucasb-eyer/go-colorful"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"

	"github.com/ironsheep/file-tools/internal/errs"
)

var configOnce sync.Once

// newConfig returns a fresh pdfcpu configuration. pdfcpu would otherwise
// create a config directory under the user's home on first use.
func newConfig() *model.Configuration {
	configOnce.Do(api.DisableConfigDir)
	return model.NewDefaultConfiguration()
}

// Info describes a PDF file.
type Info struct {
	Pages         int   `json:"pages"`
	Valid         bool  `json:"valid"`
	FileSizeBytes int64 `json:"file_size_bytes"`
}

// PageCount returns the number of pages in the PDF at path.
func PageCount(ctx context.Context, path string) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	n, err := api.PageCountFile(path)
	if err != nil {
		return 0, errs.Wrap(errs.CategoryPDF, "pdf.pagecount", fmt.Errorf("failed to read PDF: %w", err))
	}
	return n, nil
}

// Inspect returns page count, validity and size of the PDF at path.
// Validity uses pdfcpu's relaxed validation, which tolerates the common
// deviations from the PDF standard that most viewers accept.
func Inspect(ctx context.Context, path string) (*Info, error) {
	stat, err := os.Stat(path)
	if err != nil {
		return nil, errs.Wrap(errs.CategoryStorage, "pdf.inspect", err)
	}
	pages, err := PageCount(ctx, path)
	if err != nil {
		return nil, err
	}

	conf := newConfig()
	conf.ValidationMode = model.ValidationRelaxed

	return &Info{
		Pages:         pages,
		Valid:         api.ValidateFile(path, conf) == nil,
		FileSizeBytes: stat.Size(),
	}, nil
}

// Combine merges inputs, in order, into a new PDF at out.
func Combine(ctx context.Context, inputs []string, out string) error {
	if len(inputs) < 2 {
		return errs.Invalid("At least 2 PDF files are required")
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := api.MergeCreateFile(inputs, out, false, newConfig()); err != nil {
		return errs.Wrap(errs.CategoryPDF, "pdf.combine", fmt.Errorf("failed to combine PDFs: %w", err))
	}
	return nil
}

// Split writes pages start..end (1-based, inclusive) of in to out.
func Split(ctx context.Context, in, out string, start, end int) error {
	if start < 1 || end < start {
		return errs.Invalid("Invalid page range %d-%d", start, end)
	}
	pages, err := PageCount(ctx, in)
	if err != nil {
		return err
	}
	if end > pages {
		return errs.Invalid("Page range %d-%d exceeds document length of %d pages", start, end, pages)
	}

	if err := ctx.Err(); err != nil {
		return err
	}
	sel := []string{fmt.Sprintf("%d-%d", start, end)}
	if err := api.TrimFile(in, out, sel, newConfig()); err != nil {
		return errs.Wrap(errs.CategoryPDF, "pdf.split", fmt.Errorf("failed to split PDF: %w", err))
	}
	return nil
}

// ValidRotation reports whether degrees is an accepted clockwise rotation.
func ValidRotation(degrees int) bool {
	return degrees == 90 || degrees == 180 || degrees == 270
}

// Rotate rotates every page of in clockwise by degrees and writes out.
func Rotate(ctx context.Context, in, out string, degrees int) error {
	if !ValidRotation(degrees) {
		return errs.Invalid("Invalid rotation. Must be 90, 180, or 270 degrees")
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := api.RotateFile(in, out, degrees, nil, newConfig()); err != nil {
		return errs.Wrap(errs.CategoryPDF, "pdf.rotate", fmt.Errorf("failed to rotate PDF: %w", err))
	}
	return nil
}

// WatermarkOptions describes a diagonal text stamp.
type WatermarkOptions struct {
	Text     string
	Opacity  float64 // 0 < Opacity <= 1
	Color    string  // hex, e.g. "#808080"
	FontSize int     // points
}

// DefaultWatermark holds the styling used when a request leaves it unset.
var DefaultWatermark = WatermarkOptions{Opacity: 0.3, Color: "#808080", FontSize: 48}

// Validate rejects unusable options as input errors.
func (o WatermarkOptions) Validate() error {
	if strings.TrimSpace(o.Text) == "" {
		return errs.Invalid("No watermark text provided")
	}
	if o.Opacity <= 0 || o.Opacity > 1 {
		return errs.Invalid("Opacity must be greater than 0 and at most 1")
	}
	if o.FontSize < 1 || o.FontSize > 500 {
		return errs.Invalid("Font size must be between 1 and 500")
	}
	if _, err := colorful.Hex(o.Color); err != nil {
		return errs.Invalid("Invalid color %q, expected #RRGGBB", o.Color)
	}
	return nil
}

// description renders the options in pdfcpu's watermark description syntax.
func (o WatermarkOptions) description() string {
	c, _ := colorful.Hex(o.Color)
	return fmt.Sprintf("fontname:Helvetica, points:%d, scalefactor:1 abs, rotation:45, opacity:%.2f, fillcolor:%s",
		o.FontSize, o.Opacity, c.Hex())
}

// Watermark stamps opts.Text on every page of in and writes out.
func Watermark(ctx context.Context, in, out string, opts WatermarkOptions) error {
	if err := opts.Validate(); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	err := api.AddTextWatermarksFile(in, out, nil, true, opts.Text, opts.description(), newConfig())
	if err != nil {
		return errs.Wrap(errs.CategoryPDF, "pdf.watermark", fmt.Errorf("failed to add watermark: %w", err))
	}
	return nil
}

// Optimize rewrites in with deduplicated resources and compressed streams.
func Optimize(ctx context.Context, in, out string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := api.OptimizeFile(in, out, newConfig()); err != nil {
		return errs.Wrap(errs.CategoryPDF, "pdf.optimize", fmt.Errorf("failed to compress PDF: %w", err))
	}
	return nil
}

// FromImages creates a PDF at out with one page per image. Each page takes
// the dimensions of its image.
func FromImages(ctx context.Context, images []string, out string) error {
	if len(images) == 0 {
		return errs.Invalid("No images provided")
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	imp := pdfcpu.DefaultImportConfig()
	if err := api.ImportImagesFile(images, out, imp, newConfig()); err != nil {
		return errs.Wrap(errs.CategoryPDF, "pdf.import", fmt.Errorf("failed to convert image to PDF: %w", err))
	}
	return nil
}
