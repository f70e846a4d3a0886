package pdf

import (
	"context"
	"fmt"
	"image/png"
	"os"

	"github.com/gen2brain/go-fitz"

	"github.com/ironsheep/file-tools/internal/errs"
)

const (
	MinDPI = 36
	MaxDPI = 600
)

// RenderPage rasterizes one page (1-based) of the PDF at in with MuPDF and
// writes it to out as PNG.
func RenderPage(ctx context.Context, in, out string, page, dpi int) error {
	if dpi < MinDPI || dpi > MaxDPI {
		return errs.Invalid("DPI must be between %d and %d", MinDPI, MaxDPI)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	doc, err := fitz.New(in)
	if err != nil {
		return errs.Wrap(errs.CategoryPDF, "pdf.render", fmt.Errorf("failed to open PDF: %w", err))
	}
	defer doc.Close()

	n := doc.NumPage()
	if n == 0 {
		return errs.New(errs.CategoryPDF, "pdf.render", fmt.Errorf("document has no pages"))
	}
	if page < 1 || page > n {
		return errs.Invalid("Page %d out of range, document has %d pages", page, n)
	}

	img, err := doc.ImageDPI(page-1, float64(dpi))
	if err != nil {
		return errs.Wrap(errs.CategoryPDF, "pdf.render", fmt.Errorf("failed to render page %d: %w", page, err))
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	f, err := os.Create(out)
	if err != nil {
		return errs.Wrap(errs.CategoryStorage, "pdf.render", err)
	}
	defer f.Close()

	if err := png.Encode(f, img); err != nil {
		return errs.Wrap(errs.CategoryEncode, "pdf.render", fmt.Errorf("failed to encode PNG: %w", err))
	}
	return nil
}
