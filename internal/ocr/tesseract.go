package ocr

import (
	"context"
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/otiai10/gosseract/v2"

	"github.com/ironsheep/file-tools/internal/errs"
)

// DefaultLanguage is used when Options.Language is empty.
const DefaultLanguage = "eng"

// languagePattern matches Tesseract language codes such as "eng",
// "chi_sim" or combinations like "eng+deu".
var languagePattern = regexp.MustCompile(`^[a-z_]{3,}(\+[a-z_]{3,})*$`)

// Options configures a recognition run.
type Options struct {
	// Language is a Tesseract language code, e.g. "eng" or "eng+deu".
	Language string

	// TessdataPrefix overrides the directory Tesseract loads language data
	// from. Empty uses the Tesseract default.
	TessdataPrefix string
}

func (o Options) language() string {
	if o.Language == "" {
		return DefaultLanguage
	}
	return o.Language
}

// ValidateLanguage rejects language codes Tesseract could never load.
func ValidateLanguage(lang string) error {
	if !languagePattern.MatchString(lang) {
		return errs.Invalid("Invalid OCR language %q", lang)
	}
	return nil
}

// Result contains the recognized text and the mean word confidence.
type Result struct {
	Text string `json:"text"`

	// Confidence is the mean word confidence (0.0 to 1.0), or 0 when no
	// words were recognized.
	Confidence float64 `json:"confidence"`

	Words int `json:"words"`
}

// ExtractText performs OCR on an image file and returns the recognized
// text. Supported inputs are whatever Leptonica reads: PNG, JPEG, TIFF, BMP.
//
// Word confidences come from Tesseract's RIL_WORD iterator. If the word
// boxes cannot be read the text is still returned with zero confidence.
func ExtractText(ctx context.Context, imagePath string, opts Options) (*Result, error) {
	lang := opts.language()
	if err := ValidateLanguage(lang); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if _, err := os.Stat(imagePath); err != nil {
		return nil, errs.Wrap(errs.CategoryStorage, "ocr.extract", err)
	}

	client := gosseract.NewClient()
	defer client.Close()

	if opts.TessdataPrefix != "" {
		if err := client.SetTessdataPrefix(opts.TessdataPrefix); err != nil {
			return nil, errs.Wrap(errs.CategoryUnavailable, "ocr.extract", fmt.Errorf("failed to set tessdata path: %w", err))
		}
	}
	if err := client.SetLanguage(strings.Split(lang, "+")...); err != nil {
		return nil, errs.Wrap(errs.CategoryUnavailable, "ocr.extract", fmt.Errorf("failed to set language: %w", err))
	}
	if err := client.SetImage(imagePath); err != nil {
		return nil, errs.Wrap(errs.CategoryDecode, "ocr.extract", fmt.Errorf("failed to set image: %w", err))
	}

	text, err := client.Text()
	if err != nil {
		return nil, errs.Wrap(errs.CategoryUnavailable, "ocr.extract", fmt.Errorf("OCR failed: %w", err))
	}

	result := &Result{Text: text}
	boxes, err := client.GetBoundingBoxes(gosseract.RIL_WORD)
	if err != nil {
		return result, nil
	}

	var sum float64
	for _, box := range boxes {
		if strings.TrimSpace(box.Word) == "" {
			continue
		}
		sum += box.Confidence / 100.0
		result.Words++
	}
	if result.Words > 0 {
		result.Confidence = sum / float64(result.Words)
	}
	return result, nil
}

// ExtractTextFile runs OCR on in and writes the recognized text to out.
func ExtractTextFile(ctx context.Context, in, out string, opts Options) (*Result, error) {
	result, err := ExtractText(ctx, in, opts)
	if err != nil {
		return nil, err
	}
	if err := os.WriteFile(out, []byte(result.Text), 0o644); err != nil {
		return nil, errs.Wrap(errs.CategoryStorage, "ocr.write", err)
	}
	return result, nil
}
