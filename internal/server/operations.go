package server

import "github.com/ironsheep/file-tools/internal/workspace"

// Param describes one form field accepted by an operation.
type Param struct {
	Name        string      `json:"name"`
	Type        string      `json:"type"` // integer, number, string, boolean
	Description string      `json:"description"`
	Default     interface{} `json:"default,omitempty"`
	Required    bool        `json:"required"`
}

// Operation is a catalogue entry for one conversion endpoint. The router,
// the upload checks and GET /operations are all built from these entries.
type Operation struct {
	Name        string   `json:"name"`
	Path        string   `json:"path"`
	Description string   `json:"description"`
	Field       string   `json:"field"` // multipart field carrying the upload(s)
	Multiple    bool     `json:"multiple,omitempty"`
	Extensions  []string `json:"extensions"`
	Params      []Param  `json:"params"`

	// invalidType is the message returned when an upload has an
	// extension outside Extensions.
	invalidType string
}

// Operation names.
const (
	OpConvert          = "convert"
	OpRemoveBackground = "remove_background"
	OpCombinePDF       = "combine_pdf"
	OpSplitPDF         = "split_pdf"
	OpRotatePDF        = "rotate_pdf"
	OpAddWatermark     = "add_watermark"
	OpCompressPDF      = "compress_pdf"
	OpResizeImage      = "resize_image"
	OpCropImage        = "crop_image"
	OpConvertImage     = "convert_image"
	OpCompressImage    = "compress_image"
	OpImageToText      = "image_to_text"
	OpInfo             = "info"
)

var (
	pdfExts    = []string{"pdf"}
	imageExts  = []string{"png", "jpg", "jpeg", "webp"}
	invalidPDF = "Invalid file type. Only PDF files are allowed"
	invalidImg = "Invalid file type. Only PNG, JPG, JPEG, and WEBP files are allowed"
)

// Operations returns the operation catalogue. Parameter defaults that come
// from configuration are filled in from d.
func Operations(d Defaults) []Operation {
	return []Operation{
		{
			Name:        OpConvert,
			Path:        "/convert",
			Description: "Convert a PDF page to PNG, or a PNG/JPEG image to a single-page PDF.",
			Field:       "file",
			Extensions:  []string{"pdf", "png", "jpg", "jpeg"},
			invalidType: "File type not supported",
			Params: []Param{
				{Name: "page", Type: "integer", Description: "1-based page to rasterize (PDF input only)", Default: 1},
				{Name: "dpi", Type: "integer", Description: "Rasterization resolution (PDF input only), 36-600", Default: d.DPI},
			},
		},
		{
			Name:        OpRemoveBackground,
			Path:        "/remove-background",
			Description: "Make the background connected to the image border transparent. Output is always PNG.",
			Field:       "file",
			Extensions:  imageExts,
			invalidType: "File type not supported. Please upload PNG, JPG, or WEBP",
			Params: []Param{
				{Name: "tolerance", Type: "number", Description: "Maximum Lab distance from the border color, 0 < t < 1", Default: d.Tolerance},
				{Name: "feather", Type: "number", Description: "Gaussian blur radius for the alpha edge, >= 0", Default: d.Feather},
			},
		},
		{
			Name:        OpCombinePDF,
			Path:        "/combine-pdf",
			Description: "Merge two or more PDFs in upload order.",
			Field:       "files",
			Multiple:    true,
			Extensions:  pdfExts,
			invalidType: invalidPDF,
		},
		{
			Name:        OpSplitPDF,
			Path:        "/split-pdf",
			Description: "Extract an inclusive page range into a new PDF.",
			Field:       "file",
			Extensions:  pdfExts,
			invalidType: invalidPDF,
			Params: []Param{
				{Name: "start_page", Type: "integer", Description: "First page, 1-based", Default: 1},
				{Name: "end_page", Type: "integer", Description: "Last page, inclusive", Default: 1},
			},
		},
		{
			Name:        OpRotatePDF,
			Path:        "/rotate-pdf",
			Description: "Rotate every page clockwise.",
			Field:       "file",
			Extensions:  pdfExts,
			invalidType: invalidPDF,
			Params: []Param{
				{Name: "rotation", Type: "integer", Description: "90, 180 or 270", Default: 90},
			},
		},
		{
			Name:        OpAddWatermark,
			Path:        "/add-watermark",
			Description: "Stamp diagonal text on every page.",
			Field:       "file",
			Extensions:  pdfExts,
			invalidType: invalidPDF,
			Params: []Param{
				{Name: "watermark_text", Type: "string", Description: "Text to stamp", Required: true},
				{Name: "opacity", Type: "number", Description: "0 < opacity <= 1", Default: 0.3},
				{Name: "color", Type: "string", Description: "Hex fill color", Default: "#808080"},
				{Name: "font_size", Type: "integer", Description: "Font size in points", Default: 48},
			},
		},
		{
			Name:        OpCompressPDF,
			Path:        "/compress-pdf",
			Description: "Optimize a PDF by deduplicating resources and compressing streams.",
			Field:       "file",
			Extensions:  pdfExts,
			invalidType: invalidPDF,
		},
		{
			Name:        OpResizeImage,
			Path:        "/resize-image",
			Description: "Resize an image with Lanczos resampling. Output keeps the input format.",
			Field:       "file",
			Extensions:  imageExts,
			invalidType: invalidImg,
			Params: []Param{
				{Name: "width", Type: "integer", Description: "Target width in pixels"},
				{Name: "height", Type: "integer", Description: "Target height in pixels"},
				{Name: "maintain_aspect", Type: "boolean", Description: "Fit inside width x height keeping the aspect ratio", Default: true},
			},
		},
		{
			Name:        OpCropImage,
			Path:        "/crop-image",
			Description: "Crop an image to a pixel box. Right and bottom are exclusive.",
			Field:       "file",
			Extensions:  imageExts,
			invalidType: invalidImg,
			Params: []Param{
				{Name: "left", Type: "integer", Description: "Left edge", Required: true},
				{Name: "top", Type: "integer", Description: "Top edge", Required: true},
				{Name: "right", Type: "integer", Description: "Right edge (exclusive)", Required: true},
				{Name: "bottom", Type: "integer", Description: "Bottom edge (exclusive)", Required: true},
			},
		},
		{
			Name:        OpConvertImage,
			Path:        "/convert-image",
			Description: "Re-encode an image as PNG, JPEG or WebP.",
			Field:       "file",
			Extensions:  imageExts,
			invalidType: invalidImg,
			Params: []Param{
				{Name: "format", Type: "string", Description: "png, jpg, jpeg or webp", Required: true},
			},
		},
		{
			Name:        OpCompressImage,
			Path:        "/compress-image",
			Description: "Re-encode an image at a lower quality. PNG is compressed losslessly.",
			Field:       "file",
			Extensions:  imageExts,
			invalidType: invalidImg,
			Params: []Param{
				{Name: "quality", Type: "integer", Description: "1-100", Default: d.Quality},
			},
		},
		{
			Name:        OpImageToText,
			Path:        "/image-to-text",
			Description: "Extract text from an image with Tesseract OCR.",
			Field:       "file",
			Extensions:  []string{"png", "jpg", "jpeg"},
			invalidType: "Invalid file type. Only PNG, JPG, and JPEG files are allowed",
			Params: []Param{
				{Name: "language", Type: "string", Description: "Tesseract language code, e.g. eng or eng+deu", Default: d.Language},
			},
		},
		{
			Name:        OpInfo,
			Path:        "/info",
			Description: "Report page count for PDFs, or dimensions, format and dominant colors for images, as JSON.",
			Field:       "file",
			Extensions:  []string{"pdf", "png", "jpg", "jpeg", "webp"},
			invalidType: "File type not supported",
		},
	}
}

// Defaults are the configuration-driven parameter defaults.
type Defaults struct {
	DPI       int
	Quality   int
	Tolerance float64
	Feather   float64
	Language  string
}

// accepts reports whether filename has one of the operation's extensions.
func (op Operation) accepts(filename string) bool {
	return workspace.HasExt(filename, op.Extensions)
}
