package server

import (
	"context"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"github.com/ironsheep/file-tools/internal/errs"
	"github.com/ironsheep/file-tools/internal/imaging"
	"github.com/ironsheep/file-tools/internal/ocr"
	"github.com/ironsheep/file-tools/internal/pdf"
	"github.com/ironsheep/file-tools/internal/workspace"
)

// request is the per-call state handed to each operation handler.
type request struct {
	c      echo.Context
	ws     *workspace.Workspace
	inputs []string // saved upload paths, in upload order
	names  []string // original upload filenames
	ts     string
}

// result is what an operation produces: either a file to send as an
// attachment or a value to render as JSON.
type result struct {
	path string
	name string
	json interface{}
}

func fileResult(path, name string) *result { return &result{path: path, name: name} }

// operationHandler wraps an operation with the shared upload validation,
// workspace lifecycle and response writing.
//
// The workspace is removed after the response body has been written, so
// nothing from a request outlives it.
func (s *Server) operationHandler(op Operation) echo.HandlerFunc {
	return func(c echo.Context) error {
		files, err := uploads(c, op)
		if err != nil {
			return err
		}

		ws, err := s.workspaces.Create()
		if err != nil {
			return err
		}
		log := s.log.WithFields(logrus.Fields{
			"operation":  op.Name,
			"request_id": c.Response().Header().Get(echo.HeaderXRequestID),
			"workspace":  ws.ID,
		})
		defer func() {
			if err := ws.Cleanup(); err != nil {
				log.WithError(err).Warn("failed to remove workspace")
			}
		}()

		req := &request{c: c, ws: ws, ts: workspace.Timestamp(s.now())}
		for _, fh := range files {
			path, err := ws.SaveUpload(fh)
			if err != nil {
				return err
			}
			req.inputs = append(req.inputs, path)
			req.names = append(req.names, fh.Filename)
		}
		log.WithField("file", strings.Join(req.names, ",")).Info("processing")

		res, err := s.execute(c.Request().Context(), op, req)
		if err != nil {
			return err
		}

		if res.json != nil {
			return c.JSON(http.StatusOK, res.json)
		}
		log.WithField("output", res.name).Info("sending file")
		return c.Attachment(res.path, res.name)
	}
}

// uploads returns the file parts for op, applying the checks every
// endpoint shares: presence, non-empty filename, allowed extension.
func uploads(c echo.Context, op Operation) ([]*multipart.FileHeader, error) {
	form, err := c.MultipartForm()
	if err != nil {
		var he *echo.HTTPError
		if errors.As(err, &he) {
			return nil, he
		}
		return nil, errs.Invalid("No file provided")
	}

	files := form.File[op.Field]
	if len(files) == 0 {
		// Go's multipart reader stores parts with an empty filename as
		// plain values.
		if _, ok := form.Value[op.Field]; ok {
			return nil, errs.Invalid("No file selected")
		}
		if op.Multiple {
			return nil, errs.Invalid("No files uploaded")
		}
		return nil, errs.Invalid("No file provided")
	}

	if op.Multiple {
		if len(files) < 2 {
			return nil, errs.Invalid("At least 2 PDF files are required")
		}
	} else {
		files = files[:1]
	}

	for _, fh := range files {
		if fh.Filename == "" {
			return nil, errs.Invalid("No file selected")
		}
		if !op.accepts(fh.Filename) {
			return nil, errs.Invalid("%s", op.invalidType)
		}
	}
	return files, nil
}

// execute dispatches to the operation's handler.
//
// Each handler:
//  1. Reads form parameters and applies defaults
//  2. Validates them (input errors become 400)
//  3. Calls the imaging, pdf or ocr package
//  4. Returns the output file or JSON value
func (s *Server) execute(ctx context.Context, op Operation, r *request) (*result, error) {
	switch op.Name {
	// PDF and image conversion
	case OpConvert:
		return s.handleConvert(ctx, r)
	case OpRemoveBackground:
		return s.handleRemoveBackground(ctx, r)

	// PDF operations
	case OpCombinePDF:
		return s.handleCombinePDF(ctx, r)
	case OpSplitPDF:
		return s.handleSplitPDF(ctx, r)
	case OpRotatePDF:
		return s.handleRotatePDF(ctx, r)
	case OpAddWatermark:
		return s.handleAddWatermark(ctx, r)
	case OpCompressPDF:
		return s.handleCompressPDF(ctx, r)

	// Image operations
	case OpResizeImage:
		return s.handleResizeImage(ctx, r)
	case OpCropImage:
		return s.handleCropImage(ctx, r)
	case OpConvertImage:
		return s.handleConvertImage(ctx, r)
	case OpCompressImage:
		return s.handleCompressImage(ctx, r)

	// Text and metadata
	case OpImageToText:
		return s.handleImageToText(ctx, r)
	case OpInfo:
		return s.handleInfo(ctx, r)

	default:
		return nil, fmt.Errorf("unknown operation: %s", op.Name)
	}
}

// === Conversion Handlers ===

func (s *Server) handleConvert(ctx context.Context, r *request) (*result, error) {
	in, name := r.inputs[0], r.names[0]
	stem := workspace.Stem(name)

	if workspace.Ext(name) == "pdf" {
		page, err := formInt(r.c, "page", 1)
		if err != nil {
			return nil, err
		}
		dpi, err := formInt(r.c, "dpi", s.cfg.PDF.DPI)
		if err != nil {
			return nil, err
		}
		out := r.ws.OutputPath(stem + ".png")
		if err := pdf.RenderPage(ctx, in, out, page, dpi); err != nil {
			return nil, err
		}
		return fileResult(out, stem+".png"), nil
	}

	out := r.ws.OutputPath(stem + ".pdf")
	if err := pdf.FromImages(ctx, []string{in}, out); err != nil {
		return nil, err
	}
	return fileResult(out, stem+".pdf"), nil
}

func (s *Server) handleRemoveBackground(ctx context.Context, r *request) (*result, error) {
	opts := imaging.BackgroundOptions{}
	var err error
	if opts.Tolerance, err = formFloat(r.c, "tolerance", s.cfg.Background.Tolerance); err != nil {
		return nil, err
	}
	if opts.Feather, err = formFloat(r.c, "feather", s.cfg.Background.Feather); err != nil {
		return nil, err
	}
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	name := workspace.Stem(r.names[0]) + "_nobg.png"
	out := r.ws.OutputPath(name)
	if err := imaging.RemoveBackgroundFile(ctx, r.inputs[0], out, opts); err != nil {
		return nil, err
	}
	return fileResult(out, name), nil
}

// === PDF Handlers ===

func (s *Server) handleCombinePDF(ctx context.Context, r *request) (*result, error) {
	name := fmt.Sprintf("combined_%s.pdf", r.ts)
	out := r.ws.OutputPath(name)
	if err := pdf.Combine(ctx, r.inputs, out); err != nil {
		return nil, err
	}
	return fileResult(out, name), nil
}

func (s *Server) handleSplitPDF(ctx context.Context, r *request) (*result, error) {
	start, err := formInt(r.c, "start_page", 1)
	if err != nil {
		return nil, err
	}
	end, err := formInt(r.c, "end_page", 1)
	if err != nil {
		return nil, err
	}

	name := fmt.Sprintf("split_%d-%d_%s.pdf", start, end, r.ts)
	out := r.ws.OutputPath(name)
	if err := pdf.Split(ctx, r.inputs[0], out, start, end); err != nil {
		return nil, err
	}
	return fileResult(out, name), nil
}

func (s *Server) handleRotatePDF(ctx context.Context, r *request) (*result, error) {
	rotation, err := formInt(r.c, "rotation", 90)
	if err != nil {
		return nil, err
	}

	name := fmt.Sprintf("rotated_%s.pdf", r.ts)
	out := r.ws.OutputPath(name)
	if err := pdf.Rotate(ctx, r.inputs[0], out, rotation); err != nil {
		return nil, err
	}
	return fileResult(out, name), nil
}

func (s *Server) handleAddWatermark(ctx context.Context, r *request) (*result, error) {
	opts := pdf.DefaultWatermark
	opts.Text = strings.TrimSpace(r.c.FormValue("watermark_text"))
	opts.Color = formString(r.c, "color", opts.Color)

	var err error
	if opts.Opacity, err = formFloat(r.c, "opacity", opts.Opacity); err != nil {
		return nil, err
	}
	if opts.FontSize, err = formInt(r.c, "font_size", opts.FontSize); err != nil {
		return nil, err
	}

	name := fmt.Sprintf("watermarked_%s.pdf", r.ts)
	out := r.ws.OutputPath(name)
	if err := pdf.Watermark(ctx, r.inputs[0], out, opts); err != nil {
		return nil, err
	}
	return fileResult(out, name), nil
}

func (s *Server) handleCompressPDF(ctx context.Context, r *request) (*result, error) {
	name := fmt.Sprintf("compressed_%s_%s", r.ts, workspace.SafeFilename(r.names[0]))
	out := r.ws.OutputPath(name)
	if err := pdf.Optimize(ctx, r.inputs[0], out); err != nil {
		return nil, err
	}
	return fileResult(out, name), nil
}

// === Image Handlers ===

func (s *Server) encodeOptions() imaging.EncodeOptions {
	return imaging.EncodeOptions{Quality: s.cfg.Image.DefaultQuality}
}

func (s *Server) handleResizeImage(ctx context.Context, r *request) (*result, error) {
	width, hasWidth, err := optionalInt(r.c, "width")
	if err != nil {
		return nil, err
	}
	height, hasHeight, err := optionalInt(r.c, "height")
	if err != nil {
		return nil, err
	}
	if !hasWidth && !hasHeight {
		return nil, errs.Invalid("Width or height must be specified")
	}
	if (hasWidth && width <= 0) || (hasHeight && height <= 0) {
		return nil, errs.Invalid("Width and height must be positive")
	}
	keepAspect, err := formBool(r.c, "maintain_aspect", true)
	if err != nil {
		return nil, err
	}

	name := fmt.Sprintf("resized_%s_%s", r.ts, workspace.SafeFilename(r.names[0]))
	out := r.ws.OutputPath(name)
	if err := imaging.ResizeFile(ctx, r.inputs[0], out, width, height, keepAspect, s.encodeOptions()); err != nil {
		return nil, err
	}
	return fileResult(out, name), nil
}

func (s *Server) handleCropImage(ctx context.Context, r *request) (*result, error) {
	var coords [4]int
	for i, field := range []string{"left", "top", "right", "bottom"} {
		v, ok, err := optionalInt(r.c, field)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, errs.Invalid("All crop coordinates must be specified")
		}
		coords[i] = v
	}
	box := imaging.Box{Left: coords[0], Top: coords[1], Right: coords[2], Bottom: coords[3]}

	name := fmt.Sprintf("cropped_%s_%s", r.ts, workspace.SafeFilename(r.names[0]))
	out := r.ws.OutputPath(name)
	if err := imaging.CropFile(ctx, r.inputs[0], out, box, s.encodeOptions()); err != nil {
		return nil, err
	}
	return fileResult(out, name), nil
}

func (s *Server) handleConvertImage(ctx context.Context, r *request) (*result, error) {
	target := strings.ToLower(strings.TrimSpace(r.c.FormValue("format")))
	if target == "" {
		return nil, errs.Invalid("Target format must be specified")
	}
	switch target {
	case "png", "jpg", "jpeg", "webp":
	default:
		return nil, errs.Invalid("Invalid target format. Must be PNG, JPG, JPEG, or WEBP")
	}

	name := fmt.Sprintf("%s_%s.%s", workspace.Stem(r.names[0]), r.ts, target)
	out := r.ws.OutputPath(name)
	if err := imaging.ConvertFile(ctx, r.inputs[0], out, s.encodeOptions()); err != nil {
		return nil, err
	}
	return fileResult(out, name), nil
}

func (s *Server) handleCompressImage(ctx context.Context, r *request) (*result, error) {
	quality, err := formInt(r.c, "quality", s.cfg.Image.DefaultQuality)
	if err != nil {
		return nil, err
	}

	name := fmt.Sprintf("compressed_%s_%s", r.ts, workspace.SafeFilename(r.names[0]))
	out := r.ws.OutputPath(name)
	if err := imaging.CompressFile(ctx, r.inputs[0], out, quality); err != nil {
		return nil, err
	}
	return fileResult(out, name), nil
}

// === Text and Metadata Handlers ===

func (s *Server) handleImageToText(ctx context.Context, r *request) (*result, error) {
	opts := ocr.Options{
		Language:       formString(r.c, "language", s.cfg.OCR.Language),
		TessdataPrefix: s.cfg.OCR.TessdataPrefix,
	}

	name := workspace.Stem(r.names[0]) + ".txt"
	out := r.ws.OutputPath(name)
	if _, err := ocr.ExtractTextFile(ctx, r.inputs[0], out, opts); err != nil {
		return nil, err
	}
	return fileResult(out, name), nil
}

// infoResponse is the JSON body of /info. Exactly one of PDF and Image is
// set.
type infoResponse struct {
	Filename string             `json:"filename"`
	Type     string             `json:"type"`
	PDF      *pdf.Info          `json:"pdf,omitempty"`
	Image    *imaging.ImageInfo `json:"image,omitempty"`
	Palette  []imaging.Swatch   `json:"palette,omitempty"`
}

// paletteSize is the number of dominant colors reported by /info.
const paletteSize = 5

func (s *Server) handleInfo(ctx context.Context, r *request) (*result, error) {
	resp := infoResponse{Filename: workspace.SafeFilename(r.names[0])}

	if workspace.Ext(r.names[0]) == "pdf" {
		info, err := pdf.Inspect(ctx, r.inputs[0])
		if err != nil {
			return nil, err
		}
		resp.Type = "pdf"
		resp.PDF = info
		return &result{json: resp}, nil
	}

	img, info, err := imaging.LoadWithInfo(ctx, r.inputs[0])
	if err != nil {
		return nil, err
	}
	if resp.Palette, err = imaging.Palette(ctx, img, paletteSize); err != nil {
		return nil, err
	}
	resp.Type = "image"
	resp.Image = info
	return &result{json: resp}, nil
}
