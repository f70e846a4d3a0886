package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	"github.com/ironsheep/file-tools/internal/config"
	"github.com/ironsheep/file-tools/internal/pdf"
)

const testTimestamp = "20240102_030405"

// newTestServer returns a Server with a temporary work dir, a silent
// logger and a fixed clock.
func newTestServer(t *testing.T, mutate ...func(*config.Config)) *Server {
	t.Helper()
	cfg := config.Default()
	cfg.WorkDir = t.TempDir()
	for _, m := range mutate {
		m(&cfg)
	}

	logger := logrus.New()
	logger.SetOutput(io.Discard)

	srv, err := New(cfg, logger, "test")
	require.NoError(t, err)
	srv.now = func() time.Time { return time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC) }
	return srv
}

// upload is one file part of a multipart request.
type upload struct {
	field string
	name  string
	data  []byte
}

// post sends a multipart request with the given form fields and files.
func post(t *testing.T, srv *Server, path string, fields map[string]string, files ...upload) *httptest.ResponseRecorder {
	t.Helper()

	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	for k, v := range fields {
		require.NoError(t, w.WriteField(k, v))
	}
	for _, f := range files {
		part, err := w.CreateFormFile(f.field, f.name)
		require.NoError(t, err)
		_, err = part.Write(f.data)
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, path, &body)
	req.Header.Set("Content-Type", w.FormDataContentType())
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	return rec
}

func file(name string, data []byte) upload { return upload{field: "file", name: name, data: data} }

// errorMessage decodes a JSON error body.
func errorMessage(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var resp errorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp), "body: %s", rec.Body.String())
	return resp.Error
}

func solidImage(w, h int, c color.Color) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, c)
		}
	}
	return img
}

func pngBytes(t *testing.T, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func jpegBytes(t *testing.T, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, img, &jpeg.Options{Quality: 95}))
	return buf.Bytes()
}

// pdfBytes builds a PDF with the given number of pages.
func pdfBytes(t *testing.T, pages int) []byte {
	t.Helper()
	dir := t.TempDir()

	images := make([]string, pages)
	for i := range images {
		images[i] = filepath.Join(dir, fmt.Sprintf("p%d.png", i))
		data := pngBytes(t, solidImage(80, 40, color.RGBA{uint8(30 * i), 90, 200, 255}))
		require.NoError(t, os.WriteFile(images[i], data, 0o644))
	}

	out := filepath.Join(dir, "doc.pdf")
	require.NoError(t, pdf.FromImages(context.Background(), images, out))
	data, err := os.ReadFile(out)
	require.NoError(t, err)
	return data
}

// responsePageCount writes a PDF response body to disk and counts its pages.
func responsePageCount(t *testing.T, rec *httptest.ResponseRecorder) int {
	t.Helper()
	path := filepath.Join(t.TempDir(), "response.pdf")
	require.NoError(t, os.WriteFile(path, rec.Body.Bytes(), 0o644))
	n, err := pdf.PageCount(context.Background(), path)
	require.NoError(t, err)
	return n
}

func responseImage(t *testing.T, rec *httptest.ResponseRecorder) (image.Image, string) {
	t.Helper()
	img, format, err := image.Decode(bytes.NewReader(rec.Body.Bytes()))
	require.NoError(t, err)
	return img, format
}
