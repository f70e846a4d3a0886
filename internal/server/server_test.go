package server

import (
	"encoding/json"
	"image/color"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ironsheep/file-tools/internal/config"
)

func TestNew_InvalidConfig(t *testing.T) {
	cfg := config.Default()
	cfg.WorkDir = t.TempDir()
	cfg.PDF.DPI = 5

	_, err := New(cfg, nil, "test")
	assert.Error(t, err)
}

func TestHealthz(t *testing.T) {
	srv := newTestServer(t)

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, "test", body["version"])
}

func TestOperationsEndpoint(t *testing.T) {
	srv := newTestServer(t)

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/operations", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Operations []Operation `json:"operations"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Len(t, body.Operations, len(srv.ops))

	paths := map[string]bool{}
	for _, op := range body.Operations {
		paths[op.Path] = true
	}
	for _, p := range []string{"/convert", "/remove-background", "/combine-pdf", "/split-pdf",
		"/rotate-pdf", "/add-watermark", "/resize-image", "/crop-image", "/convert-image", "/compress-image"} {
		assert.True(t, paths[p], "missing %s", p)
	}
}

func TestOperations_Catalogue(t *testing.T) {
	ops := Operations(Defaults{DPI: 150, Quality: 80, Tolerance: 0.1, Feather: 1, Language: "eng"})

	names := map[string]bool{}
	for _, op := range ops {
		t.Run(op.Name, func(t *testing.T) {
			assert.False(t, names[op.Name], "duplicate operation")
			names[op.Name] = true

			assert.True(t, strings.HasPrefix(op.Path, "/"))
			assert.NotEmpty(t, op.Description)
			assert.NotEmpty(t, op.Extensions)
			assert.NotEmpty(t, op.invalidType)
			assert.Equal(t, op.Multiple, op.Field == "files")

			for _, p := range op.Params {
				assert.Contains(t, []string{"integer", "number", "string", "boolean"}, p.Type, p.Name)
				if p.Required {
					assert.Nil(t, p.Default, "required param %s has a default", p.Name)
				}
			}
		})
	}
}

func TestOperation_Accepts(t *testing.T) {
	op := Operation{Extensions: []string{"png", "jpg"}}

	assert.True(t, op.accepts("photo.png"))
	assert.True(t, op.accepts("PHOTO.JPG"))
	assert.True(t, op.accepts("archive.tar.png"))
	assert.False(t, op.accepts("photo.jpeg"))
	assert.False(t, op.accepts("png"))
	assert.False(t, op.accepts("photo."))
}

func TestUnknownRoute(t *testing.T) {
	srv := newTestServer(t)

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/nope", nil))

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Not Found", errorMessage(t, rec))
}

func TestBodyLimit(t *testing.T) {
	srv := newTestServer(t, func(c *config.Config) { c.Server.MaxUpload = "1K" })

	big := pngBytes(t, solidImage(10, 10, color.White))
	big = append(big, make([]byte, 4096)...)
	rec := post(t, srv, "/compress-image", nil, file("big.png", big))

	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
}

func TestRequestID(t *testing.T) {
	srv := newTestServer(t)

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.NotEmpty(t, rec.Header().Get("X-Request-Id"))
}

func TestWorkspaceRemovedAfterRequest(t *testing.T) {
	srv := newTestServer(t)

	ok := post(t, srv, "/compress-image", map[string]string{"quality": "50"},
		file("a.png", pngBytes(t, solidImage(20, 20, color.White))))
	require.Equal(t, http.StatusOK, ok.Code)

	bad := post(t, srv, "/compress-image", map[string]string{"quality": "500"},
		file("a.png", pngBytes(t, solidImage(20, 20, color.White))))
	require.Equal(t, http.StatusBadRequest, bad.Code)

	entries, err := os.ReadDir(srv.workspaces.Root())
	require.NoError(t, err)
	assert.Empty(t, entries)
}
