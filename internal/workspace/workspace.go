// Package workspace manages the per-request scratch directories that hold
// uploaded inputs and generated outputs.
//
// Every request gets its own directory named by a UUID under the configured
// root, with input/ and output/ subdirectories. Nothing is shared between
// requests and the directory is removed once the response has been written.
package workspace

import (
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ironsheep/file-tools/internal/errs"
)

const (
	inputDir  = "input"
	outputDir = "output"

	dirPerm  = 0o755
	filePerm = 0o644
)

// TimestampLayout is the layout used in generated output names.
const TimestampLayout = "20060102_150405"

// Manager creates workspaces under a root directory.
type Manager struct {
	root string
}

// NewManager creates a Manager rooted at dir, creating it if needed.
func NewManager(dir string) (*Manager, error) {
	if err := os.MkdirAll(dir, dirPerm); err != nil {
		return nil, fmt.Errorf("workspace: mkdir %s: %w", dir, err)
	}
	return &Manager{root: dir}, nil
}

// Root returns the directory workspaces are created in.
func (m *Manager) Root() string { return m.root }

// Workspace is a single request's scratch directory.
type Workspace struct {
	ID  string
	dir string
}

// Create allocates a fresh workspace.
func (m *Manager) Create() (*Workspace, error) {
	id := uuid.New().String()
	dir := filepath.Join(m.root, id)
	for _, sub := range []string{inputDir, outputDir} {
		if err := os.MkdirAll(filepath.Join(dir, sub), dirPerm); err != nil {
			return nil, errs.Wrap(errs.CategoryStorage, "workspace.create", err)
		}
	}
	return &Workspace{ID: id, dir: dir}, nil
}

// Dir returns the workspace directory.
func (w *Workspace) Dir() string { return w.dir }

// InputPath returns the path for an input file named name.
func (w *Workspace) InputPath(name string) string {
	return filepath.Join(w.dir, inputDir, SafeFilename(name))
}

// OutputPath returns the path for an output file named name.
func (w *Workspace) OutputPath(name string) string {
	return filepath.Join(w.dir, outputDir, SafeFilename(name))
}

// SaveUpload copies a multipart file part into the input directory and
// returns its path. A second upload with the same sanitized name gets a
// numeric prefix so combine requests can carry duplicate filenames.
func (w *Workspace) SaveUpload(fh *multipart.FileHeader) (string, error) {
	src, err := fh.Open()
	if err != nil {
		return "", errs.Wrap(errs.CategoryStorage, "workspace.save", err)
	}
	defer src.Close()
	return w.Save(fh.Filename, src)
}

// Save writes r into the input directory under the sanitized name.
func (w *Workspace) Save(name string, r io.Reader) (string, error) {
	path := w.InputPath(name)
	for i := 1; fileExists(path); i++ {
		path = w.InputPath(fmt.Sprintf("%d_%s", i, name))
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, filePerm)
	if err != nil {
		return "", errs.Wrap(errs.CategoryStorage, "workspace.save.open", err)
	}
	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		return "", errs.Wrap(errs.CategoryStorage, "workspace.save.copy", err)
	}
	if err := f.Close(); err != nil {
		return "", errs.Wrap(errs.CategoryStorage, "workspace.save.close", err)
	}
	return path, nil
}

// Cleanup removes the workspace and everything in it.
func (w *Workspace) Cleanup() error {
	return os.RemoveAll(w.dir)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

var unsafeChars = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// SafeFilename reduces an uploaded filename to a plain base name made of
// ASCII letters, digits, dot, underscore and dash. Directory components
// are dropped so the name can never escape the workspace.
//
// Stem and extension are cleaned separately so the extension survives a
// name with no ASCII characters: "фото.jpg" becomes "upload.jpg".
func SafeFilename(name string) string {
	name = strings.ReplaceAll(name, "\\", "/")
	name = filepath.Base(name)
	name = strings.Join(strings.Fields(name), "_")

	stem, ext := name, ""
	if i := strings.LastIndex(name, "."); i >= 0 {
		stem, ext = name[:i], unsafeChars.ReplaceAllString(name[i+1:], "")
	}
	stem = strings.TrimLeft(unsafeChars.ReplaceAllString(stem, ""), "._")
	if stem == "" {
		stem = "upload"
	}
	if ext == "" {
		return stem
	}
	return stem + "." + ext
}

// Ext returns the lowercase extension of name without the dot, or "" if
// name has none.
func Ext(name string) string {
	i := strings.LastIndex(name, ".")
	if i < 0 || i == len(name)-1 {
		return ""
	}
	return strings.ToLower(name[i+1:])
}

// HasExt reports whether name's extension is one of allowed.
func HasExt(name string, allowed []string) bool {
	ext := Ext(name)
	if ext == "" {
		return false
	}
	for _, a := range allowed {
		if ext == a {
			return true
		}
	}
	return false
}

// Stem returns the sanitized base name without its extension.
func Stem(name string) string {
	name = SafeFilename(name)
	return strings.TrimSuffix(name, filepath.Ext(name))
}

// Timestamp formats t for use in output names.
func Timestamp(t time.Time) string {
	return t.Format(TimestampLayout)
}
