// Package upload validates uploaded image files and spools them to disk under
// server-generated names.
package upload

import (
	"errors"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

var (
	ErrNoFile        = errors.New("no file provided")
	ErrEmptyFilename = errors.New("no selected file")
	ErrInvalidType   = errors.New("invalid file type")
)

var allowedExtensions = map[string]bool{
	"png":  true,
	"jpg":  true,
	"jpeg": true,
	"gif":  true,
}

// Extension returns the lower-cased text after the last dot of filename when
// it is one of the accepted image types.
func Extension(filename string) (string, error) {
	if filename == "" {
		return "", ErrEmptyFilename
	}
	i := strings.LastIndex(filename, ".")
	if i < 0 {
		return "", ErrInvalidType
	}
	ext := strings.ToLower(filename[i+1:])
	if !allowedExtensions[ext] {
		return "", ErrInvalidType
	}
	return ext, nil
}

// Spool writes uploads into a single directory.
type Spool struct {
	dir string
}

func NewSpool(dir string) (*Spool, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	return &Spool{dir: dir}, nil
}

func (s *Spool) Dir() string { return s.dir }

// FileName returns the filename of a multipart part and whether the part is
// a file at all. Plain text fields carry no filename parameter; a file input
// left empty carries filename="".
func FileName(p *multipart.Part) (string, bool) {
	_, params, err := mime.ParseMediaType(p.Header.Get("Content-Disposition"))
	if err != nil {
		return "", false
	}
	name, ok := params["filename"]
	if !ok {
		return "", false
	}
	if name == "" {
		return "", true
	}
	return p.FileName(), true
}

// Save streams src to <dir>/<uuid>.<ext>. The client filename only
// contributes the extension. The returned cleanup removes the file and is
// safe to call on every path; nothing is left behind when Save fails.
func (s *Spool) Save(src io.Reader, ext string) (string, int64, func(), error) {
	path := filepath.Join(s.dir, uuid.NewString()+"."+ext)
	cleanup := func() { _ = os.Remove(path) }

	dst, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0600)
	if err != nil {
		return "", 0, func() {}, fmt.Errorf("create upload file: %w", err)
	}

	n, err := io.Copy(dst, src)
	if err != nil {
		dst.Close()
		cleanup()
		return "", 0, func() {}, fmt.Errorf("write upload file: %w", err)
	}
	if err := dst.Close(); err != nil {
		cleanup()
		return "", 0, func() {}, fmt.Errorf("write upload file: %w", err)
	}
	return path, n, cleanup, nil
}
