// Package storage keeps uploaded recipe images on the local filesystem under
// MEDIA_ROOT and turns stored paths into public URLs under MEDIA_URL.
package storage

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

var (
	ErrInvalidImage     = errors.New("invalid image")
	ErrUnsupportedImage = errors.New("unsupported image type")
	ErrImageTooLarge    = errors.New("image too large")
)

// recipeDir is the sub directory of the media root holding recipe images.
const recipeDir = "recipes"

var allowedExtensions = map[string]bool{
	"png":  true,
	"jpg":  true,
	"jpeg": true,
	"gif":  true,
	"webp": true,
}

// Image is a decoded upload waiting to be written.
type Image struct {
	Ext  string
	Data []byte
}

func newImage(ext string, data []byte, maxBytes int64) (*Image, error) {
	ext = strings.ToLower(strings.TrimPrefix(ext, "."))
	if !allowedExtensions[ext] {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedImage, ext)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty payload", ErrInvalidImage)
	}
	if maxBytes > 0 && int64(len(data)) > maxBytes {
		return nil, ErrImageTooLarge
	}
	if !strings.HasPrefix(http.DetectContentType(data), "image/") {
		return nil, fmt.Errorf("%w: payload is not an image", ErrInvalidImage)
	}
	return &Image{Ext: ext, Data: data}, nil
}

// DecodeDataURI parses data:image/<ext>;base64,<payload>.
func DecodeDataURI(uri string, maxBytes int64) (*Image, error) {
	header, payload, ok := strings.Cut(uri, ",")
	if !ok || !strings.HasPrefix(header, "data:image/") || !strings.HasSuffix(header, ";base64") {
		return nil, fmt.Errorf("%w: expected data:image/<ext>;base64,<payload>", ErrInvalidImage)
	}
	ext := strings.TrimSuffix(strings.TrimPrefix(header, "data:image/"), ";base64")

	// reject before decoding anything obviously oversized
	if maxBytes > 0 && int64(base64.StdEncoding.DecodedLen(len(payload))) > maxBytes+2 {
		return nil, ErrImageTooLarge
	}
	data, err := base64.StdEncoding.DecodeString(strings.TrimSpace(payload))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidImage, err)
	}
	return newImage(ext, data, maxBytes)
}

// ReadUpload reads a multipart file part, taking the type from its file name.
func ReadUpload(fh *multipart.FileHeader, maxBytes int64) (*Image, error) {
	if maxBytes > 0 && fh.Size > maxBytes {
		return nil, ErrImageTooLarge
	}
	f, err := fh.Open()
	if err != nil {
		return nil, fmt.Errorf("open upload: %w", err)
	}
	defer f.Close()

	var buf bytes.Buffer
	limit := maxBytes
	if limit <= 0 {
		limit = 1 << 30
	}
	if _, err := io.Copy(&buf, io.LimitReader(f, limit+1)); err != nil {
		return nil, fmt.Errorf("read upload: %w", err)
	}
	return newImage(filepath.Ext(fh.Filename), buf.Bytes(), maxBytes)
}

// MediaStore writes images below root and serves them under baseURL.
type MediaStore struct {
	root    string
	baseURL string
}

func NewMediaStore(root, baseURL string) (*MediaStore, error) {
	if strings.TrimSpace(root) == "" {
		return nil, errors.New("media root must not be empty")
	}
	if err := os.MkdirAll(filepath.Join(root, recipeDir), 0o755); err != nil {
		return nil, fmt.Errorf("create media root: %w", err)
	}
	if !strings.HasSuffix(baseURL, "/") {
		baseURL += "/"
	}
	return &MediaStore{root: root, baseURL: baseURL}, nil
}

// Root is the directory served as static files.
func (m *MediaStore) Root() string {
	return m.root
}

// Save writes img under a fresh name and returns its path relative to root.
func (m *MediaStore) Save(img *Image) (string, error) {
	if img == nil {
		return "", fmt.Errorf("%w: nothing to save", ErrInvalidImage)
	}
	rel := path.Join(recipeDir, uuid.NewString()+"."+img.Ext)
	target := filepath.Join(m.root, filepath.FromSlash(rel))

	tmp, err := os.CreateTemp(filepath.Dir(target), ".upload-*")
	if err != nil {
		return "", fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(img.Data); err != nil {
		tmp.Close()
		return "", fmt.Errorf("write image: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("close image: %w", err)
	}
	if err := os.Rename(tmp.Name(), target); err != nil {
		return "", fmt.Errorf("store image: %w", err)
	}
	return rel, nil
}

// Delete removes a previously saved image. Missing files are not an error.
func (m *MediaStore) Delete(rel string) error {
	if rel == "" {
		return nil
	}
	clean := path.Clean("/" + rel)[1:]
	if !strings.HasPrefix(clean, recipeDir+"/") {
		return fmt.Errorf("refusing to delete %q outside media root", rel)
	}
	err := os.Remove(filepath.Join(m.root, filepath.FromSlash(clean)))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("delete image: %w", err)
	}
	return nil
}

// URL renders a stored path as a public URL; empty paths stay empty.
func (m *MediaStore) URL(rel string) string {
	if rel == "" {
		return ""
	}
	return m.baseURL + strings.TrimPrefix(rel, "/")
}
