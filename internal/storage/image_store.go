// Package storage persists product image blobs on a local filesystem root.
package storage

import (
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"github.com/spf13/afero"

	"fiorella/internal/forms"
)

// ErrInvalidMediaType is returned when a blob is not an image.
var ErrInvalidMediaType = errors.New("file type must be image")

// ImageStore writes and removes image blobs under a single root directory.
type ImageStore struct {
	fs   afero.Fs
	root string
}

// NewImageStore creates an ImageStore on fs. All names are resolved under root.
func NewImageStore(fs afero.Fs, root string) (*ImageStore, error) {
	if err := fs.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create image root %s: %w", root, err)
	}
	return &ImageStore{fs: fs, root: root}, nil
}

// NewLocalImageStore creates an ImageStore on the OS filesystem.
func NewLocalImageStore(root string) (*ImageStore, error) {
	return NewImageStore(afero.NewOsFs(), root)
}

// Root returns the directory the store writes into.
func (s *ImageStore) Root() string { return s.root }

// Save writes data under a generated unique name and returns that name.
func (s *ImageStore) Save(data []byte, contentType, originalName string) (string, error) {
	if !forms.IsImageType(contentType) {
		return "", fmt.Errorf("%w: %q", ErrInvalidMediaType, contentType)
	}
	fileName := uuid.New().String() + " " + cleanName(originalName)
	if err := afero.WriteFile(s.fs, s.path(fileName), data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write image %s: %w", fileName, err)
	}
	return fileName, nil
}

// Delete removes a stored blob. A missing blob is not an error.
func (s *ImageStore) Delete(fileName string) error {
	if fileName == "" {
		return nil
	}
	err := s.fs.Remove(s.path(fileName))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to delete image %s: %w", fileName, err)
	}
	return nil
}

// DeleteAll removes every named blob, logging failures instead of stopping.
// It returns the first error encountered.
func (s *ImageStore) DeleteAll(fileNames []string) error {
	var first error
	for _, name := range fileNames {
		if err := s.Delete(name); err != nil {
			log.Printf("Warning: %v", err)
			if first == nil {
				first = err
			}
		}
	}
	return first
}

func (s *ImageStore) path(fileName string) string {
	return filepath.Join(s.root, cleanName(fileName))
}

// cleanName keeps only the final path element so names cannot escape the root.
func cleanName(name string) string {
	name = filepath.Base(strings.ReplaceAll(name, "\\", "/"))
	if name == "." || name == "/" || name == ".." {
		return "image"
	}
	return name
}

// ResolveContentType returns the declared type, or the sniffed one when the
// client declared nothing useful.
func ResolveContentType(declared string, data []byte) string {
	declared = strings.TrimSpace(declared)
	if declared != "" && declared != "application/octet-stream" {
		return declared
	}
	if len(data) == 0 {
		return declared
	}
	return mimetype.Detect(data).String()
}
