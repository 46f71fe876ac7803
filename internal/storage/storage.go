package storage

import (
	"fmt"
	"github.com/pkg/errors"
	"os"
	"path/filepath"
	"strings"
)

// FileStorage keeps uploaded images on the local filesystem under a base
// directory, with object paths matching the wire contract the app expects:
// Bills/{uid}/{billId}/{index}.{ext}, Schemes/{schemeId}/poster.{ext},
// Products/{productId}/main.{ext}, Posters/{posterId}.{ext}.
type FileStorage struct {
	BaseDir string
}

var allowedExts = map[string]bool{
	"jpg":  true,
	"jpeg": true,
	"png":  true,
	"webp": true,
}

// CleanExt normalizes a file extension from a filename or URL, falling back
// to jpg for anything unrecognized.
func CleanExt(name string) string {
	trimmed := name
	if i := strings.IndexByte(trimmed, '?'); i >= 0 {
		trimmed = trimmed[:i]
	}
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(trimmed), "."))
	if !allowedExts[ext] {
		return "jpg"
	}
	return ext
}

func BillImagePath(uid string, billID string, index int, ext string) string {
	return fmt.Sprintf("Bills/%s/%s/%d.%s", uid, billID, index, ext)
}

func SchemePosterPath(schemeID string, ext string) string {
	return fmt.Sprintf("Schemes/%s/poster.%s", schemeID, ext)
}

func ProductImagePath(productID string, ext string) string {
	return fmt.Sprintf("Products/%s/main.%s", productID, ext)
}

func PosterPath(posterID string, ext string) string {
	return fmt.Sprintf("Posters/%s.%s", posterID, ext)
}

// Save writes content at the given object path, creating parent directories
// as needed. The path must stay inside BaseDir.
func (s FileStorage) Save(path string, content []byte) error {
	fullPath, err := s.resolve(path)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(fullPath), 0755); err != nil {
		return errors.Wrapf(err, "error creating directories for path: %s", path)
	}
	if err := os.WriteFile(fullPath, content, 0644); err != nil {
		return errors.Wrapf(err, "error writing file at path: %s", path)
	}
	return nil
}

func (s FileStorage) Delete(path string) error {
	fullPath, err := s.resolve(path)
	if err != nil {
		return err
	}
	if err := os.Remove(fullPath); err != nil && !os.IsNotExist(err) {
		return errors.Wrapf(err, "error deleting file at path: %s", path)
	}
	return nil
}

func (s FileStorage) resolve(path string) (string, error) {
	base, err := filepath.Abs(s.BaseDir)
	if err != nil {
		return "", errors.Wrapf(err, "error resolving base dir: %s", s.BaseDir)
	}
	fullPath := filepath.Join(base, filepath.FromSlash(path))
	if fullPath != base && !strings.HasPrefix(fullPath, base+string(os.PathSeparator)) {
		return "", errors.Errorf("path escapes storage dir: %s", path)
	}
	return fullPath, nil
}
