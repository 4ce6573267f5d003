// Package storage is the image file port: every filesystem side effect of the
// service goes through a Storage.
package storage

import (
	"context"
	"fmt"
	"io"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/pkg/errors"

	"storekeep/internal/domain"
)

// Storage stores files under slash separated paths relative to its root.
// Removes are idempotent: removing something absent is not an error.
type Storage interface {
	Save(ctx context.Context, rel string, r io.Reader) error
	Remove(ctx context.Context, rel string) error
	RemoveAll(ctx context.Context, dir string) error
	// Move renames a file or directory; a missing source is not an error.
	Move(ctx context.Context, from, to string) error
	URL(rel string) string
}

var ErrBadPath = errors.New("invalid storage path")

var imageExts = map[string]bool{".png": true, ".jpg": true, ".jpeg": true, ".gif": true}

// ImageExt returns the lowercased extension of name when it is an accepted
// image type.
func ImageExt(name string) (string, bool) {
	ext := strings.ToLower(filepath.Ext(name))
	return ext, imageExts[ext]
}

// FileName names an uploaded image after the entity it belongs to.
func FileName(entityID, ext string) string {
	return fmt.Sprintf("%s-%d%s", entityID, time.Now().UnixMilli(), ext)
}

func OwnerDir(ownerID string) string {
	return path.Join("owners", ownerID)
}

func StoreDir(ownerID, storeID string) string {
	return path.Join(OwnerDir(ownerID), "stores", storeID)
}

func CategoryDir(ownerID, storeID, categoryID string) string {
	return path.Join(StoreDir(ownerID, storeID), "categories", categoryID)
}

func ProductDir(ownerID, storeID, categoryID, productID string) string {
	return path.Join(CategoryDir(ownerID, storeID, categoryID), "products", productID)
}

// Dir returns the image directory of the resource sc identifies at the given
// level of the hierarchy.
func Dir(sc domain.Scope, kind domain.ResourceKind) string {
	switch kind {
	case domain.KindStore:
		return StoreDir(sc.OwnerID, sc.StoreID)
	case domain.KindCategory:
		return CategoryDir(sc.OwnerID, sc.StoreID, sc.CategoryID)
	case domain.KindProduct:
		return ProductDir(sc.OwnerID, sc.StoreID, sc.CategoryID, sc.ProductID)
	}
	return ""
}

// clean rejects absolute paths and anything escaping the root.
func clean(rel string) (string, error) {
	rel = strings.ReplaceAll(rel, "\\", "/")
	if rel == "" || strings.Contains(rel, "\x00") || path.IsAbs(rel) {
		return "", errors.Wrapf(ErrBadPath, "%q", rel)
	}
	c := path.Clean(rel)
	if c == "." || c == ".." || strings.HasPrefix(c, "../") {
		return "", errors.Wrapf(ErrBadPath, "%q", rel)
	}
	return c, nil
}
