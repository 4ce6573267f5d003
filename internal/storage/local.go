package storage

import (
	"context"
	"io"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
)

// Local keeps files in a directory on the local filesystem.
type Local struct {
	Root    string
	BaseURL string // prefix for URL, e.g. "/media"
}

func NewLocal(root, baseURL string) *Local {
	return &Local{Root: root, BaseURL: baseURL}
}

func (l *Local) abs(rel string) (string, error) {
	c, err := clean(rel)
	if err != nil {
		return "", err
	}
	return filepath.Join(l.Root, filepath.FromSlash(c)), nil
}

// Save writes r to rel through a temp file in the same directory, so a
// partially written image is never visible under its final name.
func (l *Local) Save(_ context.Context, rel string, r io.Reader) error {
	dst, err := l.abs(rel)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return errors.Wrap(err, "create image dir")
	}
	tmp, err := os.CreateTemp(filepath.Dir(dst), ".upload-*")
	if err != nil {
		return errors.Wrap(err, "create temp file")
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	if _, err := io.Copy(tmp, r); err != nil {
		_ = tmp.Close()
		return errors.Wrap(err, "write image")
	}
	if err := tmp.Close(); err != nil {
		return errors.Wrap(err, "close image")
	}
	return errors.Wrap(os.Rename(tmp.Name(), dst), "move image")
}

func (l *Local) Remove(_ context.Context, rel string) error {
	p, err := l.abs(rel)
	if err != nil {
		return err
	}
	if err := os.Remove(p); err != nil && !os.IsNotExist(err) {
		return errors.Wrapf(err, "remove %s", rel)
	}
	return nil
}

func (l *Local) RemoveAll(_ context.Context, dir string) error {
	p, err := l.abs(dir)
	if err != nil {
		return err
	}
	return errors.Wrapf(os.RemoveAll(p), "remove dir %s", dir)
}

func (l *Local) Move(_ context.Context, from, to string) error {
	src, err := l.abs(from)
	if err != nil {
		return err
	}
	dst, err := l.abs(to)
	if err != nil {
		return err
	}
	if _, err := os.Stat(src); os.IsNotExist(err) {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return errors.Wrap(err, "create target dir")
	}
	return errors.Wrapf(os.Rename(src, dst), "move %s", from)
}

func (l *Local) URL(rel string) string {
	if rel == "" {
		return ""
	}
	return l.BaseURL + "/" + rel
}

// Noop is used when image handling is disabled.
type Noop struct{}

func (Noop) Save(context.Context, string, io.Reader) error { return nil }
func (Noop) Remove(context.Context, string) error          { return nil }
func (Noop) RemoveAll(context.Context, string) error       { return nil }
func (Noop) Move(context.Context, string, string) error    { return nil }
func (Noop) URL(string) string                             { return "" }
