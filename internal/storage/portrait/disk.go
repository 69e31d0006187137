package portrait

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"strings"
)

// DiskStore keeps portraits in a local directory served over HTTP
type DiskStore struct {
	dir       string
	urlPrefix string
}

var _ Store = (*DiskStore)(nil)

// NewDiskStore creates dir if needed; urlPrefix is where the web layer mounts it
func NewDiskStore(dir, urlPrefix string) (*DiskStore, error) {
	if strings.TrimSpace(dir) == "" {
		return nil, fmt.Errorf("upload dir is required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("mkdir %s: %w", dir, err)
	}
	if !strings.HasSuffix(urlPrefix, "/") {
		urlPrefix += "/"
	}
	return &DiskStore{dir: dir, urlPrefix: urlPrefix}, nil
}

// Dir returns the directory portraits are written to
func (d *DiskStore) Dir() string {
	return d.dir
}

func (d *DiskStore) Save(ctx context.Context, name string, r io.Reader) error {
	if err := checkName(name); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	// Write to a temp file and rename so readers never see a partial image
	tmp, err := os.CreateTemp(d.dir, ".upload-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	if _, err := io.Copy(tmp, r); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write portrait: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close portrait: %w", err)
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		return fmt.Errorf("chmod portrait: %w", err)
	}
	if err := os.Rename(tmp.Name(), filepath.Join(d.dir, name)); err != nil {
		return fmt.Errorf("store portrait: %w", err)
	}
	return nil
}

func (d *DiskStore) Delete(ctx context.Context, name string) error {
	if err := checkName(name); err != nil {
		return err
	}
	if err := os.Remove(filepath.Join(d.dir, name)); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("delete portrait: %w", err)
	}
	return nil
}

func checkName(name string) error {
	if name == "" || filepath.Base(name) != name || name == "." || name == ".." {
		return fmt.Errorf("invalid portrait name %q", name)
	}
	return nil
}

func (d *DiskStore) URL(name string) string {
	return d.urlPrefix + url.PathEscape(name)
}
