// Package output stores generated GnuCash books on the local file system or
// in Google Cloud Storage.
package output

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/klauspost/compress/gzip"

	"github.com/shunichi-ikebuchi/acemoney-gnucash/pkg/pathutil"
)

// Repository defines the interface for storing a generated book.
type Repository interface {
	// Save stores data under name and returns the locations written.
	Save(ctx context.Context, name string, data []byte) ([]string, error)
}

// FileSystemRepository is a file system implementation of Repository.
// Files are written to a temporary sibling and renamed into place, so a
// failed run never leaves a truncated book behind.
type FileSystemRepository struct {
	pathResolver *pathutil.PathResolver
	gzip         bool
}

// NewFileSystemRepository creates a new FileSystemRepository. With gzip set,
// a compressed copy ({name}.gz) is written next to the plain file.
func NewFileSystemRepository(pathResolver *pathutil.PathResolver, gzip bool) *FileSystemRepository {
	return &FileSystemRepository{
		pathResolver: pathResolver,
		gzip:         gzip,
	}
}

// Save writes data to name and, when enabled, its gzip copy.
func (r *FileSystemRepository) Save(ctx context.Context, name string, data []byte) ([]string, error) {
	if err := r.pathResolver.EnsureParentDir(name); err != nil {
		return nil, fmt.Errorf("failed to ensure parent directory: %w", err)
	}

	if err := writeAtomic(name, data); err != nil {
		return nil, err
	}
	written := []string{name}

	if !r.gzip {
		return written, nil
	}
	if err := ctx.Err(); err != nil {
		return written, err
	}

	compressed, err := Compress(data)
	if err != nil {
		return written, err
	}
	gzPath := pathutil.GzipPath(name)
	if err := writeAtomic(gzPath, compressed); err != nil {
		return written, err
	}

	return append(written, gzPath), nil
}

// Compress returns data as a gzip stream.
func Compress(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	zw, err := gzip.NewWriterLevel(&buf, gzip.BestCompression)
	if err != nil {
		return nil, fmt.Errorf("failed to create gzip writer: %w", err)
	}
	if _, err := zw.Write(data); err != nil {
		return nil, fmt.Errorf("failed to compress: %w", err)
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("failed to finish gzip stream: %w", err)
	}
	return buf.Bytes(), nil
}

func writeAtomic(path string, data []byte) error {
	f, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmp := f.Name()

	if _, err := f.Write(data); err != nil {
		f.Close()
		os.Remove(tmp)
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to close %s: %w", path, err)
	}
	if err := os.Chmod(tmp, 0644); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to chmod %s: %w", path, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to rename into %s: %w", path, err)
	}
	return nil
}
