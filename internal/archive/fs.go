package archive

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// FSSink archives artifacts by copying them into a directory, typically a
// mounted durable volume.
type FSSink struct {
	dir string
}

// NewFSSink creates the sink, creating the directory if needed.
func NewFSSink(dir string) (*FSSink, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create archive dir: %w", err)
	}
	return &FSSink{dir: dir}, nil
}

// Put copies the file into the archive directory. The remote ID is the
// destination path. The copy goes through a temp name so a crash mid-copy
// never leaves a truncated file under the final name.
func (s *FSSink) Put(ctx context.Context, localPath string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	src, err := os.Open(localPath)
	if err != nil {
		return "", fmt.Errorf("open artifact: %w", err)
	}
	defer src.Close()

	dest := filepath.Join(s.dir, filepath.Base(localPath))
	tmp := dest + ".tmp"

	dst, err := os.Create(tmp)
	if err != nil {
		return "", fmt.Errorf("create archive file: %w", err)
	}

	_, copyErr := io.Copy(dst, src)
	closeErr := dst.Close()
	if copyErr == nil {
		copyErr = closeErr
	}
	if copyErr != nil {
		os.Remove(tmp)
		return "", fmt.Errorf("copy artifact: %w", copyErr)
	}

	if err := os.Rename(tmp, dest); err != nil {
		os.Remove(tmp)
		return "", fmt.Errorf("finalize archive file: %w", err)
	}
	return dest, nil
}
