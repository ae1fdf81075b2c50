package fileutil

import (
	"bytes"
	"crypto/sha256"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"podium/internal/textutil"
)

// CopyFileVerified streams src to dst with SHA256 + size integrity verification.
// Removes dst on mismatch.
func CopyFileVerified(src, dst string) error {
	srcInfo, err := os.Stat(src)
	if err != nil {
		return fmt.Errorf("stat source: %w", err)
	}
	srcSize := srcInfo.Size()

	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer func() {
		_ = out.Close()
	}()

	srcHasher := sha256.New()
	dstHasher := sha256.New()
	tee := io.TeeReader(in, srcHasher)
	multi := io.MultiWriter(out, dstHasher)

	written, err := io.Copy(multi, tee)
	if err != nil {
		return err
	}
	if err := out.Close(); err != nil {
		return err
	}

	if written != srcSize {
		_ = os.Remove(dst)
		return fmt.Errorf("copy size mismatch: source %d bytes, copied %d bytes", srcSize, written)
	}

	if !bytes.Equal(srcHasher.Sum(nil), dstHasher.Sum(nil)) {
		_ = os.Remove(dst)
		return fmt.Errorf("copy hash mismatch: file corrupted during copy")
	}

	return nil
}

// ImportClip copies a clip into clipsDir so replay keeps working after the
// caller moves or deletes the source. The copy is named
// "<prefix>-<sanitized base name>". A clip that already lives in clipsDir is
// returned unchanged.
func ImportClip(src, clipsDir, prefix string) (string, error) {
	absSrc, err := filepath.Abs(src)
	if err != nil {
		return "", fmt.Errorf("resolve clip path: %w", err)
	}
	absDir, err := filepath.Abs(clipsDir)
	if err != nil {
		return "", fmt.Errorf("resolve clips dir: %w", err)
	}
	if filepath.Dir(absSrc) == absDir {
		return absSrc, nil
	}
	if err := os.MkdirAll(absDir, 0o755); err != nil {
		return "", fmt.Errorf("create clips dir: %w", err)
	}

	base := textutil.SafeFileName(filepath.Base(absSrc))
	if base == "" {
		base = "clip"
	}
	if prefix = strings.TrimSpace(prefix); prefix != "" {
		base = textutil.Slug(prefix) + "-" + base
	}
	dst := uniquePath(filepath.Join(absDir, base))
	if err := CopyFileVerified(absSrc, dst); err != nil {
		return "", fmt.Errorf("copy clip: %w", err)
	}
	return dst, nil
}

func uniquePath(path string) string {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return path
	}
	ext := filepath.Ext(path)
	stem := strings.TrimSuffix(path, ext)
	for i := 2; ; i++ {
		candidate := fmt.Sprintf("%s-%d%s", stem, i, ext)
		if _, err := os.Stat(candidate); os.IsNotExist(err) {
			return candidate
		}
	}
}
