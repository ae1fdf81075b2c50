package coachapi

import (
	"bytes"
	"fmt"
	"io"
	"mime"
	"os"
	"path/filepath"
	"strings"
)

// Media is a borrowed reference to a recorded or selected clip. It is only
// read during the upload call.
type Media struct {
	Name        string
	ContentType string
	Size        int64
	open        func() (io.ReadCloser, error)
}

// Open returns a fresh reader over the clip contents.
func (m Media) Open() (io.ReadCloser, error) {
	if m.open == nil {
		return nil, fmt.Errorf("media %q: no content", m.Name)
	}
	return m.open()
}

// FileMedia references a clip on disk.
func FileMedia(path string) (Media, error) {
	info, err := os.Stat(path)
	if err != nil {
		return Media{}, fmt.Errorf("stat clip: %w", err)
	}
	if info.IsDir() {
		return Media{}, fmt.Errorf("clip %s is a directory", path)
	}
	name := filepath.Base(path)
	return Media{
		Name:        name,
		ContentType: contentTypeFor(name),
		Size:        info.Size(),
		open:        func() (io.ReadCloser, error) { return os.Open(path) },
	}, nil
}

// BytesMedia wraps in-memory clip data.
func BytesMedia(name string, data []byte) Media {
	return Media{
		Name:        name,
		ContentType: contentTypeFor(name),
		Size:        int64(len(data)),
		open: func() (io.ReadCloser, error) {
			return io.NopCloser(bytes.NewReader(data)), nil
		},
	}
}

func contentTypeFor(name string) string {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".webm":
		return "video/webm"
	case ".mp4", ".m4v":
		return "video/mp4"
	case ".mov":
		return "video/quicktime"
	case ".mkv":
		return "video/x-matroska"
	}
	if ct := mime.TypeByExtension(filepath.Ext(name)); ct != "" {
		return ct
	}
	return "application/octet-stream"
}
