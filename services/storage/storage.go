package storage

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Well-known key prefixes. Every stored object lives under one of these.
const (
	PrefixResumes   = "resumes"
	PrefixImages    = "images"
	PrefixVideos    = "videos"
	PrefixDocuments = "documents"
)

// Store is the file storage abstraction. Keys are slash-separated paths
// relative to the backend root (bucket or upload directory).
type Store interface {
	// Save writes the object and returns its publicly reachable URL.
	Save(ctx context.Context, key string, data io.Reader, contentType string) (string, error)
	// Delete removes the object. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
	// URL returns the public URL for an already-stored key.
	URL(key string) string
}

// GenerateKey builds a collision-free storage key under the given prefix.
// The original filename is kept (sanitized) so downloads stay readable.
func GenerateKey(prefix, filename string) string {
	ext := filepath.Ext(filename)
	base := strings.TrimSuffix(filepath.Base(filename), ext)
	base = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		default:
			return '_'
		}
	}, base)

	return fmt.Sprintf("%s/%d_%s_%s%s", prefix, time.Now().Unix(), uuid.NewString()[:8], base, ext)
}

// GetContentType returns the content type for a filename
func GetContentType(filename string) string {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".pdf":
		return "application/pdf"
	case ".png":
		return "image/png"
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".gif":
		return "image/gif"
	case ".webp":
		return "image/webp"
	case ".mp4":
		return "video/mp4"
	case ".webm":
		return "video/webm"
	case ".mov":
		return "video/quicktime"
	case ".docx":
		return "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	case ".doc":
		return "application/msword"
	case ".txt":
		return "text/plain"
	case ".csv":
		return "text/csv"
	default:
		return "application/octet-stream"
	}
}
