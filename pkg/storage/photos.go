// Package storage persists visitor photos on disk and issues signed URLs
// for retrieving them.
package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

// PhotoStore writes uploaded photos under a base directory and returns
// retrievable URLs signed with an HMAC token.
type PhotoStore struct {
	baseDir string
	baseURL string
	signer  *SignedURLSigner
	maxSize int64
}

// NewPhotoStore ensures the base directory exists and returns a handle.
func NewPhotoStore(baseDir, baseURL string, signer *SignedURLSigner, maxSize int64) (*PhotoStore, error) {
	if baseDir == "" {
		baseDir = "./photos"
	}
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return nil, fmt.Errorf("create photos directory: %w", err)
	}
	if maxSize <= 0 {
		maxSize = 5 * 1024 * 1024
	}
	return &PhotoStore{
		baseDir: baseDir,
		baseURL: strings.TrimRight(baseURL, "/"),
		signer:  signer,
		maxSize: maxSize,
	}, nil
}

var photoExtensions = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
}

// MaxSize returns the upload size limit in bytes.
func (s *PhotoStore) MaxSize() int64 {
	return s.maxSize
}

// Upload stores the photo bytes and returns a signed retrieval URL.
func (s *PhotoStore) Upload(data []byte, contentType string) (string, error) {
	ext, ok := photoExtensions[strings.ToLower(contentType)]
	if !ok {
		return "", fmt.Errorf("unsupported photo content type %q", contentType)
	}
	if int64(len(data)) > s.maxSize {
		return "", fmt.Errorf("photo exceeds %d byte limit", s.maxSize)
	}

	relPath := filepath.Join(time.Now().UTC().Format("2006/01"), uuid.NewString()+ext)
	fullPath := filepath.Join(s.baseDir, relPath)
	if err := os.MkdirAll(filepath.Dir(fullPath), 0o755); err != nil {
		return "", fmt.Errorf("prepare photo directory: %w", err)
	}
	if err := os.WriteFile(fullPath, data, 0o644); err != nil {
		return "", fmt.Errorf("write photo file: %w", err)
	}

	token, _, err := s.signer.Generate(relPath)
	if err != nil {
		return "", fmt.Errorf("sign photo url: %w", err)
	}
	return fmt.Sprintf("%s/api/v1/photos/%s", s.baseURL, token), nil
}

// Open validates the token and returns a read handle plus the content type.
func (s *PhotoStore) Open(token string) (*os.File, string, error) {
	relPath, _, err := s.signer.Parse(token)
	if err != nil {
		return nil, "", err
	}
	contentType := contentTypeForExt(filepath.Ext(relPath))
	file, err := os.Open(filepath.Join(s.baseDir, relPath))
	if err != nil {
		return nil, "", fmt.Errorf("open photo file: %w", err)
	}
	return file, contentType, nil
}

func contentTypeForExt(ext string) string {
	for ct, e := range photoExtensions {
		if e == strings.ToLower(ext) {
			return ct
		}
	}
	return "application/octet-stream"
}
