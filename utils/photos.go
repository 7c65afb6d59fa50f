package utils

import (
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// PhotoStore keeps uploaded event photos and hands back the URI clients use
// to fetch them.
type PhotoStore interface {
	Save(ctx context.Context, file multipart.File, header *multipart.FileHeader) (string, error)
	Delete(ctx context.Context, uri string) error
}

// LocalPhotoStore writes photos under Dir and returns relative URIs below
// URLPrefix, e.g. /uploads/<uuid>.jpg.
type LocalPhotoStore struct {
	Dir       string
	URLPrefix string
}

func NewLocalPhotoStore(dir, urlPrefix string) (*LocalPhotoStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	return &LocalPhotoStore{Dir: dir, URLPrefix: "/" + strings.Trim(urlPrefix, "/")}, nil
}

func (s *LocalPhotoStore) Save(_ context.Context, file multipart.File, header *multipart.FileHeader) (string, error) {
	name := uuid.NewString() + strings.ToLower(filepath.Ext(header.Filename))

	dst, err := os.Create(filepath.Join(s.Dir, name))
	if err != nil {
		return "", fmt.Errorf("create photo file: %w", err)
	}
	if _, err := io.Copy(dst, file); err != nil {
		dst.Close()
		os.Remove(dst.Name())
		return "", fmt.Errorf("write photo file: %w", err)
	}
	if err := dst.Close(); err != nil {
		return "", fmt.Errorf("close photo file: %w", err)
	}
	return path.Join(s.URLPrefix, name), nil
}

// Delete removes the file behind a URI produced by Save. URIs outside the
// prefix are ignored.
func (s *LocalPhotoStore) Delete(_ context.Context, uri string) error {
	prefix := s.URLPrefix + "/"
	if !strings.HasPrefix(uri, prefix) {
		return nil
	}
	name := filepath.Base(strings.TrimPrefix(uri, prefix))
	if err := os.Remove(filepath.Join(s.Dir, name)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("delete photo file: %w", err)
	}
	return nil
}
