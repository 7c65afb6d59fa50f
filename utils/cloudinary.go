package utils

import (
	"context"
	"fmt"
	"mime/multipart"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
)

// CloudinaryPhotoStore uploads event photos into a Cloudinary folder.
type CloudinaryPhotoStore struct {
	cld    *cloudinary.Cloudinary
	folder string
}

func NewCloudinaryPhotoStore(cloudName, apiKey, apiSecret, folder string) (*CloudinaryPhotoStore, error) {
	cld, err := cloudinary.NewFromParams(cloudName, apiKey, apiSecret)
	if err != nil {
		return nil, fmt.Errorf("cloudinary config error: %v", err)
	}
	if folder == "" {
		folder = "events"
	}
	return &CloudinaryPhotoStore{cld: cld, folder: folder}, nil
}

func (s *CloudinaryPhotoStore) Save(ctx context.Context, file multipart.File, _ *multipart.FileHeader) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, 60*time.Second)
	defer cancel()

	resp, err := s.cld.Upload.Upload(ctx, file, uploader.UploadParams{
		Folder: s.folder,
	})
	if err != nil {
		return "", fmt.Errorf("upload error: %v", err)
	}
	if resp.Error.Message != "" {
		return "", fmt.Errorf("upload error: %s", resp.Error.Message)
	}
	return resp.SecureURL, nil
}

func (s *CloudinaryPhotoStore) Delete(ctx context.Context, imageURL string) error {
	publicID, err := extractPublicID(imageURL)
	if err != nil {
		return fmt.Errorf("could not extract public ID: %v", err)
	}

	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	if _, err := s.cld.Upload.Destroy(ctx, uploader.DestroyParams{PublicID: publicID}); err != nil {
		return fmt.Errorf("delete error: %v", err)
	}
	return nil
}

// extractPublicID turns a delivery URL into the asset's public ID:
// https://res.cloudinary.com/demo/image/upload/v1234567890/events/abc123.jpg -> events/abc123
func extractPublicID(imageURL string) (string, error) {
	parsed, err := url.Parse(imageURL)
	if err != nil {
		return "", err
	}

	parts := strings.Split(strings.Trim(parsed.Path, "/"), "/")
	upload := -1
	for i, p := range parts {
		if p == "upload" {
			upload = i
			break
		}
	}
	if upload < 0 || upload == len(parts)-1 {
		return "", fmt.Errorf("invalid cloudinary URL format")
	}

	rest := parts[upload+1:]
	if len(rest) > 1 && isVersionSegment(rest[0]) {
		rest = rest[1:]
	}
	joined := path.Join(rest...)
	return strings.TrimSuffix(joined, path.Ext(joined)), nil
}

func isVersionSegment(s string) bool {
	if len(s) < 2 || s[0] != 'v' {
		return false
	}
	for _, r := range s[1:] {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
