package blob

import (
	"bytes"
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
)

// CloudinaryStorage stores attachment binaries in a Cloudinary folder.
type CloudinaryStorage struct {
	cld    *cloudinary.Cloudinary
	folder string
}

// NewCloudinaryStorage builds storage from a cloudinary:// URL.
func NewCloudinaryStorage(cloudinaryURL, folder string) (*CloudinaryStorage, error) {
	cld, err := cloudinary.NewFromURL(cloudinaryURL)
	if err != nil {
		return nil, fmt.Errorf("init cloudinary: %w", err)
	}
	return &CloudinaryStorage{cld: cld, folder: folder}, nil
}

// Upload stores the bytes under path.
func (s *CloudinaryStorage) Upload(ctx context.Context, path string, data []byte) error {
	_, err := s.cld.Upload.Upload(ctx, bytes.NewReader(data), uploader.UploadParams{
		PublicID: s.publicID(path),
	})
	if err != nil {
		return fmt.Errorf("upload %s: %w", path, err)
	}
	return nil
}

// Remove deletes the binary stored under path.
func (s *CloudinaryStorage) Remove(ctx context.Context, path string) error {
	_, err := s.cld.Upload.Destroy(ctx, uploader.DestroyParams{
		PublicID: s.publicID(path),
	})
	if err != nil {
		return fmt.Errorf("remove %s: %w", path, err)
	}
	return nil
}

func (s *CloudinaryStorage) publicID(path string) string {
	// Cloudinary keys assets without the extension.
	id := strings.TrimSuffix(path, ".png")
	if s.folder == "" {
		return id
	}
	return s.folder + "/" + id
}

// NoopStorage is used when no binary storage is configured; uploads are
// logged and dropped.
type NoopStorage struct{}

func (NoopStorage) Upload(ctx context.Context, path string, data []byte) error {
	log.Printf("blob noop upload path=%s size=%d", path, len(data))
	return nil
}

func (NoopStorage) Remove(ctx context.Context, path string) error {
	log.Printf("blob noop remove path=%s", path)
	return nil
}
