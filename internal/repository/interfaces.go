package repository

import (
	"context"

	"github.com/joshband/copy-that-sub002/pkg/models"
)

// ImageRepository abstracts where analysis inputs come from: it resolves a
// URL to raw bytes plus lightweight metadata, leaving decoding to the
// pipeline.
type ImageRepository interface {
	// GetImage retrieves raw image bytes for the given URL
	GetImage(ctx context.Context, imageURL string) ([]byte, *models.ImageMetadata, error)

	// ValidateImageURL validates if the provided URL is acceptable
	ValidateImageURL(imageURL string) error
}
