package repository

import (
	"context"
	"net/url"
	"strings"

	"github.com/joshband/copy-that-sub002/internal/storage"
	"github.com/joshband/copy-that-sub002/pkg/models"
)

// FetcherImageRepository implements ImageRepository over any storage fetcher
type FetcherImageRepository struct {
	fetcher storage.ImageFetcher
}

// NewImageRepository creates a repository backed by the given fetcher
func NewImageRepository(fetcher storage.ImageFetcher) ImageRepository {
	return &FetcherImageRepository{
		fetcher: fetcher,
	}
}

// GetImage retrieves raw image bytes and metadata for a URL
func (r *FetcherImageRepository) GetImage(ctx context.Context, imageURL string) ([]byte, *models.ImageMetadata, error) {
	if err := r.ValidateImageURL(imageURL); err != nil {
		return nil, nil, err
	}
	data, contentType, err := r.fetcher.FetchImage(ctx, imageURL)
	if err != nil {
		return nil, nil, err
	}
	meta := &models.ImageMetadata{
		ContentType:   contentType,
		ContentLength: int64(len(data)),
	}
	return data, meta, nil
}

// ValidateImageURL validates if the provided URL is acceptable
func (r *FetcherImageRepository) ValidateImageURL(imageURL string) error {
	if imageURL == "" {
		return ErrInvalidImageURL
	}
	parsed, err := url.Parse(imageURL)
	if err != nil || parsed.Host == "" {
		return ErrInvalidImageURL
	}
	if !strings.HasPrefix(parsed.Scheme, "http") {
		return ErrInvalidImageURL
	}
	return nil
}
