package repository

import "errors"

var (
	// ErrInvalidImageURL indicates the image URL failed validation
	ErrInvalidImageURL = errors.New("invalid image URL")

	// ErrImageNotFound indicates the source had no image at the URL
	ErrImageNotFound = errors.New("image not found")
)
