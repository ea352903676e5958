package factory

import (
	"fmt"
	"os"

	"github.com/joshband/copy-that-sub002/internal/provider"
	"github.com/joshband/copy-that-sub002/internal/storage"
)

// StorageType represents different types of storage backends
type StorageType string

const (
	// HTTPStorage for HTTP-based image fetching
	HTTPStorage StorageType = "http"
	// AzureStorage for Azure blob storage
	AzureStorage StorageType = "azure"
)

// ProviderType represents different model-provider backends
type ProviderType string

const (
	// ONNXProvider loads ONNX Runtime sessions from a model directory
	ONNXProvider ProviderType = "onnx"
	// DisabledProvider reports every model unavailable
	DisabledProvider ProviderType = "disabled"
)

// StorageFactory creates storage implementations
type StorageFactory interface {
	CreateStorage(storageType StorageType, maxBytes int64) (storage.ImageFetcher, error)
}

// ProviderFactory creates model providers
type ProviderFactory interface {
	CreateProvider(providerType ProviderType, modelDir, device string) (provider.ModelProvider, error)
}

type storageFactory struct{}

// NewStorageFactory creates a new storage factory
func NewStorageFactory() StorageFactory {
	return &storageFactory{}
}

// CreateStorage creates a fetcher based on the specified type. Azure
// credentials come from AZURE_STORAGE_ACCOUNT / AZURE_STORAGE_KEY.
func (f *storageFactory) CreateStorage(storageType StorageType, maxBytes int64) (storage.ImageFetcher, error) {
	switch storageType {
	case HTTPStorage:
		return storage.NewHTTPImageFetcher(maxBytes), nil
	case AzureStorage:
		account := os.Getenv("AZURE_STORAGE_ACCOUNT")
		key := os.Getenv("AZURE_STORAGE_KEY")
		if account == "" || key == "" {
			return nil, fmt.Errorf("azure storage requires AZURE_STORAGE_ACCOUNT and AZURE_STORAGE_KEY")
		}
		return storage.NewAzureStorage(account, key)
	default:
		return nil, fmt.Errorf("unsupported storage type: %s", storageType)
	}
}

type providerFactory struct{}

// NewProviderFactory creates a new provider factory
func NewProviderFactory() ProviderFactory {
	return &providerFactory{}
}

// CreateProvider creates a model provider based on the specified type. An
// empty model directory always yields the disabled provider.
func (f *providerFactory) CreateProvider(providerType ProviderType, modelDir, device string) (provider.ModelProvider, error) {
	switch providerType {
	case ONNXProvider:
		if modelDir == "" {
			return provider.NewDisabledProvider(), nil
		}
		return provider.NewONNXProvider(modelDir, device), nil
	case DisabledProvider:
		return provider.NewDisabledProvider(), nil
	default:
		return nil, fmt.Errorf("unsupported provider type: %s", providerType)
	}
}
