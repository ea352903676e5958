package storage

import (
	"context"
	"fmt"
	"io"
	"net/url"

	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"
)

// azureStorage fetches image bytes from Azure Blob Storage. URLs take the
// form https://<account>.blob.core.windows.net/<container>?blob=<name>.
type azureStorage struct {
	client *azblob.Client
}

// NewAzureStorage creates a blob-backed ImageFetcher using shared-key auth
func NewAzureStorage(accountName string, accountKey string) (ImageFetcher, error) {
	credential, err := azblob.NewSharedKeyCredential(accountName, accountKey)
	if err != nil {
		return nil, err
	}

	client, err := azblob.NewClientWithSharedKeyCredential(
		fmt.Sprintf("https://%s.blob.core.windows.net", accountName),
		credential,
		nil,
	)
	if err != nil {
		return nil, err
	}

	return &azureStorage{client: client}, nil
}

// FetchImage downloads blob bytes; content type comes from blob properties
// when the service reports one.
func (s *azureStorage) FetchImage(ctx context.Context, blobURL string) ([]byte, string, error) {
	parsedURL, err := url.Parse(blobURL)
	if err != nil {
		return nil, "", fmt.Errorf("invalid blob URL: %w", err)
	}
	if len(parsedURL.Path) < 2 {
		return nil, "", fmt.Errorf("blob URL missing container: %s", blobURL)
	}

	containerName := parsedURL.Path[1:] // Remove leading slash
	blobName := parsedURL.Query().Get("blob")
	if blobName == "" {
		return nil, "", fmt.Errorf("blob URL missing blob query parameter: %s", blobURL)
	}

	downloadResponse, err := s.client.DownloadStream(ctx, containerName, blobName, nil)
	if err != nil {
		return nil, "", fmt.Errorf("download failed: %w", err)
	}
	defer downloadResponse.Body.Close()

	data, err := io.ReadAll(downloadResponse.Body)
	if err != nil {
		return nil, "", fmt.Errorf("read blob: %w", err)
	}

	contentType := ""
	if downloadResponse.ContentType != nil {
		contentType = *downloadResponse.ContentType
	}
	return data, contentType, nil
}
