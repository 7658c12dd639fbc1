package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"
)

// ModelSource places a model artifact at a local path
type ModelSource interface {
	Fetch(ctx context.Context, dest string) error
}

type azureModelSource struct {
	client    *azblob.Client
	container string
	blob      string
}

// NewAzureModelSource downloads blob from container in the given storage account
func NewAzureModelSource(accountName, accountKey, container, blob string) (ModelSource, error) {
	credential, err := azblob.NewSharedKeyCredential(accountName, accountKey)
	if err != nil {
		return nil, fmt.Errorf("invalid azure credentials: %w", err)
	}

	client, err := azblob.NewClientWithSharedKeyCredential(
		fmt.Sprintf("https://%s.blob.core.windows.net", accountName),
		credential,
		nil,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create blob client: %w", err)
	}

	return &azureModelSource{client: client, container: container, blob: blob}, nil
}

func (s *azureModelSource) Fetch(ctx context.Context, dest string) error {
	resp, err := s.client.DownloadStream(ctx, s.container, s.blob, nil)
	if err != nil {
		return fmt.Errorf("download %s/%s failed: %w", s.container, s.blob, err)
	}

	body := resp.Body
	defer body.Close()

	return writeAtomically(dest, body)
}

// writeAtomically streams r into a sibling temp file and renames it onto dest
func writeAtomically(dest string, r io.Reader) error {
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return fmt.Errorf("create model dir: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(dest), ".model-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := io.Copy(tmp, r); err != nil {
		tmp.Close()
		return fmt.Errorf("write model: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close model: %w", err)
	}
	return os.Rename(tmp.Name(), dest)
}
