package bucket

import (
	"c3-policy-manager/internal/config"
	"c3-policy-manager/internal/minioutil"
	"context"
	"fmt"
)

const (
	BackendMinio = "minio"
	BackendS3    = "s3"
)

// NewConnectionFromConfig creates the connection of the configured backend.
func NewConnectionFromConfig(ctx context.Context) (Connection, error) {
	switch config.Backend {
	case BackendMinio:
		client, err := minioutil.NewFromConfig()
		if err != nil {
			return nil, err
		}
		return NewMinioConnection(client), nil
	case BackendS3:
		return NewS3Connection(ctx, S3Options{
			Region:   config.Region,
			Endpoint: config.S3Endpoint,
		})
	default:
		return nil, fmt.Errorf("unsupported backend %q, expected %q or %q", config.Backend, BackendMinio, BackendS3)
	}
}
