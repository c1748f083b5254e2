package bucket

import (
	"context"
	"net/http"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/tags"
)

// MinioConnection talks to a MinIO server.
type MinioConnection struct {
	client *minio.Client
}

func NewMinioConnection(client *minio.Client) *MinioConnection {
	return &MinioConnection{client: client}
}

func (m *MinioConnection) Lookup(ctx context.Context, name string) (bool, error) {
	return m.client.BucketExists(ctx, name)
}

func (m *MinioConnection) CreateBucket(ctx context.Context, name, location string) error {
	return m.client.MakeBucket(ctx, name, minio.MakeBucketOptions{Region: location})
}

func (m *MinioConnection) DeleteBucket(ctx context.Context, name string) error {
	return m.client.RemoveBucket(ctx, name)
}

func (m *MinioConnection) GetBucket(ctx context.Context, name string) (*Info, error) {
	buckets, err := m.client.ListBuckets(ctx)
	if err != nil {
		return nil, err
	}
	for _, bucket := range buckets {
		if bucket.Name != name {
			continue
		}
		location, err := m.client.GetBucketLocation(ctx, name)
		if err != nil {
			return nil, err
		}
		return &Info{
			Name:         name,
			Location:     location,
			CreationDate: bucket.CreationDate,
		}, nil
	}
	return nil, minio.ErrorResponse{
		StatusCode: http.StatusNotFound,
		Code:       "NoSuchBucket",
		Message:    "The specified bucket does not exist.",
		BucketName: name,
	}
}

func (m *MinioConnection) SetBucketPolicy(ctx context.Context, name, policy string) error {
	return m.client.SetBucketPolicy(ctx, name, policy)
}

func (m *MinioConnection) SetBucketTags(ctx context.Context, name string, tagset map[string]string) error {
	t, err := tags.NewTags(tagset, false)
	if err != nil {
		return err
	}
	return m.client.SetBucketTagging(ctx, name, t)
}

var _ Connection = &MinioConnection{}
