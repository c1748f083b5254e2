package bundle

import (
	"c3-policy-manager/internal/config"
	"c3-policy-manager/internal/minioutil"
	"context"
	"fmt"
	"io"

	"github.com/minio/minio-go/v7"
)

// MinioRepository keeps bundles as objects of a MinIO bucket, where OPA can download them.
type MinioRepository struct {
	client *minio.Client
	bucket string
}

// Get implements [Repository].
func (m *MinioRepository) Get(ctx context.Context, name string) (*Bundle, error) {
	if exists, err := m.Exists(ctx, name); err != nil {
		return nil, err
	} else if !exists {
		return nil, fmt.Errorf("%w: %s", ErrBundleNotFound, name)
	}

	reader, err := m.client.GetObject(ctx, m.bucket, name, minio.GetObjectOptions{})
	if err != nil {
		return nil, err
	}
	defer reader.Close()
	return NewFromArchive(reader)
}

// Save implements [Repository].
func (m *MinioRepository) Save(ctx context.Context, name string, bundle *Bundle) error {
	reader, writer := io.Pipe()

	go func() {
		writer.CloseWithError(bundle.Write(writer))
	}()

	if _, err := m.client.PutObject(ctx, m.bucket, name, reader, -1, minio.PutObjectOptions{
		ContentType: "application/gzip",
	}); err != nil {
		reader.CloseWithError(err)
		return err
	}
	return nil
}

// Exists implements [Repository].
// If the bucket does not exist an error is returned.
func (m *MinioRepository) Exists(ctx context.Context, name string) (bool, error) {
	exists, err := m.client.BucketExists(ctx, m.bucket)
	if err != nil {
		return false, err
	}
	if !exists {
		return false, fmt.Errorf("bucket %s does not exist", m.bucket)
	}

	objectCh := m.client.ListObjects(ctx, m.bucket, minio.ListObjectsOptions{
		Prefix:    name,
		Recursive: true,
	})
	for obj := range objectCh {
		if obj.Err != nil {
			return false, obj.Err
		}
		if obj.Key == name {
			return true, nil
		}
	}
	return false, nil
}

// CopyBundle duplicates a stored bundle, typically to keep a tagged backup of the latest one.
func (m *MinioRepository) CopyBundle(ctx context.Context, srcName, destName string) error {
	src := minio.CopySrcOptions{
		Bucket: m.bucket,
		Object: srcName,
	}
	dest := minio.CopyDestOptions{
		Bucket: m.bucket,
		Object: destName,
	}
	if _, err := m.client.CopyObject(ctx, dest, src); err != nil {
		return fmt.Errorf("error copying bundle %s to %s: %v", srcName, destName, err)
	}
	return nil
}

// CreateBucket creates the associated bucket if it does not exist.
// The bucket is readable anonymously so that OPA can poll the bundles.
func (m *MinioRepository) CreateBucket(ctx context.Context) error {
	return minioutil.EnsureBucket(ctx, m.client, m.bucket)
}

// Create a bundle repository that uses Minio as the backend.
func NewMinioRepository(endpoint, accessKey, secretKey string, secure bool, bucketName string) (*MinioRepository, error) {
	client, err := minioutil.New(endpoint, accessKey, secretKey, secure)
	if err != nil {
		return nil, err
	}

	return &MinioRepository{
		client: client,
		bucket: bucketName,
	}, nil
}

// Create a bundle repository that uses Minio as the backend.
// The Minio client is created using the package configuration.
func NewMinioRepositoryFromConfig() (*MinioRepository, error) {
	return NewMinioRepository(
		config.MinioEndpoint,
		config.MinioAccessKey,
		config.MinioSecretKey,
		config.MinioSecure,
		config.MinioBucket,
	)
}

var (
	_ Repository = &MinioRepository{}
	_ Copier     = &MinioRepository{}
)
