// Package minioutil builds MinIO clients from the package configuration.
package minioutil

import (
	"c3-policy-manager/internal/config"
	"c3-policy-manager/internal/policy"
	"context"
	"fmt"

	miniosdk "github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

func New(endpoint, accessKey, secretKey string, secure bool) (*miniosdk.Client, error) {
	return miniosdk.New(
		endpoint,
		&miniosdk.Options{
			Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
			Secure: secure,
		},
	)
}

func NewFromConfig() (*miniosdk.Client, error) {
	return New(config.MinioEndpoint, config.MinioAccessKey, config.MinioSecretKey, config.MinioSecure)
}

// AnonymousReadOnlyPolicy lets anybody list the bucket and read its objects.
func AnonymousReadOnlyPolicy(bucketName string) (string, error) {
	list, err := policy.MakeStatement(policy.RoleCIDRNetworks, policy.RoleCIDRNetworks, bucketName,
		"s3:GetBucketLocation,s3:ListBucket", string(policy.EffectAllow), policy.EmptyClause)
	if err != nil {
		return "", err
	}
	read, err := policy.MakeStatement(policy.RoleCIDRNetworks, policy.RoleCIDRNetworks, bucketName+"/*",
		"s3:GetObject", string(policy.EffectAllow), policy.EmptyClause)
	if err != nil {
		return "", err
	}
	return policy.NewDocument(list, read).JSON()
}

// Check if the bucket with the provided name exists and it is anonymously accessible.
// If the bucket does not exist, it is created. A bucket without policy gets the anonymous read-only one.
func EnsureBucket(ctx context.Context, client *miniosdk.Client, bucketName string) error {
	anonymousReadOnlyPolicy, err := AnonymousReadOnlyPolicy(bucketName)
	if err != nil {
		return err
	}

	exists, err := client.BucketExists(ctx, bucketName)
	if err != nil {
		return err
	}
	if !exists {
		err = client.MakeBucket(ctx, bucketName, miniosdk.MakeBucketOptions{})
		if err != nil {
			return fmt.Errorf("failed to create bucket %s: %w", bucketName, err)
		}
	}
	if current, err := client.GetBucketPolicy(ctx, bucketName); err != nil {
		return err
	} else if current == "" {
		if err := client.SetBucketPolicy(ctx, bucketName, anonymousReadOnlyPolicy); err != nil {
			return err
		}
	}

	return nil
}
