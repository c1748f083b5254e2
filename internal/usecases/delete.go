package usecases

import (
	"c3-policy-manager/internal/bundle"
	"c3-policy-manager/internal/config"
	"context"
	"fmt"
	"log/slog"
)

// RemoveBucketFromBundle drops the policy document of a bucket from the latest bundle.
func RemoveBucketFromBundle(ctx context.Context, repo bundle.Repository, bucketName string) error {
	b, err := repo.Get(ctx, config.LatestBundleName)
	if err != nil {
		return fmt.Errorf("error loading bundle %s: %w", config.LatestBundleName, err)
	}
	if err := backupLatest(ctx, repo, b); err != nil {
		return err
	}

	if err := b.RemoveBucket(bucketName); err != nil {
		return fmt.Errorf("error removing bucket %s: %w", bucketName, err)
	}
	if err := saveLatest(ctx, repo, b); err != nil {
		return err
	}
	slog.Info("Successfully removed bucket policy from bundle", "bucket", bucketName, "revision", b.Revision())
	return nil
}
