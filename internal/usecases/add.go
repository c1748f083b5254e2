// Copyright 2025 Matteo Brambilla - TEADAL
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package usecases chains the policy generation with the storage backends.
package usecases

import (
	"c3-policy-manager/internal/bundle"
	"c3-policy-manager/internal/config"
	"c3-policy-manager/internal/policy"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"
)

const backupTagLayout = "2006-01-02_15-04-05"

// loadLatest reads the latest bundle, or starts an empty one when none was stored yet.
func loadLatest(ctx context.Context, repo bundle.Repository) (*bundle.Bundle, bool, error) {
	b, err := repo.Get(ctx, config.LatestBundleName)
	if errors.Is(err, bundle.ErrBundleNotFound) {
		b, err = bundle.New()
		if err != nil {
			return nil, false, fmt.Errorf("error creating bundle: %w", err)
		}
		return b, false, nil
	} else if err != nil {
		return nil, false, fmt.Errorf("error loading bundle %s: %w", config.LatestBundleName, err)
	}
	return b, true, nil
}

// backupLatest stores a timestamped copy of the latest bundle, b, before it gets replaced.
func backupLatest(ctx context.Context, repo bundle.Repository, b *bundle.Bundle) error {
	backupName := config.TagBundleName(time.Now().Format(backupTagLayout))
	var err error
	if copier, ok := repo.(bundle.Copier); ok {
		err = copier.CopyBundle(ctx, config.LatestBundleName, backupName)
	} else {
		err = repo.Save(ctx, backupName, b)
	}
	if err != nil {
		return fmt.Errorf("error saving bundle backup %s: %w", backupName, err)
	}
	return nil
}

func saveLatest(ctx context.Context, repo bundle.Repository, b *bundle.Bundle) error {
	if err := repo.Save(ctx, config.LatestBundleName, b); err != nil {
		return fmt.Errorf("error saving bundle %s: %w", config.LatestBundleName, err)
	}
	return nil
}

// AddBucketToBundle adds or replaces the policy document of a bucket in the latest bundle.
func AddBucketToBundle(ctx context.Context, repo bundle.Repository, bucketName string, document *policy.Document) error {
	b, existed, err := loadLatest(ctx, repo)
	if err != nil {
		return err
	}
	if existed {
		if err := backupLatest(ctx, repo, b); err != nil {
			return err
		}
	}

	if err := b.AddBucket(bucketName, document); err != nil {
		return fmt.Errorf("error adding bucket %s to bundle: %w", bucketName, err)
	}
	if err := saveLatest(ctx, repo, b); err != nil {
		return err
	}
	slog.Info("Bundle updated", "bucket", bucketName, "revision", b.Revision())
	return nil
}
