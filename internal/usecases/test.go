package usecases

import (
	"c3-policy-manager/internal/bundle"
	"c3-policy-manager/internal/config"
	"context"
	"errors"
	"fmt"
	"log/slog"
)

var selfTest = `package c3.selftest

import rego.v1

import data.c3

test_unknown_bucket_denied if {
	not c3.allow with input as {
		"bucket": "c3-selftest-unknown-bucket",
		"action": "s3:GetObject",
		"resource": "c3-selftest-unknown-bucket/object",
		"principal": "*",
	}
}
`

var ErrTestsFailed = errors.New("some tests failed")

// RunBundleTests runs rego tests against the latest bundle.
func RunBundleTests(ctx context.Context, repo bundle.Repository, tests map[string]string) ([]bundle.TestResult, error) {
	b, err := repo.Get(ctx, config.LatestBundleName)
	if err != nil {
		return nil, err
	}
	results, err := b.Test(ctx, tests)
	if err != nil {
		return nil, err
	}
	for _, result := range results {
		if !result.Passed {
			slog.Error(fmt.Sprintf("%s failed", result.Name), "error", result.Error)
			err = ErrTestsFailed
		}
	}
	return results, err
}

// InitialTest makes sure a latest bundle exists, creating an empty one if needed, and checks it
// evaluates.
func InitialTest(ctx context.Context, repo bundle.Repository) error {
	exists, err := repo.Exists(ctx, config.LatestBundleName)
	if err != nil {
		return fmt.Errorf("error checking bundle existence: %w", err)
	}
	if !exists {
		b, err := bundle.New()
		if err != nil {
			return err
		}
		if err := repo.Save(ctx, config.LatestBundleName, b); err != nil {
			return fmt.Errorf("error writing bundle: %w", err)
		}
		slog.Info("Empty bundle created", "bundle", config.LatestBundleName)
	}

	if _, err := RunBundleTests(ctx, repo, map[string]string{"/c3/selftest_test.rego": selfTest}); err != nil {
		return err
	}
	slog.Info("All rego tests passed successfully")
	return nil
}
