package usecases

import (
	"c3-policy-manager/internal/bundle"
	"c3-policy-manager/internal/config"
	"context"
)

// BundleDescription summarises the latest bundle.
type BundleDescription struct {
	Name     string   `json:"name" yaml:"name"`
	Revision string   `json:"revision" yaml:"revision"`
	Buckets  []string `json:"buckets" yaml:"buckets"`
}

// DescribeBundle lists the buckets of the latest bundle.
func DescribeBundle(ctx context.Context, repo bundle.Repository) (*BundleDescription, error) {
	b, err := repo.Get(ctx, config.LatestBundleName)
	if err != nil {
		return nil, err
	}
	return &BundleDescription{
		Name:     config.LatestBundleName,
		Revision: b.Revision(),
		Buckets:  b.Describe(),
	}, nil
}
