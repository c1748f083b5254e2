package usecases

import (
	"c3-policy-manager/internal/bucket"
	"c3-policy-manager/internal/generator"
	"c3-policy-manager/internal/policy"
	"c3-policy-manager/internal/policy/parser"
	"context"
	"fmt"
	"log/slog"
)

// PublishRequest describes the rule file to apply to a bucket.
type PublishRequest struct {
	RuleFile string
	Cluster  string
	Account  string
	Bucket   string
	Region   string
	// Tags are applied to the bucket when not empty.
	Tags map[string]string
}

// PublishBucketPolicy generates the policy document of a rule file and uploads it to the
// bucket, creating the bucket when missing.
func PublishBucketPolicy(ctx context.Context, conn bucket.Connection, request PublishRequest) (*policy.Document, error) {
	rules, err := parser.ReadRuleFile(request.RuleFile)
	if err != nil {
		return nil, err
	}
	document, err := generator.GenerateDocument(rules, request.Cluster, request.Account)
	if err != nil {
		return nil, fmt.Errorf("error generating policy from %s: %w", request.RuleFile, err)
	}

	b, err := bucket.Open(ctx, conn, request.Bucket, request.Region)
	if err != nil {
		return nil, err
	}
	if err := b.UploadDocument(ctx, document); err != nil {
		return nil, err
	}
	if len(request.Tags) > 0 {
		if err := b.SetTags(ctx, request.Tags); err != nil {
			return nil, err
		}
	}
	slog.Info("Bucket policy published", "bucket", request.Bucket, "statements", len(document.Statement))
	return document, nil
}
