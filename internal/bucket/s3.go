package bucket

import (
	"context"
	"errors"
	"maps"
	"slices"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
)

// S3Options configures an [S3Connection]. Empty credentials use the default AWS chain.
type S3Options struct {
	Region    string
	Endpoint  string
	AccessKey string
	SecretKey string
}

// S3Connection talks to the AWS S3 API, or to any compatible endpoint.
type S3Connection struct {
	client *s3.Client
}

func NewS3Connection(ctx context.Context, options S3Options) (*S3Connection, error) {
	loaders := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(options.Region),
	}
	if options.AccessKey != "" {
		loaders = append(loaders, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(options.AccessKey, options.SecretKey, "")))
	}
	if options.Endpoint != "" {
		loaders = append(loaders, awsconfig.WithBaseEndpoint(options.Endpoint))
	}
	cfg, err := awsconfig.LoadDefaultConfig(ctx, loaders...)
	if err != nil {
		return nil, err
	}
	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		o.UsePathStyle = options.Endpoint != ""
	})
	return &S3Connection{client: client}, nil
}

func (c *S3Connection) Lookup(ctx context.Context, name string) (bool, error) {
	_, err := c.client.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(name)})
	if err == nil {
		return true, nil
	}
	var notFound *types.NotFound
	if errors.As(err, &notFound) {
		return false, nil
	}
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) && (apiErr.ErrorCode() == "NotFound" || apiErr.ErrorCode() == "NoSuchBucket") {
		return false, nil
	}
	return false, err
}

func (c *S3Connection) CreateBucket(ctx context.Context, name, location string) error {
	input := &s3.CreateBucketInput{Bucket: aws.String(name)}
	if location != "" {
		input.CreateBucketConfiguration = &types.CreateBucketConfiguration{
			LocationConstraint: types.BucketLocationConstraint(location),
		}
	}
	_, err := c.client.CreateBucket(ctx, input)
	return err
}

func (c *S3Connection) DeleteBucket(ctx context.Context, name string) error {
	_, err := c.client.DeleteBucket(ctx, &s3.DeleteBucketInput{Bucket: aws.String(name)})
	return err
}

func (c *S3Connection) GetBucket(ctx context.Context, name string) (*Info, error) {
	out, err := c.client.GetBucketLocation(ctx, &s3.GetBucketLocationInput{Bucket: aws.String(name)})
	if err != nil {
		return nil, err
	}
	return &Info{
		Name:     name,
		Location: string(out.LocationConstraint),
	}, nil
}

func (c *S3Connection) SetBucketPolicy(ctx context.Context, name, policy string) error {
	_, err := c.client.PutBucketPolicy(ctx, &s3.PutBucketPolicyInput{
		Bucket: aws.String(name),
		Policy: aws.String(policy),
	})
	return err
}

func (c *S3Connection) SetBucketTags(ctx context.Context, name string, tagset map[string]string) error {
	tagList := make([]types.Tag, 0, len(tagset))
	for _, key := range slices.Sorted(maps.Keys(tagset)) {
		tagList = append(tagList, types.Tag{Key: aws.String(key), Value: aws.String(tagset[key])})
	}
	_, err := c.client.PutBucketTagging(ctx, &s3.PutBucketTaggingInput{
		Bucket:  aws.String(name),
		Tagging: &types.Tagging{TagSet: tagList},
	})
	return err
}

var _ Connection = &S3Connection{}
