// Package cloudflare provides a client for the R2 bucket ciphertext blobs are
// mirrored to
package cloudflare

import (
	c "bitwise74/docs-api/config"
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/smithy-go"
	"go.uber.org/zap"
)

var (
	ErrBucketMissing = errors.New("bucket does not exist")
	ErrAccessDenied  = errors.New("access to bucket denied")
)

type R2Client struct {
	C      *s3.Client
	Bucket *string
}

// Endpoint returns the S3 compatible endpoint of an account
func Endpoint(accountID string) string {
	return fmt.Sprintf("https://%s.r2.cloudflarestorage.com", accountID)
}

// NewR2 builds a client for the configured bucket and makes sure the bucket
// is reachable with the given keys
func NewR2(ctx context.Context, cf *c.Cloudflare) (*R2Client, error) {
	cfg, err := config.LoadDefaultConfig(ctx,
		config.WithRegion("auto"),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cf.AccessKeyID,
			cf.SecretAccessKey,
			"",
		)),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load R2 credentials, %w", err)
	}

	r := &R2Client{
		C: s3.NewFromConfig(cfg, func(o *s3.Options) {
			o.BaseEndpoint = aws.String(Endpoint(cf.AccountID))
		}),
		Bucket: aws.String(cf.Bucket),
	}

	if err := r.Ping(ctx); err != nil {
		return nil, err
	}

	zap.L().Info("R2 mirror ready", zap.String("bucket", cf.Bucket))
	return r, nil
}

// Ping checks that the bucket exists and the keys can access it
func (r *R2Client) Ping(ctx context.Context) error {
	_, err := r.C.HeadBucket(ctx, &s3.HeadBucketInput{
		Bucket: r.Bucket,
	})
	if err != nil {
		return bucketError(aws.ToString(r.Bucket), err)
	}

	return nil
}

func bucketError(bucket string, err error) error {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "NotFound", "NoSuchBucket":
			return fmt.Errorf("%s: %w", bucket, ErrBucketMissing)
		case "Forbidden", "AccessDenied":
			return fmt.Errorf("%s: %w", bucket, ErrAccessDenied)
		}
	}

	return fmt.Errorf("failed to check bucket %s, %w", bucket, err)
}
