package cloudflare

import (
	"errors"
	"fmt"
	"testing"

	"github.com/aws/smithy-go"
	"github.com/stretchr/testify/assert"
)

func TestEndpoint(t *testing.T) {
	assert.Equal(t, "https://abc123.r2.cloudflarestorage.com", Endpoint("abc123"))
}

func TestBucketError(t *testing.T) {
	wrap := func(code string) error {
		return fmt.Errorf("operation error S3: HeadBucket, %w", &smithy.GenericAPIError{Code: code})
	}

	assert.ErrorIs(t, bucketError("docs", wrap("NotFound")), ErrBucketMissing)
	assert.ErrorIs(t, bucketError("docs", wrap("NoSuchBucket")), ErrBucketMissing)
	assert.ErrorIs(t, bucketError("docs", wrap("Forbidden")), ErrAccessDenied)

	other := errors.New("dial tcp: timeout")
	err := bucketError("docs", other)
	assert.ErrorIs(t, err, other)
	assert.NotErrorIs(t, err, ErrBucketMissing)
}
