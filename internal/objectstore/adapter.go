package objectstore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"

	browsererrors "github.com/snapvault/browser/pkg/errors"
	"github.com/snapvault/browser/pkg/types"
)

// Adapter implements types.ObjectStore against the live S3-compatible
// gateway. Every operation borrows a pooled client and returns it, per
// client.go's pool contract.
type Adapter struct {
	clients *ClientManager
	logger  *slog.Logger
}

// New builds an Object Store Adapter over an already-initialized client pool.
func New(clients *ClientManager, logger *slog.Logger) *Adapter {
	if logger == nil {
		logger = slog.Default()
	}
	return &Adapter{clients: clients, logger: logger.With("component", "objectstore")}
}

// ListBuckets lists every bucket visible to the configured credentials. No
// prefix filter; bucket-level visibility is handled by the remote filter.
func (a *Adapter) ListBuckets(ctx context.Context) ([]types.BucketInfo, error) {
	client := a.clients.Get()
	defer a.clients.Put(client)

	result, err := client.ListBuckets(ctx, &s3.ListBucketsInput{})
	if err != nil {
		return nil, translateError(err, "ListBuckets", "")
	}

	buckets := make([]types.BucketInfo, 0, len(result.Buckets))
	for _, b := range result.Buckets {
		buckets = append(buckets, types.BucketInfo{
			Name:         aws.ToString(b.Name),
			CreationDate: aws.ToTime(b.CreationDate),
		})
	}
	return buckets, nil
}

// ListObjects performs a delimited ListObjectsV2 call and reshapes the
// result into folders (from CommonPrefixes) and files (from Contents),
// dropping folder markers and empty-basename entries as the adapter
// contract requires.
func (a *Adapter) ListObjects(ctx context.Context, bucket, prefix, delimiter string, maxKeys int32) (*types.ObjectListing, error) {
	if delimiter == "" {
		delimiter = "/"
	}
	if maxKeys <= 0 {
		maxKeys = 1000
	}

	client := a.clients.Get()
	defer a.clients.Put(client)

	input := &s3.ListObjectsV2Input{
		Bucket:    aws.String(bucket),
		Prefix:    aws.String(prefix),
		Delimiter: aws.String(delimiter),
		MaxKeys:   aws.Int32(maxKeys),
	}

	result, err := client.ListObjectsV2(ctx, input)
	if err != nil {
		return nil, translateError(err, "ListObjects", bucket+"/"+prefix)
	}

	return buildListing(prefix, delimiter, result.CommonPrefixes, result.Contents, aws.ToBool(result.IsTruncated)), nil
}

// HeadObject returns an object's metadata, or nil if it does not exist.
func (a *Adapter) HeadObject(ctx context.Context, bucket, key string) (*types.ObjectMetadata, error) {
	client := a.clients.Get()
	defer a.clients.Put(client)

	result, err := client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		if isNotFound(err) {
			return nil, nil
		}
		return nil, translateError(err, "HeadObject", bucket+"/"+key)
	}

	return &types.ObjectMetadata{
		Key:          key,
		Size:         aws.ToInt64(result.ContentLength),
		LastModified: aws.ToTime(result.LastModified),
		ETag:         strings.Trim(aws.ToString(result.ETag), `"`),
		ContentType:  aws.ToString(result.ContentType),
	}, nil
}

// GetObjectBytes fully buffers an object's content.
func (a *Adapter) GetObjectBytes(ctx context.Context, bucket, key string) ([]byte, error) {
	client := a.clients.Get()
	defer a.clients.Put(client)

	result, err := client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, translateError(err, "GetObject", bucket+"/"+key)
	}
	defer result.Body.Close()

	data, err := io.ReadAll(result.Body)
	if err != nil {
		return nil, browsererrors.Wrap(browsererrors.KindTransportFailure, "failed to read object body", err).
			WithComponent("objectstore").WithOperation("GetObjectBytes")
	}
	return data, nil
}

// HealthCheck satisfies types.HealthChecker.
func (a *Adapter) HealthCheck(ctx context.Context) error {
	return a.clients.HealthCheck(ctx)
}

func isNotFound(err error) bool {
	return isErrorType[*s3types.NoSuchKey](err) || isErrorType[*s3types.NotFound](err)
}

func translateError(err error, operation, target string) error {
	switch {
	case isErrorType[*s3types.NoSuchKey](err), isErrorType[*s3types.NotFound](err):
		return browsererrors.Wrap(browsererrors.KindNotFound, fmt.Sprintf("%s: not found", target), err).
			WithComponent("objectstore").WithOperation(operation)
	case isErrorType[*s3types.NoSuchBucket](err):
		return browsererrors.Wrap(browsererrors.KindNotFound, fmt.Sprintf("bucket not found: %s", target), err).
			WithComponent("objectstore").WithOperation(operation)
	default:
		return browsererrors.Wrap(browsererrors.KindTransportFailure, fmt.Sprintf("%s failed for %s", operation, target), err).
			WithComponent("objectstore").WithOperation(operation)
	}
}

func isErrorType[T error](err error) bool {
	var target T
	return errors.As(err, &target)
}
