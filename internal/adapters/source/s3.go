package source

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/mikey/email-analytics/internal/core"
	"go.uber.org/zap"
)

// S3API is the subset of the S3 client used by S3Source
type S3API interface {
	ListObjectsV2(ctx context.Context, params *s3.ListObjectsV2Input, optFns ...func(*s3.Options)) (*s3.ListObjectsV2Output, error)
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// S3Source serves CSV files stored under a prefix of an S3 bucket
type S3Source struct {
	client  S3API
	bucket  string
	prefix  string
	maxSize int64
	logger  *zap.Logger
}

// NewS3Source creates a new S3 file source
func NewS3Source(client S3API, bucket, prefix string, maxSize int64, logger *zap.Logger) *S3Source {
	prefix = strings.Trim(prefix, "/")
	if prefix != "" {
		prefix += "/"
	}
	return &S3Source{
		client:  client,
		bucket:  bucket,
		prefix:  prefix,
		maxSize: maxSize,
		logger:  logger,
	}
}

// List returns the CSV objects directly under the prefix, newest first
func (s *S3Source) List(ctx context.Context) ([]core.FileInfo, error) {
	paginator := s3.NewListObjectsV2Paginator(s.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(s.bucket),
		Prefix: aws.String(s.prefix),
	})

	var files []core.FileInfo
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list objects in %s: %w", s.bucket, err)
		}
		for _, obj := range page.Contents {
			name := strings.TrimPrefix(aws.ToString(obj.Key), s.prefix)
			if name == "" || strings.Contains(name, "/") || !isCSV(name) {
				continue
			}
			files = append(files, core.FileInfo{
				Name:     name,
				Size:     aws.ToInt64(obj.Size),
				Modified: aws.ToTime(obj.LastModified),
			})
		}
	}
	sortNewestFirst(files)
	return files, nil
}

// Fetch downloads an object
func (s *S3Source) Fetch(ctx context.Context, name string) ([]byte, error) {
	key := path.Join(s.prefix, name)
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		var noSuchKey *types.NoSuchKey
		if errors.As(err, &noSuchKey) {
			return nil, fmt.Errorf("%s: %w", name, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get object %s: %w", key, err)
	}
	defer out.Body.Close()

	if s.maxSize > 0 && aws.ToInt64(out.ContentLength) > s.maxSize {
		return nil, fmt.Errorf("%s exceeds %d bytes: %w", name, s.maxSize, ErrTooLarge)
	}

	s.logger.Debug("Fetched object from S3", zap.String("bucket", s.bucket), zap.String("key", key))
	return readLimited(out.Body, name, s.maxSize)
}
