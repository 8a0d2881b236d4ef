package factory

import (
	"context"
	"fmt"
	"net/http"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/mikey/email-analytics/internal/adapters/source"
	"github.com/mikey/email-analytics/internal/config"
	"github.com/mikey/email-analytics/internal/core"
	"go.uber.org/zap"
)

// SourceFactory creates file sources based on configuration
type SourceFactory struct {
	cfg    *config.Config
	logger *zap.Logger
}

// NewSourceFactory creates a new source factory
func NewSourceFactory(cfg *config.Config, logger *zap.Logger) *SourceFactory {
	return &SourceFactory{
		cfg:    cfg,
		logger: logger,
	}
}

// CreateFileSource creates a file source based on the configuration
func (f *SourceFactory) CreateFileSource() (core.FileSource, error) {
	sourceCfg, err := f.cfg.GetSource()
	if err != nil {
		return nil, err
	}

	switch sourceCfg.Type {
	case "local":
		return source.NewLocalSource(sourceCfg.LocalDir, sourceCfg.MaxFileSize, f.logger)
	case "http":
		if sourceCfg.HTTPBaseURL == "" {
			return nil, fmt.Errorf("source.http_base_url is required for the http source")
		}
		client := &http.Client{Timeout: sourceCfg.FetchTimeout}
		return source.NewHTTPSource(client, sourceCfg.HTTPBaseURL, sourceCfg.HTTPIndexURL, sourceCfg.MaxFileSize, f.logger).
			WithRetries(sourceCfg.HTTPRetries), nil
	case "s3":
		if sourceCfg.S3.Bucket == "" {
			return nil, fmt.Errorf("source.s3.bucket is required for the s3 source")
		}
		awsCfg, err := awsconfig.LoadDefaultConfig(context.Background(), awsconfig.WithRegion(sourceCfg.S3.Region))
		if err != nil {
			return nil, fmt.Errorf("failed to load AWS configuration: %w", err)
		}
		f.logger.Info("Using S3 file source",
			zap.String("bucket", sourceCfg.S3.Bucket),
			zap.String("prefix", sourceCfg.S3.Prefix),
			zap.String("region", sourceCfg.S3.Region))
		return source.NewS3Source(s3.NewFromConfig(awsCfg), sourceCfg.S3.Bucket, sourceCfg.S3.Prefix, sourceCfg.MaxFileSize, f.logger), nil
	default:
		return nil, fmt.Errorf("unsupported source type: %s", sourceCfg.Type)
	}
}
