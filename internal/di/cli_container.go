package di

import (
	"go.uber.org/dig"
	"go.uber.org/zap"

	"github.com/mikey/email-analytics/internal/config"
	"github.com/mikey/email-analytics/internal/logging"
)

// CLIFlags contains the command line flags shared by the CLI commands
type CLIFlags struct {
	// Source flags
	SourceType string
	SourceDir  string
	SourceURL  string
	IndexURL   string
	S3Bucket   string
	S3Prefix   string
	S3Region   string

	// Cache flags
	CacheType string
	NoCache   bool

	// Analytics flags
	Timezone   string
	DedupDebug bool

	// Output flags
	Verbose    bool
	JSONLog    bool
	ConfigFile string
}

// BuildCLIContainer creates and configures a dependency injection container for the CLI application
func BuildCLIContainer(flags *CLIFlags) (*dig.Container, error) {
	container := dig.New()

	// Register flags
	if err := container.Provide(func() *CLIFlags { return flags }); err != nil {
		return nil, err
	}

	// Register logger
	if err := container.Provide(func(flags *CLIFlags) (*zap.Logger, error) {
		return logging.InitConsoleLogger(flags.Verbose, flags.JSONLog)
	}); err != nil {
		return nil, err
	}

	// Register configuration
	if err := container.Provide(func(flags *CLIFlags, logger *zap.Logger) (*config.Config, error) {
		var cfg *config.Config
		if flags.ConfigFile != "" {
			loaded, err := config.Load(flags.ConfigFile)
			if err != nil {
				return nil, err
			}
			logger.Info("Loaded configuration from file", zap.String("file", loaded.GetViper().ConfigFileUsed()))
			cfg = loaded
		} else {
			cfg = config.NewFromViper(config.NewEmptyViper())
		}

		// Flags given on the command line win over the file
		applyFlags(cfg, flags)
		return cfg, nil
	}); err != nil {
		return nil, err
	}

	if err := provideComponents(container); err != nil {
		return nil, err
	}

	return container, nil
}

// applyFlags copies the non-empty flags into the configuration
func applyFlags(cfg *config.Config, flags *CLIFlags) {
	v := cfg.GetViper()
	set := func(key, value string) {
		if value != "" {
			v.Set(key, value)
		}
	}

	set("source.type", flags.SourceType)
	set("source.local_dir", flags.SourceDir)
	set("source.http_base_url", flags.SourceURL)
	set("source.http_index_url", flags.IndexURL)
	set("source.s3.bucket", flags.S3Bucket)
	set("source.s3.prefix", flags.S3Prefix)
	set("source.s3.region", flags.S3Region)
	set("cache.type", flags.CacheType)
	set("analytics.timezone", flags.Timezone)

	if flags.NoCache {
		v.Set("cache.enabled", false)
	}
	if flags.DedupDebug {
		v.Set("dedup.debug", true)
	}
	if flags.Verbose {
		v.Set("logging.level", "debug")
	}
}
