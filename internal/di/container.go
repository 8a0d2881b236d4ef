package di

import (
	"go.uber.org/dig"
	"go.uber.org/zap"

	"github.com/mikey/email-analytics/internal/config"
	"github.com/mikey/email-analytics/internal/core"
	"github.com/mikey/email-analytics/internal/dedup"
	"github.com/mikey/email-analytics/internal/factory"
	"github.com/mikey/email-analytics/internal/logging"
	"github.com/mikey/email-analytics/internal/merge"
	"github.com/mikey/email-analytics/internal/parser"
	"github.com/mikey/email-analytics/internal/permissions"
	"github.com/mikey/email-analytics/internal/service"
	"github.com/mikey/email-analytics/internal/splitter"
	"github.com/mikey/email-analytics/internal/utils"
)

// BuildContainer creates and configures a dependency injection container
func BuildContainer() (*dig.Container, error) {
	container := dig.New()

	// Register configuration
	if err := container.Provide(config.New); err != nil {
		return nil, err
	}

	// Register logger
	if err := container.Provide(logging.InitLogger); err != nil {
		return nil, err
	}

	if err := provideComponents(container); err != nil {
		return nil, err
	}

	return container, nil
}

// provideComponents registers everything below configuration and logging
func provideComponents(container *dig.Container) error {
	// Register factories
	if err := container.Provide(factory.NewSourceFactory); err != nil {
		return err
	}
	if err := container.Provide(factory.NewCacheFactory); err != nil {
		return err
	}
	if err := container.Provide(factory.NewTextProcessorFactory); err != nil {
		return err
	}
	if err := container.Provide(factory.NewReporterFactory); err != nil {
		return err
	}

	// Register text processor
	if err := container.Provide(func(f *factory.TextProcessorFactory) (*utils.TextProcessor, error) {
		return f.CreateTextProcessor()
	}); err != nil {
		return err
	}

	// Register file source
	if err := container.Provide(func(f *factory.SourceFactory) (core.FileSource, error) {
		return f.CreateFileSource()
	}); err != nil {
		return err
	}

	// Register summary cache, nil when disabled
	if err := container.Provide(func(f *factory.CacheFactory) (core.SummaryCache, error) {
		if !f.IsCacheEnabled() {
			return nil, nil
		}
		return f.CreateSummaryCache()
	}); err != nil {
		return err
	}

	// Register admin list
	if err := container.Provide(func(cfg *config.Config, logger *zap.Logger) *permissions.AdminList {
		return permissions.NewAdminList(cfg.GetAdmins(), logger)
	}); err != nil {
		return err
	}

	// Register permission filter
	if err := container.Provide(func(cfg *config.Config) (*permissions.Filter, error) {
		p := cfg.GetPermissions()
		return permissions.NewFilter(p.MatchFields, p.DomainMatch)
	}); err != nil {
		return err
	}

	// Register parsing, deduplication and merging
	if err := container.Provide(func(f *permissions.Filter, logger *zap.Logger) *parser.Parser {
		return parser.NewParser(f, logger)
	}); err != nil {
		return err
	}
	if err := container.Provide(dedup.NewDeduplicator); err != nil {
		return err
	}
	if err := container.Provide(func(d *dedup.Deduplicator, cfg *config.Config, logger *zap.Logger) *merge.Merger {
		return merge.NewMerger(d, logger, cfg.GetBool("dedup.debug"))
	}); err != nil {
		return err
	}

	// Register service options
	if err := container.Provide(serviceOptions); err != nil {
		return err
	}

	// Register analytics service
	if err := container.Provide(func(
		source core.FileSource,
		p *parser.Parser,
		m *merge.Merger,
		tp *utils.TextProcessor,
		cache core.SummaryCache,
		logger *zap.Logger,
		opts service.Options,
	) *service.AnalyticsService {
		return service.NewAnalyticsService(source, p, m, tp, cache, logger, opts)
	}); err != nil {
		return err
	}

	// Register month splitter
	if err := container.Provide(splitter.NewSplitter); err != nil {
		return err
	}

	return nil
}

func serviceOptions(cfg *config.Config, cacheFactory *factory.CacheFactory, logger *zap.Logger) (service.Options, error) {
	sourceCfg, err := cfg.GetSource()
	if err != nil {
		return service.Options{}, err
	}
	analyticsCfg, err := cfg.GetAnalytics()
	if err != nil {
		return service.Options{}, err
	}
	ttl, err := cacheFactory.GetCacheTTL()
	if err != nil {
		return service.Options{}, err
	}

	opts := service.Options{
		CacheEnabled:   cacheFactory.IsCacheEnabled(),
		CacheTTL:       ttl,
		MaxConcurrency: sourceCfg.MaxConcurrency,
		FetchTimeout:   sourceCfg.FetchTimeout,
		Location:       analyticsCfg.Location,
	}
	logger.Debug("Service options",
		zap.Bool("cache_enabled", opts.CacheEnabled),
		zap.Duration("cache_ttl", opts.CacheTTL),
		zap.Int("max_concurrency", opts.MaxConcurrency),
		zap.Duration("fetch_timeout", opts.FetchTimeout),
		zap.String("location", opts.Location.String()))
	return opts, nil
}
