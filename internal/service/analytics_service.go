// Package service ties the file source, parser, merger and aggregation
// views together.
package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/mikey/email-analytics/internal/analytics"
	"github.com/mikey/email-analytics/internal/core"
	"github.com/mikey/email-analytics/internal/parser"
	"github.com/mikey/email-analytics/internal/utils"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// ErrNoValidFiles is returned when none of the requested files could be
// fetched and parsed
var ErrNoValidFiles = errors.New("no valid files could be loaded")

// CSVParser turns decoded CSV text into a dataset for a caller
type CSVParser interface {
	Parse(csvText, fileName string, caller core.Caller) *core.Dataset
}

// DatasetMerger unions parsed datasets
type DatasetMerger interface {
	Merge(datasets []*core.Dataset) *core.MergedDataset
}

// Options holds the tunables of the service
type Options struct {
	CacheEnabled   bool
	CacheTTL       time.Duration
	MaxConcurrency int
	FetchTimeout   time.Duration
	Location       *time.Location
}

// AnalyticsService loads uploaded CSV files and builds the dashboard views
type AnalyticsService struct {
	source        core.FileSource
	parser        CSVParser
	merger        DatasetMerger
	textProcessor *utils.TextProcessor
	cache         core.SummaryCache
	logger        *zap.Logger
	opts          Options
}

// NewAnalyticsService creates a new analytics service
func NewAnalyticsService(
	source core.FileSource,
	parser CSVParser,
	merger DatasetMerger,
	textProcessor *utils.TextProcessor,
	cache core.SummaryCache,
	logger *zap.Logger,
	opts Options,
) *AnalyticsService {
	if opts.MaxConcurrency <= 0 {
		opts.MaxConcurrency = 1
	}
	if cache == nil {
		opts.CacheEnabled = false
	}
	return &AnalyticsService{
		source:        source,
		parser:        parser,
		merger:        merger,
		textProcessor: textProcessor,
		cache:         cache,
		logger:        logger,
		opts:          opts,
	}
}

// Load fetches the named files concurrently, parses each for the caller and
// merges the results. Files that fail to fetch, decode or validate are
// dropped with a warning; ErrNoValidFiles is returned if none remain, or
// the context error if ctx ended first.
func (s *AnalyticsService) Load(ctx context.Context, caller core.Caller, names []string) (*core.MergedDataset, error) {
	texts := s.fetchAll(ctx, names)

	datasets := make([]*core.Dataset, 0, len(names))
	for i, name := range names {
		if texts[i] == nil {
			continue
		}
		dataset := s.parser.Parse(*texts[i], name, caller)
		if dataset == nil {
			continue
		}
		datasets = append(datasets, dataset)
	}

	if len(datasets) == 0 {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("loading %d files: %w", len(names), err)
		}
		return nil, fmt.Errorf("loading %d files: %w", len(names), ErrNoValidFiles)
	}
	if dropped := len(names) - len(datasets); dropped > 0 {
		s.logger.Warn("Some files were dropped", zap.Int("dropped", dropped), zap.Int("loaded", len(datasets)))
	}

	merged := s.merger.Merge(datasets)
	s.logger.Info("Loaded datasets",
		zap.Int("files", merged.FileCount),
		zap.Int("records", merged.TotalRecords),
		zap.Bool("filtered", merged.IsFiltered))
	return merged, nil
}

// fetchAll returns the decoded text of every file, in request order. A nil
// entry marks a file that could not be loaded.
func (s *AnalyticsService) fetchAll(ctx context.Context, names []string) []*string {
	texts := make([]*string, len(names))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.opts.MaxConcurrency)
	for i, name := range names {
		g.Go(func() error {
			text, err := s.fetchText(gctx, name)
			if err != nil {
				s.logger.Warn("Failed to load file", zap.String("file", name), zap.Error(err))
				return nil
			}
			texts[i] = &text
			return nil
		})
	}
	// Per-file errors are logged, never returned.
	_ = g.Wait()

	return texts
}

func (s *AnalyticsService) fetchText(ctx context.Context, name string) (string, error) {
	if s.opts.FetchTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.opts.FetchTimeout)
		defer cancel()
	}

	data, err := s.source.Fetch(ctx, name)
	if err != nil {
		return "", err
	}
	text, charset, err := s.textProcessor.DecodeCSV(data)
	if err != nil {
		return "", err
	}
	s.logger.Debug("Fetched file", zap.String("file", name), zap.String("charset", charset), zap.Int("bytes", len(data)))
	return text, nil
}

// FileNames returns the names of the available files, newest first, without
// fetching their content
func (s *AnalyticsService) FileNames(ctx context.Context) ([]string, error) {
	files, err := s.source.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list files: %w", err)
	}
	names := make([]string, len(files))
	for i, f := range files {
		names[i] = f.Name
	}
	return names, nil
}

// ListFiles returns the available files, newest first, with their record
// count and date range. A file whose summary cannot be computed is listed
// without one.
func (s *AnalyticsService) ListFiles(ctx context.Context) ([]core.FileListing, error) {
	files, err := s.source.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list files: %w", err)
	}

	listings := make([]core.FileListing, len(files))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.opts.MaxConcurrency)
	for i, file := range files {
		listings[i].FileInfo = file
		g.Go(func() error {
			summary, err := s.summarize(gctx, file)
			if err != nil {
				s.logger.Warn("Failed to summarize file", zap.String("file", file.Name), zap.Error(err))
				return nil
			}
			listings[i].Summary = summary
			return nil
		})
	}
	_ = g.Wait()

	return listings, nil
}

func (s *AnalyticsService) summarize(ctx context.Context, file core.FileInfo) (*core.FileSummary, error) {
	key := summaryKey(file)

	// Check cache if enabled
	if s.opts.CacheEnabled {
		if entry, err := s.cache.Get(ctx, key); err == nil {
			s.logger.Debug("Cache hit for file summary", zap.String("file", file.Name))
			return &entry.Summary, nil
		}
	}

	text, err := s.fetchText(ctx, file.Name)
	if err != nil {
		return nil, err
	}
	summary := parser.Summarize(text, file.Name)

	if s.opts.CacheEnabled {
		if err := s.cache.Set(ctx, key, summary, s.opts.CacheTTL); err != nil {
			s.logger.Error("Failed to update cache", zap.Error(err))
		}
	}
	return &summary, nil
}

// summaryKey changes whenever the file is replaced
func summaryKey(file core.FileInfo) string {
	return file.Name + "|" + strconv.FormatInt(file.Modified.UnixNano(), 10) + "|" + strconv.FormatInt(file.Size, 10)
}

// Analyze builds the dashboard views over the caller-visible rows of a
// merged dataset. A nil dataset yields empty views.
func (s *AnalyticsService) Analyze(merged *core.MergedDataset, q analytics.Query) analytics.View {
	if q.Location == nil {
		q.Location = s.opts.Location
	}
	var rows []core.Row
	if merged != nil && merged.Dataset != nil {
		rows = merged.Rows
	}
	return analytics.Build(rows, q)
}
