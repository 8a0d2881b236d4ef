package factory

import (
	"github.com/mikey/email-analytics/internal/config"
	"github.com/mikey/email-analytics/internal/utils"
	"go.uber.org/zap"
)

// TextProcessorFactory creates text processors
type TextProcessorFactory struct {
	cfg    *config.Config
	logger *zap.Logger
}

// NewTextProcessorFactory creates a new TextProcessorFactory
func NewTextProcessorFactory(cfg *config.Config, logger *zap.Logger) *TextProcessorFactory {
	return &TextProcessorFactory{
		cfg:    cfg,
		logger: logger,
	}
}

// CreateTextProcessor creates a TextProcessor decoding undetectable input
// with text.fallback_charset
func (f *TextProcessorFactory) CreateTextProcessor() (*utils.TextProcessor, error) {
	charset := f.cfg.GetString("text.fallback_charset")
	tp, err := utils.NewTextProcessor(f.logger).WithFallbackCharset(charset)
	if err != nil {
		return nil, err
	}
	f.logger.Debug("Created text processor", zap.String("fallback_charset", charset))
	return tp, nil
}
