package factory

import (
	"fmt"
	"io"

	"github.com/mikey/email-analytics/internal/adapters/report"
	"github.com/mikey/email-analytics/internal/ports"
	"github.com/mikey/email-analytics/internal/utils"
	"go.uber.org/zap"
)

// ReporterFactory creates reporters for the supported output formats
type ReporterFactory struct {
	textProcessor *utils.TextProcessor
	logger        *zap.Logger
}

// NewReporterFactory creates a new reporter factory
func NewReporterFactory(textProcessor *utils.TextProcessor, logger *zap.Logger) *ReporterFactory {
	return &ReporterFactory{
		textProcessor: textProcessor,
		logger:        logger,
	}
}

// CreateReporter creates a reporter writing to out in the given format
func (f *ReporterFactory) CreateReporter(format string, out io.Writer) (ports.Reporter, error) {
	switch format {
	case "", "table":
		return report.NewTableReporter(out, f.textProcessor, f.logger), nil
	case "json":
		return report.NewJSONReporter(out), nil
	default:
		return nil, fmt.Errorf("unsupported output format: %s", format)
	}
}
