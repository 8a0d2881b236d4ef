// Package splitter breaks large email traffic exports into one file per
// calendar month, dropping exact duplicate rows on the way.
package splitter

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/mikey/email-analytics/internal/core"
	"github.com/mikey/email-analytics/internal/utils"
	"github.com/natefinch/atomic"
	"go.uber.org/zap"
)

// UnknownMonth is the bucket for rows without a parseable timestamp
const UnknownMonth = "unknown"

// ErrNoTimestampColumn is returned when the input lacks the grouping column
var ErrNoTimestampColumn = errors.New("timestamp column not found")

// Output describes one written month file
type Output struct {
	Month string
	Path  string
	Rows  int
}

// Result describes the split of one input file
type Result struct {
	Input      string
	Charset    string
	TotalRows  int
	Duplicates int
	Outputs    []Output
}

// Splitter splits CSV exports by month of a timestamp column
type Splitter struct {
	textProcessor *utils.TextProcessor
	logger        *zap.Logger
	column        string
}

// NewSplitter creates a splitter grouping on origin_timestamp_utc
func NewSplitter(textProcessor *utils.TextProcessor, logger *zap.Logger) *Splitter {
	return &Splitter{
		textProcessor: textProcessor,
		logger:        logger,
		column:        core.ColumnOriginTimestampUTC,
	}
}

// WithColumn returns a copy of the splitter grouping on another column
func (s *Splitter) WithColumn(column string) *Splitter {
	copied := *s
	copied.column = column
	return &copied
}

// SplitDir splits every CSV file directly inside inputDir. Files that fail
// are logged and skipped.
func (s *Splitter) SplitDir(inputDir, outputDir string) ([]Result, error) {
	inputs, err := filepath.Glob(filepath.Join(inputDir, "*.csv"))
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", inputDir, err)
	}
	sort.Strings(inputs)
	s.logger.Info("Splitting CSV files", zap.Int("files", len(inputs)), zap.String("output_dir", outputDir))

	results := make([]Result, 0, len(inputs))
	for _, input := range inputs {
		result, err := s.SplitFile(input, outputDir)
		if err != nil {
			s.logger.Warn("Failed to split file", zap.String("file", input), zap.Error(err))
			continue
		}
		results = append(results, *result)
	}
	return results, nil
}

// SplitFile splits a single file
func (s *Splitter) SplitFile(inputPath, outputDir string) (*Result, error) {
	data, err := os.ReadFile(inputPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", inputPath, err)
	}
	return s.Split(filepath.Base(inputPath), data, outputDir)
}

// Split groups the rows of data by month and writes <base>_<YYYY-MM>.csv
// files, each starting with the original header row.
func (s *Splitter) Split(name string, data []byte, outputDir string) (*Result, error) {
	text, charset, err := s.textProcessor.DecodeCSV(data)
	if err != nil {
		return nil, err
	}

	reader := csv.NewReader(strings.NewReader(text))
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	headers, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read header of %s: %w", name, err)
	}
	tsIndex := -1
	for i, h := range headers {
		if strings.TrimSpace(h) == s.column {
			tsIndex = i
			break
		}
	}
	if tsIndex < 0 {
		return nil, fmt.Errorf("%s: %q: %w", name, s.column, ErrNoTimestampColumn)
	}

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", name, err)
	}

	result := &Result{Input: name, Charset: charset, TotalRows: len(records)}
	months := make(map[string][][]string)
	seen := make(map[string]struct{}, len(records))
	for _, record := range records {
		key := strings.Join(record, "\x00")
		if _, dup := seen[key]; dup {
			result.Duplicates++
			continue
		}
		seen[key] = struct{}{}

		month := UnknownMonth
		if tsIndex < len(record) {
			if t, ok := core.ParseTimestamp(record[tsIndex], time.UTC); ok {
				month = t.Format("2006-01")
			}
		}
		months[month] = append(months[month], record)
	}

	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	keys := make([]string, 0, len(months))
	for m := range months {
		keys = append(keys, m)
	}
	sort.Strings(keys)

	base := strings.TrimSuffix(name, filepath.Ext(name))
	for _, month := range keys {
		rows := months[month]
		path := filepath.Join(outputDir, fmt.Sprintf("%s_%s.csv", base, month))
		if err := writeCSV(path, headers, rows); err != nil {
			return nil, err
		}
		result.Outputs = append(result.Outputs, Output{Month: month, Path: path, Rows: len(rows)})
		s.logger.Debug("Wrote month file", zap.String("file", path), zap.Int("rows", len(rows)))
	}

	s.logger.Info("Split file",
		zap.String("file", name),
		zap.String("charset", charset),
		zap.Int("rows", result.TotalRows),
		zap.Int("duplicates_removed", result.Duplicates),
		zap.Int("outputs", len(result.Outputs)))
	return result, nil
}

func writeCSV(path string, headers []string, rows [][]string) error {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)
	if err := writer.Write(headers); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	if err := writer.WriteAll(rows); err != nil {
		return fmt.Errorf("failed to write rows: %w", err)
	}
	if err := atomic.WriteFile(path, &buf); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}
