// Package dedup removes email records that appear in more than one upload.
package dedup

import (
	"strconv"
	"strings"
	"unicode/utf16"

	"github.com/mikey/email-analytics/internal/core"
	"go.uber.org/zap"
)

const (
	fallbackSubjectLen = 50
	detailSubjectLen   = 100
	sampleDuplicates   = 5
)

// ComputeIdentity returns the key used to detect the same email across files.
// It only depends on field values, never on the source file.
func ComputeIdentity(row core.Row) string {
	subject := strings.TrimSpace(row.Subject)

	if row.MessageID != "" {
		return "msg_" + row.MessageID
	}
	if row.NetworkMessageID != "" {
		return "net_" + row.NetworkMessageID
	}
	if row.Timestamp != "" && row.Sender != "" {
		return "composite_" + row.Timestamp + "_" + row.Sender + "_" + strconv.Itoa(int(SubjectHash(subject)))
	}
	return "fallback_" + row.Timestamp + "_" + row.Sender + "_" + truncate(subject, fallbackSubjectLen) +
		"_" + row.MessageID + "_" + row.NetworkMessageID
}

// SubjectHash is the 31-multiplier rolling hash over UTF-16 code units, wrapped to 32 bits.
// It only bounds the key length.
func SubjectHash(subject string) int32 {
	var h int32
	for _, c := range utf16.Encode([]rune(subject)) {
		h = h*31 + int32(c)
	}
	return h
}

// Deduplicator removes repeated rows
type Deduplicator struct {
	logger *zap.Logger
}

// NewDeduplicator creates a new deduplicator
func NewDeduplicator(logger *zap.Logger) *Deduplicator {
	return &Deduplicator{logger: logger}
}

// Deduplicate keeps the first row for every identity key, in input order.
// Details of dropped rows are only collected in debug mode.
func (d *Deduplicator) Deduplicate(rows []core.Row, debug bool) core.DeduplicationResult {
	result := core.DeduplicationResult{Rows: make([]core.Row, 0, len(rows))}
	if len(rows) == 0 {
		return result
	}

	seen := make(map[string]core.Row, len(rows))
	for _, row := range rows {
		key := ComputeIdentity(row)
		first, ok := seen[key]
		if !ok {
			seen[key] = row
			result.Rows = append(result.Rows, row)
			continue
		}

		result.DuplicatesRemoved++
		if debug {
			result.Details = append(result.Details, core.DuplicateDetail{
				Key:           key,
				FirstFile:     first.SourceFile,
				DuplicateFile: row.SourceFile,
				Timestamp:     row.Timestamp,
				Sender:        row.Sender,
				Subject:       truncate(row.Subject, detailSubjectLen),
			})
		}
	}
	result.UniqueCount = len(result.Rows)

	if debug && result.DuplicatesRemoved > 0 {
		d.logResult(len(rows), result)
	}
	return result
}

func (d *Deduplicator) logResult(total int, result core.DeduplicationResult) {
	if d.logger == nil {
		return
	}
	d.logger.Debug("Email deduplication results",
		zap.Int("processed", total),
		zap.Int("unique", result.UniqueCount),
		zap.Int("duplicates_removed", result.DuplicatesRemoved))

	for i, dup := range result.Details {
		if i == sampleDuplicates {
			d.logger.Debug("More duplicates not shown", zap.Int("remaining", len(result.Details)-sampleDuplicates))
			break
		}
		d.logger.Debug("Duplicate removed",
			zap.String("sender", dup.Sender),
			zap.String("subject", dup.Subject),
			zap.String("first_file", dup.FirstFile),
			zap.String("duplicate_file", dup.DuplicateFile))
	}
}

// truncate keeps at most n characters
func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
