// Package parser turns email traffic CSV exports into datasets.
package parser

import (
	"strings"

	"github.com/mikey/email-analytics/internal/core"
	"github.com/mikey/email-analytics/internal/permissions"
	"go.uber.org/zap"
)

// requiredHeaders are matched as case-insensitive substrings; one is enough
var requiredHeaders = []string{core.ColumnDateTimeUTC, core.ColumnSenderAddress}

// timestampHeaders are matched exactly (case-insensitive), in order of preference
var timestampHeaders = []string{core.ColumnDateTimeUTC, core.ColumnOriginTimestampUTC}

// UserFilter restricts parsed rows to what a caller may see
type UserFilter interface {
	FilterByUser(rows []core.Row, caller core.Caller) []core.Row
}

// Parser parses CSV text into permission-filtered datasets
type Parser struct {
	filter UserFilter
	logger *zap.Logger
}

// NewParser creates a new parser
func NewParser(filter UserFilter, logger *zap.Logger) *Parser {
	return &Parser{
		filter: filter,
		logger: logger,
	}
}

// Parse parses CSV text for the given caller. It returns nil when the text
// is empty or does not look like an email traffic export.
func (p *Parser) Parse(csvText, fileName string, caller core.Caller) *core.Dataset {
	lines := nonBlankLines(csvText)
	if len(lines) == 0 {
		p.logger.Warn("Skipping empty CSV file", zap.String("file", fileName))
		return nil
	}

	headers := SplitLine(lines[0])
	if !IsEmailTrafficHeader(headers) {
		p.logger.Warn("Skipping non-email CSV file",
			zap.String("file", fileName),
			zap.Strings("headers", headers))
		return nil
	}

	binding := bindColumns(headers)
	rows := make([]core.Row, 0, len(lines)-1)
	for _, line := range lines[1:] {
		rows = append(rows, binding.row(SplitLine(line), fileName))
	}

	role := caller.Role
	if role == "" {
		role = permissions.RoleUser
	}

	dataset := &core.Dataset{
		Headers:    headers,
		Rows:       p.filter.FilterByUser(rows, caller),
		AllRows:    rows,
		IsFiltered: !permissions.CanAccessAll(caller),
		UserRole:   role,
		SourceFile: fileName,
	}

	p.logger.Debug("Parsed CSV file",
		zap.String("file", fileName),
		zap.Int("rows", len(dataset.AllRows)),
		zap.Int("visible_rows", len(dataset.Rows)),
		zap.Bool("filtered", dataset.IsFiltered))

	return dataset
}

// SplitLine splits one CSV line. A double quote toggles the in-quotes state,
// commas inside quotes do not separate fields, and escaped quotes are not
// supported. Fields are trimmed of whitespace and quote characters.
func SplitLine(line string) []string {
	var (
		fields   []string
		current  strings.Builder
		inQuotes bool
	)
	for _, c := range line {
		switch {
		case c == '"':
			inQuotes = !inQuotes
		case c == ',' && !inQuotes:
			fields = append(fields, cleanField(current.String()))
			current.Reset()
		default:
			current.WriteRune(c)
		}
	}
	return append(fields, cleanField(current.String()))
}

// IsEmailTrafficHeader reports whether the headers look like an email traffic export
func IsEmailTrafficHeader(headers []string) bool {
	for _, required := range requiredHeaders {
		for _, h := range headers {
			if strings.Contains(strings.ToLower(h), required) {
				return true
			}
		}
	}
	return false
}

func cleanField(s string) string {
	return strings.Trim(strings.TrimSpace(s), `"`)
}

func nonBlankLines(text string) []string {
	raw := strings.Split(text, "\n")
	lines := make([]string, 0, len(raw))
	for _, line := range raw {
		if strings.TrimSpace(line) != "" {
			lines = append(lines, line)
		}
	}
	return lines
}
