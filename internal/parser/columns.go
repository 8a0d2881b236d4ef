package parser

import (
	"strings"

	"github.com/mikey/email-analytics/internal/core"
)

// columnBinding maps header positions to semantic row fields
type columnBinding struct {
	headers []string
	fields  []string          // semantic field per position, "" for extra columns
	columns map[string]string // header -> semantic field
	// altTS is the unbound timestamp column read when the bound one is blank, -1 if none
	altTS int
}

// substringFields are checked in order; network_message_id must come before
// message_id because the latter is a substring of the former.
var substringFields = []struct {
	field    string
	patterns []string
}{
	{core.ColumnSenderAddress, []string{core.ColumnSenderAddress}},
	{core.ColumnRecipientAddress, []string{core.ColumnRecipientAddress, core.ColumnRecipients}},
	{core.ColumnNetworkMessageID, []string{core.ColumnNetworkMessageID}},
	{core.ColumnMessageID, []string{core.ColumnMessageID}},
	{core.ColumnMessageSubject, []string{core.ColumnMessageSubject}},
}

func bindColumns(headers []string) *columnBinding {
	b := &columnBinding{
		headers: headers,
		fields:  make([]string, len(headers)),
		columns: make(map[string]string),
		altTS:   -1,
	}
	bound := make(map[string]bool)
	tsIndex := TimestampIndex(headers)

	for i, h := range headers {
		lower := strings.ToLower(h)

		if i == tsIndex {
			b.bind(i, core.ColumnDateTimeUTC, bound)
			continue
		}
		if isTimestampHeader(lower) {
			if b.altTS < 0 {
				b.altTS = i
			}
			continue
		}

		for _, sf := range substringFields {
			if !containsAny(lower, sf.patterns) {
				continue
			}
			// the first matching semantic field decides; if it is taken the column stays extra
			if !bound[sf.field] {
				b.bind(i, sf.field, bound)
			}
			break
		}
	}
	return b
}

func (b *columnBinding) bind(i int, field string, bound map[string]bool) {
	b.fields[i] = field
	b.columns[b.headers[i]] = field
	bound[field] = true
}

// row zips values onto the headers; missing trailing values become empty
// strings. A blank timestamp is taken from the other timestamp column.
func (b *columnBinding) row(values []string, fileName string) core.Row {
	row := core.Row{SourceFile: fileName}
	for i, h := range b.headers {
		var v string
		if i < len(values) {
			v = values[i]
		}
		switch b.fields[i] {
		case core.ColumnDateTimeUTC:
			row.Timestamp = v
		case core.ColumnSenderAddress:
			row.Sender = v
		case core.ColumnRecipientAddress:
			row.Recipient = v
		case core.ColumnNetworkMessageID:
			row.NetworkMessageID = v
		case core.ColumnMessageID:
			row.MessageID = v
		case core.ColumnMessageSubject:
			row.Subject = v
		default:
			if row.Extra == nil {
				row.Extra = make(map[string]string)
			}
			row.Extra[h] = v
		}
	}
	if strings.TrimSpace(row.Timestamp) == "" && b.altTS >= 0 && b.altTS < len(values) {
		row.Timestamp = values[b.altTS]
	}
	return row.WithColumns(b.columns)
}

// TimestampIndex returns the position of the timestamp column, or -1.
// date_time_utc is preferred over origin_timestamp_utc.
func TimestampIndex(headers []string) int {
	for _, name := range timestampHeaders {
		for i, h := range headers {
			if strings.EqualFold(h, name) {
				return i
			}
		}
	}
	return -1
}

func isTimestampHeader(lower string) bool {
	for _, name := range timestampHeaders {
		if lower == name {
			return true
		}
	}
	return false
}

func containsAny(s string, patterns []string) bool {
	for _, p := range patterns {
		if strings.Contains(s, p) {
			return true
		}
	}
	return false
}
