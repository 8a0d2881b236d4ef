package core

import (
	"strings"
	"time"
)

// Well-known column names of an email traffic export
const (
	ColumnDateTimeUTC        = "date_time_utc"
	ColumnOriginTimestampUTC = "origin_timestamp_utc"
	ColumnSenderAddress      = "sender_address"
	ColumnRecipientAddress   = "recipient_address"
	ColumnRecipients         = "recipients"
	ColumnMessageID          = "message_id"
	ColumnNetworkMessageID   = "network_message_id"
	ColumnMessageSubject     = "message_subject"
	ColumnEmail              = "email"
)

// Row represents one parsed line of an email traffic CSV
type Row struct {
	Timestamp        string
	Sender           string
	Recipient        string
	MessageID        string
	NetworkMessageID string
	Subject          string

	// Extra holds every column that is not bound to a semantic field
	Extra map[string]string

	// SourceFile is the name of the file the row was parsed from
	SourceFile string

	// columns maps the original header name to the semantic field it was bound to
	columns map[string]string
}

// Get returns the value of a column by its original header name
func (r Row) Get(header string) string {
	if field, ok := r.columns[header]; ok {
		return r.field(field)
	}
	return r.Extra[header]
}

// WithColumns returns a copy of the row that remembers which header fed each semantic field
func (r Row) WithColumns(columns map[string]string) Row {
	r.columns = columns
	return r
}

func (r Row) field(name string) string {
	switch name {
	case ColumnDateTimeUTC:
		return r.Timestamp
	case ColumnSenderAddress:
		return r.Sender
	case ColumnRecipientAddress:
		return r.Recipient
	case ColumnMessageID:
		return r.MessageID
	case ColumnNetworkMessageID:
		return r.NetworkMessageID
	case ColumnMessageSubject:
		return r.Subject
	}
	return ""
}

// Recipients splits the recipient cell into individual addresses
func (r Row) Recipients() []string {
	if r.Recipient == "" {
		return nil
	}
	parts := strings.FieldsFunc(r.Recipient, func(c rune) bool {
		return c == ';' || c == ','
	})
	recipients := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			recipients = append(recipients, p)
		}
	}
	return recipients
}

// Caller identifies who is asking for data
type Caller struct {
	Email   string
	IsAdmin bool
	Role    string
}

// HasIdentity reports whether the caller could be resolved to an email address
func (c Caller) HasIdentity() bool {
	return strings.TrimSpace(c.Email) != ""
}

// Dataset is the parsed and permission-filtered content of one file
type Dataset struct {
	Headers    []string
	Rows       []Row
	AllRows    []Row
	IsFiltered bool
	UserRole   string
	SourceFile string
}

// DeduplicationCounts summarizes one deduplication pass
type DeduplicationCounts struct {
	OriginalCount     int
	UniqueCount       int
	DuplicatesRemoved int
}

// DeduplicationStats holds the counts for the filtered and unfiltered row sets
type DeduplicationStats struct {
	Filtered   DeduplicationCounts
	Unfiltered DeduplicationCounts
}

// MergedDataset is the union of several datasets loaded for one caller
type MergedDataset struct {
	*Dataset

	FileCount    int
	TotalRecords int
	SourceFiles  []string

	// Stats is nil when a single dataset was passed through without deduplication
	Stats *DeduplicationStats
}

// DuplicateDetail describes a dropped duplicate row
type DuplicateDetail struct {
	Key           string
	FirstFile     string
	DuplicateFile string
	Timestamp     string
	Sender        string
	Subject       string
}

// DeduplicationResult represents the outcome of a deduplication pass
type DeduplicationResult struct {
	Rows              []Row
	DuplicatesRemoved int
	UniqueCount       int
	Details           []DuplicateDetail
}

// FileInfo describes a CSV file available from a file source
type FileInfo struct {
	Name     string
	Size     int64
	Modified time.Time
}

// FileSummary describes the content of a CSV file without permission filtering
type FileSummary struct {
	Name        string
	RecordCount int
	Earliest    *time.Time
	Latest      *time.Time
}

// CacheEntry is a cached file summary
type CacheEntry struct {
	Key       string
	Summary   FileSummary
	CachedAt  time.Time
	ExpiresAt time.Time
}

// FileListing pairs a file with its summary
type FileListing struct {
	FileInfo
	Summary *FileSummary
}
