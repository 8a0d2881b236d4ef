// Package permissions implements the row-level access control applied to parsed email logs.
package permissions

import (
	"fmt"
	"strings"

	"github.com/mikey/email-analytics/internal/core"
)

// Address fields a row can be matched on
const (
	FieldSender    = "sender"
	FieldRecipient = "recipient"
	FieldEmail     = "email"
)

// DefaultMatchFields are used when no fields are configured
var DefaultMatchFields = []string{FieldSender, FieldRecipient, FieldEmail}

// Filter restricts rows to the ones a caller may see
type Filter struct {
	fields      []string
	domainMatch bool
}

// NewFilter creates a permission filter matching on the given address fields
func NewFilter(fields []string, domainMatch bool) (*Filter, error) {
	if len(fields) == 0 {
		fields = DefaultMatchFields
	}
	normalized := make([]string, 0, len(fields))
	for _, f := range fields {
		f = strings.ToLower(strings.TrimSpace(f))
		switch f {
		case FieldSender, FieldRecipient, FieldEmail:
			normalized = append(normalized, f)
		default:
			return nil, fmt.Errorf("unsupported permission match field: %s", f)
		}
	}
	return &Filter{fields: normalized, domainMatch: domainMatch}, nil
}

// CanAccessAll reports whether the caller may see unfiltered data
func CanAccessAll(caller core.Caller) bool {
	return caller.IsAdmin
}

// FilterByUser returns the rows the caller is allowed to view.
// Callers without an email see nothing.
func (f *Filter) FilterByUser(rows []core.Row, caller core.Caller) []core.Row {
	if !caller.HasIdentity() {
		return []core.Row{}
	}
	if CanAccessAll(caller) {
		return rows
	}

	email := strings.ToLower(strings.TrimSpace(caller.Email))
	domain := domainOf(email)

	visible := make([]core.Row, 0, len(rows))
	for _, row := range rows {
		if f.visible(row, email, domain) {
			visible = append(visible, row)
		}
	}
	return visible
}

func (f *Filter) visible(row core.Row, email, domain string) bool {
	for _, field := range f.fields {
		for _, addr := range addresses(row, field) {
			addr = strings.ToLower(strings.TrimSpace(addr))
			if addr == "" {
				continue
			}
			if addr == email {
				return true
			}
			if f.domainMatch && domain != "" && domainOf(addr) == domain {
				return true
			}
		}
	}
	return false
}

func addresses(row core.Row, field string) []string {
	switch field {
	case FieldSender:
		return []string{row.Sender}
	case FieldRecipient:
		return row.Recipients()
	case FieldEmail:
		return extraColumn(row, core.ColumnEmail)
	}
	return nil
}

// extraColumn returns the values of extra columns whose header matches name,
// ignoring case
func extraColumn(row core.Row, name string) []string {
	if v, ok := row.Extra[name]; ok {
		return []string{v}
	}
	var values []string
	for h, v := range row.Extra {
		if strings.EqualFold(h, name) {
			values = append(values, v)
		}
	}
	return values
}

// domainOf returns the part after the last @, or "" if there is none
func domainOf(email string) string {
	i := strings.LastIndex(email, "@")
	if i < 0 || i == len(email)-1 {
		return ""
	}
	return email[i+1:]
}
