package permissions

import (
	"strings"

	"github.com/mikey/email-analytics/internal/core"
	"go.uber.org/zap"
)

const (
	RoleAdmin = "admin"
	RoleUser  = "user"
)

// builtinAdmins always have full access regardless of configuration
var builtinAdmins = []string{"daniel@wolthers.com", "rasmus@wolthers.com"}

// AdminList decides which callers may see every row
type AdminList struct {
	emails map[string]struct{}
	logger *zap.Logger
}

// NewAdminList creates an admin list from the built-in addresses plus the configured ones
func NewAdminList(configured []string, logger *zap.Logger) *AdminList {
	emails := make(map[string]struct{}, len(builtinAdmins)+len(configured))
	for _, email := range builtinAdmins {
		emails[email] = struct{}{}
	}

	var extra []string
	for _, email := range configured {
		email = strings.ToLower(strings.TrimSpace(email))
		if email == "" {
			continue
		}
		emails[email] = struct{}{}
		extra = append(extra, email)
	}

	if len(extra) > 0 && logger != nil {
		logger.Info("Loaded configured administrators", zap.Strings("emails", extra))
	}

	return &AdminList{
		emails: emails,
		logger: logger,
	}
}

// IsAdmin checks if the email belongs to an administrator
func (a *AdminList) IsAdmin(email string) bool {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return false
	}
	_, ok := a.emails[email]
	if ok && a.logger != nil {
		a.logger.Debug("Caller is an administrator", zap.String("email", email))
	}
	return ok
}

// Resolve builds the caller identity for an authenticated email address
func (a *AdminList) Resolve(email string) core.Caller {
	email = strings.TrimSpace(email)
	if email == "" {
		return core.Caller{Role: RoleUser}
	}
	if a.IsAdmin(email) {
		return core.Caller{Email: email, IsAdmin: true, Role: RoleAdmin}
	}
	return core.Caller{Email: email, Role: RoleUser}
}
