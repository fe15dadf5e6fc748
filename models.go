package userapi

import (
	"regexp"
	"strings"
	"time"

	"github.com/uptrace/bun"
)

// UserRole is the user's role
type UserRole = string

const (
	// RoleUser is the default role assigned at registration
	RoleUser UserRole = "user"
	// RoleAdmin may act on any user account
	RoleAdmin UserRole = "admin"
)

// User is the user model
type User struct {
	bun.BaseModel `bun:"table:users,alias:usr"`
	ID            int64      `bun:"id,pk,autoincrement" json:"id"`
	Username      string     `bun:"username,notnull,unique" json:"username"`
	Email         string     `bun:"email,nullzero,unique" json:"email,omitempty"`
	PasswordHash  string     `bun:"password_hash,notnull" json:"-"`
	Role          UserRole   `bun:"user_role,notnull" json:"role,omitempty"`
	IsActive      bool       `bun:"is_active,notnull" json:"is_active"`
	IsVerified    bool       `bun:"is_verified,notnull" json:"is_verified"`
	CreatedAt     *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
	UpdatedAt     *time.Time `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at,omitempty"`
}

// IsAdmin reports whether the user carries the admin role
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// Touch bumps the updated_at timestamp
func (u *User) Touch() *User {
	now := time.Now()
	u.UpdatedAt = &now
	return u
}

func prepareUserDefaults(record *User) {
	if record == nil {
		return
	}

	if record.Role == "" {
		record.Role = RoleUser
	}

	// New accounts start active; deactivation is an explicit update.
	if record.CreatedAt == nil {
		record.IsActive = true
	}
}

var emailPattern = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

// ValidateEmail checks the email format. Empty input is valid, accounts can
// exist without an address. Consecutive dots are rejected even though the
// pattern tolerates them.
func ValidateEmail(email string) error {
	if strings.TrimSpace(email) == "" {
		return nil
	}

	if !emailPattern.MatchString(email) {
		return ErrInvalidEmailFormat
	}

	if strings.Contains(email, "..") {
		return ErrInvalidEmailFormat
	}

	return nil
}
