// Platewise | 2026
// entity.go

package member

import (
	"time"
)

const (
	RoleEmployee = "employee"
	RoleManager  = "manager"
	RoleAdmin    = "admin"
)

// OnlineWindow is the presence threshold: a member whose last heartbeat is
// strictly younger than this window is reported online.
const OnlineWindow = 2 * time.Minute

type Member struct {
	ID              string     `db:"id" json:"id"`
	EstablishmentID *string    `db:"establishment_id" json:"establishment_id"`
	Email           string     `db:"email" json:"email"`
	PasswordHash    string     `db:"password_hash" json:"-"`
	FirstName       string     `db:"first_name" json:"first_name"`
	LastName        string     `db:"last_name" json:"last_name"`
	Role            string     `db:"role" json:"role"`
	IsActive        bool       `db:"is_active" json:"is_active"`
	TokenVersion    int        `db:"token_version" json:"-"`
	LastActivityAt  *time.Time `db:"last_activity_at" json:"last_activity_at"`
	CreatedAt       time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time  `db:"updated_at" json:"updated_at"`
}

// AssignableRole reports whether a role may be granted through the roster.
// The admin role is provisioned out of band and never assigned here.
func AssignableRole(role string) bool {
	return role == RoleEmployee || role == RoleManager
}

func (m *Member) IsManager() bool {
	return m.Role == RoleManager || m.Role == RoleAdmin
}

func (m *Member) SameEstablishment(other *Member) bool {
	if m.EstablishmentID == nil || other.EstablishmentID == nil {
		return false
	}
	return *m.EstablishmentID == *other.EstablishmentID
}

// IsOnline derives presence from the last heartbeat. The window is strict:
// exactly OnlineWindow ago counts as offline.
func (m *Member) IsOnline(now time.Time) bool {
	if m.LastActivityAt == nil {
		return false
	}
	return now.Sub(*m.LastActivityAt) < OnlineWindow
}
