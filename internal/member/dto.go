// Platewise | 2026
// dto.go

package member

import (
	"time"
)

type ChangeRoleRequest struct {
	MemberID string `json:"memberId"  validate:"required,uuid"`
	NewRole  string `json:"newRole"   validate:"required,oneof=employee manager"`
}

type RemoveMemberRequest struct {
	MemberID string `json:"memberId" validate:"required,uuid"`
}

type MemberResponse struct {
	ID        string `json:"id"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Role      string `json:"role"`
}

type RosterActionResponse struct {
	Success bool           `json:"success"`
	Message string         `json:"message"`
	Member  MemberResponse `json:"member"`
}

type HeartbeatResponse struct {
	Success bool `json:"success"`
}

type PresenceMemberResponse struct {
	ID        string     `json:"id"`
	FirstName string     `json:"firstName"`
	LastName  string     `json:"lastName"`
	Role      string     `json:"role"`
	IsActive  bool       `json:"isActive"`
	IsOnline  bool       `json:"isOnline"`
	LastSeen  *time.Time `json:"lastSeen"`
	CreatedAt time.Time  `json:"createdAt"`
}

type TeamResponse struct {
	Members []PresenceMemberResponse `json:"members"`
}

func ToMemberResponse(m *Member) MemberResponse {
	return MemberResponse{
		ID:        m.ID,
		FirstName: m.FirstName,
		LastName:  m.LastName,
		Role:      m.Role,
	}
}

func ToPresenceResponse(entries []PresenceEntry) []PresenceMemberResponse {
	out := make([]PresenceMemberResponse, 0, len(entries))
	for _, e := range entries {
		out = append(out, PresenceMemberResponse{
			ID:        e.Member.ID,
			FirstName: e.Member.FirstName,
			LastName:  e.Member.LastName,
			Role:      e.Member.Role,
			IsActive:  e.Member.IsActive,
			IsOnline:  e.IsOnline,
			LastSeen:  e.Member.LastActivityAt,
			CreatedAt: e.Member.CreatedAt,
		})
	}
	return out
}
