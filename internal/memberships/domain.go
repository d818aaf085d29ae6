package memberships

import (
	"time"

	"github.com/google/uuid"
)

// Membership binds a user to a role within a school. A nil SchoolID denotes
// a global membership; a user holds at most one membership per school and at
// most one global membership.
type Membership struct {
	ID        uuid.UUID  `json:"id"`
	UserID    uuid.UUID  `json:"userId"`
	SchoolID  *uuid.UUID `json:"schoolId"`
	RoleID    uuid.UUID  `json:"roleId"`
	CreatedAt time.Time  `json:"createdAt"`
}

// IsGlobal reports whether the membership is system-level.
func (m Membership) IsGlobal() bool {
	return m.SchoolID == nil
}

// Member is the school-roster view of a membership, joined with the user's
// display name and role.
type Member struct {
	MembershipID uuid.UUID `json:"membershipId"`
	UserID       uuid.UUID `json:"userId"`
	DisplayName  string    `json:"displayName"`
	RoleName     string    `json:"roleName"`
	Permissions  []string  `json:"permissions"`
}
