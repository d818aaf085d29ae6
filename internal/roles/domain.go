package roles

import (
	"time"

	"github.com/google/uuid"
)

// System role names created by the platform rather than tenant admins.
const (
	SuperadminRole = "superadmin"
	OwnerRole      = "owner"
)

// Role is a named bundle of permission keys, scoped to one school or global
// (nil SchoolID). System roles are immutable and undeletable.
type Role struct {
	ID          uuid.UUID  `json:"id"`
	Name        string     `json:"name"`
	Description string     `json:"description"`
	Permissions []string   `json:"permissions"`
	SchoolID    *uuid.UUID `json:"schoolId"`
	IsSystem    bool       `json:"isSystem"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}
