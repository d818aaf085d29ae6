package resources

import (
	"time"

	"github.com/google/uuid"
)

// Resource is a physical or digital asset owned by a school, optionally
// assigned to one of its classrooms.
type Resource struct {
	ID          uuid.UUID      `json:"id"`
	Name        string         `json:"name"`
	SchoolID    uuid.UUID      `json:"schoolId"`
	ClassroomID *uuid.UUID     `json:"classroomId"`
	IsActive    bool           `json:"isActive"`
	Quantity    int            `json:"quantity"`
	Description string         `json:"description"`
	ExtraData   map[string]any `json:"extraData"`
	CreatedAt   time.Time      `json:"createdAt"`
	UpdatedAt   time.Time      `json:"updatedAt"`
}
