package classrooms

import (
	"time"

	"github.com/google/uuid"
)

// DefaultCapacity applies when a classroom is created without one.
const DefaultCapacity = 30

// Classroom is a capacity-bounded grouping of students within one school.
type Classroom struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	SchoolID  uuid.UUID `json:"schoolId"`
	Capacity  int       `json:"capacity"`
	Resources []string  `json:"resources"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}
