package students

import (
	"time"

	"github.com/google/uuid"
)

// Student belongs to exactly one school and optionally one classroom in it.
type Student struct {
	ID          uuid.UUID  `json:"id"`
	Name        string     `json:"name"`
	Email       string     `json:"email"`
	SchoolID    uuid.UUID  `json:"schoolId"`
	ClassroomID *uuid.UUID `json:"classroomId"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}
