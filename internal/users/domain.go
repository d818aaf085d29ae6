package users

import (
	"time"

	"github.com/google/uuid"
)

// User is the profile record, kept separate from the auth identity so
// alternate identity providers can be swapped in without touching it.
type User struct {
	ID          uuid.UUID `json:"id"`
	AuthID      string    `json:"authId"`
	DisplayName string    `json:"displayName"`
	CreatedAt   time.Time `json:"createdAt"`
}
