package rbac

import "github.com/google/uuid"

// Grant is one resolved membership inside an AuthContext: the school (nil
// for global memberships), the role, and the role's permission keys.
type Grant struct {
	MembershipID uuid.UUID  `json:"membershipId"`
	SchoolID     *uuid.UUID `json:"schoolId"`
	SchoolName   string     `json:"schoolName,omitempty"`
	RoleName     string     `json:"roleName"`
	Permissions  []string   `json:"permissions"`
	IsGlobal     bool       `json:"isGlobal"`
}

// AuthContext is the resolved, cacheable snapshot of a user's identity and
// memberships used to authorize one request.
type AuthContext struct {
	UserID      uuid.UUID `json:"userId"`
	AuthID      string    `json:"authId"`
	DisplayName string    `json:"displayName"`
	Memberships []Grant   `json:"memberships"`
	IsSuper     bool      `json:"isSuper"`
}

// SchoolGrant returns the grant scoped to schoolID, if any. Global grants
// never satisfy a school-scoped lookup.
func (a *AuthContext) SchoolGrant(schoolID uuid.UUID) *Grant {
	for i := range a.Memberships {
		m := &a.Memberships[i]
		if m.SchoolID != nil && *m.SchoolID == schoolID {
			return m
		}
	}
	return nil
}

// SchoolIDs lists the schools the user is a member of.
func (a *AuthContext) SchoolIDs() []uuid.UUID {
	var ids []uuid.UUID
	for _, m := range a.Memberships {
		if m.SchoolID != nil {
			ids = append(ids, *m.SchoolID)
		}
	}
	return ids
}

// SoleSchoolID returns the school ID when the user belongs to exactly one
// school. Used by endpoints that infer the target school.
func (a *AuthContext) SoleSchoolID() (uuid.UUID, bool) {
	ids := a.SchoolIDs()
	if len(ids) == 1 {
		return ids[0], true
	}
	return uuid.Nil, false
}
