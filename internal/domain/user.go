package domain

// Role gates which surfaces a user may reach. Admins skip the attendance flow
// entirely and land in the back-office dashboard.
type Role string

const (
	RoleAuditor Role = "auditor"
	RoleManager Role = "manager"
	RoleAdmin   Role = "admin"
)

// Valid reports whether the role is one of the known values.
func (r Role) Valid() bool {
	switch r {
	case RoleAuditor, RoleManager, RoleAdmin:
		return true
	}
	return false
}

// User is an employee profile. Username is the unique key. PhotoURL is either
// a genuine reference photo (inline data URL) or a generated avatar URL; which
// of the two it is decides the verification request mode.
type User struct {
	Username        string
	Password        string
	FullName        string
	Role            Role
	JobTitle        string
	PhotoURL        string
	RequiredUniform string
	AssignedStores  []string
}

// CanClock reports whether the user may enter the attendance flow: admins
// bypass it, everyone else needs at least one assigned store.
func (u User) CanClock() bool {
	return u.Role != RoleAdmin && len(u.AssignedStores) > 0
}

// IsAssigned reports whether the store is in the user's assigned subset.
func (u User) IsAssigned(storeID string) bool {
	for _, id := range u.AssignedStores {
		if id == storeID {
			return true
		}
	}
	return false
}

// Sanitized returns a copy with the password cleared, for responses and logs.
func (u User) Sanitized() User {
	u.Password = ""
	return u
}
