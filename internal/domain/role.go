package domain

import "time"

type Role string

const (
	RoleOwner Role = "owner"
	RoleAdmin Role = "admin"
	RoleUser  Role = "user"
)

func ParseRole(s string) (Role, bool) {
	switch r := Role(s); r {
	case RoleOwner, RoleAdmin, RoleUser:
		return r, true
	}
	return "", false
}

// CanAdminister reports whether the role may enter the admin area at all.
func (r Role) CanAdminister() bool {
	return r == RoleOwner || r == RoleAdmin
}

// rank orders roles so the strongest grant wins when a user holds several.
func (r Role) rank() int {
	switch r {
	case RoleOwner:
		return 3
	case RoleAdmin:
		return 2
	case RoleUser:
		return 1
	}
	return 0
}

// Strongest returns the highest-privilege role in roles, or "" if empty.
func Strongest(roles []Role) Role {
	var best Role
	for _, r := range roles {
		if r.rank() > best.rank() {
			best = r
		}
	}
	return best
}

type User struct {
	ID           string
	Email        string
	FullName     string
	PasswordHash string
	CreatedAt    time.Time
}

type UserRole struct {
	ID        string
	UserID    string
	Role      Role
	CreatedAt time.Time
}
