package domain

import (
	"strings"
	"time"
)

// Role is the account type a user registered with.
type Role string

const (
	RoleGuest Role = "GUEST"
	RoleHost  Role = "HOST"
)

// ParseRole resolves a role name case-insensitively. Unknown names are
// returned upper-cased with ok=false.
func ParseRole(s string) (Role, bool) {
	r := Role(strings.ToUpper(strings.TrimSpace(s)))
	switch r {
	case RoleGuest, RoleHost:
		return r, true
	}
	return r, false
}

func (r Role) String() string { return string(r) }

// User models a registered account. Deleted accounts are kept for
// historical lookups and are hidden from the default repository queries.
type User struct {
	ID           string    `json:"id" bson:"_id"`
	Username     string    `json:"username" bson:"username"`
	Email        string    `json:"email" bson:"email"`
	PasswordHash string    `json:"-" bson:"password_hash"`
	FirstName    string    `json:"firstName" bson:"first_name"`
	LastName     string    `json:"lastName" bson:"last_name"`
	Residence    string    `json:"residence" bson:"residence"`
	Role         Role      `json:"role" bson:"role"`
	Deleted      bool      `json:"-" bson:"is_deleted"`
	CreatedAt    time.Time `json:"createdAt" bson:"created_at"`
	UpdatedAt    time.Time `json:"updatedAt" bson:"updated_at"`
}

// Caller is the identity of the principal behind an inbound request.
type Caller struct {
	UserID string
	Role   string
}

// UserSummary is the narrow read model served to other services.
type UserSummary struct {
	Found     bool
	ID        string
	Email     string
	FirstName string
	LastName  string
	Role      string
	IsDeleted bool
}

// UserCreatedEvent is announced once per successful registration.
type UserCreatedEvent struct {
	UserID string `json:"userId"`
	Email  string `json:"userEmail"`
}
