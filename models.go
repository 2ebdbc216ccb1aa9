package users

import (
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// User is the user model
type User struct {
	bun.BaseModel `bun:"table:users,alias:usr"`
	ID            uuid.UUID  `bun:"id,pk,nullzero,type:uuid" json:"id"`
	Username      string     `bun:"username,notnull,unique" json:"username"`
	Email         string     `bun:"email,notnull,unique" json:"email"`
	PasswordHash  string     `bun:"password_hash,notnull" json:"-"`
	IsActive      bool       `bun:"is_active,notnull,default:true" json:"is_active"`
	CreatedAt     *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
	UpdatedAt     *time.Time `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at,omitempty"`
}

// PublicUser is the outward view of a User. The password hash never crosses
// the transport boundary.
type PublicUser struct {
	ID        uuid.UUID  `json:"id"`
	Username  string     `json:"username"`
	Email     string     `json:"email"`
	IsActive  bool       `json:"is_active"`
	CreatedAt *time.Time `json:"created_at,omitempty"`
	UpdatedAt *time.Time `json:"updated_at,omitempty"`
}

// Public returns the view of the user safe to return to callers
func (u *User) Public() *PublicUser {
	if u == nil {
		return nil
	}
	return &PublicUser{
		ID:        u.ID,
		Username:  u.Username,
		Email:     u.Email,
		IsActive:  u.IsActive,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}

// userIdentity adapts a User record to the Identity interface consumed by
// the token service.
type userIdentity struct {
	id       string
	username string
	email    string
}

func (a userIdentity) ID() string       { return a.id }
func (a userIdentity) Username() string { return a.username }
func (a userIdentity) Email() string    { return a.email }

var _ Identity = userIdentity{}

// IdentityFromUser builds the token-facing identity for a user record
func IdentityFromUser(u *User) Identity {
	return userIdentity{
		id:       u.ID.String(),
		username: u.Username,
		email:    u.Email,
	}
}
