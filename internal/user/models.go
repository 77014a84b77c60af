package user

import (
	"fmt"
	"time"

	"github.com/classroomhq/auth-service/pkg/id"
)

// Role is totally ordered: student < teacher < admin. Authorization checks
// compare against a threshold with AtLeast.
type Role uint8

const (
	RoleStudent Role = 1
	RoleTeacher Role = 2
	RoleAdmin   Role = 3
)

func (r Role) AtLeast(min Role) bool {
	return r >= min
}

func (r Role) String() string {
	switch r {
	case RoleStudent:
		return "student"
	case RoleTeacher:
		return "teacher"
	case RoleAdmin:
		return "admin"
	default:
		return fmt.Sprintf("role(%d)", uint8(r))
	}
}

func ParseRole(s string) (Role, error) {
	switch s {
	case "student":
		return RoleStudent, nil
	case "teacher":
		return RoleTeacher, nil
	case "admin":
		return RoleAdmin, nil
	default:
		return 0, fmt.Errorf("unknown role %q", s)
	}
}

// User is an immutable snapshot of a stored identity. Store operations
// return fresh snapshots; mutations happen only through the Store.
type User struct {
	ID           int64       `json:"-" db:"id"`
	PublicID     id.PublicID `json:"id" db:"public_id"`
	Email        string      `json:"email" db:"email"`
	FullName     string      `json:"full_name" db:"full_name"`
	PasswordHash string      `json:"-" db:"password"`
	Role         Role        `json:"role" db:"role"`
	RefreshToken *string     `json:"-" db:"refresh_token"`
	CreatedAt    time.Time   `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time   `json:"updated_at" db:"updated_at"`
}

// OwnerID marks the user record itself as an owned resource: a user owns
// their own profile fields.
func (u *User) OwnerID() id.PublicID {
	return u.PublicID
}

// CreateUserInput carries the fields needed to persist a new user. Password
// must already be hashed.
type CreateUserInput struct {
	Email        string
	FullName     string
	PasswordHash string
	Role         Role
}
