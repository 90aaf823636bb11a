package domain

import (
	"context"
	"time"
)

// UserRole classifies a user. Roles carry an ordinal weight so that
// route guards can express "this role or above" checks.
type UserRole string

const (
	RoleAdmin       UserRole = "admin"
	RoleTeacher     UserRole = "teacher"
	RoleLearner     UserRole = "learner"
	RoleGuest       UserRole = "guest"
	RoleSystemAgent UserRole = "system_agent"
)

var roleWeights = map[UserRole]int{
	RoleAdmin:       5,
	RoleTeacher:     4,
	RoleLearner:     3,
	RoleGuest:       2,
	RoleSystemAgent: 1,
}

// Weight returns the ordinal weight of the role. Unknown roles weigh 0
// and therefore never pass a minimum-role check.
func (r UserRole) Weight() int {
	return roleWeights[r]
}

// AtLeast reports whether the role meets the given minimum role.
func (r UserRole) AtLeast(min UserRole) bool {
	return r.Weight() >= min.Weight()
}

// User represents a registered learner, teacher or admin.
type User struct {
	ID            string
	FullName      string
	Age           int
	Email         string
	PasswordHash  string
	Role          UserRole
	TopicsHistory []string
	CreatedAt     time.Time
	UpdatedAt     time.Time
	DeletedAt     *time.Time
}

// NewUser creates a new User with the learner role.
func NewUser(fullName, email, passwordHash string, age int) *User {
	now := time.Now()
	return &User{
		FullName:      fullName,
		Email:         email,
		PasswordHash:  passwordHash,
		Age:           age,
		Role:          RoleLearner,
		TopicsHistory: []string{},
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

// Validate validates the user
func (u *User) Validate() error {
	if u.FullName == "" {
		return NewInvalidInputError("full name is required")
	}
	if u.Email == "" {
		return NewInvalidInputError("email is required")
	}
	if u.PasswordHash == "" {
		return NewInvalidInputError("password is required")
	}
	return nil
}

// UserRepository defines the interface for user data persistence.
type UserRepository interface {
	CreateUser(ctx context.Context, user *User) error
	GetUserByID(ctx context.Context, userID string) (*User, error)
	GetUserByEmail(ctx context.Context, email string) (*User, error)
	UpdateUser(ctx context.Context, user *User) error
	AppendTopicsHistory(ctx context.Context, userID string, topics []string) error
	DeleteUser(ctx context.Context, userID string) error
}
