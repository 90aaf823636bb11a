package models

import (
	"database/sql"
	"time"
)

// User represents a user row in the relational store.
type User struct {
	ID            string       `db:"id"`             // ULID
	FullName      string       `db:"full_name"`      // Display name
	Age           int          `db:"age"`            // Learner age
	Email         string       `db:"email"`          // Unique
	PasswordHash  string       `db:"password_hash"`  // bcrypt hash
	Role          string       `db:"role"`           // admin|teacher|learner|guest|system_agent
	TopicsHistory StringSlice  `db:"topics_history"` // Topic slugs practiced over time
	CreatedAt     time.Time    `db:"created_at"`
	UpdatedAt     time.Time    `db:"updated_at"`
	DeletedAt     sql.NullTime `db:"deleted_at"`
}
