package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"mentalmath/internal/domain"
	"mentalmath/internal/repository/models"
	"mentalmath/internal/util"

	"github.com/jmoiron/sqlx"
)

// sqlxUserRepository implements domain.UserRepository using sqlx.
type sqlxUserRepository struct {
	db *sqlx.DB
}

// NewSQLXUserRepository creates a new instance of sqlxUserRepository.
func NewSQLXUserRepository(db *sqlx.DB) domain.UserRepository {
	return &sqlxUserRepository{db: db}
}

func toDomainUser(m *models.User) *domain.User {
	if m == nil {
		return nil
	}
	var deletedAt *time.Time
	if m.DeletedAt.Valid {
		deletedAt = &m.DeletedAt.Time
	}
	history := []string(m.TopicsHistory)
	if history == nil {
		history = []string{}
	}
	return &domain.User{
		ID:            m.ID,
		FullName:      m.FullName,
		Age:           m.Age,
		Email:         m.Email,
		PasswordHash:  m.PasswordHash,
		Role:          domain.UserRole(m.Role),
		TopicsHistory: history,
		CreatedAt:     m.CreatedAt,
		UpdatedAt:     m.UpdatedAt,
		DeletedAt:     deletedAt,
	}
}

func fromDomainUser(u *domain.User) *models.User {
	if u == nil {
		return nil
	}
	var deletedAt sql.NullTime
	if u.DeletedAt != nil {
		deletedAt = util.TimeToNullTime(*u.DeletedAt)
	}
	return &models.User{
		ID:            u.ID,
		FullName:      u.FullName,
		Age:           u.Age,
		Email:         u.Email,
		PasswordHash:  u.PasswordHash,
		Role:          string(u.Role),
		TopicsHistory: models.StringSlice(u.TopicsHistory),
		CreatedAt:     u.CreatedAt,
		UpdatedAt:     u.UpdatedAt,
		DeletedAt:     deletedAt,
	}
}

// CreateUser inserts a new user into the database.
func (r *sqlxUserRepository) CreateUser(ctx context.Context, user *domain.User) error {
	m := fromDomainUser(user)
	m.CreatedAt = time.Now()
	m.UpdatedAt = time.Now()

	query := `INSERT INTO users (id, full_name, age, email, password_hash, role, topics_history, created_at, updated_at)
	          VALUES (:id, :full_name, :age, :email, :password_hash, :role, :topics_history, :created_at, :updated_at)`

	exec := GetExecutor(ctx, r.db)
	_, err := exec.NamedExecContext(ctx, query, m)
	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

// GetUserByID retrieves a user by their internal ID. Returns (nil, nil)
// when the user does not exist.
func (r *sqlxUserRepository) GetUserByID(ctx context.Context, userID string) (*domain.User, error) {
	var m models.User
	query := `SELECT * FROM users WHERE id = $1 AND deleted_at IS NULL`

	exec := GetExecutor(ctx, r.db)
	err := exec.GetContext(ctx, &m, query, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get user by id: %w", err)
	}
	return toDomainUser(&m), nil
}

// GetUserByEmail retrieves a user by email. Returns (nil, nil) on miss.
func (r *sqlxUserRepository) GetUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	var m models.User
	query := `SELECT * FROM users WHERE email = $1 AND deleted_at IS NULL`

	exec := GetExecutor(ctx, r.db)
	err := exec.GetContext(ctx, &m, query, email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get user by email: %w", err)
	}
	return toDomainUser(&m), nil
}

// UpdateUser updates an existing user's mutable fields.
func (r *sqlxUserRepository) UpdateUser(ctx context.Context, user *domain.User) error {
	m := fromDomainUser(user)
	m.UpdatedAt = time.Now()

	query := `UPDATE users SET
				full_name = :full_name,
				age = :age,
				email = :email,
				password_hash = :password_hash,
				role = :role,
				topics_history = :topics_history,
				updated_at = :updated_at
	          WHERE id = :id AND deleted_at IS NULL`

	exec := GetExecutor(ctx, r.db)
	result, err := exec.NamedExecContext(ctx, query, m)
	if err != nil {
		return fmt.Errorf("failed to update user: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// AppendTopicsHistory appends topic slugs to the user's topics history.
// Read-modify-write; the history is an ordered log, duplicates are fine.
func (r *sqlxUserRepository) AppendTopicsHistory(ctx context.Context, userID string, topics []string) error {
	user, err := r.GetUserByID(ctx, userID)
	if err != nil {
		return err
	}
	if user == nil {
		return sql.ErrNoRows
	}
	user.TopicsHistory = append(user.TopicsHistory, topics...)
	return r.UpdateUser(ctx, user)
}

// DeleteUser soft-deletes a user.
func (r *sqlxUserRepository) DeleteUser(ctx context.Context, userID string) error {
	query := `UPDATE users SET deleted_at = $1 WHERE id = $2 AND deleted_at IS NULL`

	exec := GetExecutor(ctx, r.db)
	result, err := exec.ExecContext(ctx, query, time.Now(), userID)
	if err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return sql.ErrNoRows
	}
	return nil
}
