package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	"mentalmath/internal/domain"
	"mentalmath/internal/repository/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupTestDB creates a new sqlx.DB instance and sqlmock for repository testing.
func setupTestDB(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock) {
	t.Helper()
	mockDB, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("Failed to create sqlmock: %v", err)
	}
	sqlxDB := sqlx.NewDb(mockDB, "sqlmock")
	return sqlxDB, mock
}

func userColumns() []string {
	return []string{"id", "full_name", "age", "email", "password_hash", "role", "topics_history", "created_at", "updated_at", "deleted_at"}
}

// --- Tests for Converter Functions ---

func TestToDomainUser(t *testing.T) {
	now := time.Now().Truncate(time.Second)
	modelUser := &models.User{
		ID:            "01HXUSER00000000000000USER",
		FullName:      "Ada Learner",
		Age:           12,
		Email:         "ada@example.com",
		PasswordHash:  "bcrypt-hash",
		Role:          "learner",
		TopicsHistory: models.StringSlice{"addition", "fractions"},
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	domainUser := toDomainUser(modelUser)
	require.NotNil(t, domainUser)
	assert.Equal(t, modelUser.ID, domainUser.ID)
	assert.Equal(t, modelUser.FullName, domainUser.FullName)
	assert.Equal(t, modelUser.Email, domainUser.Email)
	assert.Equal(t, domain.RoleLearner, domainUser.Role)
	assert.Equal(t, []string{"addition", "fractions"}, domainUser.TopicsHistory)
	assert.Nil(t, domainUser.DeletedAt)

	// A NULL history column comes back as an empty slice, never nil.
	modelUser.TopicsHistory = nil
	domainUser = toDomainUser(modelUser)
	assert.NotNil(t, domainUser.TopicsHistory)
	assert.Empty(t, domainUser.TopicsHistory)

	deletedTime := now.Add(-time.Hour)
	modelUser.DeletedAt = sql.NullTime{Time: deletedTime, Valid: true}
	domainUser = toDomainUser(modelUser)
	require.NotNil(t, domainUser.DeletedAt)
	assert.True(t, deletedTime.Equal(*domainUser.DeletedAt))

	assert.Nil(t, toDomainUser(nil))
}

func TestFromDomainUser(t *testing.T) {
	now := time.Now().Truncate(time.Second)
	domainUser := &domain.User{
		ID:            "01HXUSER00000000000000USER",
		FullName:      "Ada Learner",
		Age:           12,
		Email:         "ada@example.com",
		PasswordHash:  "bcrypt-hash",
		Role:          domain.RoleTeacher,
		TopicsHistory: []string{"addition"},
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	modelUser := fromDomainUser(domainUser)
	require.NotNil(t, modelUser)
	assert.Equal(t, domainUser.ID, modelUser.ID)
	assert.Equal(t, "teacher", modelUser.Role)
	assert.Equal(t, models.StringSlice{"addition"}, modelUser.TopicsHistory)
	assert.False(t, modelUser.DeletedAt.Valid)

	deletedTime := now.Add(-time.Hour)
	domainUser.DeletedAt = &deletedTime
	modelUser = fromDomainUser(domainUser)
	assert.True(t, modelUser.DeletedAt.Valid)
	assert.True(t, deletedTime.Equal(modelUser.DeletedAt.Time))

	assert.Nil(t, fromDomainUser(nil))
}

// --- Tests for Repository Methods ---

func TestSQLXUserRepository_GetUserByID(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		db, mock := setupTestDB(t)
		defer db.Close()
		repo := NewSQLXUserRepository(db)

		userID := "01HXUSER00000000000000USER"
		now := time.Now()
		rows := sqlmock.NewRows(userColumns()).
			AddRow(userID, "Ada Learner", 12, "ada@example.com", "hash", "learner", []byte(`["addition"]`), now, now, nil)

		mock.ExpectQuery(`SELECT \* FROM users WHERE id = \$1 AND deleted_at IS NULL`).
			WithArgs(userID).
			WillReturnRows(rows)

		user, err := repo.GetUserByID(context.Background(), userID)

		assert.NoError(t, err)
		require.NotNil(t, user)
		assert.Equal(t, userID, user.ID)
		assert.Equal(t, []string{"addition"}, user.TopicsHistory)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("NotFound", func(t *testing.T) {
		db, mock := setupTestDB(t)
		defer db.Close()
		repo := NewSQLXUserRepository(db)

		mock.ExpectQuery(`SELECT \* FROM users WHERE id = \$1 AND deleted_at IS NULL`).
			WithArgs("ghost").
			WillReturnError(sql.ErrNoRows)

		user, err := repo.GetUserByID(context.Background(), "ghost")

		assert.NoError(t, err)
		assert.Nil(t, user)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestSQLXUserRepository_GetUserByEmail(t *testing.T) {
	db, mock := setupTestDB(t)
	defer db.Close()
	repo := NewSQLXUserRepository(db)

	now := time.Now()
	rows := sqlmock.NewRows(userColumns()).
		AddRow("u1", "Ada Learner", 12, "ada@example.com", "hash", "learner", []byte(`[]`), now, now, nil)

	mock.ExpectQuery(`SELECT \* FROM users WHERE email = \$1 AND deleted_at IS NULL`).
		WithArgs("ada@example.com").
		WillReturnRows(rows)

	user, err := repo.GetUserByEmail(context.Background(), "ada@example.com")

	assert.NoError(t, err)
	require.NotNil(t, user)
	assert.Equal(t, "ada@example.com", user.Email)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLXUserRepository_CreateUser(t *testing.T) {
	db, mock := setupTestDB(t)
	defer db.Close()
	repo := NewSQLXUserRepository(db)

	user := domain.NewUser("Ada Learner", "ada@example.com", "hash", 12)
	user.ID = "01HXUSER00000000000000USER"

	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO users`)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.CreateUser(context.Background(), user)

	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLXUserRepository_UpdateUser_NotFound(t *testing.T) {
	db, mock := setupTestDB(t)
	defer db.Close()
	repo := NewSQLXUserRepository(db)

	user := domain.NewUser("Ada Learner", "ada@example.com", "hash", 12)
	user.ID = "ghost"

	mock.ExpectExec(regexp.QuoteMeta(`UPDATE users SET`)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.UpdateUser(context.Background(), user)

	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLXUserRepository_DeleteUser(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		db, mock := setupTestDB(t)
		defer db.Close()
		repo := NewSQLXUserRepository(db)

		mock.ExpectExec(regexp.QuoteMeta(`UPDATE users SET deleted_at = $1 WHERE id = $2 AND deleted_at IS NULL`)).
			WithArgs(sqlmock.AnyArg(), "u1").
			WillReturnResult(sqlmock.NewResult(0, 1))

		err := repo.DeleteUser(context.Background(), "u1")

		assert.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("AlreadyDeleted", func(t *testing.T) {
		db, mock := setupTestDB(t)
		defer db.Close()
		repo := NewSQLXUserRepository(db)

		mock.ExpectExec(regexp.QuoteMeta(`UPDATE users SET deleted_at = $1 WHERE id = $2 AND deleted_at IS NULL`)).
			WithArgs(sqlmock.AnyArg(), "u1").
			WillReturnResult(sqlmock.NewResult(0, 0))

		err := repo.DeleteUser(context.Background(), "u1")

		assert.ErrorIs(t, err, sql.ErrNoRows)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestSQLXUserRepository_AppendTopicsHistory(t *testing.T) {
	db, mock := setupTestDB(t)
	defer db.Close()
	repo := NewSQLXUserRepository(db)

	now := time.Now()
	rows := sqlmock.NewRows(userColumns()).
		AddRow("u1", "Ada Learner", 12, "ada@example.com", "hash", "learner", []byte(`["addition"]`), now, now, nil)

	mock.ExpectQuery(`SELECT \* FROM users WHERE id = \$1 AND deleted_at IS NULL`).
		WithArgs("u1").
		WillReturnRows(rows)
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE users SET`)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.AppendTopicsHistory(context.Background(), "u1", []string{"fractions", "addition"})

	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
