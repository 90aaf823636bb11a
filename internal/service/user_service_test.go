package service

import (
	"context"
	"testing"

	"mentalmath/internal/domain"
	"mentalmath/internal/dto"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func newUserServiceWithMocks(t *testing.T) (UserService, *MockUserRepository) {
	t.Helper()
	userRepo := new(MockUserRepository)
	authService, err := NewAuthService(userRepo, testAuthConfig())
	require.NoError(t, err)
	return NewUserService(userRepo, authService), userRepo
}

func TestRegister(t *testing.T) {
	ctx := context.Background()

	t.Run("Success", func(t *testing.T) {
		svc, userRepo := newUserServiceWithMocks(t)

		userRepo.On("GetUserByEmail", ctx, "ada@example.com").Return(nil, nil)
		userRepo.On("CreateUser", ctx, mock.MatchedBy(func(u *domain.User) bool {
			return u.ID != "" && u.Role == domain.RoleLearner && u.PasswordHash != "s3cretpass"
		})).Return(nil)

		profile, err := svc.Register(ctx, &dto.RegisterRequest{
			FullName: "Ada Learner",
			Age:      12,
			Email:    "ada@example.com",
			Password: "s3cretpass",
		})

		require.NoError(t, err)
		assert.Equal(t, "Ada Learner", profile.FullName)
		assert.Equal(t, "ada@example.com", profile.Email)
		assert.Equal(t, string(domain.RoleLearner), profile.Role)
		assert.NotEmpty(t, profile.ID)
	})

	t.Run("DuplicateEmail", func(t *testing.T) {
		svc, userRepo := newUserServiceWithMocks(t)

		userRepo.On("GetUserByEmail", ctx, "ada@example.com").Return(testUser(), nil)

		profile, err := svc.Register(ctx, &dto.RegisterRequest{
			FullName: "Ada Learner",
			Email:    "ada@example.com",
			Password: "s3cretpass",
		})

		assert.Nil(t, profile)
		var domainErr *domain.DomainError
		require.ErrorAs(t, err, &domainErr)
		assert.Equal(t, domain.CodeConflict, domainErr.Code)
		userRepo.AssertNotCalled(t, "CreateUser", mock.Anything, mock.Anything)
	})
}

func TestLogin(t *testing.T) {
	ctx := context.Background()

	hash, err := bcrypt.GenerateFromPassword([]byte("s3cretpass"), bcrypt.MinCost)
	require.NoError(t, err)
	user := testUser()
	user.PasswordHash = string(hash)

	t.Run("Success", func(t *testing.T) {
		svc, userRepo := newUserServiceWithMocks(t)
		userRepo.On("GetUserByEmail", ctx, user.Email).Return(user, nil)

		tokens, err := svc.Login(ctx, &dto.LoginRequest{Email: user.Email, Password: "s3cretpass"})

		require.NoError(t, err)
		assert.NotEmpty(t, tokens.AccessToken)
		assert.NotEmpty(t, tokens.RefreshToken)
	})

	t.Run("WrongPassword", func(t *testing.T) {
		svc, userRepo := newUserServiceWithMocks(t)
		userRepo.On("GetUserByEmail", ctx, user.Email).Return(user, nil)

		tokens, err := svc.Login(ctx, &dto.LoginRequest{Email: user.Email, Password: "nope"})

		assert.Nil(t, tokens)
		var domainErr *domain.DomainError
		require.ErrorAs(t, err, &domainErr)
		assert.Equal(t, domain.CodeUnauthorized, domainErr.Code)
		assert.Equal(t, "invalid email or password", domainErr.Message)
	})

	t.Run("UnknownEmail", func(t *testing.T) {
		svc, userRepo := newUserServiceWithMocks(t)
		userRepo.On("GetUserByEmail", ctx, "ghost@example.com").Return(nil, nil)

		tokens, err := svc.Login(ctx, &dto.LoginRequest{Email: "ghost@example.com", Password: "s3cretpass"})

		assert.Nil(t, tokens)
		var domainErr *domain.DomainError
		require.ErrorAs(t, err, &domainErr)
		// Same message as a wrong password; callers cannot probe for accounts.
		assert.Equal(t, "invalid email or password", domainErr.Message)
	})
}

func TestUpdateProfile(t *testing.T) {
	ctx := context.Background()

	t.Run("PartialUpdate", func(t *testing.T) {
		svc, userRepo := newUserServiceWithMocks(t)
		user := testUser()
		user.PasswordHash = "hash"

		newName := "Ada Lovelace"
		userRepo.On("GetUserByID", ctx, user.ID).Return(user, nil)
		userRepo.On("UpdateUser", ctx, mock.MatchedBy(func(u *domain.User) bool {
			return u.FullName == newName && u.Email == "ada@example.com"
		})).Return(nil)

		profile, err := svc.UpdateProfile(ctx, user.ID, &dto.UpdateProfileRequest{FullName: &newName})

		require.NoError(t, err)
		assert.Equal(t, newName, profile.FullName)
	})

	t.Run("NotFound", func(t *testing.T) {
		svc, userRepo := newUserServiceWithMocks(t)
		userRepo.On("GetUserByID", ctx, "ghost").Return(nil, nil)

		name := "x"
		_, err := svc.UpdateProfile(ctx, "ghost", &dto.UpdateProfileRequest{FullName: &name})

		var domainErr *domain.DomainError
		require.ErrorAs(t, err, &domainErr)
		assert.Equal(t, domain.CodeUserNotFound, domainErr.Code)
	})
}

func TestDeleteUser(t *testing.T) {
	ctx := context.Background()

	t.Run("Success", func(t *testing.T) {
		svc, userRepo := newUserServiceWithMocks(t)
		user := testUser()
		user.PasswordHash = "hash"

		userRepo.On("GetUserByID", ctx, user.ID).Return(user, nil)
		userRepo.On("DeleteUser", ctx, user.ID).Return(nil)

		require.NoError(t, svc.DeleteUser(ctx, user.ID))
	})

	t.Run("NotFound", func(t *testing.T) {
		svc, userRepo := newUserServiceWithMocks(t)
		userRepo.On("GetUserByID", ctx, "ghost").Return(nil, nil)

		err := svc.DeleteUser(ctx, "ghost")
		var domainErr *domain.DomainError
		require.ErrorAs(t, err, &domainErr)
		assert.Equal(t, domain.CodeUserNotFound, domainErr.Code)
		userRepo.AssertNotCalled(t, "DeleteUser", mock.Anything, mock.Anything)
	})
}
