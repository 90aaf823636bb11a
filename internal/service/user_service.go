package service

import (
	"context"
	"fmt"

	"mentalmath/internal/domain"
	"mentalmath/internal/dto"
	"mentalmath/internal/logger"
	"mentalmath/internal/util"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// UserService defines the interface for user account operations.
type UserService interface {
	Register(ctx context.Context, req *dto.RegisterRequest) (*dto.UserProfileResponse, error)
	Login(ctx context.Context, req *dto.LoginRequest) (*dto.TokenResponse, error)
	GetProfile(ctx context.Context, userID string) (*dto.UserProfileResponse, error)
	UpdateProfile(ctx context.Context, userID string, req *dto.UpdateProfileRequest) (*dto.UserProfileResponse, error)
	DeleteUser(ctx context.Context, userID string) error
}

type userServiceImpl struct {
	userRepo    domain.UserRepository
	authService AuthService
}

// NewUserService creates a new instance of UserService.
func NewUserService(userRepo domain.UserRepository, authService AuthService) UserService {
	return &userServiceImpl{
		userRepo:    userRepo,
		authService: authService,
	}
}

func toProfileResponse(user *domain.User) *dto.UserProfileResponse {
	return &dto.UserProfileResponse{
		ID:            user.ID,
		FullName:      user.FullName,
		Age:           user.Age,
		Email:         user.Email,
		Role:          string(user.Role),
		TopicsHistory: user.TopicsHistory,
		CreatedAt:     user.CreatedAt,
	}
}

// Register creates a new learner account. Emails are unique across
// non-deleted users.
func (s *userServiceImpl) Register(ctx context.Context, req *dto.RegisterRequest) (*dto.UserProfileResponse, error) {
	existing, err := s.userRepo.GetUserByEmail(ctx, req.Email)
	if err != nil {
		return nil, fmt.Errorf("failed to check existing user: %w", err)
	}
	if existing != nil {
		return nil, domain.NewConflictError(fmt.Sprintf("User with email %s already exists", req.Email))
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, domain.NewInternalError("failed to hash password", err)
	}

	user := domain.NewUser(req.FullName, req.Email, string(hash), req.Age)
	user.ID = util.NewULID()
	if err := user.Validate(); err != nil {
		return nil, err
	}
	if err := s.userRepo.CreateUser(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	logger.Get().Info("New user registered",
		zap.String("userID", user.ID),
		zap.String("email", user.Email))
	return toProfileResponse(user), nil
}

// Login verifies credentials and issues a token pair. Unknown email and
// wrong password are indistinguishable to the caller.
func (s *userServiceImpl) Login(ctx context.Context, req *dto.LoginRequest) (*dto.TokenResponse, error) {
	user, err := s.userRepo.GetUserByEmail(ctx, req.Email)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch user: %w", err)
	}
	if user == nil {
		return nil, domain.NewUnauthorizedError("invalid email or password")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, domain.NewUnauthorizedError("invalid email or password")
	}

	logger.Get().Info("User logged in", zap.String("userID", user.ID))
	return s.authService.IssueTokenPair(ctx, user)
}

func (s *userServiceImpl) GetProfile(ctx context.Context, userID string) (*dto.UserProfileResponse, error) {
	user, err := s.userRepo.GetUserByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch user: %w", err)
	}
	if user == nil {
		return nil, domain.NewUserNotFoundError(userID)
	}
	return toProfileResponse(user), nil
}

func (s *userServiceImpl) UpdateProfile(ctx context.Context, userID string, req *dto.UpdateProfileRequest) (*dto.UserProfileResponse, error) {
	user, err := s.userRepo.GetUserByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch user: %w", err)
	}
	if user == nil {
		return nil, domain.NewUserNotFoundError(userID)
	}

	if req.FullName != nil {
		user.FullName = *req.FullName
	}
	if req.Age != nil {
		user.Age = *req.Age
	}
	if req.Password != nil {
		hash, err := bcrypt.GenerateFromPassword([]byte(*req.Password), bcrypt.DefaultCost)
		if err != nil {
			return nil, domain.NewInternalError("failed to hash password", err)
		}
		user.PasswordHash = string(hash)
	}
	if err := user.Validate(); err != nil {
		return nil, err
	}

	if err := s.userRepo.UpdateUser(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to update user: %w", err)
	}
	return toProfileResponse(user), nil
}

func (s *userServiceImpl) DeleteUser(ctx context.Context, userID string) error {
	user, err := s.userRepo.GetUserByID(ctx, userID)
	if err != nil {
		return fmt.Errorf("failed to fetch user: %w", err)
	}
	if user == nil {
		return domain.NewUserNotFoundError(userID)
	}
	if err := s.userRepo.DeleteUser(ctx, userID); err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}
	logger.Get().Info("User deleted", zap.String("userID", userID))
	return nil
}
