package services

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"golang.org/x/crypto/bcrypt"

	"inkwise/internal/middleware"
	"inkwise/internal/models"
)

const minPasswordLength = 6

type userRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	UpdateLastLogin(ctx context.Context, id uuid.UUID) error
}

type AuthService struct {
	userRepo userRepository
	jwt      *middleware.JWTAuth
}

func NewAuthService(userRepo userRepository, jwt *middleware.JWTAuth) *AuthService {
	return &AuthService{userRepo: userRepo, jwt: jwt}
}

var emailRegex = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

// Signup creates an account and returns it with a fresh access token.
func (s *AuthService) Signup(ctx context.Context, req models.SignupRequest) (*models.User, string, error) {
	name := strings.TrimSpace(req.Name)
	email := strings.ToLower(strings.TrimSpace(req.Email))

	if name == "" || email == "" || req.Password == "" {
		return nil, "", &ValidationError{Message: "All fields are required."}
	}
	if !emailRegex.MatchString(email) {
		return nil, "", &ValidationError{Message: "Please enter a valid email address.", Fields: map[string]string{"email": "invalid"}}
	}
	if len(req.Password) < minPasswordLength {
		return nil, "", &ValidationError{Message: fmt.Sprintf("Password must be at least %d characters.", minPasswordLength), Fields: map[string]string{"password": "too short"}}
	}
	if req.Password != req.ConfirmPassword {
		return nil, "", &ValidationError{Message: "Passwords do not match.", Fields: map[string]string{"confirm_password": "mismatch"}}
	}

	// Check uniqueness
	_, err := s.userRepo.GetByEmail(ctx, email)
	if err == nil {
		return nil, "", &ConflictError{Message: "An account with this email already exists."}
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, "", err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, "", fmt.Errorf("failed to hash password: %w", err)
	}

	user := &models.User{
		Name:         name,
		Email:        email,
		PasswordHash: string(hash),
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, "", err
	}

	token, err := s.jwt.GenerateToken(user.ID, user.Email)
	if err != nil {
		return nil, "", fmt.Errorf("failed to generate access token: %w", err)
	}
	return user, token, nil
}

func (s *AuthService) Login(ctx context.Context, req models.LoginRequest) (*models.User, string, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if email == "" || req.Password == "" {
		return nil, "", &ValidationError{Message: "Email and password are required."}
	}

	user, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, "", &UnauthorizedError{Message: "Invalid email or password."}
		}
		return nil, "", err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, "", &UnauthorizedError{Message: "Invalid email or password."}
	}

	s.userRepo.UpdateLastLogin(ctx, user.ID)

	token, err := s.jwt.GenerateToken(user.ID, user.Email)
	if err != nil {
		return nil, "", fmt.Errorf("failed to generate access token: %w", err)
	}
	return user, token, nil
}

// Logout revokes the token for the remainder of its lifetime.
func (s *AuthService) Logout(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	return s.jwt.Revoke(ctx, token)
}

func (s *AuthService) CurrentUser(ctx context.Context, id uuid.UUID) (*models.User, error) {
	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, &NotFoundError{Message: "User not found"}
		}
		return nil, err
	}
	return user, nil
}
