package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"clinic-booking/internal/domain"
	"clinic-booking/internal/repository"
)

var (
	// ErrInvalidCredentials indicates that provided login credentials are incorrect.
	// It is returned for unknown usernames and wrong passwords alike.
	ErrInvalidCredentials = errors.New("invalid username or password")
	// ErrUsernameTaken is returned when attempting to register with an existing username.
	ErrUsernameTaken = errors.New("username already exists")
)

// ValidationError reports a missing or malformed input field.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s %s", e.Field, e.Reason)
}

// UserService describes account lifecycle operations.
type UserService interface {
	Register(ctx context.Context, username, password string, role domain.Role) (*domain.User, error)
	Authenticate(ctx context.Context, username, password string) (*domain.User, error)
	GetByID(ctx context.Context, id int64) (*domain.User, error)
	ListDoctors(ctx context.Context) ([]domain.User, error)
}

type userService struct {
	users repository.UserRepository
}

func NewUserService(users repository.UserRepository) UserService {
	return &userService{users: users}
}

func (s *userService) Register(ctx context.Context, username, password string, role domain.Role) (*domain.User, error) {
	username = strings.TrimSpace(username)

	if username == "" {
		return nil, &ValidationError{Field: "username", Reason: "is required"}
	}
	if password == "" {
		return nil, &ValidationError{Field: "password", Reason: "is required"}
	}
	if !role.Valid() {
		return nil, &ValidationError{Field: "role", Reason: "must be patient or doctor"}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &domain.User{
		Username:     username,
		PasswordHash: string(hash),
		Role:         role,
	}

	// the UNIQUE constraint on username is what actually rejects concurrent
	// duplicates; this just maps the violation to a domain error
	if _, err := s.users.Create(ctx, user); err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "already exists") {
			return nil, ErrUsernameTaken
		}
		return nil, err
	}

	return sanitizeUser(user), nil
}

func (s *userService) Authenticate(ctx context.Context, username, password string) (*domain.User, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return nil, ErrInvalidCredentials
	}

	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "not found") {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	return sanitizeUser(user), nil
}

func (s *userService) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return sanitizeUser(user), nil
}

func (s *userService) ListDoctors(ctx context.Context) ([]domain.User, error) {
	doctors, err := s.users.ListByRole(ctx, domain.RoleDoctor)
	if err != nil {
		return nil, err
	}
	for i := range doctors {
		doctors[i].PasswordHash = ""
	}
	return doctors, nil
}

func sanitizeUser(user *domain.User) *domain.User {
	if user == nil {
		return nil
	}
	return &domain.User{
		ID:        user.ID,
		Username:  user.Username,
		Role:      user.Role,
		CreatedAt: user.CreatedAt,
		UpdatedAt: user.UpdatedAt,
	}
}
