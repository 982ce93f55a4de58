package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/planora/planora-auth/internal/models"
	"github.com/planora/planora-auth/internal/storage"
)

var (
	ErrIdentityAlreadyExists = errors.New("identity already exists")
	ErrInvalidCredentials    = errors.New("invalid credentials")
	ErrNoPasswordSet         = errors.New("no password set for identity")
)

// IdentityService is the credential resolver backed by the users table.
type IdentityService struct {
	users storage.UserRepository
}

func NewIdentityService(users storage.UserRepository) *IdentityService {
	return &IdentityService{users: users}
}

func (s *IdentityService) Register(ctx context.Context, email, password, name string) (*models.Identity, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user, err := s.users.CreateUser(ctx, models.User{
		ID:           uuid.NewString(),
		Email:        email,
		Name:         name,
		PasswordHash: string(hash),
	})
	if err != nil {
		if errors.Is(err, storage.ErrEmailTaken) {
			return nil, ErrIdentityAlreadyExists
		}
		return nil, fmt.Errorf("create user: %w", err)
	}

	return &models.Identity{ID: user.ID, Email: user.Email}, nil
}

// Resolve maps bad password and unknown user to the same error so callers
// cannot enumerate accounts.
func (s *IdentityService) Resolve(ctx context.Context, email, password string) (*models.Identity, error) {
	user, err := s.users.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, storage.ErrUserNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("get user by email: %w", err)
	}

	// OAuth-provisioned accounts have no password to check against.
	if user.PasswordHash == "" {
		return nil, ErrNoPasswordSet
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	return &models.Identity{ID: user.ID, Email: user.Email}, nil
}

func (s *IdentityService) Lookup(ctx context.Context, subjectID string) (*models.Identity, error) {
	user, err := s.users.GetUserByID(ctx, subjectID)
	if err != nil {
		if errors.Is(err, storage.ErrUserNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("get user by id: %w", err)
	}
	return &models.Identity{ID: user.ID, Email: user.Email}, nil
}
