package usecase

import (
	"context"
	"time"

	"github.com/ovik/wagerd/internal/domain"
)

// UserUseCase handles user registration and lookup. Balance movements are
// the LedgerUseCase's job; new users always start at zero.
type UserUseCase struct {
	userRepo UserRepository
	settings SettingsProvider
	idGen    IDGenerator
}

// NewUserUseCase creates a new UserUseCase.
func NewUserUseCase(userRepo UserRepository, settings SettingsProvider, idGen IDGenerator) *UserUseCase {
	return &UserUseCase{
		userRepo: userRepo,
		settings: settings,
		idGen:    idGen,
	}
}

// CreateUserInput carries a registration request.
type CreateUserInput struct {
	Name  string
	Email string
}

// CreateUser registers a user with a zero balance in the platform currency.
func (uc *UserUseCase) CreateUser(ctx context.Context, input CreateUserInput) (*domain.User, error) {
	if input.Name == "" || input.Email == "" {
		return nil, domain.ErrMissingUserDetails
	}

	now := time.Now().UTC()
	user := &domain.User{
		ID:        uc.idGen.Generate(),
		Name:      input.Name,
		Email:     input.Email,
		Balance:   0,
		Currency:  uc.settings.Snapshot().Currency,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := uc.userRepo.Create(ctx, user); err != nil {
		return nil, err
	}

	return user, nil
}

// GetUser returns a user by ID.
func (uc *UserUseCase) GetUser(ctx context.Context, id string) (*domain.User, error) {
	return uc.userRepo.GetByID(ctx, id)
}
