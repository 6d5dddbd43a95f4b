package usecase_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ovik/wagerd/internal/domain"
	"github.com/ovik/wagerd/internal/usecase"
	"github.com/ovik/wagerd/internal/usecase/mocks"
)

func newUserFixture() (*usecase.UserUseCase, *mocks.MockUserRepository) {
	users := mocks.NewMockUserRepository()
	settings := mocks.StaticSettings{Settings: domain.Settings{Currency: "NGN"}}
	uc := usecase.NewUserUseCase(users, settings, mocks.NewMockIDGenerator())
	return uc, users
}

func TestCreateUser(t *testing.T) {
	uc, users := newUserFixture()

	user, err := uc.CreateUser(context.Background(), usecase.CreateUserInput{
		Name:  "Ada",
		Email: "ada@example.com",
	})
	require.NoError(t, err)

	assert.NotEmpty(t, user.ID)
	assert.Equal(t, int64(0), user.Balance)
	assert.Equal(t, "NGN", user.Currency)

	stored, err := users.GetByID(context.Background(), user.ID)
	require.NoError(t, err)
	assert.Equal(t, "ada@example.com", stored.Email)
}

func TestCreateUserRequiresNameAndEmail(t *testing.T) {
	uc, _ := newUserFixture()

	_, err := uc.CreateUser(context.Background(), usecase.CreateUserInput{Email: "a@b.c"})
	assert.ErrorIs(t, err, domain.ErrMissingUserDetails)

	_, err = uc.CreateUser(context.Background(), usecase.CreateUserInput{Name: "Ada"})
	assert.ErrorIs(t, err, domain.ErrMissingUserDetails)
}

func TestCreateUserPropagatesRepoError(t *testing.T) {
	uc, users := newUserFixture()
	users.CreateFunc = func(ctx context.Context, user *domain.User) error {
		return errors.New("connection refused")
	}

	_, err := uc.CreateUser(context.Background(), usecase.CreateUserInput{
		Name:  "Ada",
		Email: "ada@example.com",
	})
	assert.Error(t, err)
}

func TestGetUserNotFound(t *testing.T) {
	uc, _ := newUserFixture()

	_, err := uc.GetUser(context.Background(), "missing")
	assert.ErrorIs(t, err, domain.ErrUserNotFound)
}
