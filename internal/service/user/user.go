package user

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/nkiryanov/digibank/internal/apperrors"
	"github.com/nkiryanov/digibank/internal/models"
	"github.com/nkiryanov/digibank/internal/repository"
	"github.com/nkiryanov/digibank/internal/service/account"
	"github.com/nkiryanov/digibank/internal/service/auth"
)

var DefaultHasher = auth.BcryptHasher{}

// Balance of the savings account opened on registration
var DefaultInitialBalance = decimal.NewFromInt(1000)

type Config struct {
	Hasher         auth.PasswordHasher
	InitialBalance *decimal.Decimal
	Numbers        account.NumberGenerator
}

type UserService struct {
	hasher         auth.PasswordHasher
	initialBalance decimal.Decimal
	numbers        account.NumberGenerator
	storage        repository.Storage
}

func NewService(cfg Config, storage repository.Storage) *UserService {
	s := &UserService{
		hasher:         cfg.Hasher,
		initialBalance: DefaultInitialBalance,
		numbers:        cfg.Numbers,
		storage:        storage,
	}

	if s.hasher == nil {
		s.hasher = DefaultHasher
	}
	if cfg.InitialBalance != nil {
		s.initialBalance = *cfg.InitialBalance
	}
	if s.numbers == nil {
		s.numbers = account.DefaultNumbers
	}

	return s
}

// Create user together with the default savings account
func (s *UserService) CreateUser(ctx context.Context, username string, password string) (models.User, error) {
	var user models.User
	if password == "" {
		return user, errors.New("password must not be empty")
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return user, fmt.Errorf("can't use this as password, Err: %w", err)
	}

	err = s.storage.InTx(ctx, func(storage repository.Storage) error {
		user, err = storage.User().CreateUser(ctx, username, hash, models.RoleUser)
		if err != nil {
			return err
		}

		_, err = account.Create(ctx, storage.Account(), s.numbers, account.CreateParams{
			UserID:         user.ID,
			Type:           models.AccountTypeSavings,
			InitialBalance: s.initialBalance,
		})
		return err
	})
	if err != nil {
		return models.User{}, fmt.Errorf("can't create user. Err: %w", err)
	}

	return user, nil
}

// Return user if password matches
// Wrong password and unknown user are reported the same way
func (s *UserService) Login(ctx context.Context, username string, password string) (models.User, error) {
	user, err := s.storage.User().GetUserByUsername(ctx, username)
	if err != nil {
		return models.User{}, err
	}

	err = s.hasher.Compare(user.HashedPassword, password)
	if err != nil {
		return models.User{}, apperrors.ErrUserNotFound
	}

	return user, nil
}

func (s *UserService) GetUserByID(ctx context.Context, id uuid.UUID) (models.User, error) {
	return s.storage.User().GetUserByID(ctx, id)
}

// Make sure the admin from configuration exists and has admin role
// Password of an existing user is left as is
func (s *UserService) EnsureAdmin(ctx context.Context, username string, password string) (models.User, error) {
	user, err := s.storage.User().GetUserByUsername(ctx, username)
	switch {
	case err == nil:
		if user.IsAdmin() {
			return user, nil
		}
		return s.storage.User().SetRole(ctx, user.ID, models.RoleAdmin)
	case !errors.Is(err, apperrors.ErrUserNotFound):
		return user, fmt.Errorf("can't get admin user. Err: %w", err)
	}

	user, err = s.CreateUser(ctx, username, password)
	if err != nil {
		return user, err
	}

	return s.storage.User().SetRole(ctx, user.ID, models.RoleAdmin)
}
