package memory

import (
	"context"
	"maps"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/nkiryanov/digibank/internal/apperrors"
	"github.com/nkiryanov/digibank/internal/models"
)

type UserRepo struct {
	s *Storage
}

func (r *UserRepo) CreateUser(ctx context.Context, username string, hashedPassword string, role string) (models.User, error) {
	var user models.User

	err := r.s.do(ctx, func(st *state) error {
		if _, ok := st.usernames[username]; ok {
			return apperrors.ErrUserAlreadyExists
		}

		user = models.User{
			ID:             uuid.New(),
			CreatedAt:      time.Now(),
			Username:       username,
			HashedPassword: hashedPassword,
			Role:           role,
		}
		put(st, st.users, user.ID, user)
		put(st, st.usernames, username, user.ID)
		return nil
	})

	return user, err
}

func (r *UserRepo) GetUserByID(ctx context.Context, id uuid.UUID) (models.User, error) {
	var user models.User

	err := r.s.do(ctx, func(st *state) error {
		u, ok := st.users[id]
		if !ok {
			return apperrors.ErrUserNotFound
		}
		user = u
		return nil
	})

	return user, err
}

func (r *UserRepo) GetUserByUsername(ctx context.Context, username string) (models.User, error) {
	var user models.User

	err := r.s.do(ctx, func(st *state) error {
		id, ok := st.usernames[username]
		if !ok {
			return apperrors.ErrUserNotFound
		}
		user = st.users[id]
		return nil
	})

	return user, err
}

func (r *UserRepo) SetRole(ctx context.Context, id uuid.UUID, role string) (models.User, error) {
	var user models.User

	err := r.s.do(ctx, func(st *state) error {
		u, ok := st.users[id]
		if !ok {
			return apperrors.ErrUserNotFound
		}
		u.Role = role
		put(st, st.users, id, u)
		user = u
		return nil
	})

	return user, err
}

func (r *UserRepo) ListUsers(ctx context.Context) ([]models.User, error) {
	var users []models.User

	err := r.s.do(ctx, func(st *state) error {
		users = slices.Collect(maps.Values(st.users))
		slices.SortFunc(users, func(a, b models.User) int {
			if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
				return c
			}
			return strings.Compare(a.Username, b.Username)
		})
		return nil
	})

	return users, err
}

func (r *UserRepo) CountUsers(ctx context.Context) (int64, error) {
	var count int64

	err := r.s.do(ctx, func(st *state) error {
		count = int64(len(st.users))
		return nil
	})

	return count, err
}
