package memory

import (
	"context"
	"fmt"
	"time"

	"github.com/nkiryanov/digibank/internal/apperrors"
	"github.com/nkiryanov/digibank/internal/models"
)

type RefreshTokenRepo struct {
	s *Storage
}

func (r *RefreshTokenRepo) Save(ctx context.Context, token models.RefreshToken) (models.RefreshToken, error) {
	err := r.s.do(ctx, func(st *state) error {
		if _, ok := st.tokens[token.Token]; ok {
			return fmt.Errorf("refresh token %q already saved", token.Token)
		}
		put(st, st.tokens, token.Token, token)
		return nil
	})

	return token, err
}

func (r *RefreshTokenRepo) Get(ctx context.Context, tokenString string) (models.RefreshToken, error) {
	var token models.RefreshToken

	err := r.s.do(ctx, func(st *state) error {
		t, ok := st.tokens[tokenString]
		if !ok {
			return fmt.Errorf("repo error: %w", apperrors.ErrRefreshTokenNotFound)
		}
		token = t
		return nil
	})

	return token, err
}

func (r *RefreshTokenRepo) GetAndMarkUsed(ctx context.Context, tokenString string) (models.RefreshToken, error) {
	var token models.RefreshToken

	err := r.s.do(ctx, func(st *state) error {
		t, ok := st.tokens[tokenString]
		if !ok {
			return fmt.Errorf("repo error: %w", apperrors.ErrRefreshTokenNotFound)
		}
		token = t

		if t.IsUsed() {
			return fmt.Errorf("repo error: %w", apperrors.ErrRefreshTokenIsUsed)
		}

		now := time.Now()
		t.UsedAt = &now
		put(st, st.tokens, tokenString, t)
		token = t
		return nil
	})

	return token, err
}
