package memory

import (
	"context"
	"slices"
	"time"

	"github.com/google/uuid"

	"github.com/nkiryanov/digibank/internal/apperrors"
	"github.com/nkiryanov/digibank/internal/models"
)

type LedgerRepo struct {
	s *Storage
}

func (r *LedgerRepo) CreateTransaction(ctx context.Context, t models.Transaction) (models.Transaction, error) {
	if !t.Amount.IsPositive() {
		return t, apperrors.ErrInvalidAmount
	}

	err := r.s.do(ctx, func(st *state) error {
		_, senderOK := st.accounts[t.SenderAccountID]
		_, receiverOK := st.accounts[t.ReceiverAccountID]
		if !senderOK || !receiverOK {
			return apperrors.ErrAccountNotFound
		}

		if t.ID == uuid.Nil {
			t.ID = uuid.New()
		}
		if t.CreatedAt.IsZero() {
			t.CreatedAt = time.Now()
		}

		st.appendLedger(t)
		return nil
	})

	return t, err
}

func (r *LedgerRepo) ListByAccount(ctx context.Context, accountID uuid.UUID) ([]models.Transaction, error) {
	return r.list(ctx, 0, func(st *state, t models.Transaction) bool {
		return t.SenderAccountID == accountID || t.ReceiverAccountID == accountID
	})
}

func (r *LedgerRepo) ListByUser(ctx context.Context, userID uuid.UUID) ([]models.Transaction, error) {
	return r.list(ctx, 0, func(st *state, t models.Transaction) bool {
		return st.accounts[t.SenderAccountID].UserID == userID || st.accounts[t.ReceiverAccountID].UserID == userID
	})
}

func (r *LedgerRepo) ListAll(ctx context.Context, limit int) ([]models.Transaction, error) {
	return r.list(ctx, limit, func(*state, models.Transaction) bool { return true })
}

func (r *LedgerRepo) CountTransactions(ctx context.Context) (int64, error) {
	var count int64

	err := r.s.do(ctx, func(st *state) error {
		count = int64(len(st.ledger))
		return nil
	})

	return count, err
}

// list returns matched records newest first, ties ordered by insertion (newest first)
func (r *LedgerRepo) list(ctx context.Context, limit int, match func(*state, models.Transaction) bool) ([]models.Transaction, error) {
	var out []models.Transaction

	err := r.s.do(ctx, func(st *state) error {
		for i := len(st.ledger) - 1; i >= 0; i-- {
			t := st.ledger[i]
			if !match(st, t) {
				continue
			}
			t.SenderAccountNumber = st.accounts[t.SenderAccountID].Number
			t.ReceiverAccountNumber = st.accounts[t.ReceiverAccountID].Number
			out = append(out, t)
		}

		slices.SortStableFunc(out, func(a, b models.Transaction) int {
			return b.CreatedAt.Compare(a.CreatedAt)
		})

		if limit > 0 && len(out) > limit {
			out = out[:limit]
		}
		return nil
	})

	return out, err
}
