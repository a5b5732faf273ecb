package postgres

import (
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nkiryanov/digibank/internal/apperrors"
	"github.com/nkiryanov/digibank/internal/models"
	"github.com/nkiryanov/digibank/internal/repository"
	"github.com/nkiryanov/digibank/internal/testutil"
)

func TestAccountRepo(t *testing.T) {
	t.Parallel()

	pg := testutil.StartPostgresContainer(t)
	t.Cleanup(pg.Terminate)

	inTx := func(t *testing.T, fn func(tx pgx.Tx, storage repository.Storage, owner models.User)) {
		testutil.InTx(pg.Pool, t, func(tx pgx.Tx) {
			storage := NewStorage(tx)
			owner, err := storage.User().CreateUser(t.Context(), "owner", "hash", models.RoleUser)
			require.NoError(t, err)
			fn(tx, storage, owner)
		})
	}

	newAccount := func(owner models.User, number string, balance string) models.Account {
		return models.Account{
			ID:      uuid.New(),
			Number:  number,
			UserID:  owner.ID,
			Type:    models.AccountTypeSavings,
			Balance: decimal.RequireFromString(balance),
		}
	}

	t.Run("InsertAccount", func(t *testing.T) {
		t.Run("insert ok", func(t *testing.T) {
			inTx(t, func(_ pgx.Tx, storage repository.Storage, owner models.User) {
				got, err := storage.Account().InsertAccount(t.Context(), newAccount(owner, "100000000008", "1000"))

				require.NoError(t, err)
				require.Equal(t, "100000000008", got.Number)
				require.Equal(t, owner.ID, got.UserID)
				require.True(t, got.Balance.Equal(decimal.NewFromInt(1000)))
				require.False(t, got.IsFrozen)
				require.WithinDuration(t, time.Now(), got.CreatedAt, time.Second)
			})
		})

		t.Run("number taken keeps tx usable", func(t *testing.T) {
			inTx(t, func(_ pgx.Tx, storage repository.Storage, owner models.User) {
				_, err := storage.Account().InsertAccount(t.Context(), newAccount(owner, "100000000008", "0"))
				require.NoError(t, err)

				_, err = storage.Account().InsertAccount(t.Context(), newAccount(owner, "100000000008", "0"))
				require.ErrorIs(t, err, apperrors.ErrAccountNumberTaken)

				_, err = storage.Account().InsertAccount(t.Context(), newAccount(owner, "200000000006", "0"))
				require.NoError(t, err, "transaction must stay usable after number conflict")
			})
		})

		t.Run("unknown owner", func(t *testing.T) {
			inTx(t, func(_ pgx.Tx, storage repository.Storage, _ models.User) {
				_, err := storage.Account().InsertAccount(t.Context(), newAccount(models.User{ID: uuid.New()}, "100000000008", "0"))

				require.ErrorIs(t, err, apperrors.ErrUserNotFound)
			})
		})

		t.Run("negative balance", func(t *testing.T) {
			inTx(t, func(_ pgx.Tx, storage repository.Storage, owner models.User) {
				_, err := storage.Account().InsertAccount(t.Context(), newAccount(owner, "100000000008", "-1"))

				require.ErrorIs(t, err, apperrors.ErrInvariantViolation)
			})
		})

		t.Run("balance overflows column", func(t *testing.T) {
			inTx(t, func(_ pgx.Tx, storage repository.Storage, owner models.User) {
				_, err := storage.Account().InsertAccount(t.Context(), newAccount(owner, "100000000008", "1e16"))

				require.ErrorIs(t, err, apperrors.ErrInvariantViolation)
			})
		})
	})

	t.Run("GetAccount", func(t *testing.T) {
		inTx(t, func(_ pgx.Tx, storage repository.Storage, owner models.User) {
			created, err := storage.Account().InsertAccount(t.Context(), newAccount(owner, "100000000008", "12.34"))
			require.NoError(t, err)

			for _, lock := range []bool{false, true} {
				got, err := storage.Account().GetAccount(t.Context(), created.ID, lock)
				require.NoError(t, err)
				require.Equal(t, created.Number, got.Number)
				require.True(t, got.Balance.Equal(decimal.RequireFromString("12.34")))
			}

			got, err := storage.Account().GetAccountByNumber(t.Context(), "100000000008")
			require.NoError(t, err)
			require.Equal(t, created.ID, got.ID)

			_, err = storage.Account().GetAccount(t.Context(), uuid.New(), false)
			require.ErrorIs(t, err, apperrors.ErrAccountNotFound)

			_, err = storage.Account().GetAccountByNumber(t.Context(), "999999999999")
			require.ErrorIs(t, err, apperrors.ErrAccountNotFound)
		})
	})

	t.Run("SaveAccount", func(t *testing.T) {
		t.Run("save balance and frozen flag", func(t *testing.T) {
			inTx(t, func(_ pgx.Tx, storage repository.Storage, owner models.User) {
				created, err := storage.Account().InsertAccount(t.Context(), newAccount(owner, "100000000008", "100"))
				require.NoError(t, err)

				created.Balance = decimal.RequireFromString("42.50")
				created.IsFrozen = true
				created.Number = "555555555557" // must be ignored

				saved, err := storage.Account().SaveAccount(t.Context(), created)

				require.NoError(t, err)
				require.True(t, saved.Balance.Equal(decimal.RequireFromString("42.50")))
				require.True(t, saved.IsFrozen)
				require.Equal(t, "100000000008", saved.Number, "account number is immutable")
			})
		})

		t.Run("negative balance rejected", func(t *testing.T) {
			inTx(t, func(_ pgx.Tx, storage repository.Storage, owner models.User) {
				created, err := storage.Account().InsertAccount(t.Context(), newAccount(owner, "100000000008", "100"))
				require.NoError(t, err)

				created.Balance = decimal.RequireFromString("-0.01")
				_, err = storage.Account().SaveAccount(t.Context(), created)

				require.ErrorIs(t, err, apperrors.ErrInvariantViolation)
			})
		})

		t.Run("balance above column limit rejected", func(t *testing.T) {
			inTx(t, func(_ pgx.Tx, storage repository.Storage, owner models.User) {
				created, err := storage.Account().InsertAccount(t.Context(), newAccount(owner, "100000000008", "100"))
				require.NoError(t, err)

				created.Balance = models.MaxBalance
				saved, err := storage.Account().SaveAccount(t.Context(), created)
				require.NoError(t, err)
				require.True(t, saved.Balance.Equal(models.MaxBalance), "max balance fits the column")

				created.Balance = models.MaxBalance.Add(decimal.RequireFromString("0.01"))
				_, err = storage.Account().SaveAccount(t.Context(), created)
				require.ErrorIs(t, err, apperrors.ErrInvariantViolation)
			})
		})

		t.Run("not found", func(t *testing.T) {
			inTx(t, func(_ pgx.Tx, storage repository.Storage, owner models.User) {
				_, err := storage.Account().SaveAccount(t.Context(), newAccount(owner, "100000000008", "1"))

				require.ErrorIs(t, err, apperrors.ErrAccountNotFound)
			})
		})
	})

	t.Run("LockForTransfer", func(t *testing.T) {
		inTx(t, func(_ pgx.Tx, storage repository.Storage, owner models.User) {
			sender, err := storage.Account().InsertAccount(t.Context(), newAccount(owner, "100000000008", "10"))
			require.NoError(t, err)
			receiver, err := storage.Account().InsertAccount(t.Context(), newAccount(owner, "200000000006", "20"))
			require.NoError(t, err)

			pair, err := storage.Account().LockForTransfer(t.Context(), sender.ID, receiver.Number)
			require.NoError(t, err)
			require.Equal(t, sender.ID, pair.Sender.ID)
			require.Equal(t, receiver.ID, pair.Receiver.ID)

			pair, err = storage.Account().LockForTransfer(t.Context(), sender.ID, sender.Number)
			require.NoError(t, err)
			require.Equal(t, pair.Sender.ID, pair.Receiver.ID, "same row plays both sides")

			pair, err = storage.Account().LockForTransfer(t.Context(), uuid.New(), "999999999999")
			require.NoError(t, err)
			require.Nil(t, pair.Sender)
			require.Nil(t, pair.Receiver)
		})
	})

	t.Run("list count total", func(t *testing.T) {
		inTx(t, func(_ pgx.Tx, storage repository.Storage, owner models.User) {
			_, err := storage.Account().InsertAccount(t.Context(), newAccount(owner, "100000000008", "10.50"))
			require.NoError(t, err)
			_, err = storage.Account().InsertAccount(t.Context(), newAccount(owner, "200000000006", "20"))
			require.NoError(t, err)

			accounts, err := storage.Account().ListAccounts(t.Context(), owner.ID)
			require.NoError(t, err)
			require.Len(t, accounts, 2)

			count, err := storage.Account().CountAccounts(t.Context())
			require.NoError(t, err)
			require.Equal(t, int64(2), count)

			total, err := storage.Account().TotalBalance(t.Context())
			require.NoError(t, err)
			require.True(t, total.Equal(decimal.RequireFromString("30.50")), "got %s", total)
		})
	})
}

// Row locks must serialize read-modify-write of concurrent transactions
func TestAccountRepo_LockSerializes(t *testing.T) {
	t.Parallel()

	pg := testutil.StartPostgresContainer(t)
	t.Cleanup(pg.Terminate)

	storage := NewStorage(pg.Pool)
	owner, err := storage.User().CreateUser(t.Context(), "owner", "hash", models.RoleUser)
	require.NoError(t, err)
	account, err := storage.Account().InsertAccount(t.Context(), models.Account{
		Number: "100000000008", UserID: owner.ID, Type: models.AccountTypeSavings, Balance: decimal.Zero,
	})
	require.NoError(t, err)

	const increments = 20
	var wg sync.WaitGroup
	for range increments {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := storage.InTx(t.Context(), func(s repository.Storage) error {
				a, err := s.Account().GetAccount(t.Context(), account.ID, true)
				if err != nil {
					return err
				}
				a.Balance = a.Balance.Add(decimal.NewFromInt(1))
				_, err = s.Account().SaveAccount(t.Context(), a)
				return err
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	got, err := storage.Account().GetAccount(t.Context(), account.ID, false)
	require.NoError(t, err)
	require.True(t, got.Balance.Equal(decimal.NewFromInt(increments)), "no increment may be lost, got %s", got.Balance)
}

func TestOutOfBounds(t *testing.T) {
	require.True(t, outOfBounds(&pgconn.PgError{Code: pgerrcode.CheckViolation}))
	require.True(t, outOfBounds(&pgconn.PgError{Code: pgerrcode.NumericValueOutOfRange}))
	require.False(t, outOfBounds(&pgconn.PgError{Code: pgerrcode.UniqueViolation}))
}
