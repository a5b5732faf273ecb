// Package memory keeps all data in process memory.
// Used when no database is configured and by fast service tests.
package memory

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/nkiryanov/digibank/internal/models"
	"github.com/nkiryanov/digibank/internal/repository"
)

type state struct {
	users     map[uuid.UUID]models.User
	usernames map[string]uuid.UUID
	tokens    map[string]models.RefreshToken
	accounts  map[uuid.UUID]models.Account
	numbers   map[string]uuid.UUID
	ledger    []models.Transaction // in insertion order

	depth int      // open transactions, nested included
	undo  []func() // reverts changes made since the outermost transaction began
}

func newState() *state {
	return &state{
		users:     make(map[uuid.UUID]models.User),
		usernames: make(map[string]uuid.UUID),
		tokens:    make(map[string]models.RefreshToken),
		accounts:  make(map[uuid.UUID]models.Account),
		numbers:   make(map[string]uuid.UUID),
	}
}

// put sets m[k] and, inside a transaction, remembers the previous entry
func put[K comparable, V any](st *state, m map[K]V, k K, v V) {
	if st.depth > 0 {
		old, existed := m[k]
		st.undo = append(st.undo, func() {
			if existed {
				m[k] = old
			} else {
				delete(m, k)
			}
		})
	}
	m[k] = v
}

func (st *state) appendLedger(t models.Transaction) {
	if st.depth > 0 {
		n := len(st.ledger)
		st.undo = append(st.undo, func() {
			clear(st.ledger[n:])
			st.ledger = st.ledger[:n]
		})
	}
	st.ledger = append(st.ledger, t)
}

// rollback reverts changes recorded after mark, newest first
func (st *state) rollback(mark int) {
	for i := len(st.undo) - 1; i >= mark; i-- {
		st.undo[i]()
	}
	st.undo = st.undo[:mark]
}

// Storage serializes every operation with one mutex
// A transaction holds the mutex until it ends and changes the live state in place,
// on error only its own changes are undone
type Storage struct {
	mu   *sync.Mutex
	st   *state
	inTx bool
}

func NewStorage() repository.Storage {
	return &Storage{mu: &sync.Mutex{}, st: newState()}
}

func (s *Storage) User() repository.UserRepo {
	return &UserRepo{s: s}
}

func (s *Storage) Refresh() repository.RefreshTokenRepo {
	return &RefreshTokenRepo{s: s}
}

func (s *Storage) Account() repository.AccountRepo {
	return &AccountRepo{s: s}
}

func (s *Storage) Ledger() repository.LedgerRepo {
	return &LedgerRepo{s: s}
}

func (s *Storage) InTx(ctx context.Context, fn func(repository.Storage) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if !s.inTx {
		s.mu.Lock()
		defer s.mu.Unlock()
	}

	st := s.st
	mark := len(st.undo)
	st.depth++

	committed := false
	defer func() {
		st.depth--
		if !committed {
			st.rollback(mark) // panics included
		}
		if st.depth == 0 {
			st.undo = nil
		}
	}()

	if err := fn(&Storage{mu: s.mu, st: st, inTx: true}); err != nil {
		return err
	}

	committed = true
	return nil
}

// The mutex is held for the whole call, so fn never sees a transaction half done
func (s *Storage) InSnapshot(ctx context.Context, fn func(repository.Storage) error) error {
	return s.InTx(ctx, fn)
}

// do runs fn against current state, taking the lock unless already inside a transaction
func (s *Storage) do(ctx context.Context, fn func(st *state) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if !s.inTx {
		s.mu.Lock()
		defer s.mu.Unlock()
	}

	return fn(s.st)
}
