package handlers

import (
	"context"
	"net/http"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/nkiryanov/digibank/internal/models"
	"github.com/nkiryanov/digibank/internal/service/transfer"
)

type mockAuthService struct {
	mock.Mock
}

func (m *mockAuthService) Register(ctx context.Context, username string, password string) (models.TokenPair, error) {
	args := m.Called(ctx, username, password)
	return args.Get(0).(models.TokenPair), args.Error(1)
}

func (m *mockAuthService) Login(ctx context.Context, username string, password string) (models.TokenPair, error) {
	args := m.Called(ctx, username, password)
	return args.Get(0).(models.TokenPair), args.Error(1)
}

func (m *mockAuthService) RefreshPair(ctx context.Context, refresh string) (models.TokenPair, error) {
	args := m.Called(ctx, refresh)
	return args.Get(0).(models.TokenPair), args.Error(1)
}

func (m *mockAuthService) SetTokenPairToResponse(w http.ResponseWriter, pair models.TokenPair) {
	m.Called(w, pair)
}

func (m *mockAuthService) GetRefreshString(r *http.Request) (string, error) {
	args := m.Called(r)
	return args.String(0), args.Error(1)
}

func (m *mockAuthService) GetUserFromRequest(ctx context.Context, r *http.Request) (models.User, error) {
	args := m.Called(ctx, r)
	return args.Get(0).(models.User), args.Error(1)
}

type mockAccountService struct {
	mock.Mock
}

func (m *mockAccountService) CreateAccount(ctx context.Context, owner models.User, accountType string) (models.Account, error) {
	args := m.Called(ctx, owner, accountType)
	return args.Get(0).(models.Account), args.Error(1)
}

func (m *mockAccountService) ListAccounts(ctx context.Context, owner models.User) ([]models.Account, error) {
	args := m.Called(ctx, owner)
	return args.Get(0).([]models.Account), args.Error(1)
}

func (m *mockAccountService) GetAccount(ctx context.Context, requester models.User, accountID uuid.UUID) (models.Account, error) {
	args := m.Called(ctx, requester, accountID)
	return args.Get(0).(models.Account), args.Error(1)
}

type mockTransferService struct {
	mock.Mock
}

func (m *mockTransferService) Transfer(ctx context.Context, req transfer.Request) (transfer.Result, error) {
	args := m.Called(ctx, req)
	return args.Get(0).(transfer.Result), args.Error(1)
}

type mockLedgerService struct {
	mock.Mock
}

func (m *mockLedgerService) ListForAccount(ctx context.Context, requester models.User, accountID uuid.UUID) ([]models.Transaction, error) {
	args := m.Called(ctx, requester, accountID)
	return args.Get(0).([]models.Transaction), args.Error(1)
}

func (m *mockLedgerService) ListForUser(ctx context.Context, requester models.User, userID uuid.UUID) ([]models.Transaction, error) {
	args := m.Called(ctx, requester, userID)
	return args.Get(0).([]models.Transaction), args.Error(1)
}

type mockAdminService struct {
	mock.Mock
}

func (m *mockAdminService) ToggleFreeze(ctx context.Context, accountID uuid.UUID) (models.Account, error) {
	args := m.Called(ctx, accountID)
	return args.Get(0).(models.Account), args.Error(1)
}

func (m *mockAdminService) ListUsers(ctx context.Context) ([]models.User, error) {
	args := m.Called(ctx)
	return args.Get(0).([]models.User), args.Error(1)
}

func (m *mockAdminService) ListTransactions(ctx context.Context) ([]models.Transaction, error) {
	args := m.Called(ctx)
	return args.Get(0).([]models.Transaction), args.Error(1)
}

func (m *mockAdminService) Stats(ctx context.Context) (models.Stats, error) {
	args := m.Called(ctx)
	return args.Get(0).(models.Stats), args.Error(1)
}

// Services with mocked dependencies; every request is authenticated as the given user
type mockedServices struct {
	auth      *mockAuthService
	accounts  *mockAccountService
	transfers *mockTransferService
	ledger    *mockLedgerService
	admin     *mockAdminService
}

func newMockedServices(user models.User) *mockedServices {
	m := &mockedServices{
		auth:      &mockAuthService{},
		accounts:  &mockAccountService{},
		transfers: &mockTransferService{},
		ledger:    &mockLedgerService{},
		admin:     &mockAdminService{},
	}
	m.auth.On("GetUserFromRequest", mock.Anything, mock.Anything).Return(user, nil).Maybe()
	return m
}

func (m *mockedServices) services() Services {
	return Services{
		Auth:      m.auth,
		Accounts:  m.accounts,
		Transfers: m.transfers,
		Ledger:    m.ledger,
		Admin:     m.admin,
	}
}
