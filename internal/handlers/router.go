package handlers

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"github.com/nkiryanov/digibank/internal/handlers/middleware"
	"github.com/nkiryanov/digibank/internal/logger"
	"github.com/nkiryanov/digibank/internal/metrics"
	"github.com/nkiryanov/digibank/internal/models"
	"github.com/nkiryanov/digibank/internal/service/transfer"
)

type Services struct {
	Auth      authService
	Accounts  accountService
	Transfers transferService
	Ledger    ledgerService
	Admin     adminService
}

func NewRouter(s Services, l logger.Logger, m *metrics.Collector) http.Handler {
	if m == nil {
		m = metrics.New()
	}
	auth := middleware.NewAuth(s.Auth)

	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(middleware.Logger(l, m))
	r.Use(chimiddleware.Recoverer)

	r.Method(http.MethodGet, "/metrics", m.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.Method(http.MethodPost, "/register", handleRegister(s.Auth, l))
			r.Method(http.MethodPost, "/login", handleLogin(s.Auth, l))
			r.Method(http.MethodPost, "/refresh", handleTokenRefresh(s.Auth, l))
			r.With(auth.Auth).Method(http.MethodGet, "/me", handleUserMe())
		})

		r.Group(func(r chi.Router) {
			r.Use(auth.Auth)

			r.Method(http.MethodGet, "/accounts", handleListAccounts(s.Accounts, l))
			r.Method(http.MethodPost, "/accounts", handleCreateAccount(s.Accounts, l))
			r.Method(http.MethodGet, "/accounts/{accountID}", handleGetAccount(s.Accounts, l))

			r.Method(http.MethodPost, "/transactions/transfer", handleTransfer(s.Transfers, l))
			r.Method(http.MethodGet, "/transactions/account/{accountID}", handleListAccountTransactions(s.Ledger, l))
			r.Method(http.MethodGet, "/transactions/{userID}", handleListUserTransactions(s.Ledger, l))
		})

		r.Route("/admin", func(r chi.Router) {
			r.Use(auth.Auth, auth.RequireAdmin)

			r.Method(http.MethodGet, "/users", handleAdminListUsers(s.Admin, l))
			r.Method(http.MethodGet, "/transactions", handleAdminListTransactions(s.Admin, l))
			r.Method(http.MethodGet, "/stats", handleAdminStats(s.Admin, l))
			r.Method(http.MethodPut, "/freeze/{accountID}", handleToggleFreeze(s.Admin, l))
		})
	})

	return r
}

type authService interface {
	// Register user with username and password
	// Has to return apperrors.ErrUserAlreadyExists if user already exists
	Register(ctx context.Context, username string, password string) (models.TokenPair, error)

	// Login user with username and password
	// Has to return apperrors.ErrUserNotFound if user not found
	Login(ctx context.Context, username string, password string) (models.TokenPair, error)

	// Refresh tokens using refresh token
	// If token expired: has to return apperrors.ErrRefreshTokenExpired
	// If token not found: has to return apperrors.ErrRefreshTokenNotFound
	RefreshPair(ctx context.Context, refresh string) (models.TokenPair, error)

	// Set auth tokens (access, refresh) to response
	SetTokenPairToResponse(w http.ResponseWriter, pair models.TokenPair)

	// Get refresh token from request
	GetRefreshString(r *http.Request) (string, error)

	// Get request and return user if it authenticated or error
	GetUserFromRequest(ctx context.Context, r *http.Request) (models.User, error)
}

type accountService interface {
	CreateAccount(ctx context.Context, owner models.User, accountType string) (models.Account, error)
	ListAccounts(ctx context.Context, owner models.User) ([]models.Account, error)
	GetAccount(ctx context.Context, requester models.User, accountID uuid.UUID) (models.Account, error)
}

type transferService interface {
	Transfer(ctx context.Context, req transfer.Request) (transfer.Result, error)
}

type ledgerService interface {
	ListForAccount(ctx context.Context, requester models.User, accountID uuid.UUID) ([]models.Transaction, error)
	ListForUser(ctx context.Context, requester models.User, userID uuid.UUID) ([]models.Transaction, error)
}

type adminService interface {
	ToggleFreeze(ctx context.Context, accountID uuid.UUID) (models.Account, error)
	ListUsers(ctx context.Context) ([]models.User, error)
	ListTransactions(ctx context.Context) ([]models.Transaction, error)
	Stats(ctx context.Context) (models.Stats, error)
}
