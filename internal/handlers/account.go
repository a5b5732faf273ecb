package handlers

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/nkiryanov/digibank/internal/apperrors"
	"github.com/nkiryanov/digibank/internal/handlers/render"
	"github.com/nkiryanov/digibank/internal/handlers/userctx"
	"github.com/nkiryanov/digibank/internal/logger"
)

// Parse uuid path parameter, respond 400 if it is malformed
func uuidParam(w http.ResponseWriter, r *http.Request, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, name))
	if err != nil {
		render.ServiceError(w, "Invalid id", http.StatusBadRequest)
		return uuid.Nil, false
	}
	return id, true
}

func handleListAccounts(accountService accountService, l logger.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, _ := userctx.FromContext(r.Context())

		accounts, err := accountService.ListAccounts(r.Context(), user)
		if err != nil {
			l.Error("Failed to list accounts", "error", err)
			render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
			return
		}

		render.JSON(w, mapViews(accounts, newAccountView))
	})
}

func handleCreateAccount(accountService accountService, l logger.Logger) http.Handler {
	type request struct {
		AccountType string `json:"accountType" validate:"required,oneof=savings current"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, _ := userctx.FromContext(r.Context())

		data, err := render.BindAndValidate[request](w, r)
		if err != nil {
			return
		}

		account, err := accountService.CreateAccount(r.Context(), user, data.AccountType)
		switch {
		case err == nil:
			render.JSONWithStatus(w, newAccountView(account), http.StatusCreated)
		case errors.Is(err, apperrors.ErrAccountTypeInvalid):
			render.ServiceError(w, "Invalid account type", http.StatusBadRequest)
		default:
			l.Error("Failed to create account", "error", err)
			render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
		}
	})
}

func handleGetAccount(accountService accountService, l logger.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, _ := userctx.FromContext(r.Context())

		accountID, ok := uuidParam(w, r, "accountID")
		if !ok {
			return
		}

		account, err := accountService.GetAccount(r.Context(), user, accountID)
		switch {
		case err == nil:
			render.JSON(w, newAccountView(account))
		case errors.Is(err, apperrors.ErrAccountNotFound):
			render.ServiceError(w, "Account not found", http.StatusNotFound)
		case errors.Is(err, apperrors.ErrForbidden):
			render.ServiceError(w, "Not authorized", http.StatusForbidden)
		default:
			l.Error("Failed to get account", "error", err)
			render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
		}
	})
}
