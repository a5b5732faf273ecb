package handlers

import (
	"errors"
	"net/http"

	"github.com/nkiryanov/digibank/internal/apperrors"
	"github.com/nkiryanov/digibank/internal/handlers/render"
	"github.com/nkiryanov/digibank/internal/handlers/userctx"
	"github.com/nkiryanov/digibank/internal/logger"
)

func handleListUserTransactions(ledgerService ledgerService, l logger.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, _ := userctx.FromContext(r.Context())

		userID, ok := uuidParam(w, r, "userID")
		if !ok {
			return
		}

		transactions, err := ledgerService.ListForUser(r.Context(), user, userID)
		switch {
		case err == nil:
			render.JSON(w, mapViews(transactions, newTransactionView))
		case errors.Is(err, apperrors.ErrForbidden):
			render.ServiceError(w, "Not authorized", http.StatusForbidden)
		default:
			l.Error("Failed to list user transactions", "error", err)
			render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
		}
	})
}

func handleListAccountTransactions(ledgerService ledgerService, l logger.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, _ := userctx.FromContext(r.Context())

		accountID, ok := uuidParam(w, r, "accountID")
		if !ok {
			return
		}

		transactions, err := ledgerService.ListForAccount(r.Context(), user, accountID)
		switch {
		case err == nil:
			render.JSON(w, mapViews(transactions, newTransactionView))
		case errors.Is(err, apperrors.ErrAccountNotFound):
			render.ServiceError(w, "Account not found", http.StatusNotFound)
		case errors.Is(err, apperrors.ErrForbidden):
			render.ServiceError(w, "Not authorized", http.StatusForbidden)
		default:
			l.Error("Failed to list account transactions", "error", err)
			render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
		}
	})
}
