package handlers

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/nkiryanov/digibank/internal/apperrors"
	"github.com/nkiryanov/digibank/internal/handlers/render"
	"github.com/nkiryanov/digibank/internal/logger"
)

func handleAdminListUsers(adminService adminService, l logger.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		users, err := adminService.ListUsers(r.Context())
		if err != nil {
			l.Error("Failed to list users", "error", err)
			render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
			return
		}

		render.JSON(w, mapViews(users, newUserView))
	})
}

func handleAdminListTransactions(adminService adminService, l logger.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		transactions, err := adminService.ListTransactions(r.Context())
		if err != nil {
			l.Error("Failed to list transactions", "error", err)
			render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
			return
		}

		render.JSON(w, mapViews(transactions, newTransactionView))
	})
}

func handleAdminStats(adminService adminService, l logger.Logger) http.Handler {
	type response struct {
		TotalUsers         int64             `json:"totalUsers"`
		TotalAccounts      int64             `json:"totalAccounts"`
		TotalTransactions  int64             `json:"totalTransactions"`
		TotalBalance       float64           `json:"totalBalance"`
		RecentTransactions []transactionView `json:"recentTransactions"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		stats, err := adminService.Stats(r.Context())
		if err != nil {
			l.Error("Failed to collect stats", "error", err)
			render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
			return
		}

		totalBalance, _ := stats.TotalBalance.Float64()
		render.JSON(w, response{
			TotalUsers:         stats.TotalUsers,
			TotalAccounts:      stats.TotalAccounts,
			TotalTransactions:  stats.TotalTransactions,
			TotalBalance:       totalBalance,
			RecentTransactions: mapViews(stats.RecentTransactions, newTransactionView),
		})
	})
}

func handleToggleFreeze(adminService adminService, l logger.Logger) http.Handler {
	type response struct {
		Message string      `json:"message"`
		Account accountView `json:"account"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		accountID, ok := uuidParam(w, r, "accountID")
		if !ok {
			return
		}

		account, err := adminService.ToggleFreeze(r.Context(), accountID)
		switch {
		case err == nil:
			state := "unfrozen"
			if account.IsFrozen {
				state = "frozen"
			}
			render.JSON(w, response{
				Message: fmt.Sprintf("Account %s successfully", state),
				Account: newAccountView(account),
			})
		case errors.Is(err, apperrors.ErrAccountNotFound):
			render.ServiceError(w, "Account not found", http.StatusNotFound)
		default:
			l.Error("Failed to toggle freeze", "error", err)
			render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
		}
	})
}
