package handlers

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/nkiryanov/digibank/internal/apperrors"
	"github.com/nkiryanov/digibank/internal/handlers/render"
	"github.com/nkiryanov/digibank/internal/handlers/userctx"
	"github.com/nkiryanov/digibank/internal/logger"
	"github.com/nkiryanov/digibank/internal/service/transfer"
)

var transferErrors = []struct {
	err     error
	message string
	code    int
}{
	{apperrors.ErrInvalidAmount, "Invalid amount", http.StatusBadRequest},
	{apperrors.ErrSenderNotFound, "Sender account not found", http.StatusNotFound},
	{apperrors.ErrNotAuthorized, "Not authorized", http.StatusForbidden},
	{apperrors.ErrSenderFrozen, "Account is frozen", http.StatusForbidden},
	{apperrors.ErrReceiverNotFound, "Receiver account not found", http.StatusNotFound},
	{apperrors.ErrReceiverFrozen, "Receiver account is frozen", http.StatusForbidden},
	{apperrors.ErrSelfTransfer, "Cannot transfer to the same account", http.StatusBadRequest},
	{apperrors.ErrBalanceInsufficient, "Insufficient balance", http.StatusBadRequest},
	{apperrors.ErrBalanceLimit, "Receiver balance limit exceeded", http.StatusBadRequest},
}

func handleTransfer(transferService transferService, l logger.Logger) http.Handler {
	type request struct {
		SenderAccountID       uuid.UUID       `json:"senderAccountId" validate:"required"`
		ReceiverAccountNumber string          `json:"receiverAccountNumber" validate:"required"`
		Amount                decimal.Decimal `json:"amount"`
	}

	type response struct {
		Message           string          `json:"message"`
		DebitTransaction  transactionView `json:"debitTransaction"`
		CreditTransaction transactionView `json:"creditTransaction"`
		NewBalance        float64         `json:"newBalance"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, _ := userctx.FromContext(r.Context())

		data, err := render.BindAndValidate[request](w, r)
		if err != nil {
			return
		}

		res, err := transferService.Transfer(r.Context(), transfer.Request{
			RequesterID:           user.ID,
			SenderAccountID:       data.SenderAccountID,
			ReceiverAccountNumber: data.ReceiverAccountNumber,
			Amount:                data.Amount,
		})
		if err == nil {
			newBalance, _ := res.NewSenderBalance.Float64()
			render.JSONWithStatus(w, response{
				Message:           "Transfer successful",
				DebitTransaction:  newTransactionView(res.Debit),
				CreditTransaction: newTransactionView(res.Credit),
				NewBalance:        newBalance,
			}, http.StatusCreated)
			return
		}

		for _, e := range transferErrors {
			if errors.Is(err, e.err) {
				render.ServiceError(w, e.message, e.code)
				return
			}
		}

		// Engine already logged the failure with details
		render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
	})
}
