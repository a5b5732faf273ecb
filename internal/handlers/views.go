package handlers

import (
	"time"

	"github.com/google/uuid"

	"github.com/nkiryanov/digibank/internal/models"
)

type userView struct {
	ID        uuid.UUID `json:"id"`
	Username  string    `json:"username"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"createdAt"`
}

func newUserView(u models.User) userView {
	return userView{ID: u.ID, Username: u.Username, Role: u.Role, CreatedAt: u.CreatedAt}
}

type accountView struct {
	ID            uuid.UUID `json:"id"`
	AccountNumber string    `json:"accountNumber"`
	UserID        uuid.UUID `json:"userId"`
	AccountType   string    `json:"accountType"`
	Balance       float64   `json:"balance"`
	IsFrozen      bool      `json:"isFrozen"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

func newAccountView(a models.Account) accountView {
	balance, _ := a.Balance.Float64()
	return accountView{
		ID:            a.ID,
		AccountNumber: a.Number,
		UserID:        a.UserID,
		AccountType:   a.Type,
		Balance:       balance,
		IsFrozen:      a.IsFrozen,
		CreatedAt:     a.CreatedAt,
		UpdatedAt:     a.UpdatedAt,
	}
}

type transactionView struct {
	ID                    uuid.UUID `json:"id"`
	TransferID            uuid.UUID `json:"transferId"`
	SenderAccountID       uuid.UUID `json:"senderAccountId"`
	SenderAccountNumber   string    `json:"senderAccountNumber"`
	ReceiverAccountID     uuid.UUID `json:"receiverAccountId"`
	ReceiverAccountNumber string    `json:"receiverAccountNumber"`
	Amount                float64   `json:"amount"`
	Type                  string    `json:"type"`
	Status                string    `json:"status"`
	Description           string    `json:"description"`
	CreatedAt             time.Time `json:"createdAt"`
}

func newTransactionView(t models.Transaction) transactionView {
	amount, _ := t.Amount.Float64()
	return transactionView{
		ID:                    t.ID,
		TransferID:            t.TransferID,
		SenderAccountID:       t.SenderAccountID,
		SenderAccountNumber:   t.SenderAccountNumber,
		ReceiverAccountID:     t.ReceiverAccountID,
		ReceiverAccountNumber: t.ReceiverAccountNumber,
		Amount:                amount,
		Type:                  t.Type,
		Status:                t.Status,
		Description:           t.Description,
		CreatedAt:             t.CreatedAt,
	}
}

// Empty input gives empty JSON array, not null
func mapViews[T any, V any](items []T, view func(T) V) []V {
	views := make([]V, 0, len(items))
	for _, item := range items {
		views = append(views, view(item))
	}
	return views
}
