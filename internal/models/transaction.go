package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	TransactionTypeDebit  = "debit"
	TransactionTypeCredit = "credit"

	TransactionStatusSuccess = "success"
	TransactionStatusFailed  = "failed"
	TransactionStatusPending = "pending"
)

// Transaction is one leg of a funds movement. Records are append-only.
type Transaction struct {
	ID                    uuid.UUID
	TransferID            uuid.UUID
	SenderAccountID       uuid.UUID
	ReceiverAccountID     uuid.UUID
	SenderAccountNumber   string
	ReceiverAccountNumber string
	Amount                decimal.Decimal
	Type                  string
	Status                string
	Description           string
	CreatedAt             time.Time
}

// Stats is an aggregate view for administrators
type Stats struct {
	TotalUsers         int64
	TotalAccounts      int64
	TotalTransactions  int64
	TotalBalance       decimal.Decimal
	RecentTransactions []Transaction
}
