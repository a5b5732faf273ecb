package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	AccountTypeSavings = "savings"
	AccountTypeCurrent = "current"
)

// Account holds funds of one user
// Number is the external identifier and never changes after creation
type Account struct {
	ID        uuid.UUID
	Number    string
	UserID    uuid.UUID
	Type      string
	Balance   decimal.Decimal
	IsFrozen  bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Largest balance NUMERIC(18,2) column can hold
var MaxBalance = decimal.RequireFromString("9999999999999999.99")

func ValidAccountType(t string) bool {
	return t == AccountTypeSavings || t == AccountTypeCurrent
}
