package models

import (
	"time"

	"github.com/google/uuid"
)

// RefreshToken is stored server side and may be exchanged for a new pair once
type RefreshToken struct {
	ID        uuid.UUID
	UserID    uuid.UUID
	Token     string
	CreatedAt time.Time
	ExpiresAt time.Time
	UsedAt    *time.Time // nil if token not used
}

func (t RefreshToken) IsUsed() bool {
	return t.UsedAt != nil
}

func (t RefreshToken) ExpiredAt(now time.Time) bool {
	return !now.Before(t.ExpiresAt)
}

// Token value as it is handed to the client
type IssuedToken struct {
	Value     string
	ExpiresAt time.Time
}

// Access (JWT) and refresh tokens issued together on register, login or refresh
type TokenPair struct {
	Access  IssuedToken
	Refresh IssuedToken
}
