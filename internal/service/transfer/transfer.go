package transfer

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/nkiryanov/digibank/internal/apperrors"
	"github.com/nkiryanov/digibank/internal/logger"
	"github.com/nkiryanov/digibank/internal/metrics"
	"github.com/nkiryanov/digibank/internal/models"
	"github.com/nkiryanov/digibank/internal/repository"
)

// Amounts carry at most cents
const amountScale = 2

type Request struct {
	// Authenticated user, trusted
	RequesterID uuid.UUID

	SenderAccountID       uuid.UUID
	ReceiverAccountNumber string
	Amount                decimal.Decimal
}

type Result struct {
	NewSenderBalance decimal.Decimal
	Debit            models.Transaction
	Credit           models.Transaction
}

type observer interface {
	ObserveTransfer(outcome string, reason string, d time.Duration, amount float64)
}

type noopObserver struct{}

func (noopObserver) ObserveTransfer(string, string, time.Duration, float64) {}

// Engine is the only component that changes account balances
type Engine struct {
	storage  repository.Storage
	logger   logger.Logger
	observer observer
}

func NewEngine(storage repository.Storage, l logger.Logger, o observer) *Engine {
	if l == nil {
		l = logger.NewNoOpLogger()
	}
	if o == nil {
		o = noopObserver{}
	}

	return &Engine{
		storage:  storage,
		logger:   l.With("component", "transfer"),
		observer: o,
	}
}

// ValidateAmount accepts positive amounts with at most two decimal places
func ValidateAmount(amount decimal.Decimal) error {
	if !amount.IsPositive() || !amount.Equal(amount.Round(amountScale)) || amount.GreaterThan(models.MaxBalance) {
		return apperrors.ErrInvalidAmount
	}
	return nil
}

// Transfer moves funds between two accounts
//
// Preconditions are checked in order and the first failed one is returned:
// amount, sender exists, sender owned by requester, sender not frozen,
// receiver exists, receiver not frozen, different accounts, sufficient balance,
// receiver balance stays within the limit.
// Both balances and both ledger records are written in one transaction or not at all.
func (e *Engine) Transfer(ctx context.Context, req Request) (res Result, err error) {
	start := time.Now()
	defer func() { e.report(req, start, err) }()

	if err := ValidateAmount(req.Amount); err != nil {
		return res, err
	}

	err = e.storage.InTx(ctx, func(st repository.Storage) error {
		pair, err := st.Account().LockForTransfer(ctx, req.SenderAccountID, req.ReceiverAccountNumber)
		if err != nil {
			return err
		}

		sender, receiver, err := check(req, pair)
		if err != nil {
			return err
		}

		sender.Balance = sender.Balance.Sub(req.Amount)
		receiver.Balance = receiver.Balance.Add(req.Amount)

		savedSender, err := st.Account().SaveAccount(ctx, sender)
		if err != nil {
			return err
		}
		if _, err := st.Account().SaveAccount(ctx, receiver); err != nil {
			return err
		}

		now := time.Now()
		transferID := uuid.New()
		leg := func(typ string, description string) models.Transaction {
			return models.Transaction{
				ID:                    uuid.New(),
				TransferID:            transferID,
				SenderAccountID:       sender.ID,
				ReceiverAccountID:     receiver.ID,
				SenderAccountNumber:   sender.Number,
				ReceiverAccountNumber: receiver.Number,
				Amount:                req.Amount,
				Type:                  typ,
				Status:                models.TransactionStatusSuccess,
				Description:           description,
				CreatedAt:             now,
			}
		}

		debit, err := st.Ledger().CreateTransaction(ctx, leg(models.TransactionTypeDebit, "Transfer to "+receiver.Number))
		if err != nil {
			return err
		}
		credit, err := st.Ledger().CreateTransaction(ctx, leg(models.TransactionTypeCredit, "Transfer from "+sender.Number))
		if err != nil {
			return err
		}

		res = Result{
			NewSenderBalance: savedSender.Balance,
			Debit:            debit,
			Credit:           credit,
		}
		return nil
	})

	switch {
	case err == nil:
		return res, nil
	case isRejection(err):
		return Result{}, err
	default:
		return Result{}, fmt.Errorf("transfer failed. Err: %w", err)
	}
}

func check(req Request, pair repository.TransferPair) (sender models.Account, receiver models.Account, err error) {
	switch {
	case pair.Sender == nil:
		return sender, receiver, apperrors.ErrSenderNotFound
	case pair.Sender.UserID != req.RequesterID:
		return sender, receiver, apperrors.ErrNotAuthorized
	case pair.Sender.IsFrozen:
		return sender, receiver, apperrors.ErrSenderFrozen
	case pair.Receiver == nil:
		return sender, receiver, apperrors.ErrReceiverNotFound
	case pair.Receiver.IsFrozen:
		return sender, receiver, apperrors.ErrReceiverFrozen
	case pair.Sender.ID == pair.Receiver.ID:
		return sender, receiver, apperrors.ErrSelfTransfer
	case pair.Sender.Balance.LessThan(req.Amount):
		return sender, receiver, apperrors.ErrBalanceInsufficient
	case pair.Receiver.Balance.Add(req.Amount).GreaterThan(models.MaxBalance):
		return sender, receiver, apperrors.ErrBalanceLimit
	}

	return *pair.Sender, *pair.Receiver, nil
}

var rejections = map[error]string{
	apperrors.ErrInvalidAmount:       "invalid_amount",
	apperrors.ErrSenderNotFound:      "sender_not_found",
	apperrors.ErrNotAuthorized:       "not_authorized",
	apperrors.ErrSenderFrozen:        "sender_frozen",
	apperrors.ErrReceiverNotFound:    "receiver_not_found",
	apperrors.ErrReceiverFrozen:      "receiver_frozen",
	apperrors.ErrSelfTransfer:        "self_transfer",
	apperrors.ErrBalanceInsufficient: "insufficient_balance",
	apperrors.ErrBalanceLimit:        "balance_limit",
}

// Reason returns short label for a rejected transfer, "internal" for anything else
func Reason(err error) string {
	for target, reason := range rejections {
		if errors.Is(err, target) {
			return reason
		}
	}
	return "internal"
}

func isRejection(err error) bool {
	_, ok := rejections[err]
	return ok
}

func (e *Engine) report(req Request, start time.Time, err error) {
	duration := time.Since(start)
	amount, _ := req.Amount.Float64()
	l := e.logger.With(
		"sender_account_id", req.SenderAccountID,
		"receiver_account_number", req.ReceiverAccountNumber,
		"amount", req.Amount.String(),
		"duration", duration,
	)

	switch {
	case err == nil:
		l.Info("transfer completed")
		e.observer.ObserveTransfer(metrics.OutcomeSuccess, "", duration, amount)
	case isRejection(err):
		l.Info("transfer rejected", "reason", Reason(err))
		e.observer.ObserveTransfer(metrics.OutcomeRejected, Reason(err), duration, amount)
	default:
		l.Error("transfer failed", "error", err)
		e.observer.ObserveTransfer(metrics.OutcomeError, Reason(err), duration, amount)
	}
}
