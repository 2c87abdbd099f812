package model

import (
	"time"

	"github.com/google/uuid"
)

// Withdraw is a request to redeem ledger funds to a bank account.
// It moves Created -> Approved -> Burned; BurnedTxHash implies ApprovedTxHash.
type Withdraw struct {
	ID             int64      `json:"id" db:"id"`
	UserID         uuid.UUID  `json:"user_id" db:"user_id"`
	Amount         int64      `json:"amount" db:"amount"`
	CreatedAt      time.Time  `json:"created_at" db:"created_at"`
	BankAccount    string     `json:"bank_account" db:"bank_account"`
	ApprovedTxHash *string    `json:"approved_tx_hash,omitempty" db:"approved_tx_hash"`
	ApprovedAt     *time.Time `json:"approved_at,omitempty" db:"approved_at"`
	BurnedTxHash   *string    `json:"burned_tx_hash,omitempty" db:"burned_tx_hash"`
	BurnedAt       *time.Time `json:"burned_at,omitempty" db:"burned_at"`
	BurnedBy       *uuid.UUID `json:"burned_by,omitempty" db:"burned_by"`
	DocumentID     *int64     `json:"document_id,omitempty" db:"document_id"`
}

func (w *Withdraw) Approved() bool { return w.ApprovedTxHash != nil }

func (w *Withdraw) Burned() bool { return w.BurnedTxHash != nil }

// Open reports whether the withdraw still blocks its owner from creating another.
func (w *Withdraw) Open() bool { return !w.Burned() }

type CreateWithdrawRequest struct {
	Amount      int64  `json:"amount" binding:"required,gt=0"`
	BankAccount string `json:"bank_account" binding:"required"`
}

type SignedTransactionRequest struct {
	Data string `json:"data" binding:"required"`
}
