package model

import (
	"time"

	"github.com/google/uuid"
)

// Deposit is an off-chain payment that an operator mints onto the user's wallet.
type Deposit struct {
	ID           int64      `json:"id" db:"id"`
	UserID       uuid.UUID  `json:"user_id" db:"user_id"`
	Amount       int64      `json:"amount" db:"amount"`
	Reference    string     `json:"reference" db:"reference"`
	CreatedAt    time.Time  `json:"created_at" db:"created_at"`
	ApprovedBy   *uuid.UUID `json:"approved_by,omitempty" db:"approved_by"`
	MintedTxHash *string    `json:"minted_tx_hash,omitempty" db:"minted_tx_hash"`
	MintedAt     *time.Time `json:"minted_at,omitempty" db:"minted_at"`
	DocumentID   *int64     `json:"document_id,omitempty" db:"document_id"`
}

func (d *Deposit) Minted() bool { return d.MintedTxHash != nil }

type CreateDepositRequest struct {
	Amount int64 `json:"amount" binding:"required,gt=0"`
}
