package model

import (
	"time"

	"github.com/google/uuid"
)

type Response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
	Code    string      `json:"code,omitempty"`
}

// WalletType identifies which kind of owner a wallet belongs to.
type WalletType string

const (
	WalletTypeUser    WalletType = "USER"
	WalletTypeOrg     WalletType = "ORG"
	WalletTypeProject WalletType = "PROJECT"
)

func (t WalletType) Valid() bool {
	switch t {
	case WalletTypeUser, WalletTypeOrg, WalletTypeProject:
		return true
	}
	return false
}

type Currency string

const CurrencyEUR Currency = "EUR"

// Wallet is a ledger-addressable account for exactly one owner.
// Hash and ActivatedAt are either both nil or both set.
type Wallet struct {
	ID             int64      `json:"id" db:"id"`
	ActivationData string     `json:"activation_data" db:"activation_data"`
	Type           WalletType `json:"type" db:"type"`
	Currency       Currency   `json:"currency" db:"currency"`
	CreatedAt      time.Time  `json:"created_at" db:"created_at"`
	Hash           *string    `json:"hash,omitempty" db:"hash"`
	ActivatedAt    *time.Time `json:"activated_at,omitempty" db:"activated_at"`
}

func (w *Wallet) Activated() bool {
	return w.Hash != nil
}

type UserWallet struct {
	UserID uuid.UUID `json:"user_id" db:"user_id"`
	Wallet Wallet    `json:"wallet" db:"wallet"`
}

type Organization struct {
	ID        int64     `json:"id" db:"id"`
	Name      string    `json:"name" db:"name"`
	CreatedBy uuid.UUID `json:"created_by" db:"created_by"`
	WalletID  *int64    `json:"wallet_id,omitempty" db:"wallet_id"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

type Project struct {
	ID              int64     `json:"id" db:"id"`
	OrganizationID  int64     `json:"organization_id" db:"organization_id"`
	Name            string    `json:"name" db:"name"`
	Active          bool      `json:"active" db:"active"`
	EndDate         time.Time `json:"end_date" db:"end_date"`
	MinPerUser      int64     `json:"min_per_user" db:"min_per_user"`
	MaxPerUser      int64     `json:"max_per_user" db:"max_per_user"`
	ExpectedFunding int64     `json:"expected_funding" db:"expected_funding"`
	Currency        Currency  `json:"currency" db:"currency"`
	WalletID        *int64    `json:"wallet_id,omitempty" db:"wallet_id"`
	CreatedBy       uuid.UUID `json:"created_by" db:"created_by"`
	CreatedAt       time.Time `json:"created_at" db:"created_at"`
}

// OrganizationWithWallet and ProjectWithWallet back the cooperative listings.
type OrganizationWithWallet struct {
	Organization Organization `json:"organization"`
	Wallet       *Wallet      `json:"wallet,omitempty"`
}

type ProjectWithWallet struct {
	Project Project `json:"project"`
	Wallet  *Wallet `json:"wallet,omitempty"`
}

type PairWalletCode struct {
	ID        int64     `json:"id" db:"id"`
	PublicKey string    `json:"public_key" db:"public_key"`
	Code      string    `json:"code" db:"code"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

type Document struct {
	ID        int64     `json:"id" db:"id"`
	Link      string    `json:"link" db:"link"`
	Name      string    `json:"name" db:"name"`
	Type      string    `json:"type" db:"type"`
	Size      int64     `json:"size" db:"size"`
	CreatedBy uuid.UUID `json:"created_by" db:"created_by"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// DocumentSaveRequest is what callers hand over when attaching a file.
type DocumentSaveRequest struct {
	Name string
	Type string
	Data []byte
	User uuid.UUID
}

// PostedTransaction journals every signed blob accepted by the ledger,
// together with the action and entity it was posted for.
type PostedTransaction struct {
	Digest   string    `db:"digest"`
	Action   string    `db:"action"`
	EntityID int64     `db:"entity_id"`
	TxHash   string    `db:"tx_hash"`
	PostedAt time.Time `db:"posted_at"`
}
