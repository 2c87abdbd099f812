package model

import (
	"time"

	"github.com/google/uuid"
)

// TransactionType enumerates the actions a user can be asked to sign.
type TransactionType string

const (
	TxWalletActivate TransactionType = "WALLET_ACTIVATE"
	TxCreateOrg      TransactionType = "CREATE_ORG"
	TxCreateProject  TransactionType = "CREATE_PROJECT"
	TxInvest         TransactionType = "INVEST"
	TxMint           TransactionType = "MINT"
	TxBurnApproval   TransactionType = "BURN_APPROVAL"
	TxBurn           TransactionType = "BURN"
)

// TransactionInfo is the human-readable record paired with an unsigned transaction.
type TransactionInfo struct {
	ID          int64           `json:"id" db:"id"`
	Type        TransactionType `json:"type" db:"type"`
	Title       string          `json:"title" db:"title"`
	Description string          `json:"description" db:"description"`
	UserID      uuid.UUID       `json:"user_id" db:"user_id"`
	CompanionID *int64          `json:"companion_id,omitempty" db:"companion_id"`
	CreatedAt   time.Time       `json:"created_at" db:"created_at"`
}

// TransactionData is an unsigned transaction built by the ledger service.
type TransactionData struct {
	Tx string `json:"tx"`
}

// TransactionDataAndInfo is the result of every "generate" step.
type TransactionDataAndInfo struct {
	Data TransactionData `json:"data"`
	Info TransactionInfo `json:"info"`
}

// LedgerTxType is the kind of a transaction as reported by the ledger.
type LedgerTxType string

const (
	LedgerTxDeposit     LedgerTxType = "DEPOSIT"
	LedgerTxWithdraw    LedgerTxType = "WITHDRAW"
	LedgerTxInvest      LedgerTxType = "INVEST"
	LedgerTxTransfer    LedgerTxType = "TRANSFER"
	LedgerTxSharePayout LedgerTxType = "SHARE_PAYOUT"
	LedgerTxWithdrawInv LedgerTxType = "WITHDRAW_INVESTMENT"
)

type LedgerTransaction struct {
	FromTxHash string       `json:"from_tx_hash"`
	ToTxHash   string       `json:"to_tx_hash"`
	Amount     int64        `json:"amount"`
	Type       LedgerTxType `json:"type"`
}

// PortfolioEntry is one holding reported by the ledger: the project wallet
// hash and the amount invested into it.
type PortfolioEntry struct {
	ProjectTxHash string `json:"project_tx_hash"`
	Amount        int64  `json:"amount"`
}

type ProjectWithInvestment struct {
	Project    Project `json:"project"`
	Investment int64   `json:"investment"`
}

type PortfolioStats struct {
	Investments int64 `json:"investments"`
	Earnings    int64 `json:"earnings"`
}

// ProjectTxRequest carries the funding terms written into a project wallet.
type ProjectTxRequest struct {
	UserWalletHash    string
	OrganizationHash  string
	MinPerUser        int64
	MaxPerUser        int64
	InvestmentCap     int64
	EndTimeEpochMilli int64
}
