package ledger

// Wire messages. Amounts and timestamps travel as decimal strings.

type WalletHashRequest struct {
	Hash string `json:"hash"`
}

type BalanceResponse struct {
	Balance string `json:"balance"`
}

type AddWalletRequest struct {
	ActivationData string `json:"activation_data"`
}

type TransactionResponse struct {
	Tx string `json:"tx"`
}

type CreateOrganizationRequest struct {
	UserHash string `json:"user_hash"`
}

type CreateProjectRequest struct {
	UserHash         string `json:"user_hash"`
	OrganizationHash string `json:"organization_hash"`
	MinPerUser       string `json:"min_per_user"`
	MaxPerUser       string `json:"max_per_user"`
	InvestmentCap    string `json:"investment_cap"`
	EndDate          string `json:"end_date"`
}

type PostTransactionRequest struct {
	Data string `json:"data"`
}

type PostTransactionResponse struct {
	TxHash string `json:"tx_hash"`
}

type InvestRequest struct {
	UserHash    string `json:"user_hash"`
	ProjectHash string `json:"project_hash"`
	Amount      string `json:"amount"`
}

type MintRequest struct {
	ToHash string `json:"to_hash"`
	Amount string `json:"amount"`
}

type ApproveBurnRequest struct {
	Hash   string `json:"hash"`
	Amount string `json:"amount"`
}

type PortfolioItem struct {
	ProjectTxHash string `json:"project_tx_hash"`
	Amount        string `json:"amount"`
}

type PortfolioResponse struct {
	Portfolio []PortfolioItem `json:"portfolio"`
}

type TransactionItem struct {
	FromTxHash string `json:"from_tx_hash"`
	ToTxHash   string `json:"to_tx_hash"`
	Amount     string `json:"amount"`
	Type       string `json:"type"`
}

type TransactionsResponse struct {
	Transactions []TransactionItem `json:"transactions"`
}

type InvestmentsInProjectRequest struct {
	FromTxHash string `json:"from_tx_hash"`
	ToTxHash   string `json:"to_tx_hash"`
}
