package apperr

type Code string

const (
	CodeInternal Code = "INT_GENERIC"
	CodeDatabase Code = "INT_DB"
	CodeLedger   Code = "INT_GRPC"
	CodeStorage  Code = "INT_STORAGE"
	CodeRequest  Code = "INT_REQUEST"

	CodeWalletMissing      Code = "WALLET_MISSING"
	CodeWalletExists       Code = "WALLET_EXISTS"
	CodeWalletHashExists   Code = "WALLET_HASH_EXISTS"
	CodeWalletNotActivated Code = "WALLET_NOT_ACTIVATED"
	CodeWalletActivated    Code = "WALLET_ACTIVATED"
	CodeWalletFunds        Code = "WALLET_FUNDS"

	CodeWithdrawMissing     Code = "WALLET_WITHDRAW_MISSING"
	CodeWithdrawExists      Code = "WALLET_WITHDRAW_EXISTS"
	CodeWithdrawApproved    Code = "WALLET_WITHDRAW_APPROVED"
	CodeWithdrawNotApproved Code = "WALLET_WITHDRAW_NOT_APPROVED"
	CodeWithdrawBurned      Code = "WALLET_WITHDRAW_BURNED"
	CodeWithdrawOwner       Code = "WALLET_WITHDRAW_OWNER"

	CodeDepositMissing Code = "WALLET_DEPOSIT_MISSING"
	CodeDepositExists  Code = "WALLET_DEPOSIT_EXISTS"
	CodeDepositMinted  Code = "WALLET_DEPOSIT_MINTED"

	CodeOrgMissing     Code = "ORG_MISSING"
	CodeProjectMissing Code = "PRJ_MISSING"
	CodeNotActive      Code = "PRJ_NOT_ACTIVE"
	CodeExpired        Code = "PRJ_DATE_EXPIRED"
	CodeBelowMinimum   Code = "PRJ_MIN_PER_USER"
	CodeAboveMaximum   Code = "PRJ_MAX_PER_USER"
	CodeFundingCap     Code = "PRJ_MAX_FUNDS"

	CodeTxInfoMissing Code = "TX_MISSING"
	CodeTxReplayed    Code = "TX_REPLAYED"
	CodePairCode      Code = "WALLET_PAIR_CODE"
)
