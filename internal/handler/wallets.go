package handler

import (
	"github.com/gin-gonic/gin"

	"crowdfund/internal/apperr"
	"crowdfund/internal/model"
)

type publicKeyRequest struct {
	PublicKey string `json:"public_key" binding:"required"`
}

type walletResponse struct {
	model.UserWallet
	Balance *int64 `json:"balance,omitempty"`
}

func (h *Handler) GeneratePairCode(c *gin.Context) {
	var req publicKeyRequest
	if !bindJSON(c, &req) {
		return
	}
	pc, err := h.svc.Wallets.GeneratePairCode(c.Request.Context(), req.PublicKey)
	if err != nil {
		h.fail(c, err)
		return
	}
	created(c, pc)
}

func (h *Handler) ResolvePairCode(c *gin.Context) {
	pc, err := h.svc.Wallets.ResolvePairCode(c.Request.Context(), c.Param("code"))
	if err != nil {
		h.fail(c, err)
		return
	}
	if pc == nil {
		h.fail(c, apperr.New(apperr.NotFound, apperr.CodePairCode, "handler.ResolvePairCode", "unknown pair code"))
		return
	}
	ok200(c, pc)
}

func (h *Handler) CreateUserWallet(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	var req publicKeyRequest
	if !bindJSON(c, &req) {
		return
	}
	w, err := h.svc.Wallets.CreateUserWallet(c.Request.Context(), user, req.PublicKey)
	if err != nil {
		h.fail(c, err)
		return
	}
	created(c, w)
}

// GetUserWallet includes the ledger balance once the wallet is activated.
func (h *Handler) GetUserWallet(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()
	uw, err := h.svc.Wallets.GetUserWallet(ctx, user)
	if err != nil {
		h.fail(c, err)
		return
	}
	resp := walletResponse{UserWallet: *uw}
	if uw.Wallet.Activated() {
		balance, err := h.svc.Wallets.GetWalletBalance(ctx, uw.Wallet)
		if err != nil {
			h.fail(c, err)
			return
		}
		resp.Balance = &balance
	}
	ok200(c, resp)
}

func (h *Handler) GenerateOrganizationWalletTransaction(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := idParam(c)
	if !ok {
		return
	}
	tx, err := h.svc.Wallets.GenerateOrganizationWalletTransaction(c.Request.Context(), id, user)
	if err != nil {
		h.fail(c, err)
		return
	}
	ok200(c, tx)
}

func (h *Handler) CreateOrganizationWallet(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	var req model.SignedTransactionRequest
	if !bindJSON(c, &req) {
		return
	}
	w, err := h.svc.Wallets.CreateOrganizationWallet(c.Request.Context(), id, req.Data)
	if err != nil {
		h.fail(c, err)
		return
	}
	created(c, w)
}

func (h *Handler) GenerateProjectWalletTransaction(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := idParam(c)
	if !ok {
		return
	}
	tx, err := h.svc.Wallets.GenerateProjectWalletTransaction(c.Request.Context(), id, user)
	if err != nil {
		h.fail(c, err)
		return
	}
	ok200(c, tx)
}

func (h *Handler) CreateProjectWallet(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	var req model.SignedTransactionRequest
	if !bindJSON(c, &req) {
		return
	}
	w, err := h.svc.Wallets.CreateProjectWallet(c.Request.Context(), id, req.Data)
	if err != nil {
		h.fail(c, err)
		return
	}
	created(c, w)
}

func (h *Handler) ListUnactivatedUserWallets(c *gin.Context) {
	list, err := h.svc.Wallets.ListUnactivatedUserWallets(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	ok200(c, list)
}

func (h *Handler) ListUnactivatedOrganizations(c *gin.Context) {
	list, err := h.svc.Wallets.ListUnactivatedOrganizations(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	ok200(c, list)
}

func (h *Handler) ListUnactivatedProjects(c *gin.Context) {
	list, err := h.svc.Wallets.ListUnactivatedProjects(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	ok200(c, list)
}

// GenerateActivationTransaction is an operator action; the operator is the
// recorded actor.
func (h *Handler) GenerateActivationTransaction(c *gin.Context) {
	operator, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := idParam(c)
	if !ok {
		return
	}
	tx, err := h.svc.Wallets.GenerateActivationTransaction(c.Request.Context(), id, operator)
	if err != nil {
		h.fail(c, err)
		return
	}
	ok200(c, tx)
}

func (h *Handler) ConfirmActivation(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	var req model.SignedTransactionRequest
	if !bindJSON(c, &req) {
		return
	}
	w, err := h.svc.Wallets.ConfirmActivation(c.Request.Context(), id, req.Data)
	if err != nil {
		h.fail(c, err)
		return
	}
	ok200(c, w)
}
