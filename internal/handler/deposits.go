package handler

import (
	"github.com/gin-gonic/gin"

	"crowdfund/internal/apperr"
	"crowdfund/internal/model"
)

func (h *Handler) CreateDeposit(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	var req model.CreateDepositRequest
	if !bindJSON(c, &req) {
		return
	}
	d, err := h.svc.Deposits.Create(c.Request.Context(), user, req.Amount)
	if err != nil {
		h.fail(c, err)
		return
	}
	created(c, d)
}

func (h *Handler) ownDeposit(c *gin.Context) (*model.Deposit, bool) {
	user, ok := currentUser(c)
	if !ok {
		return nil, false
	}
	id, ok := idParam(c)
	if !ok {
		return nil, false
	}
	d, err := h.svc.Deposits.Get(c.Request.Context(), id)
	if err != nil {
		h.fail(c, err)
		return nil, false
	}
	if d.UserID != user {
		h.fail(c, apperr.New(apperr.Forbidden, apperr.CodeRequest, "handler.ownDeposit", "deposit %d belongs to another user", id))
		return nil, false
	}
	return d, true
}

func (h *Handler) GetDeposit(c *gin.Context) {
	d, ok := h.ownDeposit(c)
	if !ok {
		return
	}
	ok200(c, d)
}

func (h *Handler) AttachDepositDocument(c *gin.Context) {
	d, ok := h.ownDeposit(c)
	if !ok {
		return
	}
	doc, ok := readDocument(c, d.UserID)
	if !ok {
		return
	}
	updated, err := h.svc.Deposits.AttachDocument(c.Request.Context(), d.ID, doc)
	if err != nil {
		h.fail(c, err)
		return
	}
	ok200(c, updated)
}

func (h *Handler) ListUnmintedDeposits(c *gin.Context) {
	list, err := h.svc.Deposits.ListUnminted(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	ok200(c, list)
}

func (h *Handler) GenerateDepositMint(c *gin.Context) {
	operator, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := idParam(c)
	if !ok {
		return
	}
	tx, err := h.svc.Deposits.GenerateMint(c.Request.Context(), id, operator)
	if err != nil {
		h.fail(c, err)
		return
	}
	ok200(c, tx)
}

func (h *Handler) ConfirmDepositMint(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	var req model.SignedTransactionRequest
	if !bindJSON(c, &req) {
		return
	}
	d, err := h.svc.Deposits.ConfirmMint(c.Request.Context(), id, req.Data)
	if err != nil {
		h.fail(c, err)
		return
	}
	ok200(c, d)
}

func (h *Handler) DeleteDeposit(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	if err := h.svc.Deposits.Delete(c.Request.Context(), id); err != nil {
		h.fail(c, err)
		return
	}
	ok200(c, gin.H{"id": id})
}
