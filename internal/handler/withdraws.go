package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"crowdfund/internal/apperr"
	"crowdfund/internal/model"
)

// ownWithdraw loads the withdraw and checks it belongs to user.
func (h *Handler) ownWithdraw(c *gin.Context, user uuid.UUID) (*model.Withdraw, bool) {
	id, ok := idParam(c)
	if !ok {
		return nil, false
	}
	w, err := h.svc.Withdraws.Get(c.Request.Context(), id)
	if err != nil {
		h.fail(c, err)
		return nil, false
	}
	if w.UserID != user {
		h.fail(c, apperr.New(apperr.Forbidden, apperr.CodeWithdrawOwner, "handler.ownWithdraw", "withdraw %d belongs to another user", id))
		return nil, false
	}
	return w, true
}

func (h *Handler) CreateWithdraw(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	var req model.CreateWithdrawRequest
	if !bindJSON(c, &req) {
		return
	}
	w, err := h.svc.Withdraws.Create(c.Request.Context(), user, req.Amount, req.BankAccount)
	if err != nil {
		h.fail(c, err)
		return
	}
	created(c, w)
}

func (h *Handler) ListWithdraws(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	list, err := h.svc.Withdraws.ListForUser(c.Request.Context(), user)
	if err != nil {
		h.fail(c, err)
		return
	}
	ok200(c, list)
}

func (h *Handler) GetPendingWithdraw(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	w, err := h.svc.Withdraws.GetPendingForUser(c.Request.Context(), user)
	if err != nil {
		h.fail(c, err)
		return
	}
	if w == nil {
		h.fail(c, apperr.New(apperr.NotFound, apperr.CodeWithdrawMissing, "handler.GetPendingWithdraw", "no pending withdraw"))
		return
	}
	ok200(c, w)
}

func (h *Handler) GetWithdraw(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	w, ok := h.ownWithdraw(c, user)
	if !ok {
		return
	}
	ok200(c, w)
}

func (h *Handler) DeleteWithdraw(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	w, ok := h.ownWithdraw(c, user)
	if !ok {
		return
	}
	if err := h.svc.Withdraws.Delete(c.Request.Context(), w.ID); err != nil {
		h.fail(c, err)
		return
	}
	ok200(c, gin.H{"id": w.ID})
}

func (h *Handler) AdminDeleteWithdraw(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	if err := h.svc.Withdraws.Delete(c.Request.Context(), id); err != nil {
		h.fail(c, err)
		return
	}
	ok200(c, gin.H{"id": id})
}

func (h *Handler) GenerateWithdrawApproval(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := idParam(c)
	if !ok {
		return
	}
	tx, err := h.svc.Withdraws.GenerateApproval(c.Request.Context(), id, user)
	if err != nil {
		h.fail(c, err)
		return
	}
	ok200(c, tx)
}

func (h *Handler) ConfirmWithdrawApproval(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	w, ok := h.ownWithdraw(c, user)
	if !ok {
		return
	}
	var req model.SignedTransactionRequest
	if !bindJSON(c, &req) {
		return
	}
	approved, err := h.svc.Withdraws.ConfirmApproval(c.Request.Context(), w.ID, req.Data)
	if err != nil {
		h.fail(c, err)
		return
	}
	ok200(c, approved)
}

func (h *Handler) AttachWithdrawDocument(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	w, ok := h.ownWithdraw(c, user)
	if !ok {
		return
	}
	doc, ok := readDocument(c, user)
	if !ok {
		return
	}
	updated, err := h.svc.Withdraws.AttachDocument(c.Request.Context(), w.ID, doc)
	if err != nil {
		h.fail(c, err)
		return
	}
	ok200(c, updated)
}

func (h *Handler) ListApprovedWithdraws(c *gin.Context) {
	list, err := h.svc.Withdraws.ListApproved(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	ok200(c, list)
}

func (h *Handler) ListBurnedWithdraws(c *gin.Context) {
	list, err := h.svc.Withdraws.ListBurned(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	ok200(c, list)
}

func (h *Handler) GenerateWithdrawBurn(c *gin.Context) {
	operator, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := idParam(c)
	if !ok {
		return
	}
	tx, err := h.svc.Withdraws.GenerateBurn(c.Request.Context(), id, operator)
	if err != nil {
		h.fail(c, err)
		return
	}
	ok200(c, tx)
}

func (h *Handler) ConfirmWithdrawBurn(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	var req model.SignedTransactionRequest
	if !bindJSON(c, &req) {
		return
	}
	w, err := h.svc.Withdraws.ConfirmBurn(c.Request.Context(), id, req.Data)
	if err != nil {
		h.fail(c, err)
		return
	}
	ok200(c, w)
}
