package handler

import (
	"github.com/gin-gonic/gin"

	"crowdfund/internal/model"
	"crowdfund/internal/service"
)

type createOrganizationRequest struct {
	Name string `json:"name" binding:"required"`
}

type investRequest struct {
	Amount int64 `json:"amount" binding:"required,gt=0"`
}

type activeRequest struct {
	Active *bool `json:"active" binding:"required"`
}

func (h *Handler) CreateOrganization(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	var req createOrganizationRequest
	if !bindJSON(c, &req) {
		return
	}
	org, err := h.svc.Projects.CreateOrganization(c.Request.Context(), req.Name, user)
	if err != nil {
		h.fail(c, err)
		return
	}
	created(c, org)
}

func (h *Handler) GetOrganization(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	org, err := h.svc.Projects.GetOrganization(c.Request.Context(), id)
	if err != nil {
		h.fail(c, err)
		return
	}
	ok200(c, org)
}

func (h *Handler) CreateProject(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	var req service.CreateProjectRequest
	if !bindJSON(c, &req) {
		return
	}
	p, err := h.svc.Projects.CreateProject(c.Request.Context(), req, user)
	if err != nil {
		h.fail(c, err)
		return
	}
	created(c, p)
}

func (h *Handler) GetProject(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	p, err := h.svc.Projects.GetProject(c.Request.Context(), id)
	if err != nil {
		h.fail(c, err)
		return
	}
	ok200(c, p)
}

func (h *Handler) SetProjectActive(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	var req activeRequest
	if !bindJSON(c, &req) {
		return
	}
	p, err := h.svc.Projects.SetProjectActive(c.Request.Context(), id, *req.Active)
	if err != nil {
		h.fail(c, err)
		return
	}
	ok200(c, p)
}

func (h *Handler) GenerateInvestment(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := idParam(c)
	if !ok {
		return
	}
	var req investRequest
	if !bindJSON(c, &req) {
		return
	}
	tx, err := h.svc.Investments.GenerateInvestment(c.Request.Context(), id, user, req.Amount)
	if err != nil {
		h.fail(c, err)
		return
	}
	ok200(c, tx)
}

func (h *Handler) ConfirmInvestment(c *gin.Context) {
	var req model.SignedTransactionRequest
	if !bindJSON(c, &req) {
		return
	}
	hash, err := h.svc.Investments.ConfirmInvestment(c.Request.Context(), req.Data)
	if err != nil {
		h.fail(c, err)
		return
	}
	ok200(c, gin.H{"tx_hash": hash})
}

func (h *Handler) GetInvestmentsInProject(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := idParam(c)
	if !ok {
		return
	}
	txs, err := h.svc.Portfolio.GetInvestmentsInProject(c.Request.Context(), user, id)
	if err != nil {
		h.fail(c, err)
		return
	}
	ok200(c, txs)
}

func (h *Handler) GetPortfolio(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	portfolio, err := h.svc.Portfolio.GetPortfolio(c.Request.Context(), user)
	if err != nil {
		h.fail(c, err)
		return
	}
	ok200(c, portfolio)
}

func (h *Handler) GetPortfolioStats(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	stats, err := h.svc.Portfolio.GetPortfolioStats(c.Request.Context(), user)
	if err != nil {
		h.fail(c, err)
		return
	}
	ok200(c, stats)
}
