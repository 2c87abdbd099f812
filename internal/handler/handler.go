package handler

import (
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"crowdfund/internal/apperr"
	"crowdfund/internal/logger"
	"crowdfund/internal/middleware"
	"crowdfund/internal/model"
	"crowdfund/internal/service"
)

const maxDocumentSize = 10 << 20

// Services groups the managers the HTTP layer dispatches to.
type Services struct {
	Wallets     *service.WalletService
	Projects    *service.ProjectService
	Investments *service.InvestmentService
	Withdraws   *service.WithdrawService
	Deposits    *service.DepositService
	Portfolio   *service.PortfolioService
	TxInfo      *service.TxInfoService
}

// Handler manages HTTP request handling
type Handler struct {
	svc Services
	log *logger.Logger
}

func NewHandler(svc Services, log *logger.Logger) *Handler {
	return &Handler{svc: svc, log: log}
}

// RouterConfig carries the auth settings the routes are mounted with.
type RouterConfig struct {
	JWTSecret   []byte
	AdminAPIKey string
}

// Register mounts the API under /api.
func (h *Handler) Register(router gin.IRouter, cfg RouterConfig) {
	router.GET("/api/health", h.Health)

	v1 := router.Group("/api/v1")

	// pairing happens before the user has a session
	v1.POST("/pair-codes", h.GeneratePairCode)
	v1.GET("/pair-codes/:code", h.ResolvePairCode)

	user := v1.Group("", middleware.JWTAuth(cfg.JWTSecret))
	{
		user.POST("/wallets", h.CreateUserWallet)
		user.GET("/wallets/me", h.GetUserWallet)

		user.POST("/organizations", h.CreateOrganization)
		user.GET("/organizations/:id", h.GetOrganization)
		user.POST("/organizations/:id/wallet/transaction", h.GenerateOrganizationWalletTransaction)
		user.POST("/organizations/:id/wallet", h.CreateOrganizationWallet)

		user.POST("/projects", h.CreateProject)
		user.GET("/projects/:id", h.GetProject)
		user.POST("/projects/:id/wallet/transaction", h.GenerateProjectWalletTransaction)
		user.POST("/projects/:id/wallet", h.CreateProjectWallet)
		user.POST("/projects/:id/investments/transaction", h.GenerateInvestment)
		user.GET("/projects/:id/investments", h.GetInvestmentsInProject)
		user.POST("/investments", h.ConfirmInvestment)

		user.GET("/portfolio", h.GetPortfolio)
		user.GET("/portfolio/stats", h.GetPortfolioStats)

		user.POST("/withdraws", h.CreateWithdraw)
		user.GET("/withdraws", h.ListWithdraws)
		user.GET("/withdraws/pending", h.GetPendingWithdraw)
		user.GET("/withdraws/:id", h.GetWithdraw)
		user.DELETE("/withdraws/:id", h.DeleteWithdraw)
		user.POST("/withdraws/:id/approve/transaction", h.GenerateWithdrawApproval)
		user.POST("/withdraws/:id/approve", h.ConfirmWithdrawApproval)
		user.POST("/withdraws/:id/document", h.AttachWithdrawDocument)

		user.POST("/deposits", h.CreateDeposit)
		user.GET("/deposits/:id", h.GetDeposit)
		user.POST("/deposits/:id/document", h.AttachDepositDocument)

		user.GET("/transactions/:id/info", h.GetTransactionInfo)
	}

	admin := v1.Group("/admin", middleware.JWTAuth(cfg.JWTSecret), middleware.AdminAuth(cfg.AdminAPIKey))
	{
		admin.GET("/wallets/unactivated/users", h.ListUnactivatedUserWallets)
		admin.GET("/wallets/unactivated/organizations", h.ListUnactivatedOrganizations)
		admin.GET("/wallets/unactivated/projects", h.ListUnactivatedProjects)
		admin.POST("/wallets/:id/activate/transaction", h.GenerateActivationTransaction)
		admin.POST("/wallets/:id/activate", h.ConfirmActivation)

		admin.PUT("/projects/:id/active", h.SetProjectActive)

		admin.GET("/withdraws/approved", h.ListApprovedWithdraws)
		admin.GET("/withdraws/burned", h.ListBurnedWithdraws)
		admin.POST("/withdraws/:id/burn/transaction", h.GenerateWithdrawBurn)
		admin.POST("/withdraws/:id/burn", h.ConfirmWithdrawBurn)
		admin.DELETE("/withdraws/:id", h.AdminDeleteWithdraw)

		admin.GET("/deposits", h.ListUnmintedDeposits)
		admin.POST("/deposits/:id/mint/transaction", h.GenerateDepositMint)
		admin.POST("/deposits/:id/mint", h.ConfirmDepositMint)
		admin.DELETE("/deposits/:id", h.DeleteDeposit)
	}
}

func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
		"time":   time.Now().Format(time.RFC3339),
	})
}

// GetTransactionInfo returns a description the caller was handed earlier.
func (h *Handler) GetTransactionInfo(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := idParam(c)
	if !ok {
		return
	}
	info, err := h.svc.TxInfo.Find(c.Request.Context(), id)
	if err != nil {
		h.fail(c, err)
		return
	}
	if info.UserID != user {
		h.fail(c, apperr.New(apperr.Forbidden, apperr.CodeRequest, "handler.GetTransactionInfo", "transaction info %d belongs to another user", id))
		return
	}
	ok200(c, info)
}

func ok200(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, model.Response{Success: true, Data: data})
}

func created(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, model.Response{Success: true, Data: data})
}

func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, model.Response{
		Success: false,
		Error:   msg,
		Code:    string(apperr.CodeRequest),
	})
}

// statusOf maps an error kind to the HTTP status returned to the client.
func statusOf(kind apperr.Kind) int {
	switch kind {
	case apperr.NotFound:
		return http.StatusNotFound
	case apperr.AlreadyExists, apperr.Conflict, apperr.InvalidState, apperr.NotActivated:
		return http.StatusConflict
	case apperr.Forbidden:
		return http.StatusForbidden
	case apperr.ValidationFailed:
		return http.StatusBadRequest
	case apperr.InsufficientFunds:
		return http.StatusUnprocessableEntity
	case apperr.RemoteServiceFailure:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func (h *Handler) fail(c *gin.Context, err error) {
	kind := apperr.KindOf(err)
	status := statusOf(kind)
	_ = c.Error(err)

	resp := model.Response{Success: false, Code: string(apperr.CodeOf(err))}
	var appErr *apperr.Error
	if errors.As(err, &appErr) && status < http.StatusInternalServerError {
		resp.Error = appErr.Message
	} else {
		resp.Error = http.StatusText(status)
	}
	if remote, ok := apperr.RemoteOf(err); ok {
		resp.Data = remote
	}
	if status >= http.StatusInternalServerError {
		h.log.WithError(err).WithField("path", c.FullPath()).Error("request failed")
	}
	c.JSON(status, resp)
}

func currentUser(c *gin.Context) (uuid.UUID, bool) {
	user, ok := middleware.UserID(c)
	if !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized, model.Response{Success: false, Error: "unauthorized"})
		return uuid.Nil, false
	}
	return user, true
}

func idParam(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		badRequest(c, "invalid id")
		return 0, false
	}
	return id, true
}

func bindJSON(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		badRequest(c, "invalid request body")
		return false
	}
	return true
}

// readDocument reads the multipart "file" field into a save request.
func readDocument(c *gin.Context, user uuid.UUID) (model.DocumentSaveRequest, bool) {
	fh, err := c.FormFile("file")
	if err != nil {
		badRequest(c, "file is required")
		return model.DocumentSaveRequest{}, false
	}
	if fh.Size > maxDocumentSize {
		badRequest(c, "file is too large")
		return model.DocumentSaveRequest{}, false
	}
	f, err := fh.Open()
	if err != nil {
		badRequest(c, "file could not be read")
		return model.DocumentSaveRequest{}, false
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, maxDocumentSize))
	if err != nil {
		badRequest(c, "file could not be read")
		return model.DocumentSaveRequest{}, false
	}
	return model.DocumentSaveRequest{
		Name: fh.Filename,
		Type: fh.Header.Get("Content-Type"),
		Data: data,
		User: user,
	}, true
}
