package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/adminchat/approvalgate/internal/approval"
	"github.com/adminchat/approvalgate/internal/connector"
	"github.com/adminchat/approvalgate/internal/domain/entity"
	"github.com/adminchat/approvalgate/internal/gate"
	"github.com/adminchat/approvalgate/internal/infrastructure/persistence/repository"
	"github.com/adminchat/approvalgate/internal/intent"
)

// Handlers contains all HTTP request handlers
type Handlers struct {
	controller *approval.Controller
	actionGate *gate.Gate
	gateway    *connector.Gateway
	classifier *intent.Classifier
	auditRepo  *repository.AuditRepository
	logger     *zap.Logger
}

// NewHandlers creates a Handlers instance
func NewHandlers(
	controller *approval.Controller,
	actionGate *gate.Gate,
	gateway *connector.Gateway,
	classifier *intent.Classifier,
	auditRepo *repository.AuditRepository,
	logger *zap.Logger,
) *Handlers {
	return &Handlers{
		controller: controller,
		actionGate: actionGate,
		gateway:    gateway,
		classifier: classifier,
		auditRepo:  auditRepo,
		logger:     logger,
	}
}

// Response is the standard JSON envelope
type Response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// CreateRequestBody is the payload for POST /requests
type CreateRequestBody struct {
	Kind        entity.ActionKind `json:"kind" binding:"required"`
	RequestedBy string            `json:"requested_by" binding:"required"`
	Payload     json.RawMessage   `json:"payload" binding:"required"`
}

// DecisionBody is the payload for approve/reject calls
type DecisionBody struct {
	Actor  string `json:"actor" binding:"required"`
	Reason string `json:"reason"`
}

// ClassifyBody is the payload for POST /intent/classify
type ClassifyBody struct {
	Text string `json:"text" binding:"required"`
}

// HealthCheck handles GET /health
func (h *Handlers) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, Response{
		Success: true,
		Data: gin.H{
			"status":    "healthy",
			"service":   "approvalgate",
			"timestamp": time.Now().UTC().Format(time.RFC3339),
		},
	})
}

// CreateRequest handles POST /api/v1/requests
func (h *Handlers) CreateRequest(c *gin.Context) {
	var body CreateRequestBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, Response{Success: false, Error: err.Error()})
		return
	}

	payload, err := entity.DecodePayload(body.Kind, body.Payload)
	if err != nil {
		c.JSON(http.StatusBadRequest, Response{Success: false, Error: err.Error()})
		return
	}

	req, err := h.controller.Create(c.Request.Context(), payload, body.RequestedBy)
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, Response{Success: true, Data: req})
}

// GetRequest handles GET /api/v1/requests/:id
func (h *Handlers) GetRequest(c *gin.Context) {
	req, err := h.controller.Get(c.Param("id"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: req})
}

// ListPending handles GET /api/v1/requests/pending
func (h *Handlers) ListPending(c *gin.Context) {
	pending := h.controller.ListPending(c.Query("requested_by"))
	c.JSON(http.StatusOK, Response{Success: true, Data: pending})
}

// ApproveRequest handles POST /api/v1/requests/:id/approve
func (h *Handlers) ApproveRequest(c *gin.Context) {
	var body DecisionBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, Response{Success: false, Error: err.Error()})
		return
	}

	req, err := h.controller.Approve(c.Request.Context(), c.Param("id"), body.Actor, body.Reason)
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, Response{Success: true, Data: req})
}

// RejectRequest handles POST /api/v1/requests/:id/reject
func (h *Handlers) RejectRequest(c *gin.Context) {
	var body DecisionBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, Response{Success: false, Error: err.Error()})
		return
	}

	req, err := h.controller.Reject(c.Request.Context(), c.Param("id"), body.Actor, body.Reason)
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, Response{Success: true, Data: req})
}

// ValidateShortCode handles GET /api/v1/codes/:code/valid
func (h *Handlers) ValidateShortCode(c *gin.Context) {
	valid := h.controller.ValidateShortCode(c.Param("code"))
	c.JSON(http.StatusOK, Response{Success: true, Data: gin.H{"valid": valid}})
}

// ExecuteShortCode handles POST /api/v1/codes/:code/execute. The request
// is looked up first only to pick the right connector; the gate still owns
// the consume-then-execute sequence.
func (h *Handlers) ExecuteShortCode(c *gin.Context) {
	code := c.Param("code")

	req := h.controller.GetByShortCode(code)
	if req == nil {
		c.JSON(http.StatusNotFound, Response{Success: false, Error: approval.ErrNotFound.Error()})
		return
	}

	executor, err := h.gateway.Executor(req.Kind)
	if err != nil {
		c.JSON(http.StatusBadGateway, Response{Success: false, Error: err.Error()})
		return
	}

	executed, err := h.actionGate.ExecuteIfApproved(c.Request.Context(), code, executor)
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, Response{Success: true, Data: executed})
}

// ClassifyIntent handles POST /api/v1/intent/classify
func (h *Handlers) ClassifyIntent(c *gin.Context) {
	var body ClassifyBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, Response{Success: false, Error: err.Error()})
		return
	}

	c.JSON(http.StatusOK, Response{Success: true, Data: h.classifier.Classify(body.Text)})
}

// GetAuditTrail handles GET /api/v1/requests/:id/audit
func (h *Handlers) GetAuditTrail(c *gin.Context) {
	records, err := h.auditRepo.ListByEntity(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, Response{Success: false, Error: "failed to read audit trail"})
		return
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: records})
}

// writeError maps workflow errors to HTTP status codes. Business-state
// errors are expected conditions the front end renders as user feedback.
func (h *Handlers) writeError(c *gin.Context, err error) {
	var execErr *gate.ExecutionError

	switch {
	case errors.Is(err, approval.ErrNotFound):
		c.JSON(http.StatusNotFound, Response{Success: false, Error: err.Error()})
	case errors.Is(err, approval.ErrMissingReason):
		c.JSON(http.StatusBadRequest, Response{Success: false, Error: err.Error()})
	case errors.Is(err, approval.ErrInvalidKind):
		c.JSON(http.StatusBadRequest, Response{Success: false, Error: err.Error()})
	case errors.Is(err, approval.ErrAlreadyDecided),
		errors.Is(err, approval.ErrAlreadyConsumed),
		errors.Is(err, approval.ErrNotApproved):
		c.JSON(http.StatusConflict, Response{Success: false, Error: err.Error()})
	case errors.As(err, &execErr):
		// Consumption already happened; surface the short code so the
		// caller can verify whether the side effect partially succeeded.
		c.JSON(http.StatusBadGateway, Response{Success: false, Error: execErr.Error()})
	default:
		h.logger.Error("Internal error handling request", zap.Error(err))
		c.JSON(http.StatusInternalServerError, Response{Success: false, Error: "internal error"})
	}
}
