// Package httpapi adapts the roast flow to HTTP. Handlers convert requests
// to orchestrator calls and map domain errors to status codes; no business
// logic lives here.
package httpapi

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"roast-platform/internal/agents"
	"roast-platform/internal/auth"
	"roast-platform/internal/history"
	"roast-platform/internal/session"
	"roast-platform/internal/stats"
	"roast-platform/pkg/logger"
)

const historyPageSize = 20

type Handlers struct {
	Auth    *auth.Manager
	Catalog agents.Catalog
	Hub     *session.Hub
	Counter stats.Counter
	History history.Repository

	Now func() time.Time
}

func (h Handlers) now() time.Time {
	if h.Now != nil {
		return h.Now()
	}
	return time.Now()
}

// CreateGuest mints a guest token. This is the only unauthenticated write.
func (h Handlers) CreateGuest(c *gin.Context) {
	tok, err := h.Auth.IssueGuest(h.now())
	if err != nil {
		logger.FromGin(c).Error("guest token issue failed", "error", err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "token issue failed"})
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"token":      tok.Token,
		"visitor_id": tok.VisitorID,
		"expires_at": tok.ExpiresAt,
	})
}

// ListAgents returns the tier catalog.
func (h Handlers) ListAgents(c *gin.Context) {
	list, err := h.Catalog.List(c.Request.Context())
	if err != nil {
		logger.FromGin(c).Error("agent list failed", "error", err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "catalog unavailable"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"agents": list})
}

// RoastCount serves the landing-page counter.
func (h Handlers) RoastCount(c *gin.Context) {
	n, err := h.Counter.Current(c.Request.Context())
	if err != nil {
		logger.FromGin(c).Warn("roast counter read failed", "error", err)
		c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{"error": "counter unavailable"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"total": n})
}

// SubmitRoast opens a new session from the roast form.
func (h Handlers) SubmitRoast(c *gin.Context) {
	orch, ok := h.orchestrator(c)
	if !ok {
		return
	}

	var sub session.Submission
	if err := c.ShouldBindJSON(&sub); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid body"})
		return
	}

	s, err := orch.Submit(c.Request.Context(), sub)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"session": s})
}

// ConfirmConsent advances past the consent screen.
func (h Handlers) ConfirmConsent(c *gin.Context) {
	orch, ok := h.orchestrator(c)
	if !ok {
		return
	}
	s, err := orch.ConfirmConsent()
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"session": s})
}

type selectPlanRequest struct {
	AgentID string `json:"agent_id"`
}

// SelectPlan picks an agent tier.
func (h Handlers) SelectPlan(c *gin.Context) {
	orch, ok := h.orchestrator(c)
	if !ok {
		return
	}

	var req selectPlanRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.AgentID == "" {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "agent_id is required"})
		return
	}
	a, err := h.Catalog.Get(c.Request.Context(), req.AgentID)
	if err != nil {
		h.writeError(c, err)
		return
	}
	s, err := orch.SelectPlan(a)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"session": s})
}

// BackToPlans returns from the payment screen to the tier list.
func (h Handlers) BackToPlans(c *gin.Context) {
	orch, ok := h.orchestrator(c)
	if !ok {
		return
	}
	s, err := orch.BackToPlans()
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"session": s})
}

// ConfirmPayment charges the quoted amount.
func (h Handlers) ConfirmPayment(c *gin.Context) {
	orch, ok := h.orchestrator(c)
	if !ok {
		return
	}

	var in session.PaymentInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid body"})
		return
	}
	s, err := orch.ConfirmPayment(c.Request.Context(), in)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"session": s})
}

// AcknowledgePayment leaves the payment-result screen; on approval this is
// the call that actually places the roast call.
func (h Handlers) AcknowledgePayment(c *gin.Context) {
	orch, ok := h.orchestrator(c)
	if !ok {
		return
	}
	s, err := orch.AcknowledgePaymentResult(c.Request.Context())
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"session": s})
}

// GetSession returns the current snapshot. Clients poll this while a call
// runs.
func (h Handlers) GetSession(c *gin.Context) {
	orch, ok := h.orchestrator(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{"session": orch.Snapshot()})
}

// ResetSession abandons the flow in any phase.
func (h Handlers) ResetSession(c *gin.Context) {
	orch, ok := h.orchestrator(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{"session": orch.Reset()})
}

// ListHistory returns the visitor's finished calls, newest first.
func (h Handlers) ListHistory(c *gin.Context) {
	visitorID, err := auth.VisitorID(c.Request.Context())
	if err != nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing identity"})
		return
	}
	recs, err := h.History.ListByVisitor(c.Request.Context(), visitorID, historyPageSize)
	if err != nil {
		logger.FromGin(c).Error("history list failed", "error", err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "history unavailable"})
		return
	}
	if recs == nil {
		recs = []history.Record{}
	}
	c.JSON(http.StatusOK, gin.H{"calls": recs})
}

func (h Handlers) orchestrator(c *gin.Context) (*session.Orchestrator, bool) {
	visitorID, err := auth.VisitorID(c.Request.Context())
	if err != nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing identity"})
		return nil, false
	}
	return h.Hub.Get(visitorID), true
}

func (h Handlers) writeError(c *gin.Context, err error) {
	var ve *session.ValidationError
	switch {
	case errors.As(err, &ve):
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": ve.Message, "field": ve.Field})
	case errors.Is(err, session.ErrSessionActive):
		c.AbortWithStatusJSON(http.StatusConflict, gin.H{"error": "another roast call is already active"})
	case errors.Is(err, session.ErrInvalidPhase):
		c.AbortWithStatusJSON(http.StatusConflict, gin.H{"error": "operation not allowed in current phase"})
	case errors.Is(err, agents.ErrAgentNotFound):
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "unknown agent"})
	default:
		logger.FromGin(c).Error("request failed", "error", err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
