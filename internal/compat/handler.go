package compat

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"bare-backend/internal/llm"
	"bare-backend/internal/shared/metrics"
	"bare-backend/internal/shared/server/middleware"
	"bare-backend/internal/shared/server/respond"
	"bare-backend/internal/shared/telemetry"
)

// ReportStore persists completed reports. Saving is best-effort; analysis
// never fails because history is unavailable.
type ReportStore interface {
	SaveReport(ctx context.Context, products []string, result json.RawMessage) (string, error)
}

// Handler serves the compatibility analysis endpoint.
type Handler struct {
	LLM    llm.Client
	Policy string
	Store  ReportStore
}

// NewHandler constructs a Handler. llmClient may be nil when the API
// credential is not configured; requests then fail with a config error
// before any upstream call.
func NewHandler(llmClient llm.Client, policy string, store ReportStore) *Handler {
	return &Handler{LLM: llmClient, Policy: policy, Store: store}
}

// RegisterRoutes attaches the compatibility route to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/compatibility", h.analyze)
}

type analyzeRequest struct {
	Products []string `json:"products"`
}

func (h *Handler) analyze(c *gin.Context) {
	var req analyzeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, ErrorCodeValidation, "Products array is required", nil)
		return
	}

	products := make([]string, 0, len(req.Products))
	for _, p := range req.Products {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			products = append(products, trimmed)
		}
	}
	if len(products) == 0 {
		respond.Error(c, http.StatusBadRequest, ErrorCodeValidation, "Products array is required", nil)
		return
	}
	c.Set("productCount", len(products))
	metrics.IncRoutineAnalysis()

	if h.LLM == nil {
		metrics.IncRoutineFailure()
		respond.Error(c, http.StatusInternalServerError, ErrorCodeAPIKeyMissing, "Analysis service is not configured", nil)
		return
	}

	started := metrics.NowMillis()
	raw, err := h.LLM.AnalyzeRoutine(c.Request.Context(), products)
	metrics.ObserveModelCallMs(metrics.NowMillis() - started)
	if err != nil {
		metrics.IncRoutineFailure()
		var statusErr *llm.StatusError
		if errors.As(err, &statusErr) {
			respond.Error(c, http.StatusInternalServerError, statusErr.Code(), statusErr.UserMessage(), nil)
			return
		}
		telemetry.Error("compat.llm_failed", map[string]any{
			"request_id": middleware.RequestIDFromContext(c),
			"error":      err.Error(),
		})
		respond.Error(c, http.StatusInternalServerError, ErrorCodeInternal, "Failed to analyze compatibility", nil)
		return
	}

	var decoded any
	if err := json.Unmarshal(raw, &decoded); err != nil {
		metrics.IncRoutineFailure()
		telemetry.Error("compat.reply_not_json", map[string]any{
			"request_id": middleware.RequestIDFromContext(c),
			"error":      err.Error(),
		})
		respond.Error(c, http.StatusInternalServerError, ErrorCodeParse, "Failed to parse analysis result", nil)
		return
	}

	report, err := Normalize(decoded, products, h.Policy)
	if err != nil {
		metrics.IncRoutineFailure()
		// The one 422 in the system. The body shape diverges from the
		// standard error envelope for compatibility with existing clients.
		c.AbortWithStatusJSON(http.StatusUnprocessableEntity, gin.H{
			"error": gin.H{
				"message": "Invalid model JSON",
				"details": err.Error(),
			},
		})
		return
	}

	h.saveReport(c, products, report)
	respond.OK(c, report)
}

func (h *Handler) saveReport(c *gin.Context, products []string, report Report) {
	if h.Store == nil {
		return
	}
	payload, err := json.Marshal(report)
	if err != nil {
		return
	}
	id, err := h.Store.SaveReport(c.Request.Context(), products, payload)
	if err != nil {
		telemetry.Warn("compat.history_save_failed", map[string]any{
			"request_id": middleware.RequestIDFromContext(c),
			"error":      err.Error(),
		})
		return
	}
	metrics.IncReportSaved()
	c.Set("reportId", id)
}
