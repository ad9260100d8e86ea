package ocr

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"bare-backend/internal/llm"
	"bare-backend/internal/shared/metrics"
	"bare-backend/internal/shared/server/middleware"
	"bare-backend/internal/shared/server/respond"
	"bare-backend/internal/shared/telemetry"
	"bare-backend/internal/shared/util"
)

// Stable machine codes for the extraction endpoint.
const (
	CodeNoFile              = "NO_FILE"
	CodeInvalidType         = "INVALID_TYPE"
	CodeFileTooLarge        = "FILE_TOO_LARGE"
	CodeEmptyFile           = "EMPTY_FILE"
	CodeAPIKeyMissing       = "API_KEY_MISSING"
	CodeParseError          = "PARSE_ERROR"
	CodeNoContentExtracted  = "NO_CONTENT_EXTRACTED"
	CodeInvalidResponseForm = "INVALID_RESPONSE_FORMAT"
	CodeInternal            = "INTERNAL_ERROR"
)

var validConfidence = map[string]struct{}{
	"high":   {},
	"medium": {},
	"low":    {},
}

// Handler serves the label-extraction endpoint.
type Handler struct {
	LLM llm.Client
}

// NewHandler constructs a Handler. llmClient may be nil when the API
// credential is not configured.
func NewHandler(llmClient llm.Client) *Handler {
	return &Handler{LLM: llmClient}
}

// RegisterRoutes attaches the OCR route to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/ocr", h.extract)
}

type extractResponse struct {
	Products   []string `json:"products"`
	Confidence string   `json:"confidence"`
	Success    bool     `json:"success"`
}

func (h *Handler) extract(c *gin.Context) {
	file, err := c.FormFile("image")
	if err != nil {
		respond.Error(c, http.StatusBadRequest, CodeNoFile, "No image file provided", nil)
		return
	}
	metrics.IncLabelExtraction()
	if verr := validateImageFile(file); verr != nil {
		metrics.IncLabelFailure()
		respond.Error(c, http.StatusBadRequest, verr.Code, verr.Message, verr.Details)
		return
	}

	fileName, nameErr := util.SanitizeUploadName(file.Filename)
	if nameErr != nil {
		fileName = "upload"
	}
	telemetry.Info("ocr.upload_received", map[string]any{
		"request_id":  middleware.RequestIDFromContext(c),
		"fileName":    fileName,
		"size":        file.Size,
		"contentType": file.Header.Get("Content-Type"),
	})

	opened, err := file.Open()
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, CodeInternal, "Failed to read uploaded file", nil)
		return
	}
	defer opened.Close()
	data, err := io.ReadAll(opened)
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, CodeInternal, "Failed to read uploaded file", nil)
		return
	}

	if h.LLM == nil {
		metrics.IncLabelFailure()
		respond.Error(c, http.StatusInternalServerError, CodeAPIKeyMissing, "Service temporarily unavailable. Please try again later.", nil)
		return
	}

	image := llm.Image{
		Data:     data,
		MIMEType: strings.ToLower(strings.TrimSpace(file.Header.Get("Content-Type"))),
	}
	started := metrics.NowMillis()
	content, err := h.LLM.ExtractProducts(c.Request.Context(), image)
	metrics.ObserveModelCallMs(metrics.NowMillis() - started)
	if err != nil {
		metrics.IncLabelFailure()
		h.respondUpstreamError(c, err)
		return
	}

	var extracted struct {
		Products   []string `json:"products"`
		Confidence string   `json:"confidence"`
	}
	if err := json.Unmarshal(content, &extracted); err != nil {
		metrics.IncLabelFailure()
		telemetry.Error("ocr.parse_failed", map[string]any{
			"request_id": middleware.RequestIDFromContext(c),
			"error":      err.Error(),
		})
		respond.Error(c, http.StatusInternalServerError, CodeParseError, "Failed to process the extracted data. Please try again.",
			map[string]any{"parseError": err.Error()})
		return
	}
	if extracted.Products == nil {
		metrics.IncLabelFailure()
		respond.Error(c, http.StatusInternalServerError, CodeInvalidResponseForm, "Invalid response format from image processing service.", nil)
		return
	}

	confidence := strings.ToLower(strings.TrimSpace(extracted.Confidence))
	if _, ok := validConfidence[confidence]; !ok {
		confidence = "unknown"
	}

	respond.OK(c, extractResponse{
		Products:   extracted.Products,
		Confidence: confidence,
		Success:    true,
	})
}

func (h *Handler) respondUpstreamError(c *gin.Context, err error) {
	if errors.Is(err, llm.ErrEmptyContent) {
		respond.Error(c, http.StatusBadRequest, CodeNoContentExtracted, "No content could be extracted from the image. Please try a clearer image.", nil)
		return
	}
	var statusErr *llm.StatusError
	if errors.As(err, &statusErr) {
		respond.Error(c, http.StatusInternalServerError, statusErr.Code(), statusErr.UserMessage(),
			map[string]any{"status": statusErr.StatusCode})
		return
	}
	telemetry.Error("ocr.llm_failed", map[string]any{
		"request_id": middleware.RequestIDFromContext(c),
		"error":      err.Error(),
	})
	respond.Error(c, http.StatusInternalServerError, CodeInternal, "Failed to process image. Please try again.", nil)
}
