package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
)

// Client abstracts the completion/vision provider behind the two
// operations the service needs. Implementations return the provider's
// message content verbatim; callers own JSON parsing of that content.
type Client interface {
	// AnalyzeRoutine asks the model for a compatibility report over the
	// given product names.
	AnalyzeRoutine(ctx context.Context, products []string) (json.RawMessage, error)
	// ExtractProducts asks the vision model to read product names off an
	// uploaded label photo.
	ExtractProducts(ctx context.Context, image Image) (json.RawMessage, error)
}

// Image is an uploaded picture forwarded to the vision model.
type Image struct {
	Data     []byte
	MIMEType string
}

// ErrEmptyContent is returned when the provider reply carries no message content.
var ErrEmptyContent = errors.New("empty completion content")

// StatusError reports a non-2xx reply from the provider. The raw upstream
// body is never attached; callers log it at the transport layer only.
type StatusError struct {
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("completion service returned status %d", e.StatusCode)
}

// Code maps the upstream status onto a stable client-facing machine code.
func (e *StatusError) Code() string {
	switch {
	case e.StatusCode == 401:
		return "AUTH_ERROR"
	case e.StatusCode == 429:
		return "RATE_LIMIT"
	case e.StatusCode == 413:
		return "FILE_TOO_LARGE"
	case e.StatusCode >= 500:
		return "SERVICE_UNAVAILABLE"
	default:
		return "UPSTREAM_ERROR"
	}
}

// UserMessage returns a short actionable message safe to show clients.
func (e *StatusError) UserMessage() string {
	switch e.Code() {
	case "AUTH_ERROR":
		return "Service authentication failed. Please try again later."
	case "RATE_LIMIT":
		return "Service is busy. Please wait a moment and try again."
	case "FILE_TOO_LARGE":
		return "Image file is too large for processing."
	case "SERVICE_UNAVAILABLE":
		return "Service temporarily unavailable. Please try again later."
	default:
		return "Failed to process the request. Please try again."
	}
}
