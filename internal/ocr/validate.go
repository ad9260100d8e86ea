package ocr

import (
	"fmt"
	"mime/multipart"
	"sort"
	"strings"
)

const maxUploadBytes = 10 << 20

var allowedContentTypes = map[string]struct{}{
	"image/jpeg": {},
	"image/jpg":  {},
	"image/png":  {},
	"image/webp": {},
	"image/gif":  {},
}

// ValidationError is a client-correctable upload problem with a stable code.
type ValidationError struct {
	Code    string
	Message string
	Details any
}

func (e *ValidationError) Error() string {
	return e.Message
}

// validateImageFile checks presence, type, and size bounds before any
// upstream call is attempted.
func validateImageFile(file *multipart.FileHeader) *ValidationError {
	if file == nil {
		return &ValidationError{
			Code:    CodeNoFile,
			Message: "No image file provided",
		}
	}

	contentType := strings.ToLower(strings.TrimSpace(file.Header.Get("Content-Type")))
	if _, ok := allowedContentTypes[contentType]; !ok {
		return &ValidationError{
			Code:    CodeInvalidType,
			Message: fmt.Sprintf("Invalid file type. Supported formats: %s", supportedFormats()),
			Details: map[string]any{"receivedType": contentType},
		}
	}

	if file.Size > maxUploadBytes {
		return &ValidationError{
			Code:    CodeFileTooLarge,
			Message: "File too large. Maximum size is 10MB",
			Details: map[string]any{
				"receivedSize": file.Size,
				"maxSize":      maxUploadBytes,
			},
		}
	}

	if file.Size == 0 {
		return &ValidationError{
			Code:    CodeEmptyFile,
			Message: "File is empty",
		}
	}

	return nil
}

func supportedFormats() string {
	formats := make([]string, 0, len(allowedContentTypes))
	for t := range allowedContentTypes {
		formats = append(formats, strings.ToUpper(strings.TrimPrefix(t, "image/")))
	}
	sort.Strings(formats)
	return strings.Join(formats, ", ")
}
