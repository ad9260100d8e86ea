package util

import (
	"errors"
	"strings"
)

// SanitizeUploadName strips path separators from a client-supplied file
// name and rejects traversal patterns. The result is safe to echo into
// logs and telemetry.
func SanitizeUploadName(name string) (string, error) {
	if strings.Contains(name, "..") {
		return "", errors.New("invalid file name")
	}
	s := strings.TrimSpace(name)
	s = strings.ReplaceAll(s, "/", "_")
	s = strings.ReplaceAll(s, "\\", "_")
	if s == "" {
		return "", errors.New("invalid file name")
	}
	return s, nil
}
