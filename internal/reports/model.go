package reports

import (
	"encoding/json"
	"errors"
	"time"
)

// ErrNotFound is returned when a report ID has no stored report.
var ErrNotFound = errors.New("not found")

// Report is one stored compatibility report.
type Report struct {
	ID        string          `json:"id"`
	Products  []string        `json:"products"`
	Result    json.RawMessage `json:"result"`
	CreatedAt time.Time       `json:"createdAt"`
}
