package assistant

import (
	"encoding/json"
	"errors"
	"regexp"
	"strings"
)

// ErrMalformedEstimate is returned when an estimate block is present but its
// payload is not {"value": <number>}.
var ErrMalformedEstimate = errors.New("malformed estimate block")

var estimatePattern = regexp.MustCompile(`(?s)\[ESTIMATE\](.*?)\[/ESTIMATE\]`)

// Estimate is a model reply split into visible text and the embedded value.
type Estimate struct {
	Text  string
	Value *float64
}

// ParseEstimate extracts the first [ESTIMATE]{"value": n}[/ESTIMATE] block
// from reply. With no block, the text is returned unchanged and Value is nil.
// A malformed block also leaves the text untouched and reports
// ErrMalformedEstimate.
func ParseEstimate(reply string) (Estimate, error) {
	loc := estimatePattern.FindStringSubmatchIndex(reply)
	if loc == nil {
		return Estimate{Text: reply}, nil
	}

	var payload struct {
		Value *float64 `json:"value"`
	}
	raw := strings.TrimSpace(reply[loc[2]:loc[3]])
	if err := json.Unmarshal([]byte(raw), &payload); err != nil || payload.Value == nil {
		return Estimate{Text: reply}, ErrMalformedEstimate
	}

	text := strings.TrimSpace(reply[:loc[0]] + reply[loc[1]:])
	return Estimate{Text: text, Value: payload.Value}, nil
}
