package serve

import (
	"encoding/json"

	"github.com/imoan723/JSRecon-Buddy/pkg/types"
)

// Version is the worker protocol version.
const Version = "1.0.0"

// Request is one incoming NDJSON request line.
type Request struct {
	Type    string          `json:"type"` // "scan" | "ping" | "close"
	Payload json.RawMessage `json:"payload,omitempty"`
}

// ScanPayload is the payload for "scan" requests. Rule patterns cross the
// boundary as source text, never as compiled objects.
type ScanPayload struct {
	PageURL string                `json:"pageURL"`
	Sources []types.ContentSource `json:"contentSources"`
	Rules   []SerializedRule      `json:"serializedRules,omitempty"`
	Params  []string              `json:"params,omitempty"`
}

// SerializedRule is the wire form of a detection rule. Flags document the
// match semantics ("im": case-insensitive, multiline); the engine applies
// them unconditionally, so the field is informational.
type SerializedRule struct {
	ID           string  `json:"id"`
	Description  string  `json:"description,omitempty"`
	Pattern      string  `json:"pattern"`
	Flags        string  `json:"flags,omitempty"`
	CaptureGroup int     `json:"captureGroup,omitempty"`
	MinEntropy   float64 `json:"minEntropy,omitempty"`
}

// Response is one outgoing NDJSON response line.
type Response struct {
	Status   string            `json:"status"` // "success" | "error"
	Type     string            `json:"type,omitempty"`
	Findings *types.ScanResult `json:"findings,omitempty"`
	Message  string            `json:"message,omitempty"`
	Version  string            `json:"version,omitempty"`
}

// Response status values.
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// SerializeRules converts catalog rules to their wire form.
func SerializeRules(rules []*types.Rule) []SerializedRule {
	out := make([]SerializedRule, len(rules))
	for i, r := range rules {
		out[i] = SerializedRule{
			ID:           r.ID,
			Description:  r.Description,
			Pattern:      r.Pattern,
			Flags:        "im",
			CaptureGroup: r.CaptureGroup,
			MinEntropy:   r.MinEntropy,
		}
	}
	return out
}

// Rule converts a wire rule back to the catalog form.
func (s SerializedRule) Rule() *types.Rule {
	return &types.Rule{
		ID:           s.ID,
		Description:  s.Description,
		Pattern:      s.Pattern,
		CaptureGroup: s.CaptureGroup,
		MinEntropy:   s.MinEntropy,
	}
}
