// Package validation decides whether a record may be submitted.
package validation

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/UniversalTze/FormBase/internal/models"
)

const titleLabel = "Title"

// Filled reports whether a raw answer counts as provided: null is not, strings must
// be non-blank, arrays and objects non-empty, and any other scalar counts.
func Filled(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return false
	}
	var value interface{}
	if err := json.Unmarshal(trimmed, &value); err != nil {
		return false
	}
	switch v := value.(type) {
	case nil:
		return false
	case string:
		return strings.TrimSpace(v) != ""
	case []interface{}:
		return len(v) > 0
	case map[string]interface{}:
		return len(v) > 0
	default:
		return true
	}
}

// Result lists what is missing from a submission.
type Result struct {
	TitleMissing bool
	Missing      []models.Field
}

// Check collects the required fields without a filled answer, in field order,
// and whether the title is blank. answers is keyed by field id.
func Check(fields []models.Field, title string, answers map[string]json.RawMessage) Result {
	res := Result{TitleMissing: strings.TrimSpace(title) == ""}
	for _, f := range fields {
		if !f.Required {
			continue
		}
		if !Filled(answers[f.Key()]) {
			res.Missing = append(res.Missing, f)
		}
	}
	return res
}

// OK reports whether submission may proceed.
func (r Result) OK() bool {
	return !r.TitleMissing && len(r.Missing) == 0
}

// Labels returns the missing items for display, title first.
func (r Result) Labels() []string {
	labels := make([]string, 0, len(r.Missing)+1)
	if r.TitleMissing {
		labels = append(labels, titleLabel)
	}
	for _, f := range r.Missing {
		labels = append(labels, f.Label())
	}
	return labels
}

// MissingIDs returns the ids of the missing fields.
func (r Result) MissingIDs() []int64 {
	ids := make([]int64, 0, len(r.Missing))
	for _, f := range r.Missing {
		ids = append(ids, f.ID)
	}
	return ids
}

// Message is the combined message shown when submission is blocked.
func (r Result) Message() string {
	if r.OK() {
		return ""
	}
	return "Please fill in the required items: " + strings.Join(r.Labels(), ", ")
}
