package codec

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/UniversalTze/FormBase/internal/models"
)

// ParseDropdownOptions returns the ordered choices stored in a field's options.
// Null, absent or unreadable options yield an empty list.
func ParseDropdownOptions(raw json.RawMessage) []string {
	trimmed := bytes.TrimSpace(raw)
	if isNull(trimmed) {
		return []string{}
	}
	if trimmed[0] == '"' {
		var inner string
		if err := json.Unmarshal(trimmed, &inner); err != nil {
			return []string{}
		}
		trimmed = bytes.TrimSpace([]byte(inner))
		if len(trimmed) == 0 {
			return []string{}
		}
	}

	var choices []string
	switch trimmed[0] {
	case '{':
		var opts models.DropdownOptions
		if err := json.Unmarshal(trimmed, &opts); err != nil {
			return []string{}
		}
		choices = opts.Dropdown
	case '[':
		if err := json.Unmarshal(trimmed, &choices); err != nil {
			return []string{}
		}
	}
	if choices == nil {
		return []string{}
	}
	return choices
}

// BuildDropdownOptions encodes the choices for storage. Blank choices are dropped and
// nil is returned when nothing remains, keeping options null for empty dropdowns.
func BuildDropdownOptions(choices []string) (json.RawMessage, error) {
	cleaned := make([]string, 0, len(choices))
	for _, c := range choices {
		if c = strings.TrimSpace(c); c != "" {
			cleaned = append(cleaned, c)
		}
	}
	if len(cleaned) == 0 {
		return nil, nil
	}
	return json.Marshal(models.DropdownOptions{Dropdown: cleaned})
}
