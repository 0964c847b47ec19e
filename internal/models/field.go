package models

import (
	"encoding/json"
	"fmt"
	"strings"
)

// FieldKind is the closed set of field types a form can declare.
type FieldKind int

const (
	FieldKindUnknown FieldKind = iota
	FieldKindSingleLineText
	FieldKindMultiLineText
	FieldKindDropdown
	FieldKindLocation
	FieldKindPhoto
)

// FieldKinds lists every supported kind in display order.
var FieldKinds = []FieldKind{
	FieldKindSingleLineText,
	FieldKindMultiLineText,
	FieldKindDropdown,
	FieldKindLocation,
	FieldKindPhoto,
}

// String returns the wire name stored in the field_type column.
func (k FieldKind) String() string {
	switch k {
	case FieldKindSingleLineText:
		return "Single-Line-Text"
	case FieldKindMultiLineText:
		return "Multi-Line-Text"
	case FieldKindDropdown:
		return "Dropdown"
	case FieldKindLocation:
		return "Location"
	case FieldKindPhoto:
		return "Photo"
	default:
		return "Unknown"
	}
}

// IsText reports whether answers of this kind are free text.
func (k FieldKind) IsText() bool {
	switch k {
	case FieldKindSingleLineText, FieldKindMultiLineText:
		return true
	default:
		return false
	}
}

// Filterable reports whether records can be filtered on fields of this kind.
func (k FieldKind) Filterable() bool {
	switch k {
	case FieldKindSingleLineText, FieldKindMultiLineText, FieldKindDropdown:
		return true
	case FieldKindLocation, FieldKindPhoto, FieldKindUnknown:
		return false
	default:
		return false
	}
}

// ParseFieldKind accepts the stored wire names as well as the short names used by
// the field editor ("text", "multiline", ...). Case, '-', '_' and spaces are ignored.
func ParseFieldKind(raw string) (FieldKind, error) {
	normalised := strings.ToLower(strings.NewReplacer("-", "", "_", "", " ", "").Replace(raw))
	switch normalised {
	case "singlelinetext", "text", "singleline":
		return FieldKindSingleLineText, nil
	case "multilinetext", "multiline":
		return FieldKindMultiLineText, nil
	case "dropdown":
		return FieldKindDropdown, nil
	case "location":
		return FieldKindLocation, nil
	case "photo":
		return FieldKindPhoto, nil
	default:
		return FieldKindUnknown, fmt.Errorf("unknown field type %q", raw)
	}
}

// MarshalJSON writes the wire name.
func (k FieldKind) MarshalJSON() ([]byte, error) {
	return json.Marshal(k.String())
}

// UnmarshalJSON tolerates unrecognised names by mapping them to FieldKindUnknown so
// that one odd row never breaks a whole field listing.
func (k *FieldKind) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("field_type must be a string: %w", err)
	}
	parsed, _ := ParseFieldKind(raw)
	*k = parsed
	return nil
}

// Scan implements sql.Scanner for the field_type column.
func (k *FieldKind) Scan(value interface{}) error {
	switch v := value.(type) {
	case nil:
		*k = FieldKindUnknown
	case string:
		*k, _ = ParseFieldKind(v)
	case []byte:
		*k, _ = ParseFieldKind(string(v))
	default:
		return fmt.Errorf("unsupported type %T for FieldKind", value)
	}
	return nil
}

// Field is a named, typed slot belonging to a form.
type Field struct {
	ID         int64           `db:"id" json:"id"`
	FormID     int64           `db:"form_id" json:"form_id"`
	Name       string          `db:"name" json:"name"`
	Kind       FieldKind       `db:"field_type" json:"field_type"`
	Options    json.RawMessage `db:"options" json:"options"`
	Required   bool            `db:"required" json:"required"`
	IsNum      bool            `db:"is_num" json:"is_num"`
	OrderIndex int             `db:"order_index" json:"order_index"`
	Username   string          `db:"username" json:"username,omitempty"`
}

// Key returns the field id as used for keys inside recordValues.
func (f Field) Key() string {
	return fmt.Sprintf("%d", f.ID)
}

// Label renders the field for validation messages, e.g. "Age (Single-Line-Text)".
func (f Field) Label() string {
	if f.Name == "" {
		return f.Kind.String()
	}
	return fmt.Sprintf("%s (%s)", f.Name, f.Kind)
}

// Numeric reports whether the field carries numbers; only meaningful for text kinds.
func (f Field) Numeric() bool {
	return f.IsNum && f.Kind.IsText()
}

// DropdownOptions is the stored shape of Field.Options.
type DropdownOptions struct {
	Dropdown []string `json:"dropdown"`
}

// FieldsByKey indexes fields by their recordValues key.
func FieldsByKey(fields []Field) map[string]Field {
	out := make(map[string]Field, len(fields))
	for _, f := range fields {
		out[f.Key()] = f
	}
	return out
}
