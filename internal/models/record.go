package models

import (
	"encoding/json"
	"fmt"
)

// Record is one submitted answer set for a form. Values is the opaque payload
// {"Title": ..., "recordValues": {...}} and is only interpreted by the codec.
type Record struct {
	ID       int64           `db:"id" json:"id"`
	FormID   int64           `db:"form_id" json:"form_id"`
	Values   json.RawMessage `db:"values" json:"values"`
	Username string          `db:"username" json:"username,omitempty"`
}

// Location is a captured coordinate pair. Latitude and longitude are an ordered pair.
type Location struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Answer is a record value tagged with the kind of field it answers.
type Answer struct {
	Kind     FieldKind
	Text     string
	Location *Location
}

// TextAnswer builds an answer for a text, dropdown or photo field.
func TextAnswer(kind FieldKind, text string) Answer {
	return Answer{Kind: kind, Text: text}
}

// LocationAnswer builds an answer for a location field.
func LocationAnswer(lat, lng float64) Answer {
	return Answer{Kind: FieldKindLocation, Location: &Location{Latitude: lat, Longitude: lng}}
}

// MarshalJSON writes the stored representation: a string, or an object for locations.
func (a Answer) MarshalJSON() ([]byte, error) {
	switch a.Kind {
	case FieldKindLocation:
		if a.Location == nil {
			return nil, fmt.Errorf("location answer without coordinates")
		}
		return json.Marshal(a.Location)
	case FieldKindSingleLineText, FieldKindMultiLineText, FieldKindDropdown, FieldKindPhoto:
		return json.Marshal(a.Text)
	default:
		return nil, fmt.Errorf("cannot encode answer of kind %s", a.Kind)
	}
}
