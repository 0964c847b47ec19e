package dto

import (
	"encoding/json"

	"github.com/UniversalTze/FormBase/internal/codec"
)

// CreateRecordRequest is the POST /forms/:formId/records payload. Values is keyed
// by field id; locations are {"latitude":n,"longitude":n}, everything else a string.
type CreateRecordRequest struct {
	Title  string                     `json:"title" validate:"max=500"`
	Values map[string]json.RawMessage `json:"values"`
}

// RecordView is a record decoded against its form's fields.
type RecordView struct {
	ID        int64            `json:"id"`
	FormID    int64            `json:"form_id"`
	Title     string           `json:"title"`
	Values    []codec.Rendered `json:"values"`
	Malformed bool             `json:"malformed,omitempty"`
}

// MissingItemsDetails accompanies a 422 when required items are blank.
type MissingItemsDetails struct {
	Items    []string `json:"items"`
	FieldIDs []int64  `json:"field_ids"`
	Title    bool     `json:"title_missing"`
}

// MapPin places one record on the map.
type MapPin struct {
	RecordID  int64            `json:"record_id"`
	Title     string           `json:"title"`
	Latitude  float64          `json:"latitude"`
	Longitude float64          `json:"longitude"`
	Rows      []codec.Rendered `json:"rows"`
}

// MapResponse lists the pins for a form's first location field.
type MapResponse struct {
	FormID    int64    `json:"form_id"`
	FieldID   int64    `json:"field_id"`
	FieldName string   `json:"field_name"`
	Pins      []MapPin `json:"pins"`
}
