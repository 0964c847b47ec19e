package codec

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"

	"github.com/UniversalTze/FormBase/internal/models"
)

// BoundAnswer is an answer joined with the field it belongs to.
type BoundAnswer struct {
	Field  models.Field
	Answer models.Answer
}

// Dropped describes a stored entry that was not bound, and why.
type Dropped struct {
	Key    string
	Reason string
}

// Bound is the read-time join of a payload with a form's field list.
type Bound struct {
	Title   string
	Answers []BoundAnswer
	Dropped []Dropped
}

// Bind joins decoded values with field definitions. Answers come back in field
// display order. Null entries are skipped silently; entries for unknown fields or
// with a shape that does not match the field kind are reported in Dropped.
func Bind(v Values, fields []models.Field) Bound {
	ordered := Ordered(fields)
	out := Bound{Title: v.Title}
	known := make(map[string]struct{}, len(ordered))
	for _, f := range ordered {
		key := f.Key()
		known[key] = struct{}{}
		raw, ok := v.RecordValues[key]
		if !ok || isNull(raw) {
			continue
		}
		answer, err := DecodeAnswer(f, raw)
		if err != nil {
			out.Dropped = append(out.Dropped, Dropped{Key: key, Reason: err.Error()})
			continue
		}
		out.Answers = append(out.Answers, BoundAnswer{Field: f, Answer: answer})
	}
	for _, key := range v.Answered() {
		if _, ok := known[key]; !ok {
			out.Dropped = append(out.Dropped, Dropped{Key: key, Reason: "no such field on this form"})
		}
	}
	return out
}

// Ordered returns a copy of fields in display order: order_index, then id.
func Ordered(fields []models.Field) []models.Field {
	ordered := make([]models.Field, len(fields))
	copy(ordered, fields)
	sort.SliceStable(ordered, func(i, j int) bool {
		if ordered[i].OrderIndex != ordered[j].OrderIndex {
			return ordered[i].OrderIndex < ordered[j].OrderIndex
		}
		return ordered[i].ID < ordered[j].ID
	})
	return ordered
}

// Find returns the bound answer for a field id.
func (b Bound) Find(fieldID int64) (BoundAnswer, bool) {
	for _, a := range b.Answers {
		if a.Field.ID == fieldID {
			return a, true
		}
	}
	return BoundAnswer{}, false
}

// Rendered is the display form of one answer.
type Rendered struct {
	FieldID   int64    `json:"field_id"`
	FieldName string   `json:"field_name"`
	Kind      string   `json:"field_type"`
	Text      string   `json:"text,omitempty"`
	Latitude  *float64 `json:"latitude,omitempty"`
	Longitude *float64 `json:"longitude,omitempty"`
	ImageURI  string   `json:"image_uri,omitempty"`
}

// RenderValue turns an answer into its displayable form for the field.
func RenderValue(field models.Field, answer models.Answer) Rendered {
	out := Rendered{FieldID: field.ID, FieldName: field.Name, Kind: field.Kind.String()}
	switch field.Kind {
	case models.FieldKindLocation:
		if answer.Location == nil {
			return out
		}
		lat, lng := answer.Location.Latitude, answer.Location.Longitude
		out.Latitude = &lat
		out.Longitude = &lng
		out.Text = fmt.Sprintf("Latitude: %s\nLongitude: %s", formatCoordinate(lat), formatCoordinate(lng))
	case models.FieldKindPhoto:
		out.ImageURI = answer.Text
	case models.FieldKindSingleLineText, models.FieldKindMultiLineText, models.FieldKindDropdown, models.FieldKindUnknown:
		out.Text = answer.Text
	default:
		out.Text = answer.Text
	}
	return out
}

// RenderAll renders every bound answer in order.
func RenderAll(b Bound) []Rendered {
	rows := make([]Rendered, 0, len(b.Answers))
	for _, a := range b.Answers {
		rows = append(rows, RenderValue(a.Field, a.Answer))
	}
	return rows
}

func formatCoordinate(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// CopyView is the clipboard export of a record: id, Title and each answer keyed by
// field name. Photos are left out and locations expand into latitude/longitude keys.
func CopyView(record models.Record, fields []models.Field) (map[string]interface{}, error) {
	v, err := Decode(record.Values)
	if err != nil {
		return nil, err
	}
	out := map[string]interface{}{
		"id":    record.ID,
		"Title": v.Title,
	}
	for _, a := range Bind(v, fields).Answers {
		switch a.Field.Kind {
		case models.FieldKindPhoto:
			continue
		case models.FieldKindLocation:
			out["latitude"] = a.Answer.Location.Latitude
			out["longitude"] = a.Answer.Location.Longitude
		case models.FieldKindSingleLineText, models.FieldKindMultiLineText, models.FieldKindDropdown, models.FieldKindUnknown:
			out[a.Field.Name] = a.Answer.Text
		}
	}
	return out, nil
}

// CopyJSON is CopyView serialised with two-space indentation.
func CopyJSON(record models.Record, fields []models.Field) ([]byte, error) {
	view, err := CopyView(record, fields)
	if err != nil {
		return nil, err
	}
	return json.MarshalIndent(view, "", "  ")
}
