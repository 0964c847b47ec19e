// Package codec encodes a record's title and answers into the opaque values
// payload and interprets that payload against a form's field definitions.
//
// Read paths fail soft: a malformed payload yields ErrMalformedPayload and the
// caller renders an empty value set instead of failing the request.
package codec

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strconv"

	"github.com/UniversalTze/FormBase/internal/models"
)

const (
	titleKey  = "Title"
	valuesKey = "recordValues"
)

// ErrMalformedPayload is returned when a stored values payload cannot be parsed.
var ErrMalformedPayload = errors.New("malformed record values payload")

// Values is the decoded form of a record's payload.
type Values struct {
	Title        string                     `json:"Title"`
	RecordValues map[string]json.RawMessage `json:"recordValues"`
}

// Encode produces {"Title": title, "recordValues": answers}. No validation is performed.
func Encode(title string, answers map[string]models.Answer) ([]byte, error) {
	if answers == nil {
		answers = map[string]models.Answer{}
	}
	payload, err := json.Marshal(struct {
		Title        string                   `json:"Title"`
		RecordValues map[string]models.Answer `json:"recordValues"`
	}{Title: title, RecordValues: answers})
	if err != nil {
		return nil, fmt.Errorf("encode record values: %w", err)
	}
	return payload, nil
}

// Decode parses a stored payload. The payload may be the JSON object itself or a
// JSON string holding the serialised object.
func Decode(payload []byte) (Values, error) {
	trimmed := bytes.TrimSpace(payload)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return Values{}, ErrMalformedPayload
	}
	if trimmed[0] == '"' {
		var inner string
		if err := json.Unmarshal(trimmed, &inner); err != nil {
			return Values{}, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
		}
		trimmed = bytes.TrimSpace([]byte(inner))
	}
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return Values{}, ErrMalformedPayload
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &raw); err != nil {
		return Values{}, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}

	var v Values
	if title, ok := raw[titleKey]; ok && !isNull(title) {
		if err := json.Unmarshal(title, &v.Title); err != nil {
			return Values{}, fmt.Errorf("%w: Title: %v", ErrMalformedPayload, err)
		}
	}
	v.RecordValues = map[string]json.RawMessage{}
	if answers, ok := raw[valuesKey]; ok && !isNull(answers) {
		if err := json.Unmarshal(answers, &v.RecordValues); err != nil {
			return Values{}, fmt.Errorf("%w: recordValues: %v", ErrMalformedPayload, err)
		}
	}
	return v, nil
}

// Answered returns the keys with a non-null value, numeric keys first in ascending order.
func (v Values) Answered() []string {
	keys := make([]string, 0, len(v.RecordValues))
	for k, raw := range v.RecordValues {
		if isNull(raw) {
			continue
		}
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		a, errA := strconv.ParseInt(keys[i], 10, 64)
		b, errB := strconv.ParseInt(keys[j], 10, 64)
		switch {
		case errA == nil && errB == nil:
			return a < b
		case errA == nil:
			return true
		case errB == nil:
			return false
		default:
			return keys[i] < keys[j]
		}
	})
	return keys
}

// DecodeAnswer checks that raw has the shape the field's kind declares.
func DecodeAnswer(field models.Field, raw json.RawMessage) (models.Answer, error) {
	if isNull(raw) {
		return models.Answer{}, fmt.Errorf("field %d: no value", field.ID)
	}
	switch field.Kind {
	case models.FieldKindSingleLineText, models.FieldKindMultiLineText:
		text, err := scalarText(raw)
		if err != nil {
			return models.Answer{}, fmt.Errorf("field %d (%s): %w", field.ID, field.Kind, err)
		}
		return models.TextAnswer(field.Kind, text), nil
	case models.FieldKindDropdown, models.FieldKindPhoto:
		var text string
		if err := json.Unmarshal(raw, &text); err != nil {
			return models.Answer{}, fmt.Errorf("field %d (%s): expected a string", field.ID, field.Kind)
		}
		return models.TextAnswer(field.Kind, text), nil
	case models.FieldKindLocation:
		loc, err := decodeLocation(raw)
		if err != nil {
			return models.Answer{}, fmt.Errorf("field %d (%s): %w", field.ID, field.Kind, err)
		}
		return models.LocationAnswer(loc.Latitude, loc.Longitude), nil
	case models.FieldKindUnknown:
		return models.Answer{}, fmt.Errorf("field %d has an unsupported type", field.ID)
	default:
		return models.Answer{}, fmt.Errorf("field %d has an unsupported type", field.ID)
	}
}

func scalarText(raw json.RawMessage) (string, error) {
	var value interface{}
	decoder := json.NewDecoder(bytes.NewReader(raw))
	decoder.UseNumber()
	if err := decoder.Decode(&value); err != nil {
		return "", err
	}
	switch v := value.(type) {
	case string:
		return v, nil
	case json.Number:
		return v.String(), nil
	case bool:
		return strconv.FormatBool(v), nil
	default:
		return "", fmt.Errorf("expected text, got %s", describe(raw))
	}
}

func decodeLocation(raw json.RawMessage) (models.Location, error) {
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(raw, &obj); err != nil {
		return models.Location{}, fmt.Errorf("expected a coordinate object, got %s", describe(raw))
	}
	lat, ok := obj["latitude"]
	if !ok {
		return models.Location{}, fmt.Errorf("latitude missing")
	}
	lng, ok := obj["longitude"]
	if !ok {
		// older records were written with a misspelt key
		lng, ok = obj["longtitude"]
	}
	if !ok {
		return models.Location{}, fmt.Errorf("longitude missing")
	}
	var loc models.Location
	if err := json.Unmarshal(lat, &loc.Latitude); err != nil {
		return models.Location{}, fmt.Errorf("latitude must be a number")
	}
	if err := json.Unmarshal(lng, &loc.Longitude); err != nil {
		return models.Location{}, fmt.Errorf("longitude must be a number")
	}
	return loc, nil
}

func describe(raw json.RawMessage) string {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return "nothing"
	}
	switch trimmed[0] {
	case '{':
		return "an object"
	case '[':
		return "an array"
	case '"':
		return "a string"
	case 't', 'f':
		return "a boolean"
	case 'n':
		return "null"
	default:
		return "a number"
	}
}

func isNull(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null"))
}
