package dto

import "github.com/UniversalTze/FormBase/internal/models"

// CreateFieldRequest is the POST /forms/:formId/fields payload. Choices only
// apply to dropdown fields.
type CreateFieldRequest struct {
	Name       string   `json:"name" validate:"required,max=200"`
	FieldType  string   `json:"field_type" validate:"required"`
	Required   bool     `json:"required"`
	IsNum      bool     `json:"is_num"`
	Choices    []string `json:"choices" validate:"omitempty,max=100,dive,max=200"`
	OrderIndex *int     `json:"order_index" validate:"omitempty,min=0"`
}

// FieldResponse is a field definition with its dropdown choices decoded.
type FieldResponse struct {
	models.Field
	Choices    []string `json:"choices"`
	Filterable bool     `json:"filterable"`
}
