package dto

import (
	"github.com/UniversalTze/FormBase/internal/filter"
	"github.com/UniversalTze/FormBase/internal/models"
)

// ChooseFieldRequest starts editing a criterion.
type ChooseFieldRequest struct {
	FieldID int64 `json:"field_id" validate:"required,gt=0"`
}

// ChooseOperatorRequest picks the comparison for the chosen field.
type ChooseOperatorRequest struct {
	Operator models.Operator `json:"operator" validate:"required"`
}

// ConfirmCriterionRequest supplies the value and adds the criterion.
type ConfirmCriterionRequest struct {
	Value string `json:"value" validate:"required"`
}

// PutCriterionRequest adds or replaces a field's criterion in one step.
type PutCriterionRequest struct {
	Operator models.Operator `json:"operator" validate:"required"`
	Value    string          `json:"value" validate:"required"`
}

// LoadErrors reports which part of the last refresh failed.
type LoadErrors struct {
	Fields  string `json:"fields,omitempty"`
	Records string `json:"records,omitempty"`
	Filter  string `json:"filter,omitempty"`
}

// BrowserView is the records screen as the client renders it.
type BrowserView struct {
	SessionID    string                  `json:"session_id"`
	FormID       int64                   `json:"form_id"`
	Stage        filter.Stage            `json:"stage"`
	EditingField *models.Field           `json:"editing_field,omitempty"`
	Operator     models.Operator         `json:"operator,omitempty"`
	Operators    []models.OperatorOption `json:"operators"`
	FilterFields []models.Field          `json:"filter_fields"`
	Criteria     []filter.Criterion      `json:"criteria"`
	Summary      string                  `json:"summary,omitempty"`
	Filtered     bool                    `json:"filtered"`
	Records      []RecordView            `json:"records"`
	Errors       *LoadErrors             `json:"errors,omitempty"`
}
