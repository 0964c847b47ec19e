package dto

import "github.com/UniversalTze/FormBase/internal/models"

// CreateFormRequest is the POST /forms payload.
type CreateFormRequest struct {
	Name        string `json:"name" validate:"required,max=200"`
	Description string `json:"description" validate:"max=2000"`
}

// UpdateFormRequest is the PATCH /forms/:formId payload; absent members are left unchanged.
type UpdateFormRequest struct {
	Name        *string `json:"name" validate:"omitempty,min=1,max=200"`
	Description *string `json:"description" validate:"omitempty,max=2000"`
}

// Patch converts the request into a store patch.
func (r UpdateFormRequest) Patch() models.FormPatch {
	return models.FormPatch{Name: r.Name, Description: r.Description}
}
