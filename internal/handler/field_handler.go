package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/UniversalTze/FormBase/internal/dto"
	appErrors "github.com/UniversalTze/FormBase/pkg/errors"
	"github.com/UniversalTze/FormBase/pkg/response"
)

type fieldService interface {
	List(ctx context.Context, formID int64) ([]dto.FieldResponse, error)
	Create(ctx context.Context, formID int64, req dto.CreateFieldRequest) (*dto.FieldResponse, error)
}

// FieldHandler exposes a form's field definitions.
type FieldHandler struct {
	service fieldService
}

// NewFieldHandler builds a new handler.
func NewFieldHandler(service fieldService) *FieldHandler {
	return &FieldHandler{service: service}
}

// List godoc
// @Summary List form fields in display order
// @Tags Fields
// @Produce json
// @Param formId path int true "Form ID"
// @Success 200 {object} response.Envelope
// @Router /forms/{formId}/fields [get]
func (h *FieldHandler) List(c *gin.Context) {
	formID, err := pathID(c, "formId")
	if err != nil {
		response.Error(c, err)
		return
	}
	fields, err := h.service.List(c.Request.Context(), formID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, fields, nil)
}

// Create godoc
// @Summary Add a field to a form
// @Tags Fields
// @Accept json
// @Produce json
// @Param formId path int true "Form ID"
// @Param payload body dto.CreateFieldRequest true "Field payload"
// @Success 201 {object} response.Envelope
// @Router /forms/{formId}/fields [post]
func (h *FieldHandler) Create(c *gin.Context) {
	formID, err := pathID(c, "formId")
	if err != nil {
		response.Error(c, err)
		return
	}
	var req dto.CreateFieldRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid field payload"))
		return
	}
	field, err := h.service.Create(c.Request.Context(), formID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, field)
}
