package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/UniversalTze/FormBase/internal/dto"
	"github.com/UniversalTze/FormBase/internal/models"
	appErrors "github.com/UniversalTze/FormBase/pkg/errors"
	"github.com/UniversalTze/FormBase/pkg/response"
)

type formService interface {
	List(ctx context.Context) ([]models.Form, error)
	Get(ctx context.Context, id int64) (*models.Form, error)
	Create(ctx context.Context, req dto.CreateFormRequest) (*models.Form, error)
	Update(ctx context.Context, id int64, req dto.UpdateFormRequest) (*models.Form, error)
	Delete(ctx context.Context, id int64) error
}

// FormHandler exposes form endpoints.
type FormHandler struct {
	service formService
}

// NewFormHandler builds a new handler.
func NewFormHandler(service formService) *FormHandler {
	return &FormHandler{service: service}
}

// List godoc
// @Summary List forms
// @Tags Forms
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /forms [get]
func (h *FormHandler) List(c *gin.Context) {
	forms, err := h.service.List(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, forms, map[string]interface{}{"total": len(forms)})
}

// Create godoc
// @Summary Create form
// @Tags Forms
// @Accept json
// @Produce json
// @Param payload body dto.CreateFormRequest true "Form payload"
// @Success 201 {object} response.Envelope
// @Router /forms [post]
func (h *FormHandler) Create(c *gin.Context) {
	var req dto.CreateFormRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid form payload"))
		return
	}
	form, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, form)
}

// Get godoc
// @Summary Get form
// @Tags Forms
// @Produce json
// @Param formId path int true "Form ID"
// @Success 200 {object} response.Envelope
// @Router /forms/{formId} [get]
func (h *FormHandler) Get(c *gin.Context) {
	id, err := pathID(c, "formId")
	if err != nil {
		response.Error(c, err)
		return
	}
	form, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, form, nil)
}

// Update godoc
// @Summary Update form
// @Tags Forms
// @Accept json
// @Produce json
// @Param formId path int true "Form ID"
// @Param payload body dto.UpdateFormRequest true "Form payload"
// @Success 200 {object} response.Envelope
// @Router /forms/{formId} [patch]
func (h *FormHandler) Update(c *gin.Context) {
	id, err := pathID(c, "formId")
	if err != nil {
		response.Error(c, err)
		return
	}
	var req dto.UpdateFormRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid form payload"))
		return
	}
	form, err := h.service.Update(c.Request.Context(), id, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, form, nil)
}

// Delete godoc
// @Summary Delete form
// @Tags Forms
// @Param formId path int true "Form ID"
// @Success 204
// @Router /forms/{formId} [delete]
func (h *FormHandler) Delete(c *gin.Context) {
	id, err := pathID(c, "formId")
	if err != nil {
		response.Error(c, err)
		return
	}
	if err := h.service.Delete(c.Request.Context(), id); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
