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

type browserService interface {
	Open(ctx context.Context, formID int64) (*dto.BrowserView, error)
	View(ctx context.Context, id string) (*dto.BrowserView, error)
	Refresh(ctx context.Context, id string) (*dto.BrowserView, error)
	ChooseField(ctx context.Context, id string, fieldID int64) (*dto.BrowserView, error)
	ChooseOperator(ctx context.Context, id string, op models.Operator) (*dto.BrowserView, error)
	Confirm(ctx context.Context, id, value string) (*dto.BrowserView, error)
	PutCriterion(ctx context.Context, id string, fieldID int64, op models.Operator, value string) (*dto.BrowserView, error)
	RemoveCriterion(ctx context.Context, id string, fieldID int64) (*dto.BrowserView, error)
	ClearFilters(ctx context.Context, id string) (*dto.BrowserView, error)
	Cancel(ctx context.Context, id string) (*dto.BrowserView, error)
	DeleteRecord(ctx context.Context, id string, recordID int64) (*dto.BrowserView, error)
	Close(ctx context.Context, id string) error
}

// BrowserHandler drives record browser sessions: the records screen with its
// step-by-step filter editor.
type BrowserHandler struct {
	service browserService
}

// NewBrowserHandler builds a new handler.
func NewBrowserHandler(service browserService) *BrowserHandler {
	return &BrowserHandler{service: service}
}

// Open godoc
// @Summary Open a record browser session for a form
// @Tags Browser
// @Produce json
// @Param formId path int true "Form ID"
// @Success 201 {object} response.Envelope
// @Router /forms/{formId}/browser [post]
func (h *BrowserHandler) Open(c *gin.Context) {
	formID, err := pathID(c, "formId")
	if err != nil {
		response.Error(c, err)
		return
	}
	view, err := h.service.Open(c.Request.Context(), formID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, view)
}

// View godoc
// @Summary Current session view
// @Tags Browser
// @Produce json
// @Param sessionId path string true "Session ID"
// @Success 200 {object} response.Envelope
// @Router /browser/{sessionId} [get]
func (h *BrowserHandler) View(c *gin.Context) {
	view, err := h.service.View(c.Request.Context(), c.Param("sessionId"))
	h.respond(c, view, err)
}

// Refresh godoc
// @Summary Re-fetch fields and records
// @Tags Browser
// @Produce json
// @Param sessionId path string true "Session ID"
// @Success 200 {object} response.Envelope
// @Router /browser/{sessionId}/refresh [post]
func (h *BrowserHandler) Refresh(c *gin.Context) {
	view, err := h.service.Refresh(c.Request.Context(), c.Param("sessionId"))
	h.respond(c, view, err)
}

// ChooseField godoc
// @Summary Choose the field of a new criterion
// @Tags Browser
// @Accept json
// @Produce json
// @Param sessionId path string true "Session ID"
// @Param payload body dto.ChooseFieldRequest true "Field"
// @Success 200 {object} response.Envelope
// @Router /browser/{sessionId}/field [post]
func (h *BrowserHandler) ChooseField(c *gin.Context) {
	var req dto.ChooseFieldRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid field choice"))
		return
	}
	view, err := h.service.ChooseField(c.Request.Context(), c.Param("sessionId"), req.FieldID)
	h.respond(c, view, err)
}

// ChooseOperator godoc
// @Summary Choose the operator of the criterion being edited
// @Tags Browser
// @Accept json
// @Produce json
// @Param sessionId path string true "Session ID"
// @Param payload body dto.ChooseOperatorRequest true "Operator"
// @Success 200 {object} response.Envelope
// @Router /browser/{sessionId}/operator [post]
func (h *BrowserHandler) ChooseOperator(c *gin.Context) {
	var req dto.ChooseOperatorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid operator choice"))
		return
	}
	view, err := h.service.ChooseOperator(c.Request.Context(), c.Param("sessionId"), req.Operator)
	h.respond(c, view, err)
}

// Confirm godoc
// @Summary Confirm the value and apply the criterion
// @Tags Browser
// @Accept json
// @Produce json
// @Param sessionId path string true "Session ID"
// @Param payload body dto.ConfirmCriterionRequest true "Value"
// @Success 200 {object} response.Envelope
// @Router /browser/{sessionId}/confirm [post]
func (h *BrowserHandler) Confirm(c *gin.Context) {
	var req dto.ConfirmCriterionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid criterion value"))
		return
	}
	view, err := h.service.Confirm(c.Request.Context(), c.Param("sessionId"), req.Value)
	h.respond(c, view, err)
}

// PutCriterion godoc
// @Summary Add or replace a field's criterion
// @Tags Browser
// @Accept json
// @Produce json
// @Param sessionId path string true "Session ID"
// @Param fieldId path int true "Field ID"
// @Param payload body dto.PutCriterionRequest true "Criterion"
// @Success 200 {object} response.Envelope
// @Router /browser/{sessionId}/criteria/{fieldId} [put]
func (h *BrowserHandler) PutCriterion(c *gin.Context) {
	fieldID, err := pathID(c, "fieldId")
	if err != nil {
		response.Error(c, err)
		return
	}
	var req dto.PutCriterionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid criterion payload"))
		return
	}
	view, err := h.service.PutCriterion(c.Request.Context(), c.Param("sessionId"), fieldID, req.Operator, req.Value)
	h.respond(c, view, err)
}

// RemoveCriterion godoc
// @Summary Remove a field's criterion
// @Tags Browser
// @Produce json
// @Param sessionId path string true "Session ID"
// @Param fieldId path int true "Field ID"
// @Success 200 {object} response.Envelope
// @Router /browser/{sessionId}/criteria/{fieldId} [delete]
func (h *BrowserHandler) RemoveCriterion(c *gin.Context) {
	fieldID, err := pathID(c, "fieldId")
	if err != nil {
		response.Error(c, err)
		return
	}
	view, err := h.service.RemoveCriterion(c.Request.Context(), c.Param("sessionId"), fieldID)
	h.respond(c, view, err)
}

// ClearFilters godoc
// @Summary Clear all criteria
// @Tags Browser
// @Produce json
// @Param sessionId path string true "Session ID"
// @Success 200 {object} response.Envelope
// @Router /browser/{sessionId}/criteria [delete]
func (h *BrowserHandler) ClearFilters(c *gin.Context) {
	view, err := h.service.ClearFilters(c.Request.Context(), c.Param("sessionId"))
	h.respond(c, view, err)
}

// Cancel godoc
// @Summary Cancel filter editing and drop every criterion
// @Tags Browser
// @Produce json
// @Param sessionId path string true "Session ID"
// @Success 200 {object} response.Envelope
// @Router /browser/{sessionId}/cancel [post]
func (h *BrowserHandler) Cancel(c *gin.Context) {
	view, err := h.service.Cancel(c.Request.Context(), c.Param("sessionId"))
	h.respond(c, view, err)
}

// DeleteRecord godoc
// @Summary Delete a record from the session's list
// @Tags Browser
// @Produce json
// @Param sessionId path string true "Session ID"
// @Param recordId path int true "Record ID"
// @Success 200 {object} response.Envelope
// @Router /browser/{sessionId}/records/{recordId} [delete]
func (h *BrowserHandler) DeleteRecord(c *gin.Context) {
	recordID, err := pathID(c, "recordId")
	if err != nil {
		response.Error(c, err)
		return
	}
	view, err := h.service.DeleteRecord(c.Request.Context(), c.Param("sessionId"), recordID)
	h.respond(c, view, err)
}

// Close godoc
// @Summary Close a browser session
// @Tags Browser
// @Param sessionId path string true "Session ID"
// @Success 204
// @Router /browser/{sessionId} [delete]
func (h *BrowserHandler) Close(c *gin.Context) {
	if err := h.service.Close(c.Request.Context(), c.Param("sessionId")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

func (h *BrowserHandler) respond(c *gin.Context, view *dto.BrowserView, err error) {
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, view, nil)
}
