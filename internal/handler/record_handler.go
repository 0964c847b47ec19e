package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/UniversalTze/FormBase/internal/dto"
	appErrors "github.com/UniversalTze/FormBase/pkg/errors"
	"github.com/UniversalTze/FormBase/pkg/response"
)

type recordService interface {
	List(ctx context.Context, formID int64, filters []string) ([]dto.RecordView, error)
	Create(ctx context.Context, formID int64, req dto.CreateRecordRequest) (*dto.RecordView, error)
	Get(ctx context.Context, id int64) (*dto.RecordView, error)
	Copy(ctx context.Context, id int64) (map[string]interface{}, error)
	Delete(ctx context.Context, id int64) error
}

// RecordHandler exposes record endpoints.
type RecordHandler struct {
	service recordService
}

// NewRecordHandler builds a new handler.
func NewRecordHandler(service recordService) *RecordHandler {
	return &RecordHandler{service: service}
}

// List godoc
// @Summary List a form's records
// @Description Each filter is fieldId:operator:value; all filters must match.
// @Tags Records
// @Produce json
// @Param formId path int true "Form ID"
// @Param filter query []string false "Filter criteria" collectionFormat(multi)
// @Success 200 {object} response.Envelope
// @Router /forms/{formId}/records [get]
func (h *RecordHandler) List(c *gin.Context) {
	formID, err := pathID(c, "formId")
	if err != nil {
		response.Error(c, err)
		return
	}
	filters := c.QueryArray("filter")
	records, err := h.service.List(c.Request.Context(), formID, filters)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, records, map[string]interface{}{
		"total":    len(records),
		"filtered": len(filters) > 0,
	})
}

// Create godoc
// @Summary Add a record to a form
// @Tags Records
// @Accept json
// @Produce json
// @Param formId path int true "Form ID"
// @Param payload body dto.CreateRecordRequest true "Record payload"
// @Success 201 {object} response.Envelope
// @Failure 422 {object} response.Envelope
// @Router /forms/{formId}/records [post]
func (h *RecordHandler) Create(c *gin.Context) {
	formID, err := pathID(c, "formId")
	if err != nil {
		response.Error(c, err)
		return
	}
	var req dto.CreateRecordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid record payload"))
		return
	}
	record, err := h.service.Create(c.Request.Context(), formID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, record)
}

// Get godoc
// @Summary Get record
// @Tags Records
// @Produce json
// @Param recordId path int true "Record ID"
// @Success 200 {object} response.Envelope
// @Router /records/{recordId} [get]
func (h *RecordHandler) Get(c *gin.Context) {
	id, err := pathID(c, "recordId")
	if err != nil {
		response.Error(c, err)
		return
	}
	record, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, record, nil)
}

// Copy godoc
// @Summary Get a record's values as clipboard JSON
// @Tags Records
// @Produce json
// @Param recordId path int true "Record ID"
// @Success 200 {object} response.Envelope
// @Router /records/{recordId}/copy [get]
func (h *RecordHandler) Copy(c *gin.Context) {
	id, err := pathID(c, "recordId")
	if err != nil {
		response.Error(c, err)
		return
	}
	view, err := h.service.Copy(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, view, nil)
}

// Delete godoc
// @Summary Delete record
// @Tags Records
// @Param recordId path int true "Record ID"
// @Success 204
// @Router /records/{recordId} [delete]
func (h *RecordHandler) Delete(c *gin.Context) {
	id, err := pathID(c, "recordId")
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
