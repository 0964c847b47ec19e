package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/UniversalTze/FormBase/internal/dto"
	"github.com/UniversalTze/FormBase/pkg/response"
)

type mapService interface {
	Pins(ctx context.Context, formID int64) (*dto.MapResponse, error)
}

// MapHandler serves map pins for records with a location.
type MapHandler struct {
	service mapService
}

// NewMapHandler builds a new handler.
func NewMapHandler(service mapService) *MapHandler {
	return &MapHandler{service: service}
}

// Pins godoc
// @Summary Map pins for a form's records
// @Tags Records
// @Produce json
// @Param formId path int true "Form ID"
// @Success 200 {object} response.Envelope
// @Failure 412 {object} response.Envelope
// @Router /forms/{formId}/map [get]
func (h *MapHandler) Pins(c *gin.Context) {
	formID, err := pathID(c, "formId")
	if err != nil {
		response.Error(c, err)
		return
	}
	pins, err := h.service.Pins(c.Request.Context(), formID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, pins, nil)
}
