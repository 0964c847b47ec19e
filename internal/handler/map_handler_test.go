package handler

import (
	"context"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/UniversalTze/FormBase/internal/dto"
	appErrors "github.com/UniversalTze/FormBase/pkg/errors"
)

type mapServiceMock struct {
	resp *dto.MapResponse
	err  error
}

func (m *mapServiceMock) Pins(ctx context.Context, formID int64) (*dto.MapResponse, error) {
	return m.resp, m.err
}

func TestMapHandlerPins(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewMapHandler(&mapServiceMock{resp: &dto.MapResponse{
		FormID: 7, FieldID: 4, FieldName: "Where",
		Pins: []dto.MapPin{{RecordID: 1, Title: "a", Latitude: -27.5, Longitude: 153}},
	}})

	c, w := newGinContext(http.MethodGet, "/forms/7/map", nil)
	c.Params = gin.Params{{Key: "formId", Value: "7"}}
	handler.Pins(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"latitude":-27.5`)
}

func TestMapHandlerWithoutLocationField(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewMapHandler(&mapServiceMock{err: appErrors.Clone(appErrors.ErrPreconditionFailed, "Form has no location field")})

	c, w := newGinContext(http.MethodGet, "/forms/7/map", nil)
	c.Params = gin.Params{{Key: "formId", Value: "7"}}
	handler.Pins(c)

	require.Equal(t, http.StatusPreconditionFailed, w.Code)
	assert.Equal(t, "Form has no location field", decodeEnvelope(t, w).Error.Message)
}
