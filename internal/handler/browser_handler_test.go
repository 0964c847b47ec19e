package handler

import (
	"context"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/UniversalTze/FormBase/internal/dto"
	"github.com/UniversalTze/FormBase/internal/filter"
	"github.com/UniversalTze/FormBase/internal/models"
	appErrors "github.com/UniversalTze/FormBase/pkg/errors"
)

type browserCall struct {
	method   string
	session  string
	fieldID  int64
	recordID int64
	op       models.Operator
	value    string
}

type browserServiceMock struct {
	view  *dto.BrowserView
	err   error
	calls []browserCall
}

func (m *browserServiceMock) record(call browserCall) (*dto.BrowserView, error) {
	m.calls = append(m.calls, call)
	return m.view, m.err
}

func (m *browserServiceMock) last() browserCall {
	return m.calls[len(m.calls)-1]
}

func (m *browserServiceMock) Open(ctx context.Context, formID int64) (*dto.BrowserView, error) {
	return m.record(browserCall{method: "Open"})
}

func (m *browserServiceMock) View(ctx context.Context, id string) (*dto.BrowserView, error) {
	return m.record(browserCall{method: "View", session: id})
}

func (m *browserServiceMock) Refresh(ctx context.Context, id string) (*dto.BrowserView, error) {
	return m.record(browserCall{method: "Refresh", session: id})
}

func (m *browserServiceMock) ChooseField(ctx context.Context, id string, fieldID int64) (*dto.BrowserView, error) {
	return m.record(browserCall{method: "ChooseField", session: id, fieldID: fieldID})
}

func (m *browserServiceMock) ChooseOperator(ctx context.Context, id string, op models.Operator) (*dto.BrowserView, error) {
	return m.record(browserCall{method: "ChooseOperator", session: id, op: op})
}

func (m *browserServiceMock) Confirm(ctx context.Context, id, value string) (*dto.BrowserView, error) {
	return m.record(browserCall{method: "Confirm", session: id, value: value})
}

func (m *browserServiceMock) PutCriterion(ctx context.Context, id string, fieldID int64, op models.Operator, value string) (*dto.BrowserView, error) {
	return m.record(browserCall{method: "PutCriterion", session: id, fieldID: fieldID, op: op, value: value})
}

func (m *browserServiceMock) RemoveCriterion(ctx context.Context, id string, fieldID int64) (*dto.BrowserView, error) {
	return m.record(browserCall{method: "RemoveCriterion", session: id, fieldID: fieldID})
}

func (m *browserServiceMock) ClearFilters(ctx context.Context, id string) (*dto.BrowserView, error) {
	return m.record(browserCall{method: "ClearFilters", session: id})
}

func (m *browserServiceMock) Cancel(ctx context.Context, id string) (*dto.BrowserView, error) {
	return m.record(browserCall{method: "Cancel", session: id})
}

func (m *browserServiceMock) DeleteRecord(ctx context.Context, id string, recordID int64) (*dto.BrowserView, error) {
	return m.record(browserCall{method: "DeleteRecord", session: id, recordID: recordID})
}

func (m *browserServiceMock) Close(ctx context.Context, id string) error {
	_, err := m.record(browserCall{method: "Close", session: id})
	return err
}

func TestBrowserHandlerOpen(t *testing.T) {
	gin.SetMode(gin.TestMode)
	svc := &browserServiceMock{view: &dto.BrowserView{SessionID: "s-1", FormID: 7, Stage: filter.StageIdle}}
	handler := NewBrowserHandler(svc)

	c, w := newGinContext(http.MethodPost, "/forms/7/browser", nil)
	c.Params = gin.Params{{Key: "formId", Value: "7"}}
	handler.Open(c)

	require.Equal(t, http.StatusCreated, w.Code)
	assert.Contains(t, w.Body.String(), `"session_id":"s-1"`)
}

func TestBrowserHandlerStepwiseEditing(t *testing.T) {
	gin.SetMode(gin.TestMode)
	svc := &browserServiceMock{view: &dto.BrowserView{SessionID: "s-1"}}
	handler := NewBrowserHandler(svc)
	params := gin.Params{{Key: "sessionId", Value: "s-1"}}

	c, w := newGinContext(http.MethodPost, "/browser/s-1/field", []byte(`{"field_id":2}`))
	c.Params = params
	handler.ChooseField(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, browserCall{method: "ChooseField", session: "s-1", fieldID: 2}, svc.last())

	c, w = newGinContext(http.MethodPost, "/browser/s-1/operator", []byte(`{"operator":"gt"}`))
	c.Params = params
	handler.ChooseOperator(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, models.OpGreater, svc.last().op)

	c, w = newGinContext(http.MethodPost, "/browser/s-1/confirm", []byte(`{"value":"30"}`))
	c.Params = params
	handler.Confirm(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "30", svc.last().value)
}

func TestBrowserHandlerPutCriterion(t *testing.T) {
	gin.SetMode(gin.TestMode)
	svc := &browserServiceMock{view: &dto.BrowserView{SessionID: "s-1", Filtered: true}}
	handler := NewBrowserHandler(svc)

	c, w := newGinContext(http.MethodPut, "/browser/s-1/criteria/1", []byte(`{"operator":"contains","value":"ann"}`))
	c.Params = gin.Params{{Key: "sessionId", Value: "s-1"}, {Key: "fieldId", Value: "1"}}
	handler.PutCriterion(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, browserCall{method: "PutCriterion", session: "s-1", fieldID: 1, op: models.OpContains, value: "ann"}, svc.last())
}

func TestBrowserHandlerDeleteRecordRejectsBadID(t *testing.T) {
	gin.SetMode(gin.TestMode)
	svc := &browserServiceMock{}
	handler := NewBrowserHandler(svc)

	c, w := newGinContext(http.MethodDelete, "/browser/s-1/records/x", nil)
	c.Params = gin.Params{{Key: "sessionId", Value: "s-1"}, {Key: "recordId", Value: "x"}}
	handler.DeleteRecord(c)

	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Empty(t, svc.calls)
}

func TestBrowserHandlerUnknownSession(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewBrowserHandler(&browserServiceMock{err: appErrors.Clone(appErrors.ErrNotFound, "browser session not found")})

	c, w := newGinContext(http.MethodGet, "/browser/nope", nil)
	c.Params = gin.Params{{Key: "sessionId", Value: "nope"}}
	handler.View(c)

	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestBrowserHandlerClose(t *testing.T) {
	gin.SetMode(gin.TestMode)
	svc := &browserServiceMock{}
	handler := NewBrowserHandler(svc)

	c, _ := newGinContext(http.MethodDelete, "/browser/s-1", nil)
	c.Params = gin.Params{{Key: "sessionId", Value: "s-1"}}
	handler.Close(c)

	assert.Equal(t, http.StatusNoContent, c.Writer.Status())
	assert.Equal(t, "Close", svc.last().method)
}
