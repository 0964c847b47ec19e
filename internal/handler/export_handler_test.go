package handler

import (
	"context"
	"net/http"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/UniversalTze/FormBase/internal/dto"
	"github.com/UniversalTze/FormBase/internal/models"
	"github.com/UniversalTze/FormBase/internal/service"
	appErrors "github.com/UniversalTze/FormBase/pkg/errors"
)

type exportServiceMock struct {
	job         *dto.ExportJobResponse
	err         error
	gotReq      dto.ExportRequest
	download    *service.ExportDownload
	downloadErr error
	gotToken    string
}

func (m *exportServiceMock) Enqueue(ctx context.Context, formID int64, req dto.ExportRequest) (*dto.ExportJobResponse, error) {
	m.gotReq = req
	return m.job, m.err
}

func (m *exportServiceMock) Status(ctx context.Context, id string) (*dto.ExportJobResponse, error) {
	return m.job, m.err
}

func (m *exportServiceMock) Download(token string) (*service.ExportDownload, error) {
	m.gotToken = token
	return m.download, m.downloadErr
}

func TestExportHandlerCreateAccepted(t *testing.T) {
	gin.SetMode(gin.TestMode)
	svc := &exportServiceMock{job: &dto.ExportJobResponse{ID: "job-1", FormID: 7, Format: models.ExportFormatCSV, Status: models.ExportStatusQueued}}
	handler := NewExportHandler(svc)

	c, w := newGinContext(http.MethodPost, "/forms/7/exports", []byte(`{"format":"csv","filters":["2:gt:30"]}`))
	c.Params = gin.Params{{Key: "formId", Value: "7"}}
	handler.Create(c)

	require.Equal(t, http.StatusAccepted, w.Code)
	assert.Equal(t, models.ExportFormatCSV, svc.gotReq.Format)
	assert.Equal(t, []string{"2:gt:30"}, svc.gotReq.Filters)
}

func TestExportHandlerDisabled(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewExportHandler(nil)

	c, w := newGinContext(http.MethodGet, "/exports/job-1", nil)
	c.Params = gin.Params{{Key: "jobId", Value: "job-1"}}
	handler.Status(c)

	require.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, appErrors.ErrDisabled.Code, decodeEnvelope(t, w).Error.Code)
}

func TestExportHandlerDownloadRequiresToken(t *testing.T) {
	gin.SetMode(gin.TestMode)
	svc := &exportServiceMock{}
	handler := NewExportHandler(svc)

	c, w := newGinContext(http.MethodGet, "/exports/download", nil)
	handler.Download(c)

	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Empty(t, svc.gotToken)
}

func TestExportHandlerDownloadStreamsFile(t *testing.T) {
	gin.SetMode(gin.TestMode)
	path := filepath.Join(t.TempDir(), "form-7-job-1.csv")
	require.NoError(t, os.WriteFile(path, []byte("ID,Title\n1,a\n"), 0o600))
	file, err := os.Open(path)
	require.NoError(t, err)

	svc := &exportServiceMock{download: &service.ExportDownload{
		File:        file,
		Filename:    "form-7-job-1.csv",
		ContentType: "text/csv",
		ExpiresAt:   time.Now().Add(time.Hour),
	}}
	handler := NewExportHandler(svc)

	c, w := newGinContext(http.MethodGet, "/exports/download?token=abc", nil)
	handler.Download(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "abc", svc.gotToken)
	assert.Equal(t, "text/csv", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), "form-7-job-1.csv")
	assert.Equal(t, "ID,Title\n1,a\n", w.Body.String())
}

func TestExportHandlerDownloadExpired(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewExportHandler(&exportServiceMock{downloadErr: appErrors.Clone(appErrors.ErrUnauthorized, "download link expired")})

	c, w := newGinContext(http.MethodGet, "/exports/download?token=old", nil)
	handler.Download(c)

	require.Equal(t, http.StatusUnauthorized, w.Code)
}
