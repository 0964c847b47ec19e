package service

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/UniversalTze/FormBase/internal/codec"
	"github.com/UniversalTze/FormBase/internal/dto"
	"github.com/UniversalTze/FormBase/internal/filter"
	"github.com/UniversalTze/FormBase/internal/models"
	appErrors "github.com/UniversalTze/FormBase/pkg/errors"
	"github.com/UniversalTze/FormBase/pkg/export"
	"github.com/UniversalTze/FormBase/pkg/jobs"
	"github.com/UniversalTze/FormBase/pkg/postgrest"
	"github.com/UniversalTze/FormBase/pkg/storage"
)

// ExportJobType is the queue job type handled by ExportService.Process.
const ExportJobType = "record_export"

type exportSource interface {
	Fields(ctx context.Context, formID int64) ([]models.Field, error)
	Records(ctx context.Context, formID int64, criteria *filter.Criteria) ([]models.Record, error)
}

type fileStorage interface {
	Save(filename string, data []byte) (string, error)
	Open(filename string) (*os.File, error)
	Delete(filename string) error
	CleanupOlderThan(ttl time.Duration) ([]string, error)
}

type tokenSigner interface {
	Sign(exportID, path string) (string, time.Time, error)
	Verify(token string, allowExpired bool) (storage.DownloadClaims, error)
}

type jobDispatcher interface {
	Enqueue(job jobs.Job) error
}

type tableRenderer interface {
	ContentType() string
	Extension() string
	Render(t export.Table) ([]byte, error)
}

// ExportConfig tunes export behaviour.
type ExportConfig struct {
	APIPrefix string
	ResultTTL time.Duration
}

// ExportDownload is a resolved download.
type ExportDownload struct {
	File        *os.File
	Filename    string
	ContentType string
	ExpiresAt   time.Time
}

// ExportService renders a form's records to CSV or PDF on the job queue and
// serves the results through signed download tokens.
type ExportService struct {
	source    exportSource
	storage   fileStorage
	signer    tokenSigner
	queue     jobDispatcher
	renderers map[models.ExportFormat]tableRenderer
	validator *validator.Validate
	logger    *zap.Logger
	cfg       ExportConfig
	now       func() time.Time

	mu   sync.RWMutex
	jobs map[string]*models.ExportJob
}

// NewExportService constructs an ExportService. Register Process on the queue
// under ExportJobType and MarkFailed as its failure hook.
func NewExportService(source exportSource, files fileStorage, signer tokenSigner, queue jobDispatcher, validate *validator.Validate, logger *zap.Logger, cfg ExportConfig) *ExportService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.ResultTTL <= 0 {
		cfg.ResultTTL = 24 * time.Hour
	}
	return &ExportService{
		source:  source,
		storage: files,
		signer:  signer,
		queue:   queue,
		renderers: map[models.ExportFormat]tableRenderer{
			models.ExportFormatCSV: export.NewCSVExporter(),
			models.ExportFormatPDF: export.NewPDFExporter(),
		},
		validator: validate,
		logger:    logger,
		cfg:       cfg,
		now:       time.Now,
		jobs:      map[string]*models.ExportJob{},
	}
}

// Enqueue validates the request and queues an export job.
func (s *ExportService) Enqueue(ctx context.Context, formID int64, req dto.ExportRequest) (*dto.ExportJobResponse, error) {
	req.Format = models.ExportFormat(strings.ToLower(string(req.Format)))
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, err.Error())
	}
	fields, err := s.source.Fields(ctx, formID)
	if err != nil {
		return nil, err
	}
	if _, err := ParseCriteria(fields, req.Filters); err != nil {
		return nil, err
	}

	creds, _ := postgrest.CredentialsFromContext(ctx)
	job := &models.ExportJob{
		ID:        uuid.NewString(),
		FormID:    formID,
		Format:    req.Format,
		Filters:   append([]string(nil), req.Filters...),
		Owner:     creds.Username,
		Token:     creds.Token,
		Status:    models.ExportStatusQueued,
		CreatedAt: s.now().UTC(),
	}
	s.mu.Lock()
	s.jobs[job.ID] = job
	s.mu.Unlock()

	if err := s.queue.Enqueue(jobs.Job{ID: job.ID, Type: ExportJobType, Payload: job.ID}); err != nil {
		s.mu.Lock()
		delete(s.jobs, job.ID)
		s.mu.Unlock()
		if errors.Is(err, jobs.ErrQueueFull) {
			return nil, appErrors.Clone(appErrors.ErrUnavailable, "export queue is full, try again later")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to queue export")
	}
	s.logger.Info("export queued", zap.String("job_id", job.ID), zap.Int64("form_id", formID), zap.String("format", string(job.Format)))
	resp := jobResponse(*job)
	return &resp, nil
}

// Status returns a job visible to the caller.
func (s *ExportService) Status(ctx context.Context, id string) (*dto.ExportJobResponse, error) {
	job, ok := s.job(id)
	if !ok || !ownedBy(ctx, job) {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "export not found")
	}
	resp := jobResponse(job)
	return &resp, nil
}

// Process runs one queued export. It is the queue handler for ExportJobType.
func (s *ExportService) Process(ctx context.Context, j jobs.Job) error {
	id, _ := j.Payload.(string)
	job, ok := s.job(id)
	if !ok {
		return fmt.Errorf("export job %q not found", id)
	}
	s.update(id, func(job *models.ExportJob) { job.Status = models.ExportStatusProcessing })

	if job.Owner != "" || job.Token != "" {
		ctx = postgrest.WithCredentials(ctx, postgrest.Credentials{Token: job.Token, Username: job.Owner})
	}
	renderer, ok := s.renderers[job.Format]
	if !ok {
		return fmt.Errorf("unsupported export format %q", job.Format)
	}

	fields, err := s.source.Fields(ctx, job.FormID)
	if err != nil {
		return err
	}
	criteria, err := ParseCriteria(fields, job.Filters)
	if err != nil {
		return err
	}
	records, err := s.source.Records(ctx, job.FormID, criteria)
	if err != nil {
		return err
	}

	table := BuildTable(fmt.Sprintf("Form %d records", job.FormID), records, fields)
	payload, err := renderer.Render(table)
	if err != nil {
		return err
	}
	relPath, err := s.storage.Save(fmt.Sprintf("form-%d-%s.%s", job.FormID, job.ID, renderer.Extension()), payload)
	if err != nil {
		return err
	}
	token, _, err := s.signer.Sign(job.ID, relPath)
	if err != nil {
		return err
	}

	finished := s.now().UTC()
	s.update(id, func(job *models.ExportJob) {
		job.Status = models.ExportStatusFinished
		job.Path = relPath
		job.ResultURL = s.downloadURL(token)
		job.RecordCount = len(records)
		job.FinishedAt = &finished
		job.Error = ""
	})
	s.logger.Info("export finished", zap.String("job_id", id), zap.Int("records", len(records)))
	return nil
}

// MarkFailed records a job that exhausted its retries.
func (s *ExportService) MarkFailed(j jobs.Job, err error) {
	id, _ := j.Payload.(string)
	finished := s.now().UTC()
	s.update(id, func(job *models.ExportJob) {
		job.Status = models.ExportStatusFailed
		job.Error = err.Error()
		job.FinishedAt = &finished
	})
	s.logger.Warn("export failed", zap.String("job_id", id), zap.Error(err))
}

// Download resolves a signed token to the stored file.
func (s *ExportService) Download(token string) (*ExportDownload, error) {
	claims, err := s.signer.Verify(token, false)
	if err != nil {
		if errors.Is(err, storage.ErrTokenExpired) {
			return nil, appErrors.Clone(appErrors.ErrUnauthorized, "download link expired")
		}
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "invalid download link")
	}
	job, ok := s.job(claims.ExportID)
	if !ok || job.Status != models.ExportStatusFinished || job.Path != claims.Path {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "export not found")
	}
	file, err := s.storage.Open(claims.Path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "export file no longer available")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to open export")
	}
	contentType := "application/octet-stream"
	if r, ok := s.renderers[job.Format]; ok {
		contentType = r.ContentType()
	}
	return &ExportDownload{
		File:        file,
		Filename:    filepath.Base(claims.Path),
		ContentType: contentType,
		ExpiresAt:   claims.ExpiresAt,
	}, nil
}

// Cleanup removes stored files and finished jobs older than ttl, defaulting to
// the configured ResultTTL when ttl <= 0.
func (s *ExportService) Cleanup(ttl time.Duration) (int, error) {
	if ttl <= 0 {
		ttl = s.cfg.ResultTTL
	}
	removed, err := s.storage.CleanupOlderThan(ttl)
	if err != nil {
		return 0, err
	}
	cutoff := s.now().Add(-ttl)
	s.mu.Lock()
	for id, job := range s.jobs {
		if job.FinishedAt != nil && job.FinishedAt.Before(cutoff) {
			delete(s.jobs, id)
		}
	}
	s.mu.Unlock()
	return len(removed), nil
}

func (s *ExportService) job(id string) (models.ExportJob, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	job, ok := s.jobs[id]
	if !ok {
		return models.ExportJob{}, false
	}
	return *job, true
}

func (s *ExportService) update(id string, fn func(*models.ExportJob)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if job, ok := s.jobs[id]; ok {
		fn(job)
	}
}

func (s *ExportService) downloadURL(token string) string {
	prefix := strings.TrimRight(s.cfg.APIPrefix, "/")
	if prefix == "" {
		prefix = "/api/v1"
	}
	return fmt.Sprintf("%s/exports/download?token=%s", prefix, url.QueryEscape(token))
}

func ownedBy(ctx context.Context, job models.ExportJob) bool {
	if job.Owner == "" {
		return true
	}
	creds, _ := postgrest.CredentialsFromContext(ctx)
	return creds.Username == job.Owner
}

func jobResponse(job models.ExportJob) dto.ExportJobResponse {
	return dto.ExportJobResponse{
		ID:          job.ID,
		FormID:      job.FormID,
		Format:      job.Format,
		Status:      job.Status,
		ResultURL:   job.ResultURL,
		Error:       job.Error,
		CreatedAt:   job.CreatedAt,
		FinishedAt:  job.FinishedAt,
		RecordCount: job.RecordCount,
	}
}

// BuildTable lays records out as ID, Title and one column per field in display
// order. Unreadable records keep their id with empty cells.
func BuildTable(title string, records []models.Record, fields []models.Field) export.Table {
	ordered := codec.Ordered(fields)
	table := export.Table{Title: title, Columns: []string{"ID", "Title"}}
	for _, f := range ordered {
		table.Columns = append(table.Columns, f.Name)
	}
	for _, r := range records {
		row := make([]string, len(table.Columns))
		row[0] = strconv.FormatInt(r.ID, 10)
		values, err := codec.Decode(r.Values)
		if err == nil {
			bound := codec.Bind(values, ordered)
			row[1] = bound.Title
			for i, f := range ordered {
				if answer, ok := bound.Find(f.ID); ok {
					row[i+2] = cellText(codec.RenderValue(answer.Field, answer.Answer))
				}
			}
		}
		table.Rows = append(table.Rows, row)
	}
	return table
}

func cellText(r codec.Rendered) string {
	switch {
	case r.ImageURI != "":
		return r.ImageURI
	case r.Latitude != nil && r.Longitude != nil:
		return strconv.FormatFloat(*r.Latitude, 'f', -1, 64) + ", " + strconv.FormatFloat(*r.Longitude, 'f', -1, 64)
	default:
		return r.Text
	}
}
