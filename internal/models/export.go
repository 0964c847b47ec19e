package models

import "time"

// ExportFormat is the file type of a record export.
type ExportFormat string

const (
	ExportFormatCSV ExportFormat = "csv"
	ExportFormatPDF ExportFormat = "pdf"
)

// ExportStatus tracks an export job through the queue.
type ExportStatus string

const (
	ExportStatusQueued     ExportStatus = "queued"
	ExportStatusProcessing ExportStatus = "processing"
	ExportStatusFinished   ExportStatus = "finished"
	ExportStatusFailed     ExportStatus = "failed"
)

// ExportJob is one requested export of a form's records.
type ExportJob struct {
	ID          string
	FormID      int64
	Format      ExportFormat
	Filters     []string
	Owner       string
	Token       string
	Status      ExportStatus
	Path        string
	ResultURL   string
	Error       string
	RecordCount int
	CreatedAt   time.Time
	FinishedAt  *time.Time
}
