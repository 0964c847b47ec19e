package dto

import (
	"time"

	"github.com/UniversalTze/FormBase/internal/models"
)

// ExportRequest is the POST /forms/:formId/exports payload. Filters use the
// same "<fieldId>:<operator>:<value>" form as the records listing.
type ExportRequest struct {
	Format  models.ExportFormat `json:"format" validate:"required,oneof=csv pdf"`
	Filters []string            `json:"filters" validate:"omitempty,max=50"`
}

// ExportJobResponse describes an export job.
type ExportJobResponse struct {
	ID          string              `json:"id"`
	FormID      int64               `json:"form_id"`
	Format      models.ExportFormat `json:"format"`
	Status      models.ExportStatus `json:"status"`
	ResultURL   string              `json:"result_url,omitempty"`
	Error       string              `json:"error,omitempty"`
	CreatedAt   time.Time           `json:"created_at"`
	FinishedAt  *time.Time          `json:"finished_at,omitempty"`
	RecordCount int                 `json:"record_count"`
}
