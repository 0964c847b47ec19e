package repository

import (
	"context"
	"fmt"

	"github.com/UniversalTze/FormBase/internal/filter"
	"github.com/UniversalTze/FormBase/internal/models"
)

// RecordRepository reads and writes records through /record.
type RecordRepository struct {
	client restClient
}

// NewRecordRepository constructs the repository.
func NewRecordRepository(client restClient) *RecordRepository {
	return &RecordRepository{client: client}
}

// ListByForm returns every record of a form ordered by id.
func (r *RecordRepository) ListByForm(ctx context.Context, formID int64) ([]models.Record, error) {
	var records []models.Record
	if err := r.client.Get(ctx, fmt.Sprintf("/record?form_id=eq.%d&order=id.asc", formID), &records); err != nil {
		return nil, upstreamError(err, "list records")
	}
	return records, nil
}

// Query runs a compiled filter.
func (r *RecordRepository) Query(ctx context.Context, q filter.Query) ([]models.Record, error) {
	var records []models.Record
	if err := r.client.Get(ctx, "/record?"+q.Encode(), &records); err != nil {
		return nil, upstreamError(err, "filter records")
	}
	return records, nil
}

// Get fetches one record.
func (r *RecordRepository) Get(ctx context.Context, id int64) (*models.Record, error) {
	var records []models.Record
	if err := r.client.Get(ctx, fmt.Sprintf("/record?id=eq.%d", id), &records); err != nil {
		return nil, upstreamError(err, "get record")
	}
	if len(records) == 0 {
		return nil, notFound("record", id)
	}
	return &records[0], nil
}

// Create inserts a record. Values is sent as the JSON object itself.
func (r *RecordRepository) Create(ctx context.Context, record *models.Record) (*models.Record, error) {
	body := map[string]interface{}{
		"form_id": record.FormID,
		"values":  record.Values,
	}
	var created []models.Record
	if err := r.client.Post(ctx, "/record", body, &created); err != nil {
		return nil, upstreamError(err, "create record")
	}
	if len(created) == 0 {
		return record, nil
	}
	return &created[0], nil
}

// Delete removes a record.
func (r *RecordRepository) Delete(ctx context.Context, id int64) error {
	if err := r.client.Delete(ctx, fmt.Sprintf("/record?id=eq.%d", id)); err != nil {
		return upstreamError(err, "delete record")
	}
	return nil
}
