package repository

import (
	"context"
	"fmt"

	"github.com/UniversalTze/FormBase/internal/models"
)

// FieldRepository reads and writes field definitions through /field.
type FieldRepository struct {
	client restClient
}

// NewFieldRepository constructs the repository.
func NewFieldRepository(client restClient) *FieldRepository {
	return &FieldRepository{client: client}
}

// ListByForm returns a form's fields in creation order.
func (r *FieldRepository) ListByForm(ctx context.Context, formID int64) ([]models.Field, error) {
	var fields []models.Field
	if err := r.client.Get(ctx, fmt.Sprintf("/field?form_id=eq.%d&order=id.asc", formID), &fields); err != nil {
		return nil, upstreamError(err, "list fields")
	}
	return fields, nil
}

// Create inserts a field definition.
func (r *FieldRepository) Create(ctx context.Context, field *models.Field) (*models.Field, error) {
	body := map[string]interface{}{
		"form_id":     field.FormID,
		"name":        field.Name,
		"field_type":  field.Kind,
		"options":     field.Options,
		"required":    field.Required,
		"is_num":      field.IsNum,
		"order_index": field.OrderIndex,
	}
	var created []models.Field
	if err := r.client.Post(ctx, "/field", body, &created); err != nil {
		return nil, upstreamError(err, "create field")
	}
	if len(created) == 0 {
		return field, nil
	}
	return &created[0], nil
}
