package repository

import (
	"context"
	"fmt"

	"github.com/UniversalTze/FormBase/internal/models"
)

// FormRepository reads and writes forms through the remote store's /form collection.
type FormRepository struct {
	client restClient
}

// NewFormRepository constructs the repository.
func NewFormRepository(client restClient) *FormRepository {
	return &FormRepository{client: client}
}

// List returns the caller's forms, newest first.
func (r *FormRepository) List(ctx context.Context) ([]models.Form, error) {
	var forms []models.Form
	if err := r.client.Get(ctx, "/form?order=id.desc", &forms); err != nil {
		return nil, upstreamError(err, "list forms")
	}
	return forms, nil
}

// Get fetches one form.
func (r *FormRepository) Get(ctx context.Context, id int64) (*models.Form, error) {
	var forms []models.Form
	if err := r.client.Get(ctx, fmt.Sprintf("/form?id=eq.%d", id), &forms); err != nil {
		return nil, upstreamError(err, "get form")
	}
	if len(forms) == 0 {
		return nil, notFound("form", id)
	}
	return &forms[0], nil
}

// Create inserts a form and returns the stored row.
func (r *FormRepository) Create(ctx context.Context, form *models.Form) (*models.Form, error) {
	body := map[string]interface{}{
		"name":        form.Name,
		"description": form.Description,
	}
	var created []models.Form
	if err := r.client.Post(ctx, "/form", body, &created); err != nil {
		return nil, upstreamError(err, "create form")
	}
	if len(created) == 0 {
		return form, nil
	}
	return &created[0], nil
}

// Update applies a partial update.
func (r *FormRepository) Update(ctx context.Context, id int64, patch models.FormPatch) (*models.Form, error) {
	var updated []models.Form
	if err := r.client.Patch(ctx, fmt.Sprintf("/form?id=eq.%d", id), patch, &updated); err != nil {
		return nil, upstreamError(err, "update form")
	}
	if len(updated) == 0 {
		return nil, notFound("form", id)
	}
	return &updated[0], nil
}

// Delete removes a form.
func (r *FormRepository) Delete(ctx context.Context, id int64) error {
	if err := r.client.Delete(ctx, fmt.Sprintf("/form?id=eq.%d", id)); err != nil {
		return upstreamError(err, "delete form")
	}
	return nil
}
