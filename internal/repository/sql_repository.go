package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/UniversalTze/FormBase/internal/filter"
	"github.com/UniversalTze/FormBase/internal/models"
	"github.com/UniversalTze/FormBase/pkg/postgrest"
)

const (
	formColumns   = `id, name, COALESCE(description, '') AS description, COALESCE(username, '') AS username`
	fieldColumns  = `id, form_id, name, field_type, COALESCE(options, 'null'::jsonb) AS options, required, is_num, COALESCE(order_index, 0) AS order_index, COALESCE(username, '') AS username`
	recordColumns = `id, form_id, COALESCE("values", 'null'::jsonb) AS "values", COALESCE(username, '') AS username`
)

// owner resolves the row owner the same way the REST client does: the caller's
// credentials when present, otherwise the configured default.
type owner string

func (o owner) of(ctx context.Context) string {
	if creds, ok := postgrest.CredentialsFromContext(ctx); ok && creds.Username != "" {
		return creds.Username
	}
	return string(o)
}

// FormSQLRepository stores forms directly in Postgres.
type FormSQLRepository struct {
	db    *sqlx.DB
	owner owner
}

// NewFormSQLRepository constructs the repository. defaultOwner scopes rows when
// the request carries no credentials.
func NewFormSQLRepository(db *sqlx.DB, defaultOwner string) *FormSQLRepository {
	return &FormSQLRepository{db: db, owner: owner(defaultOwner)}
}

// List returns the owner's forms, newest first.
func (r *FormSQLRepository) List(ctx context.Context) ([]models.Form, error) {
	query := `SELECT ` + formColumns + ` FROM form WHERE username = $1 ORDER BY id DESC`
	var forms []models.Form
	if err := r.db.SelectContext(ctx, &forms, query, r.owner.of(ctx)); err != nil {
		return nil, fmt.Errorf("list forms: %w", err)
	}
	return forms, nil
}

// Get fetches one form.
func (r *FormSQLRepository) Get(ctx context.Context, id int64) (*models.Form, error) {
	query := `SELECT ` + formColumns + ` FROM form WHERE id = $1 AND username = $2`
	var form models.Form
	if err := r.db.GetContext(ctx, &form, query, id, r.owner.of(ctx)); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, notFound("form", id)
		}
		return nil, fmt.Errorf("get form: %w", err)
	}
	return &form, nil
}

// Create inserts a form.
func (r *FormSQLRepository) Create(ctx context.Context, form *models.Form) (*models.Form, error) {
	query := `INSERT INTO form (name, description, username) VALUES ($1, $2, $3) RETURNING ` + formColumns
	var created models.Form
	if err := r.db.GetContext(ctx, &created, query, form.Name, form.Description, r.owner.of(ctx)); err != nil {
		return nil, fmt.Errorf("create form: %w", err)
	}
	return &created, nil
}

// Update applies a partial update.
func (r *FormSQLRepository) Update(ctx context.Context, id int64, patch models.FormPatch) (*models.Form, error) {
	if patch.Empty() {
		return r.Get(ctx, id)
	}
	sets := make([]string, 0, 2)
	args := make([]interface{}, 0, 4)
	if patch.Name != nil {
		args = append(args, *patch.Name)
		sets = append(sets, fmt.Sprintf("name = $%d", len(args)))
	}
	if patch.Description != nil {
		args = append(args, *patch.Description)
		sets = append(sets, fmt.Sprintf("description = $%d", len(args)))
	}
	args = append(args, id, r.owner.of(ctx))
	query := fmt.Sprintf(`UPDATE form SET %s WHERE id = $%d AND username = $%d RETURNING %s`,
		strings.Join(sets, ", "), len(args)-1, len(args), formColumns)

	var updated models.Form
	if err := r.db.GetContext(ctx, &updated, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, notFound("form", id)
		}
		return nil, fmt.Errorf("update form: %w", err)
	}
	return &updated, nil
}

// Delete removes a form.
func (r *FormSQLRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM form WHERE id = $1 AND username = $2`, id, r.owner.of(ctx))
	if err != nil {
		return fmt.Errorf("delete form: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return notFound("form", id)
	}
	return nil
}

// FieldSQLRepository stores field definitions directly in Postgres.
type FieldSQLRepository struct {
	db    *sqlx.DB
	owner owner
}

// NewFieldSQLRepository constructs the repository.
func NewFieldSQLRepository(db *sqlx.DB, defaultOwner string) *FieldSQLRepository {
	return &FieldSQLRepository{db: db, owner: owner(defaultOwner)}
}

// ListByForm returns a form's fields in creation order.
func (r *FieldSQLRepository) ListByForm(ctx context.Context, formID int64) ([]models.Field, error) {
	query := `SELECT ` + fieldColumns + ` FROM field WHERE form_id = $1 AND username = $2 ORDER BY id ASC`
	var fields []models.Field
	if err := r.db.SelectContext(ctx, &fields, query, formID, r.owner.of(ctx)); err != nil {
		return nil, fmt.Errorf("list fields: %w", err)
	}
	return fields, nil
}

// Create inserts a field definition.
func (r *FieldSQLRepository) Create(ctx context.Context, field *models.Field) (*models.Field, error) {
	query := `INSERT INTO field (form_id, name, field_type, options, required, is_num, order_index, username)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8) RETURNING ` + fieldColumns
	var options interface{}
	if len(field.Options) > 0 {
		options = string(field.Options)
	}
	var created models.Field
	err := r.db.GetContext(ctx, &created, query,
		field.FormID, field.Name, field.Kind.String(), options, field.Required, field.IsNum, field.OrderIndex, r.owner.of(ctx))
	if err != nil {
		return nil, fmt.Errorf("create field: %w", err)
	}
	return &created, nil
}

// RecordSQLRepository stores records directly in Postgres.
type RecordSQLRepository struct {
	db    *sqlx.DB
	owner owner
}

// NewRecordSQLRepository constructs the repository.
func NewRecordSQLRepository(db *sqlx.DB, defaultOwner string) *RecordSQLRepository {
	return &RecordSQLRepository{db: db, owner: owner(defaultOwner)}
}

// ListByForm returns every record of a form ordered by id.
func (r *RecordSQLRepository) ListByForm(ctx context.Context, formID int64) ([]models.Record, error) {
	return r.Query(ctx, filter.Query{FormID: formID})
}

// Query runs a compiled filter.
func (r *RecordSQLRepository) Query(ctx context.Context, q filter.Query) ([]models.Record, error) {
	where, args, err := renderConditions(q.Conditions, 3)
	if err != nil {
		return nil, fmt.Errorf("filter records: %w", err)
	}
	query := `SELECT ` + recordColumns + ` FROM record WHERE form_id = $1 AND username = $2`
	if where != "" {
		query += " AND " + where
	}
	query += " ORDER BY id ASC"

	var records []models.Record
	params := append([]interface{}{q.FormID, r.owner.of(ctx)}, args...)
	if err := r.db.SelectContext(ctx, &records, query, params...); err != nil {
		return nil, fmt.Errorf("filter records: %w", err)
	}
	return records, nil
}

// Get fetches one record.
func (r *RecordSQLRepository) Get(ctx context.Context, id int64) (*models.Record, error) {
	query := `SELECT ` + recordColumns + ` FROM record WHERE id = $1 AND username = $2`
	var record models.Record
	if err := r.db.GetContext(ctx, &record, query, id, r.owner.of(ctx)); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, notFound("record", id)
		}
		return nil, fmt.Errorf("get record: %w", err)
	}
	return &record, nil
}

// Create inserts a record.
func (r *RecordSQLRepository) Create(ctx context.Context, record *models.Record) (*models.Record, error) {
	query := `INSERT INTO record (form_id, "values", username) VALUES ($1, $2, $3) RETURNING ` + recordColumns
	var created models.Record
	if err := r.db.GetContext(ctx, &created, query, record.FormID, string(record.Values), r.owner.of(ctx)); err != nil {
		return nil, fmt.Errorf("create record: %w", err)
	}
	return &created, nil
}

// Delete removes a record.
func (r *RecordSQLRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM record WHERE id = $1 AND username = $2`, id, r.owner.of(ctx))
	if err != nil {
		return fmt.Errorf("delete record: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return notFound("record", id)
	}
	return nil
}
