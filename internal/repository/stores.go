package repository

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/UniversalTze/FormBase/internal/filter"
	"github.com/UniversalTze/FormBase/internal/models"
)

// FormStore persists forms.
type FormStore interface {
	List(ctx context.Context) ([]models.Form, error)
	Get(ctx context.Context, id int64) (*models.Form, error)
	Create(ctx context.Context, form *models.Form) (*models.Form, error)
	Update(ctx context.Context, id int64, patch models.FormPatch) (*models.Form, error)
	Delete(ctx context.Context, id int64) error
}

// FieldStore persists field definitions.
type FieldStore interface {
	ListByForm(ctx context.Context, formID int64) ([]models.Field, error)
	Create(ctx context.Context, field *models.Field) (*models.Field, error)
}

// RecordStore persists records and runs filtered queries.
type RecordStore interface {
	ListByForm(ctx context.Context, formID int64) ([]models.Record, error)
	Query(ctx context.Context, q filter.Query) ([]models.Record, error)
	Get(ctx context.Context, id int64) (*models.Record, error)
	Create(ctx context.Context, record *models.Record) (*models.Record, error)
	Delete(ctx context.Context, id int64) error
}

var (
	_ FormStore   = (*FormRepository)(nil)
	_ FormStore   = (*FormSQLRepository)(nil)
	_ FieldStore  = (*FieldRepository)(nil)
	_ FieldStore  = (*FieldSQLRepository)(nil)
	_ RecordStore = (*RecordRepository)(nil)
	_ RecordStore = (*RecordSQLRepository)(nil)
)

// Stores bundles the three stores of one backend.
type Stores struct {
	Forms   FormStore
	Fields  FieldStore
	Records RecordStore
}

// NewRESTStores builds stores backed by the remote PostgREST-style service.
func NewRESTStores(client restClient) Stores {
	return Stores{
		Forms:   NewFormRepository(client),
		Fields:  NewFieldRepository(client),
		Records: NewRecordRepository(client),
	}
}

// NewSQLStores builds stores backed by a direct Postgres connection. Rows are
// stamped with owner unless the request carries its own credentials.
func NewSQLStores(db *sqlx.DB, owner string) Stores {
	return Stores{
		Forms:   NewFormSQLRepository(db, owner),
		Fields:  NewFieldSQLRepository(db, owner),
		Records: NewRecordSQLRepository(db, owner),
	}
}
