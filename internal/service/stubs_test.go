package service

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/UniversalTze/FormBase/internal/events"
	"github.com/UniversalTze/FormBase/internal/filter"
	"github.com/UniversalTze/FormBase/internal/models"
	appErrors "github.com/UniversalTze/FormBase/pkg/errors"
)

type formStoreStub struct {
	forms     map[int64]*models.Form
	nextID    int64
	listErr   error
	createErr error
	updateErr error
	deleteErr error
	patches   []models.FormPatch
	deleted   []int64
}

func newFormStoreStub(forms ...models.Form) *formStoreStub {
	s := &formStoreStub{forms: map[int64]*models.Form{}, nextID: 100}
	for i := range forms {
		f := forms[i]
		s.forms[f.ID] = &f
	}
	return s
}

func (s *formStoreStub) List(ctx context.Context) ([]models.Form, error) {
	if s.listErr != nil {
		return nil, s.listErr
	}
	out := make([]models.Form, 0, len(s.forms))
	for _, f := range s.forms {
		out = append(out, *f)
	}
	return out, nil
}

func (s *formStoreStub) Get(ctx context.Context, id int64) (*models.Form, error) {
	f, ok := s.forms[id]
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "form not found")
	}
	copied := *f
	return &copied, nil
}

func (s *formStoreStub) Create(ctx context.Context, form *models.Form) (*models.Form, error) {
	if s.createErr != nil {
		return nil, s.createErr
	}
	s.nextID++
	created := *form
	created.ID = s.nextID
	s.forms[created.ID] = &created
	return &created, nil
}

func (s *formStoreStub) Update(ctx context.Context, id int64, patch models.FormPatch) (*models.Form, error) {
	s.patches = append(s.patches, patch)
	if s.updateErr != nil {
		return nil, s.updateErr
	}
	f, ok := s.forms[id]
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "form not found")
	}
	if patch.Name != nil {
		f.Name = *patch.Name
	}
	if patch.Description != nil {
		f.Description = *patch.Description
	}
	copied := *f
	return &copied, nil
}

func (s *formStoreStub) Delete(ctx context.Context, id int64) error {
	if s.deleteErr != nil {
		return s.deleteErr
	}
	s.deleted = append(s.deleted, id)
	delete(s.forms, id)
	return nil
}

type fieldStoreStub struct {
	mu        sync.Mutex
	fields    []models.Field
	listErr   error
	createErr error
	created   []models.Field
	listCalls int
}

func (s *fieldStoreStub) ListByForm(ctx context.Context, formID int64) ([]models.Field, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listCalls++
	if s.listErr != nil {
		return nil, s.listErr
	}
	out := []models.Field{}
	for _, f := range s.fields {
		if f.FormID == formID {
			out = append(out, f)
		}
	}
	return out, nil
}

func (s *fieldStoreStub) Create(ctx context.Context, field *models.Field) (*models.Field, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.createErr != nil {
		return nil, s.createErr
	}
	created := *field
	created.ID = int64(200 + len(s.created))
	s.created = append(s.created, created)
	s.fields = append(s.fields, created)
	return &created, nil
}

type recordStoreStub struct {
	mu          sync.Mutex
	records     []models.Record
	queryResult []models.Record
	listErr     error
	queryErr    error
	createErr   error
	deleteErr   error
	listCalls   int
	queries     []filter.Query
	created     []models.Record
	deleted     []int64
}

func (s *recordStoreStub) ListByForm(ctx context.Context, formID int64) ([]models.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listCalls++
	if s.listErr != nil {
		return nil, s.listErr
	}
	out := []models.Record{}
	for _, r := range s.records {
		if r.FormID == formID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (s *recordStoreStub) Query(ctx context.Context, q filter.Query) ([]models.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.queries = append(s.queries, q)
	if s.queryErr != nil {
		return nil, s.queryErr
	}
	return append([]models.Record(nil), s.queryResult...), nil
}

func (s *recordStoreStub) Get(ctx context.Context, id int64) (*models.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range s.records {
		if r.ID == id {
			copied := r
			return &copied, nil
		}
	}
	return nil, appErrors.Clone(appErrors.ErrNotFound, "record not found")
}

func (s *recordStoreStub) Create(ctx context.Context, record *models.Record) (*models.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.createErr != nil {
		return nil, s.createErr
	}
	created := *record
	created.ID = int64(500 + len(s.created))
	s.created = append(s.created, created)
	s.records = append(s.records, created)
	return &created, nil
}

func (s *recordStoreStub) Delete(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.deleteErr != nil {
		return s.deleteErr
	}
	s.deleted = append(s.deleted, id)
	kept := s.records[:0]
	for _, r := range s.records {
		if r.ID != id {
			kept = append(kept, r)
		}
	}
	s.records = kept
	return nil
}

func (s *recordStoreStub) setRecords(records []models.Record) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = records
}

func (s *recordStoreStub) calls() (int, int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.listCalls, len(s.queries)
}

type busStub struct {
	mu        sync.Mutex
	published []events.Signal
	err       error
}

func (b *busStub) Publish(ctx context.Context, topic events.Topic, formID int64) (events.Signal, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.err != nil {
		return events.Signal{}, b.err
	}
	sig := events.Signal{Topic: topic, FormID: formID, Version: uint64(len(b.published) + 1)}
	b.published = append(b.published, sig)
	return sig, nil
}

type metricsStub struct {
	mu     sync.Mutex
	ok     int
	failed int
	opened int
	closed int
}

func (m *metricsStub) RecordFilterQuery(ok bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if ok {
		m.ok++
	} else {
		m.failed++
	}
}

func (m *metricsStub) SessionOpened() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.opened++
}

func (m *metricsStub) SessionClosed() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed++
}

func testFields() []models.Field {
	return []models.Field{
		{ID: 1, FormID: 7, Name: "Name", Kind: models.FieldKindSingleLineText, Required: true, OrderIndex: 0},
		{ID: 2, FormID: 7, Name: "Age", Kind: models.FieldKindSingleLineText, IsNum: true, Required: true, OrderIndex: 1},
		{ID: 3, FormID: 7, Name: "Colour", Kind: models.FieldKindDropdown, Options: json.RawMessage(`{"dropdown":["red","blue"]}`), OrderIndex: 2},
		{ID: 4, FormID: 7, Name: "Where", Kind: models.FieldKindLocation, OrderIndex: 3},
		{ID: 5, FormID: 7, Name: "Picture", Kind: models.FieldKindPhoto, OrderIndex: 4},
	}
}

func testRecord(id int64, payload string) models.Record {
	return models.Record{ID: id, FormID: 7, Values: json.RawMessage(payload)}
}
