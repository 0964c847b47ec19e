package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/UniversalTze/FormBase/internal/codec"
	"github.com/UniversalTze/FormBase/internal/dto"
	"github.com/UniversalTze/FormBase/internal/events"
	"github.com/UniversalTze/FormBase/internal/filter"
	"github.com/UniversalTze/FormBase/internal/models"
	"github.com/UniversalTze/FormBase/internal/validation"
	appErrors "github.com/UniversalTze/FormBase/pkg/errors"
)

type recordStore interface {
	ListByForm(ctx context.Context, formID int64) ([]models.Record, error)
	Query(ctx context.Context, q filter.Query) ([]models.Record, error)
	Get(ctx context.Context, id int64) (*models.Record, error)
	Create(ctx context.Context, record *models.Record) (*models.Record, error)
	Delete(ctx context.Context, id int64) error
}

type fieldLister interface {
	ListByForm(ctx context.Context, formID int64) ([]models.Field, error)
}

type filterMetrics interface {
	RecordFilterQuery(ok bool)
}

// RecordService reads, filters and writes records.
type RecordService struct {
	records   recordStore
	fields    fieldLister
	bus       refreshPublisher
	metrics   filterMetrics
	validator *validator.Validate
	logger    *zap.Logger
}

// NewRecordService constructs a RecordService. metrics may be nil.
func NewRecordService(records recordStore, fields fieldLister, bus refreshPublisher, metrics filterMetrics, validate *validator.Validate, logger *zap.Logger) *RecordService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RecordService{records: records, fields: fields, bus: bus, metrics: metrics, validator: validate, logger: logger}
}

// Fields loads the form's field definitions.
func (s *RecordService) Fields(ctx context.Context, formID int64) ([]models.Field, error) {
	fields, err := s.fields.ListByForm(ctx, formID)
	if err != nil {
		return nil, storeError(err, "failed to list fields")
	}
	return fields, nil
}

// Records returns the form's records in id order, narrowed by criteria when any are set.
func (s *RecordService) Records(ctx context.Context, formID int64, criteria *filter.Criteria) ([]models.Record, error) {
	q, filtered := filter.Compile(formID, criteria)
	if !filtered {
		records, err := s.records.ListByForm(ctx, formID)
		if err != nil {
			return nil, storeError(err, "failed to list records")
		}
		return records, nil
	}
	records, err := s.records.Query(ctx, q)
	if s.metrics != nil {
		s.metrics.RecordFilterQuery(err == nil)
	}
	if err != nil {
		return nil, storeError(err, "failed to query records")
	}
	return records, nil
}

// List returns the decoded records of a form. filters use "<fieldId>:<operator>:<value>".
func (s *RecordService) List(ctx context.Context, formID int64, filters []string) ([]dto.RecordView, error) {
	fields, err := s.Fields(ctx, formID)
	if err != nil {
		return nil, err
	}
	criteria, err := ParseCriteria(fields, filters)
	if err != nil {
		return nil, err
	}
	records, err := s.Records(ctx, formID, criteria)
	if err != nil {
		return nil, err
	}
	return BuildViews(records, fields, s.logger), nil
}

// Create validates and stores a record, then announces the change.
func (s *RecordService) Create(ctx context.Context, formID int64, req dto.CreateRecordRequest) (*dto.RecordView, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, err.Error())
	}
	fields, err := s.Fields(ctx, formID)
	if err != nil {
		return nil, err
	}

	result := validation.Check(fields, req.Title, req.Values)
	if !result.OK() {
		return nil, appErrors.WithDetails(appErrors.ErrRequiredMissing, result.Message(), dto.MissingItemsDetails{
			Items:    result.Labels(),
			FieldIDs: result.MissingIDs(),
			Title:    result.TitleMissing,
		})
	}

	answers, err := s.answers(formID, fields, req)
	if err != nil {
		return nil, err
	}
	payload, err := codec.Encode(strings.TrimSpace(req.Title), answers)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to encode record")
	}

	created, err := s.records.Create(ctx, &models.Record{FormID: formID, Values: payload})
	if err != nil {
		return nil, storeError(err, "failed to create record")
	}
	publish(ctx, s.bus, s.logger, events.TopicRecords, formID)
	view := buildView(*created, fields, s.logger)
	return &view, nil
}

func (s *RecordService) answers(formID int64, fields []models.Field, req dto.CreateRecordRequest) (map[string]models.Answer, error) {
	byKey := models.FieldsByKey(fields)
	answers := make(map[string]models.Answer, len(req.Values))
	for key, raw := range req.Values {
		if !validation.Filled(raw) {
			continue
		}
		field, ok := byKey[key]
		if !ok {
			s.logger.Warn("dropping answer for unknown field", zap.Int64("form_id", formID), zap.String("key", key))
			continue
		}
		answer, err := codec.DecodeAnswer(field, raw)
		if err != nil {
			return nil, appErrors.Clone(appErrors.ErrValidation, err.Error())
		}
		if field.Kind == models.FieldKindDropdown && !isChoice(field, answer.Text) {
			return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("%q is not an option of %s", answer.Text, field.Label()))
		}
		answers[key] = answer
	}
	return answers, nil
}

func isChoice(field models.Field, value string) bool {
	for _, choice := range codec.ParseDropdownOptions(field.Options) {
		if choice == value {
			return true
		}
	}
	return false
}

// Get returns one decoded record.
func (s *RecordService) Get(ctx context.Context, id int64) (*dto.RecordView, error) {
	record, err := s.records.Get(ctx, id)
	if err != nil {
		return nil, storeError(err, "failed to load record")
	}
	fields, err := s.Fields(ctx, record.FormID)
	if err != nil {
		return nil, err
	}
	view := buildView(*record, fields, s.logger)
	return &view, nil
}

// Delete removes a record and announces the change for its form.
func (s *RecordService) Delete(ctx context.Context, id int64) error {
	record, err := s.records.Get(ctx, id)
	if err != nil {
		return storeError(err, "failed to load record")
	}
	if err := s.records.Delete(ctx, id); err != nil {
		return storeError(err, "failed to delete record")
	}
	publish(ctx, s.bus, s.logger, events.TopicRecords, record.FormID)
	return nil
}

// Copy returns the clipboard view of a record.
func (s *RecordService) Copy(ctx context.Context, id int64) (map[string]interface{}, error) {
	record, err := s.records.Get(ctx, id)
	if err != nil {
		return nil, storeError(err, "failed to load record")
	}
	fields, err := s.Fields(ctx, record.FormID)
	if err != nil {
		return nil, err
	}
	view, err := codec.CopyView(*record, fields)
	if err != nil {
		if errors.Is(err, codec.ErrMalformedPayload) {
			return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "record values could not be read")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to copy record")
	}
	return view, nil
}

// BuildViews decodes records against fields. Unreadable payloads render as an
// empty value set flagged malformed.
func BuildViews(records []models.Record, fields []models.Field, logger *zap.Logger) []dto.RecordView {
	if logger == nil {
		logger = zap.NewNop()
	}
	views := make([]dto.RecordView, 0, len(records))
	for _, r := range records {
		views = append(views, buildView(r, fields, logger))
	}
	return views
}

func buildView(record models.Record, fields []models.Field, logger *zap.Logger) dto.RecordView {
	view := dto.RecordView{ID: record.ID, FormID: record.FormID, Values: []codec.Rendered{}}
	values, err := codec.Decode(record.Values)
	if err != nil {
		logger.Warn("record values unreadable", zap.Int64("record_id", record.ID), zap.Error(err))
		view.Malformed = true
		return view
	}
	bound := codec.Bind(values, fields)
	for _, d := range bound.Dropped {
		logger.Debug("answer not shown", zap.Int64("record_id", record.ID), zap.String("key", d.Key), zap.String("reason", d.Reason))
	}
	view.Title = bound.Title
	view.Values = codec.RenderAll(bound)
	return view
}

// ParseCriteria reads "<fieldId>:<operator>:<value>" filters into criteria. The
// value may itself contain ':'. A later filter for the same field replaces an earlier one.
func ParseCriteria(fields []models.Field, filters []string) (*filter.Criteria, error) {
	byID := make(map[int64]models.Field, len(fields))
	for _, f := range fields {
		byID[f.ID] = f
	}
	session := filter.NewSession()
	for _, raw := range filters {
		if strings.TrimSpace(raw) == "" {
			continue
		}
		parts := strings.SplitN(raw, ":", 3)
		if len(parts) != 3 {
			return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("filter %q must look like <fieldId>:<operator>:<value>", raw))
		}
		id, err := strconv.ParseInt(strings.TrimSpace(parts[0]), 10, 64)
		if err != nil {
			return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("filter %q has an invalid field id", raw))
		}
		field, ok := byID[id]
		if !ok {
			return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("field %d does not belong to this form", id))
		}
		op := models.Operator(strings.TrimSpace(parts[1]))
		if _, err := session.Put(field, op, parts[2]); err != nil {
			return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("filter on %s: %v", field.Name, err))
		}
	}
	return session.Criteria(), nil
}
