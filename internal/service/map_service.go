package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/UniversalTze/FormBase/internal/codec"
	"github.com/UniversalTze/FormBase/internal/dto"
	"github.com/UniversalTze/FormBase/internal/models"
	appErrors "github.com/UniversalTze/FormBase/pkg/errors"
)

type recordLister interface {
	ListByForm(ctx context.Context, formID int64) ([]models.Record, error)
}

// MapService places records on a map using the form's first location field.
type MapService struct {
	records recordLister
	fields  fieldLister
	logger  *zap.Logger
}

// NewMapService constructs a MapService.
func NewMapService(records recordLister, fields fieldLister, logger *zap.Logger) *MapService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MapService{records: records, fields: fields, logger: logger}
}

// Pins returns one pin per record that answered the location field. Records
// without a readable location are left off the map.
func (s *MapService) Pins(ctx context.Context, formID int64) (*dto.MapResponse, error) {
	fields, err := s.fields.ListByForm(ctx, formID)
	if err != nil {
		return nil, storeError(err, "failed to list fields")
	}
	location, ok := firstLocationField(fields)
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "Form has no location field")
	}

	records, err := s.records.ListByForm(ctx, formID)
	if err != nil {
		return nil, storeError(err, "failed to list records")
	}

	resp := &dto.MapResponse{FormID: formID, FieldID: location.ID, FieldName: location.Name, Pins: []dto.MapPin{}}
	for _, r := range records {
		values, err := codec.Decode(r.Values)
		if err != nil {
			s.logger.Warn("record values unreadable", zap.Int64("record_id", r.ID), zap.Error(err))
			continue
		}
		bound := codec.Bind(values, fields)
		answer, ok := bound.Find(location.ID)
		if !ok || answer.Answer.Location == nil {
			continue
		}
		resp.Pins = append(resp.Pins, dto.MapPin{
			RecordID:  r.ID,
			Title:     bound.Title,
			Latitude:  answer.Answer.Location.Latitude,
			Longitude: answer.Answer.Location.Longitude,
			Rows:      codec.RenderAll(bound),
		})
	}
	return resp, nil
}

func firstLocationField(fields []models.Field) (models.Field, bool) {
	for _, f := range codec.Ordered(fields) {
		if f.Kind == models.FieldKindLocation {
			return f, true
		}
	}
	return models.Field{}, false
}
