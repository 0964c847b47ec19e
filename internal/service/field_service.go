package service

import (
	"context"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/UniversalTze/FormBase/internal/codec"
	"github.com/UniversalTze/FormBase/internal/dto"
	"github.com/UniversalTze/FormBase/internal/events"
	"github.com/UniversalTze/FormBase/internal/models"
	appErrors "github.com/UniversalTze/FormBase/pkg/errors"
)

type fieldStore interface {
	ListByForm(ctx context.Context, formID int64) ([]models.Field, error)
	Create(ctx context.Context, field *models.Field) (*models.Field, error)
}

type formReader interface {
	Get(ctx context.Context, id int64) (*models.Form, error)
}

// FieldService manages the fields of a form.
type FieldService struct {
	fields    fieldStore
	forms     formReader
	bus       refreshPublisher
	validator *validator.Validate
	logger    *zap.Logger
}

// NewFieldService constructs a FieldService.
func NewFieldService(fields fieldStore, forms formReader, bus refreshPublisher, validate *validator.Validate, logger *zap.Logger) *FieldService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FieldService{fields: fields, forms: forms, bus: bus, validator: validate, logger: logger}
}

// List returns the form's fields in display order with dropdown choices decoded.
func (s *FieldService) List(ctx context.Context, formID int64) ([]dto.FieldResponse, error) {
	fields, err := s.fields.ListByForm(ctx, formID)
	if err != nil {
		return nil, storeError(err, "failed to list fields")
	}
	ordered := codec.Ordered(fields)
	out := make([]dto.FieldResponse, 0, len(ordered))
	for _, f := range ordered {
		out = append(out, fieldResponse(f))
	}
	return out, nil
}

// Create adds a field. Options are stored only for dropdowns with at least one
// choice, and is_num is dropped for non-text kinds.
func (s *FieldService) Create(ctx context.Context, formID int64, req dto.CreateFieldRequest) (*dto.FieldResponse, error) {
	req.Name = strings.TrimSpace(req.Name)
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, err.Error())
	}
	kind, err := models.ParseFieldKind(req.FieldType)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, err.Error())
	}

	field := &models.Field{
		FormID:   formID,
		Name:     req.Name,
		Kind:     kind,
		Required: req.Required,
		IsNum:    req.IsNum && kind.IsText(),
	}
	if kind == models.FieldKindDropdown {
		options, err := codec.BuildDropdownOptions(req.Choices)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to encode dropdown options")
		}
		if options == nil {
			return nil, appErrors.Clone(appErrors.ErrValidation, "dropdown fields need at least one choice")
		}
		field.Options = options
	} else if len(req.Choices) > 0 {
		s.logger.Debug("ignoring choices for non-dropdown field", zap.Int64("form_id", formID), zap.String("field_type", kind.String()))
	}

	if s.forms != nil {
		if _, err := s.forms.Get(ctx, formID); err != nil {
			return nil, storeError(err, "failed to load form")
		}
	}
	if req.OrderIndex != nil {
		field.OrderIndex = *req.OrderIndex
	} else {
		existing, err := s.fields.ListByForm(ctx, formID)
		if err != nil {
			return nil, storeError(err, "failed to list fields")
		}
		field.OrderIndex = nextOrderIndex(existing)
	}

	created, err := s.fields.Create(ctx, field)
	if err != nil {
		return nil, storeError(err, "failed to create field")
	}
	publish(ctx, s.bus, s.logger, events.TopicFields, formID)
	resp := fieldResponse(*created)
	return &resp, nil
}

func fieldResponse(f models.Field) dto.FieldResponse {
	choices := []string{}
	if f.Kind == models.FieldKindDropdown {
		choices = codec.ParseDropdownOptions(f.Options)
	}
	return dto.FieldResponse{Field: f, Choices: choices, Filterable: f.Kind.Filterable()}
}

func nextOrderIndex(fields []models.Field) int {
	next := 0
	for _, f := range fields {
		if f.OrderIndex >= next {
			next = f.OrderIndex + 1
		}
	}
	return next
}
