package service

import (
	"context"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/UniversalTze/FormBase/internal/dto"
	"github.com/UniversalTze/FormBase/internal/events"
	"github.com/UniversalTze/FormBase/internal/models"
	appErrors "github.com/UniversalTze/FormBase/pkg/errors"
)

type formStore interface {
	List(ctx context.Context) ([]models.Form, error)
	Get(ctx context.Context, id int64) (*models.Form, error)
	Create(ctx context.Context, form *models.Form) (*models.Form, error)
	Update(ctx context.Context, id int64, patch models.FormPatch) (*models.Form, error)
	Delete(ctx context.Context, id int64) error
}

type refreshPublisher interface {
	Publish(ctx context.Context, topic events.Topic, formID int64) (events.Signal, error)
}

// FormService manages forms.
type FormService struct {
	forms     formStore
	bus       refreshPublisher
	validator *validator.Validate
	logger    *zap.Logger
}

// NewFormService constructs a FormService.
func NewFormService(forms formStore, bus refreshPublisher, validate *validator.Validate, logger *zap.Logger) *FormService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FormService{forms: forms, bus: bus, validator: validate, logger: logger}
}

// List returns the caller's forms, newest first.
func (s *FormService) List(ctx context.Context) ([]models.Form, error) {
	forms, err := s.forms.List(ctx)
	if err != nil {
		return nil, storeError(err, "failed to list forms")
	}
	if forms == nil {
		forms = []models.Form{}
	}
	return forms, nil
}

// Get returns one form.
func (s *FormService) Get(ctx context.Context, id int64) (*models.Form, error) {
	form, err := s.forms.Get(ctx, id)
	if err != nil {
		return nil, storeError(err, "failed to load form")
	}
	return form, nil
}

// Create adds a form.
func (s *FormService) Create(ctx context.Context, req dto.CreateFormRequest) (*models.Form, error) {
	req.Name = strings.TrimSpace(req.Name)
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, err.Error())
	}
	form, err := s.forms.Create(ctx, &models.Form{Name: req.Name, Description: strings.TrimSpace(req.Description)})
	if err != nil {
		return nil, storeError(err, "failed to create form")
	}
	publish(ctx, s.bus, s.logger, events.TopicForms, form.ID)
	return form, nil
}

// Update applies a partial update; an empty patch returns the form unchanged.
func (s *FormService) Update(ctx context.Context, id int64, req dto.UpdateFormRequest) (*models.Form, error) {
	if req.Name != nil {
		trimmed := strings.TrimSpace(*req.Name)
		if trimmed == "" {
			return nil, appErrors.Clone(appErrors.ErrValidation, "form name cannot be blank")
		}
		req.Name = &trimmed
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, err.Error())
	}
	patch := req.Patch()
	if patch.Empty() {
		return s.Get(ctx, id)
	}
	form, err := s.forms.Update(ctx, id, patch)
	if err != nil {
		return nil, storeError(err, "failed to update form")
	}
	publish(ctx, s.bus, s.logger, events.TopicForms, form.ID)
	return form, nil
}

// Delete removes a form.
func (s *FormService) Delete(ctx context.Context, id int64) error {
	if err := s.forms.Delete(ctx, id); err != nil {
		return storeError(err, "failed to delete form")
	}
	publish(ctx, s.bus, s.logger, events.TopicForms, id)
	return nil
}

// storeError passes typed errors through and wraps anything else as internal.
func storeError(err error, message string) error {
	var appErr *appErrors.Error
	if errors.As(err, &appErr) {
		return appErr
	}
	return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, message)
}

// publish announces a change. A failed publish never fails the mutation that caused it.
func publish(ctx context.Context, bus refreshPublisher, logger *zap.Logger, topic events.Topic, formID int64) {
	if bus == nil {
		return
	}
	if _, err := bus.Publish(ctx, topic, formID); err != nil {
		logger.Warn("publish refresh signal", zap.String("topic", string(topic)), zap.Int64("form_id", formID), zap.Error(err))
	}
}
