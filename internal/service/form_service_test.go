package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/UniversalTze/FormBase/internal/dto"
	"github.com/UniversalTze/FormBase/internal/events"
	"github.com/UniversalTze/FormBase/internal/models"
	appErrors "github.com/UniversalTze/FormBase/pkg/errors"
)

func TestFormServiceCreateTrimsAndPublishes(t *testing.T) {
	store := newFormStoreStub()
	bus := &busStub{}
	svc := NewFormService(store, bus, nil, nil)

	form, err := svc.Create(context.Background(), dto.CreateFormRequest{Name: "  Birds  ", Description: " spotted "})
	require.NoError(t, err)
	assert.Equal(t, "Birds", form.Name)
	assert.Equal(t, "spotted", form.Description)
	require.Len(t, bus.published, 1)
	assert.Equal(t, events.TopicForms, bus.published[0].Topic)
	assert.Equal(t, form.ID, bus.published[0].FormID)
}

func TestFormServiceCreateRequiresName(t *testing.T) {
	svc := NewFormService(newFormStoreStub(), nil, nil, nil)

	_, err := svc.Create(context.Background(), dto.CreateFormRequest{Name: "   "})
	require.Error(t, err)
	assert.True(t, errors.Is(err, appErrors.ErrValidation))
}

func TestFormServiceCreateSurvivesPublishFailure(t *testing.T) {
	svc := NewFormService(newFormStoreStub(), &busStub{err: errors.New("redis down")}, nil, nil)

	form, err := svc.Create(context.Background(), dto.CreateFormRequest{Name: "Trees"})
	require.NoError(t, err)
	assert.Equal(t, "Trees", form.Name)
}

func TestFormServiceUpdate(t *testing.T) {
	store := newFormStoreStub(models.Form{ID: 3, Name: "Old", Description: "keep"})
	svc := NewFormService(store, nil, nil, nil)

	name := " New "
	form, err := svc.Update(context.Background(), 3, dto.UpdateFormRequest{Name: &name})
	require.NoError(t, err)
	assert.Equal(t, "New", form.Name)
	assert.Equal(t, "keep", form.Description)

	form, err = svc.Update(context.Background(), 3, dto.UpdateFormRequest{})
	require.NoError(t, err)
	assert.Equal(t, "New", form.Name)
	assert.Len(t, store.patches, 1, "empty patch must not reach the store")

	blank := " "
	_, err = svc.Update(context.Background(), 3, dto.UpdateFormRequest{Name: &blank})
	assert.True(t, errors.Is(err, appErrors.ErrValidation))
}

func TestFormServicePassesThroughStoreErrors(t *testing.T) {
	store := newFormStoreStub()
	store.deleteErr = appErrors.Clone(appErrors.ErrNotFound, "form 9 not found")
	svc := NewFormService(store, nil, nil, nil)

	err := svc.Delete(context.Background(), 9)
	require.Error(t, err)
	assert.True(t, errors.Is(err, appErrors.ErrNotFound))

	store.listErr = errors.New("boom")
	_, err = svc.List(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, appErrors.ErrInternal))
}
