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

func TestFieldServiceCreateDropdown(t *testing.T) {
	fields := &fieldStoreStub{fields: testFields()}
	bus := &busStub{}
	svc := NewFieldService(fields, newFormStoreStub(models.Form{ID: 7}), bus, nil, nil)

	resp, err := svc.Create(context.Background(), 7, dto.CreateFieldRequest{
		Name:      "Size",
		FieldType: "dropdown",
		Choices:   []string{" small ", "", "large"},
	})
	require.NoError(t, err)
	assert.Equal(t, models.FieldKindDropdown, resp.Kind)
	assert.JSONEq(t, `{"dropdown":["small","large"]}`, string(resp.Options))
	assert.Equal(t, []string{"small", "large"}, resp.Choices)
	assert.Equal(t, 5, resp.OrderIndex)
	require.Len(t, bus.published, 1)
	assert.Equal(t, events.TopicFields, bus.published[0].Topic)
}

func TestFieldServiceCreateDropdownNeedsChoices(t *testing.T) {
	svc := NewFieldService(&fieldStoreStub{}, nil, nil, nil, nil)

	_, err := svc.Create(context.Background(), 7, dto.CreateFieldRequest{Name: "Size", FieldType: "Dropdown", Choices: []string{" "}})
	require.Error(t, err)
	assert.True(t, errors.Is(err, appErrors.ErrValidation))
}

func TestFieldServiceCreateNormalisesNonText(t *testing.T) {
	fields := &fieldStoreStub{}
	svc := NewFieldService(fields, nil, nil, nil, nil)
	order := 2

	resp, err := svc.Create(context.Background(), 7, dto.CreateFieldRequest{
		Name:       "Spot",
		FieldType:  "Location",
		IsNum:      true,
		Choices:    []string{"ignored"},
		OrderIndex: &order,
	})
	require.NoError(t, err)
	assert.False(t, resp.IsNum)
	assert.Nil(t, resp.Options)
	assert.Empty(t, resp.Choices)
	assert.False(t, resp.Filterable)
	assert.Equal(t, 2, resp.OrderIndex)
}

func TestFieldServiceCreateRejectsUnknownType(t *testing.T) {
	svc := NewFieldService(&fieldStoreStub{}, nil, nil, nil, nil)

	_, err := svc.Create(context.Background(), 7, dto.CreateFieldRequest{Name: "X", FieldType: "Signature"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, appErrors.ErrValidation))
}

func TestFieldServiceCreateMissingForm(t *testing.T) {
	svc := NewFieldService(&fieldStoreStub{}, newFormStoreStub(), nil, nil, nil)

	_, err := svc.Create(context.Background(), 99, dto.CreateFieldRequest{Name: "X", FieldType: "text"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, appErrors.ErrNotFound))
}

func TestFieldServiceListOrdersAndDecodesChoices(t *testing.T) {
	fields := testFields()
	fields[0].OrderIndex = 10
	svc := NewFieldService(&fieldStoreStub{fields: fields}, nil, nil, nil, nil)

	list, err := svc.List(context.Background(), 7)
	require.NoError(t, err)
	require.Len(t, list, 5)
	assert.Equal(t, int64(2), list[0].ID)
	assert.Equal(t, int64(1), list[4].ID)
	assert.Equal(t, []string{"red", "blue"}, list[1].Choices)
	assert.True(t, list[1].Filterable)
	assert.Empty(t, list[2].Choices)
}
