package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/UniversalTze/FormBase/internal/events"
	"github.com/UniversalTze/FormBase/internal/filter"
	"github.com/UniversalTze/FormBase/internal/models"
	appErrors "github.com/UniversalTze/FormBase/pkg/errors"
	"github.com/UniversalTze/FormBase/pkg/postgrest"
)

type browserFixture struct {
	svc     *BrowserService
	records *recordStoreStub
	fields  *fieldStoreStub
	bus     *events.MemoryBus
	metrics *metricsStub
}

func newBrowserFixture(t *testing.T) *browserFixture {
	t.Helper()
	f := &browserFixture{
		records: &recordStoreStub{records: []models.Record{
			testRecord(1, `{"Title":"one","recordValues":{"1":"Kim","2":"3"}}`),
			testRecord(2, `{"Title":"two","recordValues":{"1":"Lee","2":"8"}}`),
			testRecord(3, `{"Title":"three","recordValues":{"1":"Kit","2":"12"}}`),
		}},
		fields:  &fieldStoreStub{fields: testFields()},
		bus:     events.NewMemoryBus(),
		metrics: &metricsStub{},
	}
	recordSvc := NewRecordService(f.records, f.fields, f.bus, f.metrics, nil, nil)
	f.svc = NewBrowserService(recordSvc, f.bus, f.metrics, nil, BrowserConfig{IdleTTL: time.Minute})
	t.Cleanup(f.svc.CloseAll)
	return f
}

func recordIDs(t *testing.T, f *browserFixture, id string) []int64 {
	t.Helper()
	view, err := f.svc.View(context.Background(), id)
	require.NoError(t, err)
	ids := make([]int64, 0, len(view.Records))
	for _, r := range view.Records {
		ids = append(ids, r.ID)
	}
	return ids
}

func TestBrowserOpenLoadsFieldsAndRecords(t *testing.T) {
	f := newBrowserFixture(t)

	view, err := f.svc.Open(context.Background(), 7)
	require.NoError(t, err)
	assert.NotEmpty(t, view.SessionID)
	assert.Equal(t, filter.StageIdle, view.Stage)
	assert.Len(t, view.Records, 3)
	assert.Len(t, view.FilterFields, 3)
	assert.Nil(t, view.Errors)
	assert.False(t, view.Filtered)
	assert.Equal(t, 1, f.metrics.opened)
}

func TestBrowserOpenKeepsRecordsWhenFieldsFail(t *testing.T) {
	f := newBrowserFixture(t)
	f.fields.listErr = appErrors.Clone(appErrors.ErrUpstream, "fields unavailable")

	view, err := f.svc.Open(context.Background(), 7)
	require.NoError(t, err)
	require.NotNil(t, view.Errors)
	assert.Equal(t, "fields unavailable", view.Errors.Fields)
	assert.Empty(t, view.Errors.Records)
	assert.Len(t, view.Records, 3)
	assert.Empty(t, view.FilterFields)
}

func TestBrowserFilterFlow(t *testing.T) {
	f := newBrowserFixture(t)
	opened, err := f.svc.Open(context.Background(), 7)
	require.NoError(t, err)
	id := opened.SessionID

	view, err := f.svc.ChooseField(context.Background(), id, 2)
	require.NoError(t, err)
	assert.Equal(t, filter.StageFieldChosen, view.Stage)
	require.NotNil(t, view.EditingField)
	assert.Len(t, view.Operators, 6)

	_, err = f.svc.ChooseOperator(context.Background(), id, models.OpContains)
	assert.True(t, errors.Is(err, appErrors.ErrValidation))

	view, err = f.svc.ChooseOperator(context.Background(), id, models.OpGreater)
	require.NoError(t, err)
	assert.Equal(t, filter.StageOperatorChosen, view.Stage)

	_, err = f.svc.Confirm(context.Background(), id, "abc")
	assert.True(t, errors.Is(err, appErrors.ErrValidation))

	f.records.queryResult = []models.Record{f.records.records[1], f.records.records[2]}
	view, err = f.svc.Confirm(context.Background(), id, "5")
	require.NoError(t, err)
	assert.Equal(t, filter.StageIdle, view.Stage)
	assert.True(t, view.Filtered)
	assert.Equal(t, `Age Greater "5"`, view.Summary)
	assert.Len(t, view.Records, 2)
	require.Len(t, f.records.queries, 1)
	assert.Equal(t, "5", f.records.queries[0].Conditions[0].Value)
}

func TestBrowserFailedQueryKeepsPreviousState(t *testing.T) {
	f := newBrowserFixture(t)
	opened, err := f.svc.Open(context.Background(), 7)
	require.NoError(t, err)
	id := opened.SessionID

	f.records.queryResult = []models.Record{f.records.records[0]}
	_, err = f.svc.PutCriterion(context.Background(), id, 1, models.OpStartsWith, "Ki")
	require.NoError(t, err)

	f.records.queryErr = appErrors.Clone(appErrors.ErrUpstream, "HTTP error! status: 500")
	_, err = f.svc.PutCriterion(context.Background(), id, 2, models.OpLess, "10")
	require.Error(t, err)

	view, err := f.svc.View(context.Background(), id)
	require.NoError(t, err)
	require.Len(t, view.Criteria, 1)
	assert.Equal(t, int64(1), view.Criteria[0].FieldID)
	assert.Equal(t, []int64{1}, recordIDs(t, f, id))
	require.NotNil(t, view.Errors)
	assert.Contains(t, view.Errors.Filter, "500")
	assert.Equal(t, 1, f.metrics.failed)
}

func TestBrowserClearRestoresUnfilteredListWithoutRefetch(t *testing.T) {
	f := newBrowserFixture(t)
	opened, err := f.svc.Open(context.Background(), 7)
	require.NoError(t, err)
	id := opened.SessionID

	f.records.queryResult = []models.Record{f.records.records[1], f.records.records[2]}
	_, err = f.svc.PutCriterion(context.Background(), id, 2, models.OpGreater, "5")
	require.NoError(t, err)
	assert.Equal(t, []int64{2, 3}, recordIDs(t, f, id))

	f.records.queryResult = []models.Record{f.records.records[2]}
	view, err := f.svc.PutCriterion(context.Background(), id, 1, models.OpStartsWith, "Ki")
	require.NoError(t, err)
	require.Len(t, view.Criteria, 2)
	assert.NotEmpty(t, view.Summary)
	assert.Equal(t, []int64{3}, recordIDs(t, f, id))

	lists, _ := f.records.calls()
	view, err = f.svc.ClearFilters(context.Background(), id)
	require.NoError(t, err)
	assert.False(t, view.Filtered)
	assert.Empty(t, view.Summary)
	assert.Equal(t, []int64{1, 2, 3}, recordIDs(t, f, id))
	after, _ := f.records.calls()
	assert.Equal(t, lists, after)
}

func TestBrowserIgnoresSignalsAfterCloseAll(t *testing.T) {
	f := newBrowserFixture(t)
	_, err := f.svc.Open(context.Background(), 7)
	require.NoError(t, err)
	f.svc.CloseAll()

	f.fields.mu.Lock()
	before := f.fields.listCalls
	f.fields.mu.Unlock()

	late := &browserSession{id: "late", formID: 7}
	f.svc.onSignal(late)(events.Signal{Topic: events.TopicRecords, FormID: 7, Version: 2})
	f.svc.reloads.Wait()

	f.fields.mu.Lock()
	defer f.fields.mu.Unlock()
	assert.Equal(t, before, f.fields.listCalls)
	assert.Equal(t, 0, f.svc.Len())
}

func TestBrowserCancelIsFullReset(t *testing.T) {
	f := newBrowserFixture(t)
	opened, err := f.svc.Open(context.Background(), 7)
	require.NoError(t, err)
	id := opened.SessionID

	f.records.queryResult = []models.Record{f.records.records[0]}
	_, err = f.svc.PutCriterion(context.Background(), id, 1, models.OpEqual, "Kim")
	require.NoError(t, err)
	_, err = f.svc.ChooseField(context.Background(), id, 3)
	require.NoError(t, err)

	view, err := f.svc.Cancel(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, filter.StageIdle, view.Stage)
	assert.Nil(t, view.EditingField)
	assert.Empty(t, view.Criteria)
	assert.Len(t, view.Records, 3)
}

func TestBrowserRemoveCriterion(t *testing.T) {
	f := newBrowserFixture(t)
	opened, err := f.svc.Open(context.Background(), 7)
	require.NoError(t, err)
	id := opened.SessionID

	f.records.queryResult = []models.Record{f.records.records[0]}
	_, err = f.svc.PutCriterion(context.Background(), id, 3, models.OpEqual, "red")
	require.NoError(t, err)

	_, err = f.svc.RemoveCriterion(context.Background(), id, 1)
	assert.True(t, errors.Is(err, appErrors.ErrNotFound))

	view, err := f.svc.RemoveCriterion(context.Background(), id, 3)
	require.NoError(t, err)
	assert.False(t, view.Filtered)
	assert.Len(t, view.Records, 3)
}

func TestBrowserDeleteRollsBackOnFailure(t *testing.T) {
	f := newBrowserFixture(t)
	opened, err := f.svc.Open(context.Background(), 7)
	require.NoError(t, err)
	id := opened.SessionID

	f.records.deleteErr = appErrors.Clone(appErrors.ErrUpstream, "HTTP error! status: 409")
	_, err = f.svc.DeleteRecord(context.Background(), id, 2)
	require.Error(t, err)
	assert.Equal(t, []int64{1, 2, 3}, recordIDs(t, f, id))

	_, err = f.svc.DeleteRecord(context.Background(), id, 42)
	assert.True(t, errors.Is(err, appErrors.ErrNotFound))
}

func TestBrowserDeleteCommitsAndReloadsOnSignal(t *testing.T) {
	f := newBrowserFixture(t)
	opened, err := f.svc.Open(context.Background(), 7)
	require.NoError(t, err)
	id := opened.SessionID

	view, err := f.svc.DeleteRecord(context.Background(), id, 2)
	require.NoError(t, err)
	assert.Len(t, view.Records, 2)
	f.svc.reloads.Wait()
	assert.Equal(t, []int64{2}, f.records.deleted)
	assert.Equal(t, uint64(1), f.bus.Version(events.TopicRecords, 7))

	f.records.setRecords(append(f.records.records, testRecord(9, `{"Title":"new","recordValues":{}}`)))
	_, err = f.bus.Publish(context.Background(), events.TopicRecords, 7)
	require.NoError(t, err)
	assert.Eventually(t, func() bool {
		return len(recordIDs(t, f, id)) == 3
	}, time.Second, 10*time.Millisecond)
}

func TestBrowserIgnoresSignalsForOtherForms(t *testing.T) {
	f := newBrowserFixture(t)
	_, err := f.svc.Open(context.Background(), 7)
	require.NoError(t, err)
	before, _ := f.records.calls()

	_, err = f.bus.Publish(context.Background(), events.TopicRecords, 8)
	require.NoError(t, err)
	f.svc.reloads.Wait()
	after, _ := f.records.calls()
	assert.Equal(t, before, after)
}

func TestBrowserSweepClosesIdleSessions(t *testing.T) {
	f := newBrowserFixture(t)
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	f.svc.now = func() time.Time { return now }

	stale, err := f.svc.Open(context.Background(), 7)
	require.NoError(t, err)
	now = now.Add(50 * time.Second)
	fresh, err := f.svc.Open(context.Background(), 7)
	require.NoError(t, err)

	now = now.Add(20 * time.Second)
	assert.Equal(t, 1, f.svc.Sweep())
	assert.Equal(t, 1, f.svc.Len())
	assert.Equal(t, 1, f.metrics.closed)

	_, err = f.svc.View(context.Background(), stale.SessionID)
	assert.True(t, errors.Is(err, appErrors.ErrNotFound))
	_, err = f.svc.View(context.Background(), fresh.SessionID)
	assert.NoError(t, err)
}

func TestBrowserSessionsAreScopedToOwner(t *testing.T) {
	f := newBrowserFixture(t)
	alice := postgrest.WithCredentials(context.Background(), postgrest.Credentials{Token: "a", Username: "alice"})
	bob := postgrest.WithCredentials(context.Background(), postgrest.Credentials{Token: "b", Username: "bob"})

	opened, err := f.svc.Open(alice, 7)
	require.NoError(t, err)

	_, err = f.svc.View(bob, opened.SessionID)
	assert.True(t, errors.Is(err, appErrors.ErrNotFound))
	_, err = f.svc.View(alice, opened.SessionID)
	assert.NoError(t, err)

	require.NoError(t, f.svc.Close(alice, opened.SessionID))
	assert.Zero(t, f.svc.Len())
}
