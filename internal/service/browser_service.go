package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/UniversalTze/FormBase/internal/dto"
	"github.com/UniversalTze/FormBase/internal/events"
	"github.com/UniversalTze/FormBase/internal/filter"
	"github.com/UniversalTze/FormBase/internal/models"
	"github.com/UniversalTze/FormBase/internal/state"
	appErrors "github.com/UniversalTze/FormBase/pkg/errors"
	"github.com/UniversalTze/FormBase/pkg/postgrest"
)

type browserRecords interface {
	Fields(ctx context.Context, formID int64) ([]models.Field, error)
	Records(ctx context.Context, formID int64, criteria *filter.Criteria) ([]models.Record, error)
	Delete(ctx context.Context, id int64) error
}

type signalSubscriber interface {
	Subscribe(topic events.Topic, handler events.Handler) func()
}

type sessionMetrics interface {
	SessionOpened()
	SessionClosed()
}

// BrowserConfig tunes record browser sessions.
type BrowserConfig struct {
	IdleTTL       time.Duration
	ReloadTimeout time.Duration
}

// BrowserService keeps the state of open record screens: the loaded fields, the
// unfiltered and visible record lists, and the filter being edited.
type BrowserService struct {
	records browserRecords
	bus     signalSubscriber
	metrics sessionMetrics
	logger  *zap.Logger
	cfg     BrowserConfig
	now     func() time.Time

	mu       sync.Mutex
	sessions map[string]*browserSession
	closed   bool
	reloads  sync.WaitGroup
}

type browserSession struct {
	mu          sync.Mutex
	id          string
	formID      int64
	creds       postgrest.Credentials
	hasCreds    bool
	fields      []models.Field
	all         *state.List[models.Record]
	visible     *state.List[models.Record]
	filter      *filter.Session
	filtered    bool
	errs        dto.LoadErrors
	lastSeen    time.Time
	unsubscribe []func()
	closed      bool
}

// NewBrowserService constructs a BrowserService. bus and metrics may be nil.
func NewBrowserService(records browserRecords, bus signalSubscriber, metrics sessionMetrics, logger *zap.Logger, cfg BrowserConfig) *BrowserService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.IdleTTL <= 0 {
		cfg.IdleTTL = 30 * time.Minute
	}
	if cfg.ReloadTimeout <= 0 {
		cfg.ReloadTimeout = 30 * time.Second
	}
	return &BrowserService{
		records:  records,
		bus:      bus,
		metrics:  metrics,
		logger:   logger,
		cfg:      cfg,
		now:      time.Now,
		sessions: map[string]*browserSession{},
	}
}

// Open starts a session for a form and loads it. Fields and records load
// independently; a failure of one is reported in the view without discarding the other.
func (b *BrowserService) Open(ctx context.Context, formID int64) (*dto.BrowserView, error) {
	s := &browserSession{
		id:       uuid.NewString(),
		formID:   formID,
		all:      state.NewList[models.Record](nil),
		visible:  state.NewList[models.Record](nil),
		filter:   filter.NewSession(),
		lastSeen: b.now(),
	}
	s.creds, s.hasCreds = postgrest.CredentialsFromContext(ctx)

	s.mu.Lock()
	b.load(ctx, s)
	if b.bus != nil {
		for _, topic := range []events.Topic{events.TopicRecords, events.TopicFields} {
			s.unsubscribe = append(s.unsubscribe, b.bus.Subscribe(topic, b.onSignal(s)))
		}
	}
	view := b.view(s)
	s.mu.Unlock()

	b.mu.Lock()
	b.sessions[s.id] = s
	b.mu.Unlock()
	if b.metrics != nil {
		b.metrics.SessionOpened()
	}
	b.logger.Debug("browser session opened", zap.String("session_id", s.id), zap.Int64("form_id", formID))
	return view, nil
}

// View returns the current state of a session.
func (b *BrowserService) View(ctx context.Context, id string) (*dto.BrowserView, error) {
	return b.with(ctx, id, func(s *browserSession) error { return nil })
}

// Refresh re-fetches fields and records, re-running the active filter.
func (b *BrowserService) Refresh(ctx context.Context, id string) (*dto.BrowserView, error) {
	return b.with(ctx, id, func(s *browserSession) error {
		b.load(ctx, s)
		return nil
	})
}

// ChooseField starts editing a criterion for one of the form's fields.
func (b *BrowserService) ChooseField(ctx context.Context, id string, fieldID int64) (*dto.BrowserView, error) {
	return b.with(ctx, id, func(s *browserSession) error {
		field, err := s.field(fieldID)
		if err != nil {
			return err
		}
		return filterError(s.filter.ChooseField(field))
	})
}

// ChooseOperator picks the comparison for the field being edited.
func (b *BrowserService) ChooseOperator(ctx context.Context, id string, op models.Operator) (*dto.BrowserView, error) {
	return b.with(ctx, id, func(s *browserSession) error {
		return filterError(s.filter.ChooseOperator(op))
	})
}

// Confirm adds the edited criterion and re-runs the query. If the query fails
// the previous criteria and record list stay in place.
func (b *BrowserService) Confirm(ctx context.Context, id, value string) (*dto.BrowserView, error) {
	return b.with(ctx, id, func(s *browserSession) error {
		prev := s.filter.Criteria()
		if _, err := s.filter.Confirm(value); err != nil {
			return filterError(err)
		}
		return b.apply(ctx, s, prev)
	})
}

// PutCriterion adds or replaces the criterion for a field in one step.
func (b *BrowserService) PutCriterion(ctx context.Context, id string, fieldID int64, op models.Operator, value string) (*dto.BrowserView, error) {
	return b.with(ctx, id, func(s *browserSession) error {
		field, err := s.field(fieldID)
		if err != nil {
			return err
		}
		prev := s.filter.Criteria()
		if _, err := s.filter.Put(field, op, value); err != nil {
			return filterError(err)
		}
		return b.apply(ctx, s, prev)
	})
}

// RemoveCriterion drops the criterion for one field.
func (b *BrowserService) RemoveCriterion(ctx context.Context, id string, fieldID int64) (*dto.BrowserView, error) {
	return b.with(ctx, id, func(s *browserSession) error {
		prev := s.filter.Criteria()
		if !s.filter.Remove(fieldID) {
			return appErrors.Clone(appErrors.ErrNotFound, "no filter on this field")
		}
		return b.apply(ctx, s, prev)
	})
}

// ClearFilters removes every criterion and shows the unfiltered list again.
func (b *BrowserService) ClearFilters(ctx context.Context, id string) (*dto.BrowserView, error) {
	return b.with(ctx, id, func(s *browserSession) error {
		prev := s.filter.Criteria()
		s.filter.Clear()
		return b.apply(ctx, s, prev)
	})
}

// Cancel abandons the edit in progress and clears every criterion.
func (b *BrowserService) Cancel(ctx context.Context, id string) (*dto.BrowserView, error) {
	return b.with(ctx, id, func(s *browserSession) error {
		prev := s.filter.Criteria()
		s.filter.Cancel()
		return b.apply(ctx, s, prev)
	})
}

// DeleteRecord removes a record from the session's lists before the store
// confirms. The lists are restored if the store rejects the delete.
func (b *BrowserService) DeleteRecord(ctx context.Context, id string, recordID int64) (*dto.BrowserView, error) {
	return b.with(ctx, id, func(s *browserSession) error {
		match := func(r models.Record) bool { return r.ID == recordID }
		allTxn := s.all.Begin()
		visibleTxn := s.visible.Begin()
		if allTxn.RemoveWhere(match)+visibleTxn.RemoveWhere(match) == 0 {
			allTxn.Rollback()
			visibleTxn.Rollback()
			return appErrors.Clone(appErrors.ErrNotFound, "record not found")
		}
		if err := b.records.Delete(ctx, recordID); err != nil {
			allTxn.Rollback()
			visibleTxn.Rollback()
			b.logger.Warn("record delete rolled back", zap.String("session_id", s.id), zap.Int64("record_id", recordID), zap.Error(err))
			return err
		}
		allTxn.Commit()
		visibleTxn.Commit()
		return nil
	})
}

// Close ends a session.
func (b *BrowserService) Close(ctx context.Context, id string) error {
	s, err := b.lookup(ctx, id)
	if err != nil {
		return err
	}
	b.remove(s)
	return nil
}

// Sweep closes sessions idle for longer than the configured TTL and reports how many.
func (b *BrowserService) Sweep() int {
	cutoff := b.now().Add(-b.cfg.IdleTTL)
	b.mu.Lock()
	var idle []*browserSession
	for _, s := range b.sessions {
		s.mu.Lock()
		if s.lastSeen.Before(cutoff) {
			idle = append(idle, s)
		}
		s.mu.Unlock()
	}
	b.mu.Unlock()

	for _, s := range idle {
		b.remove(s)
	}
	if len(idle) > 0 {
		b.logger.Info("idle browser sessions closed", zap.Int("count", len(idle)))
	}
	return len(idle)
}

// CloseAll ends every session and waits for background reloads to finish.
func (b *BrowserService) CloseAll() {
	b.mu.Lock()
	b.closed = true
	all := make([]*browserSession, 0, len(b.sessions))
	for _, s := range b.sessions {
		all = append(all, s)
	}
	b.mu.Unlock()
	for _, s := range all {
		b.remove(s)
	}
	b.reloads.Wait()
}

// Len returns the number of open sessions.
func (b *BrowserService) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.sessions)
}

func (b *BrowserService) with(ctx context.Context, id string, fn func(*browserSession) error) (*dto.BrowserView, error) {
	s, err := b.lookup(ctx, id)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "browser session not found")
	}
	s.lastSeen = b.now()
	if err := fn(s); err != nil {
		return nil, err
	}
	return b.view(s), nil
}

// lookup finds a session. Sessions opened with caller credentials are only
// visible to the same user.
func (b *BrowserService) lookup(ctx context.Context, id string) (*browserSession, error) {
	b.mu.Lock()
	s, ok := b.sessions[id]
	b.mu.Unlock()
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "browser session not found")
	}
	if s.hasCreds && s.creds.Username != "" {
		creds, _ := postgrest.CredentialsFromContext(ctx)
		if creds.Username != s.creds.Username {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "browser session not found")
		}
	}
	return s, nil
}

func (b *BrowserService) remove(s *browserSession) {
	b.mu.Lock()
	_, present := b.sessions[s.id]
	delete(b.sessions, s.id)
	b.mu.Unlock()
	if !present {
		return
	}

	s.mu.Lock()
	s.closed = true
	unsubscribe := s.unsubscribe
	s.unsubscribe = nil
	s.mu.Unlock()
	for _, fn := range unsubscribe {
		fn()
	}
	if b.metrics != nil {
		b.metrics.SessionClosed()
	}
}

// onSignal reloads the session in the background when its form's data changes.
// The reload runs on its own goroutine because the publisher may hold the session lock.
func (b *BrowserService) onSignal(s *browserSession) events.Handler {
	return func(sig events.Signal) {
		if sig.FormID != s.formID {
			return
		}
		// a signal already in flight may arrive after CloseAll started waiting
		b.mu.Lock()
		if b.closed {
			b.mu.Unlock()
			return
		}
		b.reloads.Add(1)
		b.mu.Unlock()
		go func() {
			defer b.reloads.Done()
			b.reload(s, sig)
		}()
	}
}

func (b *BrowserService) reload(s *browserSession, sig events.Signal) {
	ctx, cancel := context.WithTimeout(context.Background(), b.cfg.ReloadTimeout)
	defer cancel()
	if s.hasCreds {
		ctx = postgrest.WithCredentials(ctx, s.creds)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	b.logger.Debug("reloading browser session", zap.String("session_id", s.id), zap.String("topic", string(sig.Topic)), zap.Uint64("version", sig.Version))
	b.load(ctx, s)
}

// load refreshes a session; the caller holds s.mu.
func (b *BrowserService) load(ctx context.Context, s *browserSession) {
	fields, err := b.records.Fields(ctx, s.formID)
	if err != nil {
		s.errs.Fields = err.Error()
		b.logger.Warn("browser fields load failed", zap.String("session_id", s.id), zap.Error(err))
	} else {
		s.fields = fields
		s.errs.Fields = ""
	}

	all, err := b.records.Records(ctx, s.formID, nil)
	if err != nil {
		s.errs.Records = err.Error()
		b.logger.Warn("browser records load failed", zap.String("session_id", s.id), zap.Error(err))
	} else {
		s.all.Replace(all)
		s.errs.Records = ""
	}

	if !s.filtered {
		if err == nil {
			s.visible.Replace(all)
		}
		return
	}
	filtered, err := b.records.Records(ctx, s.formID, s.filter.Criteria())
	if err != nil {
		s.errs.Filter = err.Error()
		b.logger.Warn("browser filter reload failed", zap.String("session_id", s.id), zap.Error(err))
		return
	}
	s.visible.Replace(filtered)
	s.errs.Filter = ""
}

// apply re-runs the query for the session's criteria; the caller holds s.mu.
func (b *BrowserService) apply(ctx context.Context, s *browserSession, prev *filter.Criteria) error {
	criteria := s.filter.Criteria()
	if criteria.Len() == 0 {
		s.filtered = false
		s.errs.Filter = ""
		s.visible.Replace(s.all.Items())
		return nil
	}
	records, err := b.records.Records(ctx, s.formID, criteria)
	if err != nil {
		s.filter.Restore(prev)
		s.errs.Filter = err.Error()
		b.logger.Warn("filter query failed, criteria restored", zap.String("session_id", s.id), zap.Error(err))
		return err
	}
	s.visible.Replace(records)
	s.filtered = true
	s.errs.Filter = ""
	return nil
}

func (b *BrowserService) view(s *browserSession) *dto.BrowserView {
	criteria := s.filter.Criteria()
	v := &dto.BrowserView{
		SessionID:    s.id,
		FormID:       s.formID,
		Stage:        s.filter.Stage(),
		Operator:     s.filter.Operator(),
		Operators:    s.filter.Operators(),
		FilterFields: filter.Filterable(s.fields),
		Criteria:     criteria.List(),
		Summary:      filter.Summary(criteria, s.fields),
		Filtered:     s.filtered,
		Records:      BuildViews(s.visible.Items(), s.fields, b.logger),
	}
	if field, ok := s.filter.Field(); ok {
		v.EditingField = &field
	}
	if s.errs != (dto.LoadErrors{}) {
		errs := s.errs
		v.Errors = &errs
	}
	return v
}

func (s *browserSession) field(fieldID int64) (models.Field, error) {
	for _, f := range s.fields {
		if f.ID == fieldID {
			return f, nil
		}
	}
	return models.Field{}, appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("field %d not found on this form", fieldID))
}

func filterError(err error) error {
	if err == nil {
		return nil
	}
	switch {
	case errors.Is(err, filter.ErrNotFilterable),
		errors.Is(err, filter.ErrNoFieldChosen),
		errors.Is(err, filter.ErrNoOperator),
		errors.Is(err, filter.ErrInvalidOperator),
		errors.Is(err, filter.ErrBlankValue),
		errors.Is(err, filter.ErrNotInteger):
		return appErrors.Clone(appErrors.ErrValidation, err.Error())
	default:
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid filter")
	}
}
