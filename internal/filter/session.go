package filter

import (
	"errors"
	"strconv"
	"strings"

	"github.com/UniversalTze/FormBase/internal/models"
)

// Stage is the position of a Session in the criterion editor.
type Stage string

const (
	StageIdle           Stage = "idle"
	StageFieldChosen    Stage = "field_chosen"
	StageOperatorChosen Stage = "operator_chosen"
)

var (
	ErrNotFilterable   = errors.New("records cannot be filtered on this field type")
	ErrNoFieldChosen   = errors.New("choose a field first")
	ErrNoOperator      = errors.New("choose an operator first")
	ErrInvalidOperator = errors.New("operator is not available for this field")
	ErrBlankValue      = errors.New("enter a value to filter by")
	ErrNotInteger      = errors.New("value must be a whole number for numeric fields")
)

// Session is the criterion editor for one form:
// idle -> field chosen -> operator chosen -> (confirm) -> idle.
// It is not safe for concurrent use.
type Session struct {
	stage    Stage
	field    models.Field
	operator models.Operator
	criteria *Criteria
}

// NewSession returns an idle session with no criteria.
func NewSession() *Session {
	return &Session{stage: StageIdle, criteria: NewCriteria()}
}

func (s *Session) Stage() Stage { return s.stage }

// Field returns the field being edited, if any.
func (s *Session) Field() (models.Field, bool) {
	if s.stage == StageIdle {
		return models.Field{}, false
	}
	return s.field, true
}

// Operator returns the chosen operator, empty before one is chosen.
func (s *Session) Operator() models.Operator {
	if s.stage != StageOperatorChosen {
		return ""
	}
	return s.operator
}

// Criteria returns a copy of the active criteria.
func (s *Session) Criteria() *Criteria {
	return s.criteria.Clone()
}

// Operators lists the operators offered for the chosen field.
func (s *Session) Operators() []models.OperatorOption {
	if s.stage == StageIdle {
		return []models.OperatorOption{}
	}
	return models.OperatorsFor(s.field.Numeric())
}

// ChooseField starts (or restarts) editing a criterion for field.
func (s *Session) ChooseField(field models.Field) error {
	if !field.Kind.Filterable() {
		return ErrNotFilterable
	}
	s.field = field
	s.operator = ""
	s.stage = StageFieldChosen
	return nil
}

// ChooseOperator records the comparison for the chosen field.
func (s *Session) ChooseOperator(op models.Operator) error {
	if s.stage == StageIdle {
		return ErrNoFieldChosen
	}
	if !op.Valid(s.field.Numeric()) {
		return ErrInvalidOperator
	}
	s.operator = op
	s.stage = StageOperatorChosen
	return nil
}

// Confirm adds the in-progress criterion with value and returns the session to idle.
// A criterion for the same field is replaced.
func (s *Session) Confirm(value string) (Criterion, error) {
	switch s.stage {
	case StageIdle:
		return Criterion{}, ErrNoFieldChosen
	case StageFieldChosen:
		return Criterion{}, ErrNoOperator
	}
	cr, err := buildCriterion(s.field, s.operator, value)
	if err != nil {
		return Criterion{}, err
	}
	if err := s.criteria.Set(cr); err != nil {
		return Criterion{}, err
	}
	s.resetEditing()
	return cr, nil
}

// Put adds or replaces a criterion in one step, without touching an edit in progress.
func (s *Session) Put(field models.Field, op models.Operator, value string) (Criterion, error) {
	if !field.Kind.Filterable() {
		return Criterion{}, ErrNotFilterable
	}
	if !op.Valid(field.Numeric()) {
		return Criterion{}, ErrInvalidOperator
	}
	cr, err := buildCriterion(field, op, value)
	if err != nil {
		return Criterion{}, err
	}
	if err := s.criteria.Set(cr); err != nil {
		return Criterion{}, err
	}
	return cr, nil
}

// Remove drops the criterion for one field.
func (s *Session) Remove(fieldID int64) bool {
	return s.criteria.Remove(fieldID)
}

// Cancel abandons the criterion being edited and clears every active criterion.
func (s *Session) Cancel() {
	s.resetEditing()
	s.criteria.Clear()
}

// Clear removes every active criterion.
func (s *Session) Clear() {
	s.criteria.Clear()
}

// Restore replaces the active criteria, used to undo a change whose query failed.
func (s *Session) Restore(criteria *Criteria) {
	s.criteria = criteria.Clone()
}

func (s *Session) resetEditing() {
	s.stage = StageIdle
	s.field = models.Field{}
	s.operator = ""
}

func buildCriterion(field models.Field, op models.Operator, value string) (Criterion, error) {
	if strings.TrimSpace(value) == "" {
		return Criterion{}, ErrBlankValue
	}
	numeric := field.Numeric()
	if numeric {
		value = strings.TrimSpace(value)
		if _, err := strconv.ParseInt(value, 10, 64); err != nil {
			return Criterion{}, ErrNotInteger
		}
	}
	return Criterion{
		FieldID:   field.ID,
		FieldName: field.Name,
		Operator:  op,
		Value:     value,
		IsNum:     numeric,
	}, nil
}
