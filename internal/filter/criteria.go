// Package filter holds the record filter criteria for one form, compiles them into
// a store query and drives the step-by-step criterion editor.
package filter

import (
	"fmt"
	"strings"

	"github.com/UniversalTze/FormBase/internal/models"
)

// Criterion is a single (field, operator, value) condition.
type Criterion struct {
	FieldID   int64           `json:"field_id"`
	FieldName string          `json:"field_name"`
	Operator  models.Operator `json:"operator"`
	Value     string          `json:"value"`
	IsNum     bool            `json:"is_num"`
}

// Criteria is the active criterion set, at most one per field. Iteration follows
// insertion order; replacing a field's criterion keeps its original position.
type Criteria struct {
	order   []int64
	byField map[int64]Criterion
}

// NewCriteria returns an empty set.
func NewCriteria() *Criteria {
	return &Criteria{byField: map[int64]Criterion{}}
}

// Set adds or replaces the criterion for c.FieldID.
func (c *Criteria) Set(cr Criterion) error {
	if !cr.Operator.Valid(cr.IsNum) {
		return fmt.Errorf("operator %q is not available for this field", cr.Operator)
	}
	if c.byField == nil {
		c.byField = map[int64]Criterion{}
	}
	if _, exists := c.byField[cr.FieldID]; !exists {
		c.order = append(c.order, cr.FieldID)
	}
	c.byField[cr.FieldID] = cr
	return nil
}

// Get returns the criterion for a field.
func (c *Criteria) Get(fieldID int64) (Criterion, bool) {
	if c == nil {
		return Criterion{}, false
	}
	cr, ok := c.byField[fieldID]
	return cr, ok
}

// Remove drops the criterion for a field and reports whether one existed.
func (c *Criteria) Remove(fieldID int64) bool {
	if c == nil {
		return false
	}
	if _, ok := c.byField[fieldID]; !ok {
		return false
	}
	delete(c.byField, fieldID)
	for i, id := range c.order {
		if id == fieldID {
			c.order = append(c.order[:i], c.order[i+1:]...)
			break
		}
	}
	return true
}

// Clear removes every criterion.
func (c *Criteria) Clear() {
	c.order = nil
	c.byField = map[int64]Criterion{}
}

// Len returns the number of active criteria.
func (c *Criteria) Len() int {
	if c == nil {
		return 0
	}
	return len(c.order)
}

// List returns the criteria in insertion order.
func (c *Criteria) List() []Criterion {
	if c == nil {
		return nil
	}
	out := make([]Criterion, 0, len(c.order))
	for _, id := range c.order {
		out = append(out, c.byField[id])
	}
	return out
}

// Clone returns an independent copy.
func (c *Criteria) Clone() *Criteria {
	out := NewCriteria()
	for _, cr := range c.List() {
		out.order = append(out.order, cr.FieldID)
		out.byField[cr.FieldID] = cr
	}
	return out
}

// Filterable returns the fields offered in the criterion field picker.
func Filterable(fields []models.Field) []models.Field {
	out := make([]models.Field, 0, len(fields))
	for _, f := range fields {
		if f.Kind.Filterable() {
			out = append(out, f)
		}
	}
	return out
}

// Summary renders the active criteria as `Age Greater "5", Name Contains "x"`.
// Criteria whose field is no longer defined are skipped.
func Summary(criteria *Criteria, fields []models.Field) string {
	byID := make(map[int64]models.Field, len(fields))
	for _, f := range fields {
		byID[f.ID] = f
	}
	parts := make([]string, 0, criteria.Len())
	for _, cr := range criteria.List() {
		f, ok := byID[cr.FieldID]
		if !ok {
			continue
		}
		parts = append(parts, fmt.Sprintf(`%s %s "%s"`, f.Name, cr.Operator.Label(cr.IsNum), cr.Value))
	}
	return strings.Join(parts, ", ")
}
