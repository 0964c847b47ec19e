package filter

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/UniversalTze/FormBase/internal/models"
)

// Store-side comparison operators.
const (
	CompareEq    = "eq"
	CompareNe    = "ne"
	CompareGt    = "gt"
	CompareGe    = "ge"
	CompareLt    = "lt"
	CompareLe    = "le"
	CompareILike = "ilike"

	// CastInt compares the nested value as an integer.
	CastInt = "int"

	// Wildcard is the pattern wildcard understood by the store.
	Wildcard = "*"
)

// Condition compares the answer stored under FieldID inside recordValues.
type Condition struct {
	FieldID int64  `json:"field_id"`
	Op      string `json:"op"`
	Value   string `json:"value"`
	Cast    string `json:"cast,omitempty"`
}

// Query is the compiled, AND-combined record query for one form, ordered by id ascending.
type Query struct {
	FormID     int64       `json:"form_id"`
	Conditions []Condition `json:"conditions"`
}

// Compile translates the criteria into a Query. The boolean is false when no
// filter is active, in which case callers use the unfiltered record list.
func Compile(formID int64, criteria *Criteria) (Query, bool) {
	q := Query{FormID: formID}
	if criteria.Len() == 0 {
		return q, false
	}
	for _, cr := range criteria.List() {
		q.Conditions = append(q.Conditions, compileCriterion(cr))
	}
	return q, true
}

func compileCriterion(cr Criterion) Condition {
	cond := Condition{FieldID: cr.FieldID, Value: cr.Value}
	if cr.IsNum {
		cond.Op = string(cr.Operator)
		cond.Cast = CastInt
		return cond
	}
	switch cr.Operator {
	case models.OpContains:
		cond.Op = CompareILike
		cond.Value = Wildcard + cr.Value + Wildcard
	case models.OpStartsWith:
		cond.Op = CompareILike
		cond.Value = cr.Value + Wildcard
	default:
		cond.Op = CompareEq
	}
	return cond
}

// Path returns the escaped nested-path column for the condition, e.g.
// values-%3ErecordValues-%3E%3E%227%22::int.
func (c Condition) Path() string {
	path := "values-%3ErecordValues-%3E%3E%22" + strconv.FormatInt(c.FieldID, 10) + "%22"
	if c.Cast != "" {
		path += "::" + c.Cast
	}
	return path
}

// Encode renders the query string for the record collection, without a leading '?'.
func (q Query) Encode() string {
	var b strings.Builder
	fmt.Fprintf(&b, "form_id=eq.%d&order=id.asc", q.FormID)
	for _, c := range q.Conditions {
		b.WriteString("&")
		b.WriteString(c.Path())
		b.WriteString("=")
		b.WriteString(c.Op)
		b.WriteString(".")
		b.WriteString(escapeValue(c.Value))
	}
	return b.String()
}

func escapeValue(v string) string {
	return strings.ReplaceAll(url.QueryEscape(v), "%2A", Wildcard)
}
