package models

// Operator is a filter comparison chosen by the user.
type Operator string

const (
	OpEqual          Operator = "eq"
	OpNotEqual       Operator = "ne"
	OpGreater        Operator = "gt"
	OpGreaterOrEqual Operator = "ge"
	OpLess           Operator = "lt"
	OpLessOrEqual    Operator = "le"
	OpContains       Operator = "contains"
	OpStartsWith     Operator = "starts"
)

// OperatorOption pairs an operator with its display label.
type OperatorOption struct {
	Value Operator `json:"value"`
	Label string   `json:"label"`
}

var (
	numericOperators = []OperatorOption{
		{Value: OpEqual, Label: "Equal"},
		{Value: OpNotEqual, Label: "Not Equal"},
		{Value: OpGreater, Label: "Greater"},
		{Value: OpGreaterOrEqual, Label: "Greater or Equal"},
		{Value: OpLess, Label: "Less"},
		{Value: OpLessOrEqual, Label: "Less or Equal"},
	}
	textOperators = []OperatorOption{
		{Value: OpEqual, Label: "Equals"},
		{Value: OpContains, Label: "Contains"},
		{Value: OpStartsWith, Label: "Starts With"},
	}
)

// OperatorsFor returns the operators offered for numeric or text fields.
func OperatorsFor(isNum bool) []OperatorOption {
	src := textOperators
	if isNum {
		src = numericOperators
	}
	out := make([]OperatorOption, len(src))
	copy(out, src)
	return out
}

// Valid reports whether op is offered for the given field flavour.
func (op Operator) Valid(isNum bool) bool {
	_, ok := op.lookup(isNum)
	return ok
}

// Label returns the display label, falling back to the raw operator.
func (op Operator) Label(isNum bool) string {
	if label, ok := op.lookup(isNum); ok {
		return label
	}
	return string(op)
}

func (op Operator) lookup(isNum bool) (string, bool) {
	src := textOperators
	if isNum {
		src = numericOperators
	}
	for _, o := range src {
		if o.Value == op {
			return o.Label, true
		}
	}
	return "", false
}
