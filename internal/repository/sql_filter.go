package repository

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/UniversalTze/FormBase/internal/filter"
)

var sqlComparisons = map[string]string{
	filter.CompareEq:    "=",
	filter.CompareNe:    "<>",
	filter.CompareGt:    ">",
	filter.CompareGe:    ">=",
	filter.CompareLt:    "<",
	filter.CompareLe:    "<=",
	filter.CompareILike: "ILIKE",
}

// renderConditions turns compiled conditions into SQL predicates over the record
// values column. Placeholders are numbered from next.
func renderConditions(conds []filter.Condition, next int) (string, []interface{}, error) {
	clauses := make([]string, 0, len(conds))
	args := make([]interface{}, 0, len(conds)*2)
	for _, c := range conds {
		op, ok := sqlComparisons[c.Op]
		if !ok {
			return "", nil, fmt.Errorf("unsupported comparison %q", c.Op)
		}
		target := fmt.Sprintf(`("values"->'recordValues'->>$%d)`, next)
		args = append(args, strconv.FormatInt(c.FieldID, 10))
		next++

		var value interface{} = c.Value
		switch {
		case c.Cast == filter.CastInt:
			n, err := strconv.ParseInt(strings.TrimSpace(c.Value), 10, 64)
			if err != nil {
				return "", nil, fmt.Errorf("field %d: %q is not an integer", c.FieldID, c.Value)
			}
			target += "::int"
			value = n
		case c.Cast != "":
			return "", nil, fmt.Errorf("unsupported cast %q", c.Cast)
		case c.Op == filter.CompareILike:
			value = likePattern(c.Value)
		}

		clauses = append(clauses, fmt.Sprintf("%s %s $%d", target, op, next))
		args = append(args, value)
		next++
	}
	return strings.Join(clauses, " AND "), args, nil
}

// likePattern converts a store wildcard pattern into a LIKE pattern, escaping the
// characters LIKE treats specially.
func likePattern(v string) string {
	escaped := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(v)
	return strings.ReplaceAll(escaped, filter.Wildcard, "%")
}
