package filter

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/kart-io/unirag/internal/model"
)

// MilvusExpr renders p as a Milvus boolean expression. A nil predicate
// renders as the empty string, which Milvus treats as "no filter".
func MilvusExpr(p Predicate) string {
	switch v := p.(type) {
	case nil:
		return ""
	case CityEquals:
		return FieldCity + " == " + quote(v.City)
	case CategoryEquals:
		return FieldCategory + " == " + quote(v.Category)
	case ScoreAtLeast:
		return FieldEntMinScore + " <= " + strconv.Itoa(v.Score)
	case ScoreAtMost:
		return FieldEntMaxScore + " >= " + strconv.Itoa(v.Score)
	case And:
		parts := make([]string, len(v.Terms))
		for i, t := range v.Terms {
			parts[i] = "(" + MilvusExpr(t) + ")"
		}
		return strings.Join(parts, " and ")
	default:
		panic(fmt.Sprintf("filter: unknown predicate %T", p))
	}
}

// SQLWhere renders p as a SQL condition with positional parameters
// numbered from firstArg. A nil predicate yields "TRUE".
func SQLWhere(p Predicate, firstArg int) (string, []any) {
	var args []any
	cond := sqlWhere(p, firstArg, &args)
	return cond, args
}

func sqlWhere(p Predicate, firstArg int, args *[]any) string {
	param := func(v any) string {
		*args = append(*args, v)
		return "$" + strconv.Itoa(firstArg+len(*args)-1)
	}

	switch v := p.(type) {
	case nil:
		return "TRUE"
	case CityEquals:
		return FieldCity + " = " + param(v.City)
	case CategoryEquals:
		return FieldCategory + " = " + param(v.Category)
	case ScoreAtLeast:
		return FieldEntMinScore + " <= " + param(v.Score)
	case ScoreAtMost:
		return FieldEntMaxScore + " >= " + param(v.Score)
	case And:
		parts := make([]string, len(v.Terms))
		for i, t := range v.Terms {
			parts[i] = sqlWhere(t, firstArg, args)
		}
		return strings.Join(parts, " AND ")
	default:
		panic(fmt.Sprintf("filter: unknown predicate %T", p))
	}
}

func quote(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `"`, `\"`)
	return `"` + r.Replace(s) + `"`
}

// ParseFilters reads filters from a loose map. Unknown keys and values
// of the wrong type are ignored. The result is nil when nothing was set.
func ParseFilters(m map[string]any) *model.Filters {
	f := &model.Filters{}
	for k, v := range m {
		switch k {
		case FieldCity:
			f.City, _ = v.(string)
		case FieldCategory:
			f.Category, _ = v.(string)
		case "min_score":
			f.MinScore = toInt(v)
		case "max_score":
			f.MaxScore = toInt(v)
		}
	}
	if f.IsZero() {
		return nil
	}
	return f
}

func toInt(v any) int {
	switch n := v.(type) {
	case int:
		return n
	case int64:
		return int(n)
	case float64:
		return int(n)
	case string:
		i, err := strconv.Atoi(strings.TrimSpace(n))
		if err != nil {
			return 0
		}
		return i
	default:
		return 0
	}
}
