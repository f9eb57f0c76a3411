package repository

import (
	"strconv"
	"strings"
)

// QueryBuilder collects SQL fragments and their arguments, numbering
// placeholders in the order values are added. Column names passed to it are
// always code constants; only values travel as arguments.
type QueryBuilder struct {
	conditions  []string
	assignments []string
	args        []any
}

func NewQueryBuilder() *QueryBuilder {
	return &QueryBuilder{}
}

func (q *QueryBuilder) bind(v any) string {
	q.args = append(q.args, v)
	return "$" + strconv.Itoa(len(q.args))
}

func (q *QueryBuilder) Eq(column string, v any) *QueryBuilder {
	q.conditions = append(q.conditions, column+" = "+q.bind(v))
	return q
}

func (q *QueryBuilder) Gte(column string, v any) *QueryBuilder {
	q.conditions = append(q.conditions, column+" >= "+q.bind(v))
	return q
}

func (q *QueryBuilder) Lte(column string, v any) *QueryBuilder {
	q.conditions = append(q.conditions, column+" <= "+q.bind(v))
	return q
}

// ILikeAny matches term as a substring of any of the columns, case-insensitively.
// LIKE wildcards inside term are matched literally.
func (q *QueryBuilder) ILikeAny(term string, columns ...string) *QueryBuilder {
	if len(columns) == 0 {
		return q
	}
	p := q.bind("%" + likeEscaper.Replace(term) + "%")
	parts := make([]string, len(columns))
	for i, c := range columns {
		parts[i] = c + " ILIKE " + p
	}
	q.conditions = append(q.conditions, "("+strings.Join(parts, " OR ")+")")
	return q
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// Assign adds a "column = value" pair for an UPDATE statement.
func (q *QueryBuilder) Assign(column string, v any) *QueryBuilder {
	q.assignments = append(q.assignments, column+" = "+q.bind(v))
	return q
}

// AssignNow sets column to the database clock.
func (q *QueryBuilder) AssignNow(column string) *QueryBuilder {
	q.assignments = append(q.assignments, column+" = NOW()")
	return q
}

func (q *QueryBuilder) HasAssignments() bool {
	return len(q.assignments) > 0
}

// SetClause renders the assignments joined for a SET list.
func (q *QueryBuilder) SetClause() string {
	return strings.Join(q.assignments, ", ")
}

// Where renders " WHERE ..." or an empty string when no condition was added.
func (q *QueryBuilder) Where() string {
	if len(q.conditions) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(q.conditions, " AND ")
}

// Args returns a copy of the bound values.
func (q *QueryBuilder) Args() []any {
	out := make([]any, len(q.args))
	copy(out, q.args)
	return out
}

// Page renders a LIMIT/OFFSET suffix and the argument list that goes with the
// whole statement. The builder itself is left untouched so count queries can
// reuse Where and Args.
func (q *QueryBuilder) Page(limit, offset int) (string, []any) {
	args := append(q.Args(), limit, offset)
	n := len(q.args)
	return " LIMIT $" + strconv.Itoa(n+1) + " OFFSET $" + strconv.Itoa(n+2), args
}
