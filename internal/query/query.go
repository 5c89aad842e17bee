// Package query turns URL query strings into filter, sort, projection and
// pagination descriptions that repositories render to SQL.
//
//	q, err := query.New(r.URL.Query(), domain.TourSchema).
//		Filter().Sort().LimitFields().Paginate().
//		Scope(domain.PublicTours).
//		Build()
//
// Nothing touches the database here. A repository calls Where, OrderBy and
// LimitOffset to render the statement and runs it itself.
package query

import (
	"encoding/json"
	"fmt"
	"net/url"
	"regexp"
	"slices"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	apperrors "github.com/AkshatJain-webdev/Natours/pkg/errors"
	"github.com/AkshatJain-webdev/Natours/pkg/pagination"
)

// Kind is the type a filter value is cast to before it reaches SQL.
type Kind int

const (
	String Kind = iota
	Number
	Integer
	Bool
	Time
	UUID
)

// Field maps a JSON field name onto a column.
type Field struct {
	Column string
	Kind   Kind

	// Multi turns repeated equality parameters into an IN set. Without it
	// the last value wins.
	Multi bool
}

// Schema whitelists the fields a collection can be filtered and sorted on.
// Keys are JSON names.
type Schema struct {
	Fields      map[string]Field
	DefaultSort string
}

// Scope is a base condition applied ahead of the user's filters. SQL uses
// ? for placeholders; they are renumbered when the query is rendered.
type Scope struct {
	SQL  string
	Args []any
}

// Reserved keys never become filters.
var reserved = map[string]bool{"page": true, "sort": true, "limit": true, "fields": true}

var operators = map[string]string{"gte": ">=", "gt": ">", "lte": "<=", "lt": "<"}

var opKeyRe = regexp.MustCompile(`^([A-Za-z0-9_]+)\[([A-Za-z]+)\]$`)

type condition struct {
	column string
	op     string
	values []any
}

type orderTerm struct {
	column string
	desc   bool
}

// Query is an immutable, parsed request.
type Query struct {
	scopes     []Scope
	conds      []condition
	order      []orderTerm
	include    []string
	exclude    []string
	page       pagination.Params
	paginated  bool
	expansions []string
}

// Builder collects the steps to apply. Errors are held until Build.
type Builder struct {
	values url.Values
	schema Schema
	q      Query
	err    error
}

// New starts a builder over values.
func New(values url.Values, schema Schema) *Builder {
	return &Builder{values: values, schema: schema}
}

// Filter adds equality and comparison filters for every non-reserved key
// the schema knows. Unknown keys and operators are ignored.
func (b *Builder) Filter() *Builder {
	if b.err != nil {
		return b
	}

	keys := make([]string, 0, len(b.values))
	for k := range b.values {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, key := range keys {
		raw := b.values[key]
		if reserved[key] || len(raw) == 0 {
			continue
		}

		name, op := key, "="
		if m := opKeyRe.FindStringSubmatch(key); m != nil {
			sqlOp, ok := operators[m[2]]
			if !ok {
				continue
			}
			name, op = m[1], sqlOp
		}

		field, ok := b.schema.Fields[name]
		if !ok {
			continue
		}

		if op != "=" || !field.Multi || len(raw) == 1 {
			raw = raw[len(raw)-1:]
		}

		values := make([]any, 0, len(raw))
		for _, s := range raw {
			v, err := cast(field.Kind, s)
			if err != nil {
				b.err = apperrors.InvalidInput(fmt.Sprintf("Invalid %s: %s.", name, s))
				return b
			}
			values = append(values, v)
		}
		b.q.conds = append(b.q.conds, condition{column: field.Column, op: op, values: values})
	}
	return b
}

// Sort reads the comma-separated sort key. A leading "-" sorts descending.
// When nothing usable is given the schema default applies.
func (b *Builder) Sort() *Builder {
	if b.err != nil {
		return b
	}
	b.q.order = b.parseSort(lastValue(b.values, "sort"))
	if len(b.q.order) == 0 {
		def := b.schema.DefaultSort
		if def == "" {
			def = "-createdAt"
		}
		b.q.order = b.parseSort(def)
	}

	idCol := "id"
	if f, ok := b.schema.Fields["id"]; ok {
		idCol = f.Column
	}
	if !slices.ContainsFunc(b.q.order, func(t orderTerm) bool { return t.column == idCol }) {
		b.q.order = append(b.q.order, orderTerm{column: idCol})
	}
	return b
}

func (b *Builder) parseSort(raw string) []orderTerm {
	var terms []orderTerm
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		desc := strings.HasPrefix(part, "-")
		part = strings.TrimPrefix(part, "-")
		f, ok := b.schema.Fields[part]
		if !ok {
			continue
		}
		terms = append(terms, orderTerm{column: f.Column, desc: desc})
	}
	return terms
}

// LimitFields reads the comma-separated fields projection.
func (b *Builder) LimitFields() *Builder {
	if b.err != nil {
		return b
	}
	for _, part := range strings.Split(lastValue(b.values, "fields"), ",") {
		part = strings.TrimSpace(part)
		switch {
		case part == "" || part == "-":
		case strings.HasPrefix(part, "-"):
			b.q.exclude = append(b.q.exclude, part[1:])
		default:
			b.q.include = append(b.q.include, part)
		}
	}
	return b
}

// Paginate reads page and limit.
func (b *Builder) Paginate() *Builder {
	if b.err != nil {
		return b
	}
	p, err := pagination.FromValues(b.values)
	if err != nil {
		b.err = apperrors.InvalidInput(err.Error())
		return b
	}
	b.q.page = p
	b.q.paginated = true
	return b
}

// Scope adds base conditions.
func (b *Builder) Scope(scopes ...Scope) *Builder {
	b.q.scopes = append(b.q.scopes, scopes...)
	return b
}

// Expand names relations the repository should populate.
func (b *Builder) Expand(names ...string) *Builder {
	b.q.expansions = append(b.q.expansions, names...)
	return b
}

// Build returns the parsed query or the first error met while parsing.
func (b *Builder) Build() (*Query, error) {
	if b.err != nil {
		return nil, b.err
	}
	q := b.q
	return &q, nil
}

// Scoped returns a query made only of base conditions, for lookups that do
// not come from a query string.
func Scoped(scopes ...Scope) *Query {
	return &Query{scopes: scopes}
}

// WithScope returns a copy of q with extra base conditions.
func (q *Query) WithScope(scopes ...Scope) *Query {
	c := *q
	c.scopes = append(slices.Clone(q.scopes), scopes...)
	return &c
}

// Where renders "WHERE ..." with placeholders numbered from offset+1, and
// the matching arguments. It returns "" when there are no conditions.
func (q *Query) Where(offset int) (string, []any) {
	var (
		parts []string
		args  []any
		n     = offset
	)

	for _, s := range q.scopes {
		sql := s.SQL
		for range s.Args {
			n++
			sql = strings.Replace(sql, "?", "$"+strconv.Itoa(n), 1)
		}
		parts = append(parts, sql)
		args = append(args, s.Args...)
	}

	for _, c := range q.conds {
		if len(c.values) > 1 {
			ph := make([]string, len(c.values))
			for i := range c.values {
				n++
				ph[i] = "$" + strconv.Itoa(n)
			}
			parts = append(parts, fmt.Sprintf("%s IN (%s)", c.column, strings.Join(ph, ", ")))
			args = append(args, c.values...)
			continue
		}
		n++
		parts = append(parts, fmt.Sprintf("%s %s $%d", c.column, c.op, n))
		args = append(args, c.values[0])
	}

	if len(parts) == 0 {
		return "", nil
	}
	return "WHERE " + strings.Join(parts, " AND "), args
}

// OrderBy renders "ORDER BY ...". It returns "" when Sort was never applied.
func (q *Query) OrderBy() string {
	if len(q.order) == 0 {
		return ""
	}
	terms := make([]string, len(q.order))
	for i, t := range q.order {
		dir := "ASC"
		if t.desc {
			dir = "DESC"
		}
		terms[i] = t.column + " " + dir
	}
	return "ORDER BY " + strings.Join(terms, ", ")
}

// LimitOffset renders "LIMIT n OFFSET m". It returns "" when Paginate was
// never applied.
func (q *Query) LimitOffset() string {
	if !q.paginated {
		return ""
	}
	return fmt.Sprintf("LIMIT %d OFFSET %d", q.page.Limit, q.page.Offset())
}

// Page returns the parsed pagination.
func (q *Query) Page() pagination.Params {
	return q.page
}

// CheckPage fails when page was given explicitly and starts at or past
// total.
func (q *Query) CheckPage(total int) error {
	if q.paginated && q.page.OutOfRange(total) {
		return apperrors.NotFound("This page does not exist")
	}
	return nil
}

// NeedsCount reports whether CheckPage can fail, i.e. page was explicit.
func (q *Query) NeedsCount() bool {
	return q.paginated && q.page.PageRequested
}

// Expands reports whether name was requested through Expand.
func (q *Query) Expands(name string) bool {
	return slices.Contains(q.expansions, name)
}

// Projected reports whether a fields projection was requested.
func (q *Query) Projected() bool {
	return len(q.include) > 0 || len(q.exclude) > 0
}

// Project applies the fields projection to the JSON form of doc. The id is
// always kept. Without a projection doc is returned unchanged.
func (q *Query) Project(doc any) (any, error) {
	if !q.Projected() {
		return doc, nil
	}
	raw, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("project: %w", err)
	}
	var m map[string]json.RawMessage
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, fmt.Errorf("project: %w", err)
	}

	if len(q.include) > 0 {
		out := make(map[string]json.RawMessage, len(q.include)+1)
		for _, k := range append([]string{"id"}, q.include...) {
			if v, ok := m[k]; ok {
				out[k] = v
			}
		}
		m = out
	}
	for _, k := range q.exclude {
		if k != "id" {
			delete(m, k)
		}
	}
	return m, nil
}

func lastValue(values url.Values, key string) string {
	vs := values[key]
	if len(vs) == 0 {
		return ""
	}
	return vs[len(vs)-1]
}

func cast(kind Kind, s string) (any, error) {
	switch kind {
	case Number:
		return strconv.ParseFloat(s, 64)
	case Integer:
		return strconv.Atoi(s)
	case Bool:
		return strconv.ParseBool(s)
	case Time:
		if t, err := time.Parse(time.RFC3339, s); err == nil {
			return t, nil
		}
		return time.Parse(time.DateOnly, s)
	case UUID:
		id, err := uuid.Parse(s)
		if err != nil {
			return nil, err
		}
		return id.String(), nil
	default:
		return s, nil
	}
}
