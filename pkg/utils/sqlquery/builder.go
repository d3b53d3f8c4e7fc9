// ABOUTME: Safe SQL query builder shared by the SQLite cache and article store
// ABOUTME: Enforces parameterized values and validated identifiers

package sqlquery

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Table and column names: alphanumeric and underscore only
var safeNamePattern = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

const maxNameLength = 64

var allowedOperators = map[string]bool{
	"=":  true,
	"!=": true,
	">":  true,
	"<":  true,
	">=": true,
	"<=": true,
}

// ValidateName validates a table or column name
func ValidateName(name string) error {
	if name == "" {
		return errors.New("name cannot be empty")
	}
	if len(name) > maxNameLength {
		return fmt.Errorf("name too long: %s (max %d characters)", name, maxNameLength)
	}
	if !safeNamePattern.MatchString(name) {
		return fmt.Errorf("invalid name: %s (only alphanumeric and underscore allowed)", name)
	}
	return nil
}

type verb int

const (
	verbNone verb = iota
	verbSelect
	verbInsert
	verbUpsert
	verbUpdate
	verbDelete
)

type condition struct {
	column   string
	operator string
	value    interface{}
}

// Builder builds one parameterized statement. The first invalid identifier
// or operator is kept and returned by Build.
type Builder struct {
	verb      verb
	table     string
	columns   []string
	values    []interface{}
	conflict  string
	where     []condition
	orderBy   string
	orderDesc bool
	limit     int
	err       error
}

// New creates an empty builder
func New() *Builder {
	return &Builder{}
}

func (b *Builder) fail(err error) *Builder {
	if b.err == nil {
		b.err = err
	}
	return b
}

func (b *Builder) checkNames(names ...string) bool {
	for _, name := range names {
		if err := ValidateName(name); err != nil {
			b.fail(err)
			return false
		}
	}
	return true
}

func (b *Builder) start(v verb, table string) *Builder {
	if b.verb != verbNone {
		return b.fail(errors.New("statement already started"))
	}
	b.verb = v
	b.table = table
	b.checkNames(table)
	return b
}

// Select starts a SELECT of columns from table; no columns selects *
func (b *Builder) Select(table string, columns ...string) *Builder {
	b.start(verbSelect, table)
	b.checkNames(columns...)
	b.columns = columns
	return b
}

// Insert starts an INSERT of columns with matching values
func (b *Builder) Insert(table string, columns []string, values []interface{}) *Builder {
	b.start(verbInsert, table)
	return b.setValues(columns, values)
}

// Upsert starts an INSERT that replaces every column except conflict when
// a row with the same conflict column exists
func (b *Builder) Upsert(table, conflict string, columns []string, values []interface{}) *Builder {
	b.start(verbUpsert, table)
	b.checkNames(conflict)
	b.conflict = conflict
	return b.setValues(columns, values)
}

// Update starts an UPDATE of table; add columns with Set
func (b *Builder) Update(table string) *Builder {
	return b.start(verbUpdate, table)
}

// Set adds "column = ?" to an UPDATE
func (b *Builder) Set(column string, value interface{}) *Builder {
	if b.verb != verbUpdate {
		return b.fail(errors.New("Set requires Update"))
	}
	if b.checkNames(column) {
		b.columns = append(b.columns, column)
		b.values = append(b.values, value)
	}
	return b
}

// Delete starts a DELETE from table
func (b *Builder) Delete(table string) *Builder {
	return b.start(verbDelete, table)
}

func (b *Builder) setValues(columns []string, values []interface{}) *Builder {
	if len(columns) == 0 || len(columns) != len(values) {
		return b.fail(fmt.Errorf("got %d columns and %d values", len(columns), len(values)))
	}
	b.checkNames(columns...)
	b.columns = columns
	b.values = values
	return b
}

// Where adds a parameterized condition; conditions are joined with AND
func (b *Builder) Where(column string, operator string, value interface{}) *Builder {
	if !allowedOperators[operator] {
		return b.fail(fmt.Errorf("operator not allowed: %q", operator))
	}
	if b.checkNames(column) {
		b.where = append(b.where, condition{column: column, operator: operator, value: value})
	}
	return b
}

// OrderBy sorts a SELECT
func (b *Builder) OrderBy(column string, desc bool) *Builder {
	if b.checkNames(column) {
		b.orderBy = column
		b.orderDesc = desc
	}
	return b
}

// Limit bounds a SELECT; zero means no limit
func (b *Builder) Limit(n int) *Builder {
	if n < 0 {
		return b.fail(errors.New("limit cannot be negative"))
	}
	b.limit = n
	return b
}

// Build returns the statement and its parameters in placeholder order
func (b *Builder) Build() (string, []interface{}, error) {
	if b.err != nil {
		return "", nil, b.err
	}

	var sb strings.Builder
	var params []interface{}

	switch b.verb {
	case verbSelect:
		sb.WriteString("SELECT ")
		if len(b.columns) == 0 {
			sb.WriteString("*")
		} else {
			sb.WriteString(strings.Join(b.columns, ", "))
		}
		sb.WriteString(" FROM ")
		sb.WriteString(b.table)
	case verbInsert, verbUpsert:
		sb.WriteString("INSERT INTO ")
		sb.WriteString(b.table)
		sb.WriteString(" (")
		sb.WriteString(strings.Join(b.columns, ", "))
		sb.WriteString(") VALUES (")
		sb.WriteString(placeholders(len(b.columns)))
		sb.WriteString(")")
		params = append(params, b.values...)
		if b.verb == verbUpsert {
			sb.WriteString(" ON CONFLICT(")
			sb.WriteString(b.conflict)
			sb.WriteString(") DO UPDATE SET ")
			first := true
			for _, col := range b.columns {
				if col == b.conflict {
					continue
				}
				if !first {
					sb.WriteString(", ")
				}
				first = false
				sb.WriteString(col + " = excluded." + col)
			}
		}
	case verbUpdate:
		if len(b.columns) == 0 {
			return "", nil, errors.New("update without Set")
		}
		sb.WriteString("UPDATE ")
		sb.WriteString(b.table)
		sb.WriteString(" SET ")
		for i, col := range b.columns {
			if i > 0 {
				sb.WriteString(", ")
			}
			sb.WriteString(col + " = ?")
		}
		params = append(params, b.values...)
	case verbDelete:
		sb.WriteString("DELETE FROM ")
		sb.WriteString(b.table)
	default:
		return "", nil, errors.New("empty statement")
	}

	if len(b.where) > 0 {
		if b.verb == verbInsert || b.verb == verbUpsert {
			return "", nil, errors.New("insert cannot have a WHERE clause")
		}
		sb.WriteString(" WHERE ")
		for i, c := range b.where {
			if i > 0 {
				sb.WriteString(" AND ")
			}
			sb.WriteString(c.column + " " + c.operator + " ?")
			params = append(params, c.value)
		}
	}

	if b.orderBy != "" {
		if b.verb != verbSelect {
			return "", nil, errors.New("ORDER BY requires Select")
		}
		sb.WriteString(" ORDER BY " + b.orderBy)
		if b.orderDesc {
			sb.WriteString(" DESC")
		}
	}
	if b.limit > 0 {
		if b.verb != verbSelect {
			return "", nil, errors.New("LIMIT requires Select")
		}
		sb.WriteString(" LIMIT " + strconv.Itoa(b.limit))
	}

	return sb.String(), params, nil
}

// MustBuild is Build for statements fixed at compile time; it panics on error
func (b *Builder) MustBuild() string {
	query, _, err := b.Build()
	if err != nil {
		panic(err)
	}
	return query
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}
