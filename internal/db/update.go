package db

import (
	"fmt"
	"strings"
)

// SetClause accumulates "column = $n" assignments for partial updates.
type SetClause struct {
	sets []string
	args []any
}

// Add appends an assignment. value is passed as a query argument.
func (c *SetClause) Add(column string, value any) {
	c.args = append(c.args, value)
	c.sets = append(c.sets, fmt.Sprintf("%s = $%d", column, len(c.args)))
}

// Empty reports whether no assignment was added.
func (c *SetClause) Empty() bool {
	return len(c.sets) == 0
}

// Arg appends a non-assignment argument (e.g. for WHERE) and returns its
// placeholder.
func (c *SetClause) Arg(value any) string {
	c.args = append(c.args, value)
	return fmt.Sprintf("$%d", len(c.args))
}

// SQL returns the comma-joined assignments.
func (c *SetClause) SQL() string {
	return strings.Join(c.sets, ", ")
}

// Args returns every argument in placeholder order.
func (c *SetClause) Args() []any {
	return c.args
}
