package query

import "strings"

// Conditions accumulates predicates joined by explicit AND/OR connectors.
type Conditions struct {
	tokens []string
	params []any
}

// NewConditions returns an empty accumulator.
func NewConditions() *Conditions {
	return &Conditions{}
}

// Where adds a predicate. When predicates already exist it is joined with AND.
func (c *Conditions) Where(predicate string, params ...any) *Conditions {
	return c.add("AND", predicate, params)
}

// And adds a predicate joined with AND, or starts the condition if it is empty.
func (c *Conditions) And(predicate string, params ...any) *Conditions {
	return c.add("AND", predicate, params)
}

// Or adds a predicate joined with OR, or starts the condition if it is empty.
func (c *Conditions) Or(predicate string, params ...any) *Conditions {
	return c.add("OR", predicate, params)
}

// AndGroup adds sub as one parenthesised predicate joined with AND.
func (c *Conditions) AndGroup(sub *Conditions) *Conditions {
	if sub.IsEmpty() {
		return c
	}
	return c.add("AND", "("+sub.String()+")", sub.params)
}

// OrGroup adds sub as one parenthesised predicate joined with OR.
func (c *Conditions) OrGroup(sub *Conditions) *Conditions {
	if sub.IsEmpty() {
		return c
	}
	return c.add("OR", "("+sub.String()+")", sub.params)
}

// In adds "column IN (?, ?, ...)" joined with AND. An empty value list adds a
// predicate that matches nothing.
func (c *Conditions) In(column string, values ...any) *Conditions {
	if len(values) == 0 {
		return c.add("AND", "1 = 0", nil)
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(values)), ", ")
	return c.add("AND", column+" IN ("+placeholders+")", values)
}

func (c *Conditions) add(connector, predicate string, params []any) *Conditions {
	if len(c.tokens) > 0 {
		c.tokens = append(c.tokens, connector)
	}
	c.tokens = append(c.tokens, predicate)
	c.params = append(c.params, params...)
	return c
}

// IsEmpty reports whether no predicate was added.
func (c *Conditions) IsEmpty() bool {
	return len(c.tokens) == 0
}

// String joins the predicates and connectors with single spaces.
func (c *Conditions) String() string {
	return strings.Join(c.tokens, " ")
}

// Params returns the parameters in placeholder order.
func (c *Conditions) Params() []any {
	return append([]any(nil), c.params...)
}

// Reset clears all predicates and parameters.
func (c *Conditions) Reset() {
	c.tokens = nil
	c.params = nil
}
