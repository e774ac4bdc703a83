// Package query composes parameterised SQL from fragments.
//
// Builder accumulates clauses and emits them in a fixed order (SELECT, FROM,
// JOIN, WHERE, GROUP BY, HAVING, ORDER BY, LIMIT, OFFSET) together with the
// parameters in placeholder order:
//
//	sql, params := query.New().
//	    Select("id", "name").
//	    From("users").
//	    Where("age > ?", 18).
//	    And("status = ?", "active").
//	    OrderBy("name ASC").
//	    Limit(10).
//	    Build()
//	// SELECT id, name FROM users WHERE age > ? AND status = ? ORDER BY name ASC LIMIT 10
//	res, err := rel.Query(ctx, sql, params...)
//
// Conditions is the predicate accumulator behind Where/And/Or and can be used
// on its own, for example to build the WHERE part of an UPDATE.
//
// Identifiers and clause text are inserted verbatim; only values passed as
// parameters are safe for untrusted input.
package query
