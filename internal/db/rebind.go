package db

import "github.com/jmoiron/sqlx"

// Rebind rewrites each '?' in query to $1, $2, ... in order of appearance.
//
// The scan is purely textual: a '?' inside a string literal, a comment or a
// jsonb operator such as ?| is numbered like any other. Callers that need a
// literal question mark must pass it as a parameter.
func Rebind(query string) string {
	return sqlx.Rebind(sqlx.DOLLAR, query)
}
