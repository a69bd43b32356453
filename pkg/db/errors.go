package db

import "strings"

// IsUniqueViolation reports whether err looks like a Postgres unique
// constraint violation. With a constraint name it matches that specific
// constraint, otherwise any duplicate-key error.
func IsUniqueViolation(err error, constraint string) bool {
	if err == nil {
		return false
	}
	if constraint != "" {
		return strings.Contains(err.Error(), constraint)
	}
	return strings.Contains(err.Error(), "duplicate key value")
}
