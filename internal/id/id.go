// Package id generates record identifiers for fills, orders, and runs.
package id

import "github.com/oklog/ulid/v2"

// New returns a ULID string. ULIDs sort by creation time, which keeps
// journal files and SQLite indexes in insertion order without an extra
// column.
func New() string {
	return ulid.Make().String()
}
