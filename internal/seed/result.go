// Package seed bulk-registers players from a roster file.
package seed

import "fmt"

// Result tracks counts and errors from a roster import.
type Result struct {
	RowsRead   int
	Registered int
	Skipped    int
	Errors     []string
}

// Add merges another Result into this one.
func (r *Result) Add(other Result) {
	r.RowsRead += other.RowsRead
	r.Registered += other.Registered
	r.Skipped += other.Skipped
	r.Errors = append(r.Errors, other.Errors...)
}

// AddErrorf records a formatted error message.
func (r *Result) AddErrorf(format string, args ...interface{}) {
	r.Errors = append(r.Errors, fmt.Sprintf(format, args...))
}

// Summary returns a human-readable summary of the import.
func (r *Result) Summary() string {
	return fmt.Sprintf(
		"rows=%d registered=%d skipped=%d errors=%d",
		r.RowsRead, r.Registered, r.Skipped, len(r.Errors),
	)
}
