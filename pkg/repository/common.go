package repository

import "strings"

// criticalError marks a write failure that must not be retried
type criticalError struct {
	err error
}

func (e *criticalError) Error() string { return e.err.Error() }

func (e *criticalError) Unwrap() error { return e.err }

// lockMarkers are the sqlite busy/locked error signatures worth retrying
var lockMarkers = []string{"SQLITE_BUSY", "database is locked", "database table is locked"}

// isLockError reports whether the error is a transient sqlite lock
func isLockError(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	for _, m := range lockMarkers {
		if strings.Contains(msg, m) {
			return true
		}
	}
	return false
}
