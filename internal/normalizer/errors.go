package normalizer

import "fmt"

// ValidationError marks a single raw event that cannot become a record.
// Callers skip and log it; it is never retried.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return "invalid log: " + e.Reason
	}
	return fmt.Sprintf("invalid log: %s %s", e.Field, e.Reason)
}
