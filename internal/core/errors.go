package core

// ValidationError rejects malformed input at the service boundary, before any
// upstream call or write happens. Handlers map it to a 400.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Field + ": " + e.Message
}
