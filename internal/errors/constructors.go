package errors

// Convenience constructors for common error patterns.

// Config errors

func ConfigNotFound(path string) *Error {
	return New(CategoryConfig, SeverityFatal, "configuration file not found").
		WithContext("path", path)
}

func ValidationFailed(field, reason string) *Error {
	return New(CategoryValidation, SeverityFatal, "validation failed").
		WithContext("field", field).
		WithContext("reason", reason)
}

// InvalidControlAction marks an unrecognized scheduler control action. It is a
// client input error, never a server fault.
func InvalidControlAction(action string) *Error {
	return New(CategoryValidation, SeverityWarning, "unknown control action").
		WithContext("action", action)
}

// Git errors

func RepositoryNotFound(path string, cause error) *Error {
	return Wrap(cause, CategoryGit, SeverityFatal, "not a git repository").
		WithContext("path", path)
}

func GitOperationFailed(operation string, cause error) *Error {
	return Wrap(cause, CategoryGit, SeverityError, "git operation failed").
		WithContext("operation", operation)
}

func PushFailed(remote string, attempts int, cause error) *Error {
	e := Wrap(cause, CategoryPush, SeverityWarning, "push failed after retries").
		WithContext("remote", remote).
		WithContext("attempts", attempts)
	e.Retryable = true
	return e
}

// Store errors

func StoreFailed(operation string, cause error) *Error {
	return Wrap(cause, CategoryStore, SeverityError, "history store operation failed").
		WithContext("operation", operation)
}
