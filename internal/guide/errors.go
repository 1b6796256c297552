package guide

import "fmt"

// AuthError means the token or credentials were rejected. Not retryable.
type AuthError struct {
	StatusCode int
	Message    string
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("authentication failed (status %d): %s", e.StatusCode, e.Message)
}

// NotFoundError means the requested guide does not exist.
type NotFoundError struct {
	GuideID int
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("guide %d not found", e.GuideID)
}

// FetchError is any other content-source failure. Retryable when the
// status indicates a transient condition (429/5xx).
type FetchError struct {
	StatusCode int
	Message    string
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("content source error (status %d): %s", e.StatusCode, e.Message)
}

// Transient reports whether retrying the fetch could succeed.
func (e *FetchError) Transient() bool {
	return e.StatusCode == 429 || e.StatusCode >= 500 || e.StatusCode == 0
}
