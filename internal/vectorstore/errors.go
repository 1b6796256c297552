package vectorstore

import "fmt"

// IndexError is any vector store failure.
type IndexError struct {
	Op         string
	StatusCode int
	Err        error
}

func (e *IndexError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("vector store %s failed (status %d): %v", e.Op, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("vector store %s failed: %v", e.Op, e.Err)
}

func (e *IndexError) Unwrap() error {
	return e.Err
}

// Transient reports whether the store was merely unavailable or
// throttling, i.e. worth retrying.
func (e *IndexError) Transient() bool {
	return e.StatusCode == 429 || e.StatusCode >= 500 || e.StatusCode == 0
}
