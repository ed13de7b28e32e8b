package content

import (
	"errors"
	"fmt"
)

var ErrNotFound = errors.New("test not found")

// LoadError marks a failure to fetch test content. It is the only error in
// the engine that is fatal to session start; callers surface it with retry.
type LoadError struct {
	TestID string
	Err    error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("load test %s: %v", e.TestID, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }
