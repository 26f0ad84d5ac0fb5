package domain

import "errors"

// RetriableError defines an interface for errors that can be retried
type RetriableError interface {
	error
	IsRetriable() bool
}

// IsRetriable checks if an error is retriable
func IsRetriable(err error) bool {
	var re RetriableError
	if errors.As(err, &re) {
		return re.IsRetriable()
	}
	return false
}

// FeedError represents a market-data fetch failure (network or parse).
// The tick that hit it aborts and the loop retries after a fixed delay.
type FeedError struct {
	Op  string // Operation that failed (e.g., "fetch", "decode")
	Err error  // Underlying error
}

func (e *FeedError) Error() string {
	return "feed " + e.Op + ": " + e.Err.Error()
}

func (e *FeedError) IsRetriable() bool {
	return true
}

func (e *FeedError) Unwrap() error {
	return e.Err
}

// NewFeedError creates a new retriable feed error
func NewFeedError(op string, err error) *FeedError {
	return &FeedError{Op: op, Err: err}
}

// PersistError represents a snapshot write failure. State stays in
// memory and the next completed tick retries the save.
type PersistError struct {
	Path string
	Err  error
}

func (e *PersistError) Error() string {
	return "persist [" + e.Path + "]: " + e.Err.Error()
}

func (e *PersistError) IsRetriable() bool {
	return true
}

func (e *PersistError) Unwrap() error {
	return e.Err
}

// ConfigError represents a configuration error (never retriable)
type ConfigError struct {
	Field string
	Err   error
}

func (e *ConfigError) Error() string {
	return "config error [" + e.Field + "]: " + e.Err.Error()
}

func (e *ConfigError) IsRetriable() bool {
	return false
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}

var (
	// ErrCorruptSnapshot is returned when a snapshot fails strict decoding.
	// The loader falls back to defaults instead of propagating it.
	ErrCorruptSnapshot = errors.New("corrupt snapshot")

	// ErrConfigNotFound is returned when configuration file is missing
	ErrConfigNotFound = errors.New("configuration not found")
)
