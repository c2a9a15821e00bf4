package store

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound     = errors.New("article not found")
	ErrInvalidID    = errors.New("invalid article id")
	ErrNotConnected = errors.New("store is not connected")
)

// ConnectionError is returned by Connect when the database cannot be
// reached or initialized. It is fatal to startup.
type ConnectionError struct {
	Err error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("failed to connect to mongodb: %v", e.Err)
}

func (e *ConnectionError) Unwrap() error { return e.Err }

// ValidationError wraps a rejected article, whether caught by the model
// rules or by the collection's schema validator.
type ValidationError struct {
	Err error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid article: %v", e.Err)
}

func (e *ValidationError) Unwrap() error { return e.Err }
