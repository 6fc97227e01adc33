package backend

import (
	"errors"
	"fmt"
)

// ErrUnsupported is returned for operations the engine deliberately does not
// implement, such as registering a relational source.
var ErrUnsupported = errors.New("unsupported operation")

// RegistrationError is returned when the engine rejects a source.
type RegistrationError struct {
	Name   string
	Source string
	Err    error
}

func (e *RegistrationError) Error() string {
	return fmt.Sprintf("register %q from %s: %v", e.Name, e.Source, e.Err)
}

func (e *RegistrationError) Unwrap() error {
	return e.Err
}

// UnknownDatasetError is returned when an operation names a dataset that was
// never registered.
type UnknownDatasetError struct {
	Name string
}

func (e *UnknownDatasetError) Error() string {
	return fmt.Sprintf("unknown dataset %q\nHint: run 'list' to see registered datasets", e.Name)
}

// QueryError carries the engine diagnostic for a query that failed to parse,
// plan or execute. Its message is the diagnostic, unchanged.
type QueryError struct {
	Query string
	Err   error
}

func (e *QueryError) Error() string {
	return e.Err.Error()
}

func (e *QueryError) Unwrap() error {
	return e.Err
}

// UnknownEngineError is returned when an unregistered engine is requested.
type UnknownEngineError struct {
	Engine    string
	Available []string
}

func (e *UnknownEngineError) Error() string {
	return fmt.Sprintf("unknown engine %q\nAvailable engines: %v\nHint: Check engine in leapframe.yaml", e.Engine, e.Available)
}
