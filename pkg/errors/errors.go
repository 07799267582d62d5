// Package errors provides the error types used across geomanifest.
//
// Run-fatal failures (a missing database, an unreadable archive, a bad
// project id) surface as typed errors from Ingest. Degradations confined to a
// single layer are carried as ProfileError values next to that layer and
// never abort the run. Every type supports errors.Is against the sentinels
// below, so callers can branch with IsNotFound and friends.
package errors

import (
	"errors"
	"fmt"
	"io/fs"
)

// New is errors.New.
var New = errors.New

// Is is errors.Is.
var Is = errors.Is

// As is errors.As.
var As = errors.As

// Sentinels matched by the typed errors.
var (
	// ErrNotFound: a project, layer, database or archive does not exist.
	ErrNotFound = errors.New("not found")

	// ErrAlreadyExists: a project id is already registered.
	ErrAlreadyExists = errors.New("already exists")

	// ErrInvalidInput: a request or option failed validation.
	ErrInvalidInput = errors.New("invalid input")

	// ErrCanceled: the context was canceled mid-run.
	ErrCanceled = errors.New("operation canceled")

	// ErrUnsupported: a geometry encoding, CRS or file format the pipeline
	// cannot read.
	ErrUnsupported = errors.New("unsupported")
)

// NotFoundError names the missing resource.
type NotFoundError struct {
	Resource string // "project", "layer", "database", "archive"
	ID       string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %q not found", e.Resource, e.ID)
}

// Is matches ErrNotFound.
func (e *NotFoundError) Is(target error) bool { return target == ErrNotFound }

// NewNotFoundError creates a NotFoundError.
func NewNotFoundError(resource, id string) *NotFoundError {
	return &NotFoundError{Resource: resource, ID: id}
}

// AlreadyExistsError is returned when ingesting into a registered project
// without replacement.
type AlreadyExistsError struct {
	Resource string
	ID       string
}

func (e *AlreadyExistsError) Error() string {
	return fmt.Sprintf("%s %q already exists", e.Resource, e.ID)
}

// Is matches ErrAlreadyExists.
func (e *AlreadyExistsError) Is(target error) bool { return target == ErrAlreadyExists }

// NewAlreadyExistsError creates an AlreadyExistsError.
func NewAlreadyExistsError(resource, id string) *AlreadyExistsError {
	return &AlreadyExistsError{Resource: resource, ID: id}
}

// ValidationError reports a rejected field value.
type ValidationError struct {
	Field   string
	Value   any
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return "invalid input: " + e.Message
	}
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

// Is matches ErrInvalidInput.
func (e *ValidationError) Is(target error) bool { return target == ErrInvalidInput }

// NewValidationError creates a ValidationError.
func NewValidationError(field string, value any, message string) *ValidationError {
	return &ValidationError{Field: field, Value: value, Message: message}
}

// ConfigError reports an unreadable or inconsistent configuration source.
type ConfigError struct {
	Component string
	Message   string
	Err       error
}

func (e *ConfigError) Error() string {
	if e.Component == "" {
		return "config: " + e.Message
	}
	return fmt.Sprintf("config %s: %s", e.Component, e.Message)
}

func (e *ConfigError) Unwrap() error { return e.Err }

// NewConfigError creates a ConfigError.
func NewConfigError(component, message string, err error) *ConfigError {
	return &ConfigError{Component: component, Message: message, Err: err}
}

// ParseError reports a document that could not be decoded.
type ParseError struct {
	Format  string // "json", "yaml", "zip", "wkt", "gpkg"
	File    string
	Message string
	Err     error
}

func (e *ParseError) Error() string {
	if e.File == "" {
		return fmt.Sprintf("parse %s: %s", e.Format, e.Message)
	}
	return fmt.Sprintf("parse %s %s: %s", e.Format, e.File, e.Message)
}

func (e *ParseError) Unwrap() error { return e.Err }

// NewParseError creates a ParseError.
func NewParseError(format, file, message string, err error) *ParseError {
	return &ParseError{Format: format, File: file, Message: message, Err: err}
}

// IOError reports a filesystem failure. A missing path also matches
// ErrNotFound.
type IOError struct {
	Operation string // "read", "write", "mkdir", "rename", "remove", "open"
	Path      string
	Err       error
}

func (e *IOError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("%s: %v", e.Operation, e.Err)
	}
	return fmt.Sprintf("%s %s: %v", e.Operation, e.Path, e.Err)
}

func (e *IOError) Unwrap() error { return e.Err }

// Is matches ErrNotFound when the underlying error is fs.ErrNotExist.
func (e *IOError) Is(target error) bool {
	return target == ErrNotFound && errors.Is(e.Err, fs.ErrNotExist)
}

// ResourceError reports a failed operation on a pipeline input or output.
type ResourceError struct {
	Operation string // "open", "profile", "parse", "save", "load"
	Resource  string // "database", "archive", "toolbox", "project", "layer"
	ID        string
	Err       error
}

func (e *ResourceError) Error() string {
	if e.ID == "" {
		return fmt.Sprintf("%s %s: %v", e.Operation, e.Resource, e.Err)
	}
	return fmt.Sprintf("%s %s %s: %v", e.Operation, e.Resource, e.ID, e.Err)
}

func (e *ResourceError) Unwrap() error { return e.Err }

// NewResourceError creates a ResourceError.
func NewResourceError(operation, resource, id string, err error) *ResourceError {
	return &ResourceError{Operation: operation, Resource: resource, ID: id, Err: err}
}

// ProfileError describes a degradation confined to one layer. It is kept as
// data next to the layer's minimal profile.
type ProfileError struct {
	Layer string
	Stage string // "open", "describe", "count", "stats", "attachments"
	Err   error
}

func (e *ProfileError) Error() string {
	return fmt.Sprintf("layer %s: %s: %v", e.Layer, e.Stage, e.Err)
}

func (e *ProfileError) Unwrap() error { return e.Err }

// NewProfileError creates a ProfileError.
func NewProfileError(layer, stage string, err error) *ProfileError {
	return &ProfileError{Layer: layer, Stage: stage, Err: err}
}

// IsNotFound reports whether err matches ErrNotFound.
func IsNotFound(err error) bool { return errors.Is(err, ErrNotFound) }

// IsAlreadyExists reports whether err matches ErrAlreadyExists.
func IsAlreadyExists(err error) bool { return errors.Is(err, ErrAlreadyExists) }

// IsValidationError reports whether err matches ErrInvalidInput.
func IsValidationError(err error) bool { return errors.Is(err, ErrInvalidInput) }

// IsCanceled reports whether err matches ErrCanceled.
func IsCanceled(err error) bool { return errors.Is(err, ErrCanceled) }

// IsUnsupported reports whether err matches ErrUnsupported.
func IsUnsupported(err error) bool { return errors.Is(err, ErrUnsupported) }

// WrapValidation turns err into a ValidationError on field. Nil stays nil.
func WrapValidation(field string, err error) error {
	if err == nil {
		return nil
	}
	return &ValidationError{Field: field, Message: err.Error()}
}

// WrapIO wraps err as an IOError. Nil stays nil.
func WrapIO(operation, path string, err error) error {
	if err == nil {
		return nil
	}
	return &IOError{Operation: operation, Path: path, Err: err}
}

// WrapResource wraps err as a ResourceError. Nil stays nil.
func WrapResource(operation, resource, id string, err error) error {
	if err == nil {
		return nil
	}
	return NewResourceError(operation, resource, id, err)
}

// WrapParse wraps err as a ParseError. Nil stays nil.
func WrapParse(format, file string, err error) error {
	if err == nil {
		return nil
	}
	return NewParseError(format, file, err.Error(), err)
}
