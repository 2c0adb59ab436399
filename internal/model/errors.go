package model

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for errors.Is checks.
var (
	ErrFileRead         = errors.New("file read error")
	ErrSchemaNotFound   = errors.New("schema not found")
	ErrConfigurationGap = errors.New("capacity outside configured ranges")
	ErrEmptyInput       = errors.New("empty input")
)

// FileReadError reports a file that could not be opened or parsed.
type FileReadError struct {
	Path string
	Err  error
}

func (e *FileReadError) Error() string {
	return fmt.Sprintf("read %s: %v", e.Path, e.Err)
}

// Unwrap returns the underlying cause.
func (e *FileReadError) Unwrap() error { return e.Err }

// Is matches ErrFileRead.
func (e *FileReadError) Is(target error) bool { return target == ErrFileRead }

// SchemaNotFoundError reports required columns missing for one axis of one file.
type SchemaNotFoundError struct {
	Path   string
	Axis   Axis
	Fields []Field
}

func (e *SchemaNotFoundError) Error() string {
	names := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		names[i] = string(f)
	}
	return fmt.Sprintf("%s: %s axis skipped, missing columns: %s", e.Path, e.Axis, strings.Join(names, ", "))
}

// Is matches ErrSchemaNotFound.
func (e *SchemaNotFoundError) Is(target error) bool { return target == ErrSchemaNotFound }

// ConfigurationGapWarning reports a row whose capacity matches no range.
type ConfigurationGapWarning struct {
	Path       string
	Row        int // 1-based data row number
	CapacityMB float64
}

func (e *ConfigurationGapWarning) Error() string {
	return fmt.Sprintf("%s row %d: capacity %.4f MB matches no configured range", e.Path, e.Row, e.CapacityMB)
}

// Is matches ErrConfigurationGap.
func (e *ConfigurationGapWarning) Is(target error) bool { return target == ErrConfigurationGap }

// EmptyInputWarning reports a run with nothing to aggregate.
type EmptyInputWarning struct {
	Dir    string
	Reason string
}

func (e *EmptyInputWarning) Error() string {
	return fmt.Sprintf("no usable input in %s: %s", e.Dir, e.Reason)
}

// Is matches ErrEmptyInput.
func (e *EmptyInputWarning) Is(target error) bool { return target == ErrEmptyInput }
