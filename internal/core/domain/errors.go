package domain

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound     = errors.New("record not found")
	ErrInvalidInput = errors.New("invalid input")
	ErrUnauthorized = errors.New("not signed in")
	ErrTemporary    = errors.New("temporary failure")
)

// WrapError preserves typed semantic errors with operation context.
func WrapError(kind error, operation string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w: %w", operation, kind, err)
}

func IsKind(err error, kind error) bool {
	return errors.Is(err, kind)
}

// MalformedRecordError reports a sidecar that cannot be turned into a record.
type MalformedRecordError struct {
	Path   string
	Field  string
	Reason string
	Err    error
}

func (e *MalformedRecordError) Error() string {
	if e == nil {
		return "malformed record"
	}
	msg := "malformed record"
	if e.Path != "" {
		msg += " " + e.Path
	}
	if e.Field != "" {
		msg += ": field " + e.Field
	}
	if e.Reason != "" {
		msg += ": " + e.Reason
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *MalformedRecordError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

func IsMalformed(err error) bool {
	var target *MalformedRecordError
	return errors.As(err, &target)
}

func malformed(field, reason string, err error) *MalformedRecordError {
	return &MalformedRecordError{Field: field, Reason: reason, Err: err}
}
