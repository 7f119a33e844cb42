package main

import (
	"errors"
	"fmt"
)

var (
	ErrConnection     = errors.New("connection error")
	ErrInvalidSegment = errors.New("invalid segment")
	ErrOperation      = errors.New("operation error")
	ErrBusy           = errors.New("another operation is in progress")
	ErrDisconnected   = errors.New("not connected")
	ErrNotFolder      = errors.New("not a folder")
	ErrNotFile        = errors.New("not a file")
	ErrObjectExists   = errors.New("object already exists")
	ErrFolderNotEmpty = errors.New("folder not empty, only the placeholder was removed")
)

// opError pairs an error kind with the underlying cause so that both
// errors.Is(err, ErrOperation) and errors.Is(err, <backend error>) hold.
type opError struct {
	kind  error
	msg   string
	cause error
}

var _ error = (*opError)(nil)

func newConnectionError(msg string, cause error) error {
	return &opError{kind: ErrConnection, msg: msg, cause: cause}
}

func newOperationError(msg string, cause error) error {
	return &opError{kind: ErrOperation, msg: msg, cause: cause}
}

func newInvalidSegmentError(segment string, reason string) error {
	return &opError{kind: ErrInvalidSegment, msg: fmt.Sprintf("%q %s", segment, reason)}
}

func (err *opError) Error() string {
	if err == nil {
		return "(*opError)(nil)"
	}
	message := err.kind.Error() + ": " + err.msg
	if err.cause != nil {
		message += ": " + err.cause.Error()
	}
	return message
}

func (err *opError) Unwrap() []error {
	if err.cause == nil {
		return []error{err.kind}
	}
	return []error{err.kind, err.cause}
}

// StatusText turns an error returned by the controller into the line shown
// in the status bar.
func StatusText(err error) string {
	var oe *opError
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrBusy):
		return "Busy, wait for the current operation to finish"
	case errors.Is(err, ErrDisconnected):
		return "Not connected"
	case errors.As(err, &oe):
		text := oe.msg
		if oe.cause != nil {
			text += ": " + oe.cause.Error()
		}
		switch oe.kind {
		case ErrConnection:
			return "Connection failed: " + text
		case ErrInvalidSegment:
			return "Invalid name: " + text
		default:
			return "Failed to " + text
		}
	default:
		return err.Error()
	}
}
