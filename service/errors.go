package service

import (
	"errors"
	"fmt"
)

// ErrorKind classifies errors shown to the caller
type ErrorKind int

const (
	// KindInput is a malformed or out-of-range argument
	KindInput ErrorKind = iota
	// KindState is an operation invalid in the current state, such as bidding while closed
	KindState
	// KindPermission is an operation the caller may not perform
	KindPermission
)

func (k ErrorKind) String() string {
	switch k {
	case KindInput:
		return "input"
	case KindState:
		return "state"
	case KindPermission:
		return "permission"
	default:
		return "unknown"
	}
}

// UserError is a rejected operation with a message meant for the caller.
// Operations that return a UserError have not mutated any state.
type UserError struct {
	Kind    ErrorKind
	Message string
}

func (e *UserError) Error() string {
	return e.Message
}

// NewInputError creates a UserError for bad arguments
func NewInputError(format string, args ...any) *UserError {
	return &UserError{Kind: KindInput, Message: fmt.Sprintf(format, args...)}
}

// NewStateError creates a UserError for operations invalid in the current state
func NewStateError(format string, args ...any) *UserError {
	return &UserError{Kind: KindState, Message: fmt.Sprintf(format, args...)}
}

// NewPermissionError creates a UserError for unauthorized operations
func NewPermissionError(format string, args ...any) *UserError {
	return &UserError{Kind: KindPermission, Message: fmt.Sprintf(format, args...)}
}

// AsUserError unwraps err into a UserError if it is one
func AsUserError(err error) (*UserError, bool) {
	var ue *UserError
	if errors.As(err, &ue) {
		return ue, true
	}
	return nil, false
}
