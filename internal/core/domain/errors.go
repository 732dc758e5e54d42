package domain

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	ErrValidation          = errors.New("validation failed")
	ErrDuplicateEmail      = errors.New("email already exists")
	ErrDuplicateSku        = errors.New("sku already exists")
	ErrMissingCredentials  = errors.New("please provide email and password")
	ErrInvalidCredentials  = errors.New("incorrect email or password")
	ErrTooManyAttempts     = errors.New("too many login attempts, try again later")
	ErrUserNotFound        = errors.New("user not found")
	ErrProductNotFound     = errors.New("product not found")
	ErrNoToken             = errors.New("you are not logged in, please log in to get access")
	ErrInvalidToken        = errors.New("invalid or expired token")
	ErrStaleUser           = errors.New("the user belonging to this token no longer exists")
	ErrUnsupportedFileType = errors.New("images only: jpeg and png are accepted")
	ErrEmptyQuery          = errors.New("query cannot be empty")
	ErrStorage             = errors.New("image storage failure")
)

// ValidationError carries per-field messages for rejected input.
type ValidationError struct {
	Fields map[string]string
}

// NewValidationError builds a ValidationError from alternating field/message pairs.
func NewValidationError(fieldAndMessage ...string) *ValidationError {
	ve := &ValidationError{Fields: make(map[string]string, len(fieldAndMessage)/2)}
	for i := 0; i+1 < len(fieldAndMessage); i += 2 {
		ve.Fields[fieldAndMessage[i]] = fieldAndMessage[i+1]
	}
	return ve
}

// Add records a message for field, keeping the first message per field.
func (e *ValidationError) Add(field, msg string) {
	if e.Fields == nil {
		e.Fields = make(map[string]string)
	}
	if _, ok := e.Fields[field]; !ok {
		e.Fields[field] = msg
	}
}

// Empty reports whether no field has been rejected.
func (e *ValidationError) Empty() bool { return len(e.Fields) == 0 }

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	msgs := make([]string, 0, len(keys))
	for _, k := range keys {
		msgs = append(msgs, k+" "+e.Fields[k])
	}
	return strings.Join(msgs, "; ")
}

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

// StorageError reports a filesystem failure on a single image path.
type StorageError struct {
	Op   string
	Path string
	Err  error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

func (e *StorageError) Is(target error) bool { return target == ErrStorage }
