// Package service holds the create/read/update/delete rules for users, life
// spheres, projects and tasks. Client mistakes come back as *ValidationError;
// any other error is a failure of the storage behind the service.
package service

import (
	"errors"
	"fmt"

	"github.com/harlequingg/lifestrat-api/internal/storage"
)

var (
	ErrOwnerMismatch      = errors.New("owner mismatch")
	ErrDuplicateName      = errors.New("duplicate name")
	ErrNotFound           = errors.New("not found")
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// ValidationError is a rejected request. Kind is one of the Err* values above
// and is what errors.Is matches against.
type ValidationError struct {
	Kind    error
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return e.Field + ": " + e.Message
}

func (e *ValidationError) Unwrap() error {
	return e.Kind
}

func invalid(kind error, field, format string, args ...any) error {
	return &ValidationError{Kind: kind, Field: field, Message: fmt.Sprintf(format, args...)}
}

func notFound(what string) error {
	return invalid(ErrNotFound, "", "%s not found", what)
}

// duplicate converts a storage uniqueness failure into a client error and
// leaves every other error untouched.
func duplicate(err error, field, format string, args ...any) error {
	if errors.Is(err, storage.ErrDuplicate) {
		return invalid(ErrDuplicateName, field, format, args...)
	}
	return err
}
