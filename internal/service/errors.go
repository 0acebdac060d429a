package service

import (
	"errors"
	"strings"
)

var (
	ErrValidation         = errors.New("validation")
	ErrNotFound           = errors.New("not found")
	ErrConflict           = errors.New("conflict")
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// ConflictError names the unique fields that are already taken.
type ConflictError struct {
	Fields []string
}

func (e *ConflictError) Error() string {
	if len(e.Fields) == 0 {
		return "conflict: account already exists"
	}
	return "conflict: " + strings.Join(e.Fields, ", ") + " already in use"
}

func (e *ConflictError) Is(target error) bool { return target == ErrConflict }
