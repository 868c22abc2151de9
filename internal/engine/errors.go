// Package engine orchestrates the Atomic Counter Store and Durable
// Stock Store into the reservation coordination operations: reserve,
// extend, commit, release, snapshot, and events.
package engine

import (
	"errors"
	"fmt"
)

// Sentinel error categories, matching the taxonomy every operation in
// this package reports against.
var (
	ErrBadRequest   = errors.New("bad_request")
	ErrInsufficient = errors.New("insufficient")
	ErrConflict     = errors.New("conflict")
	ErrNotFound     = errors.New("not_found")
	ErrUnavailable  = errors.New("unavailable")
	ErrInternal     = errors.New("internal")
)

// OperationError carries the error category plus whatever structured
// detail the caller needs to act on it (current availability, the
// quantity an existing hold already reserves, and so on).
type OperationError struct {
	Category    error
	Message     string
	Available   int64
	ExistingQty int64
}

func (e *OperationError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s: %s", e.Category, e.Message)
	}
	return e.Category.Error()
}

func (e *OperationError) Unwrap() error {
	return e.Category
}

func badRequest(msg string) error {
	return &OperationError{Category: ErrBadRequest, Message: msg}
}

func insufficient(available int64) error {
	return &OperationError{Category: ErrInsufficient, Available: available}
}

func conflict(existingQty int64) error {
	return &OperationError{Category: ErrConflict, ExistingQty: existingQty}
}

func notFound() error {
	return &OperationError{Category: ErrNotFound}
}

func unavailable(msg string) error {
	return &OperationError{Category: ErrUnavailable, Message: msg}
}

func internalErr(msg string) error {
	return &OperationError{Category: ErrInternal, Message: msg}
}
