// Package apperr defines the recoverable error taxonomy of the engine.
// Every kind is user-facing: handlers surface the specific message and a
// matching HTTP status instead of a generic failure. Nothing here is
// process-fatal — unexpected internal errors fall back to KindInternal and
// are logged while the engine stays available for other aggregates.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind identifies one entry of the error taxonomy.
type Kind string

const (
	KindInvalidTransition      Kind = "INVALID_TRANSITION"
	KindNotDispatched          Kind = "NOT_DISPATCHED"
	KindOrderAlreadyDispatched Kind = "ORDER_ALREADY_DISPATCHED"
	KindIncompleteOrders       Kind = "INCOMPLETE_ORDERS"
	KindNegativeStock          Kind = "NEGATIVE_STOCK"
	KindDuplicateRule          Kind = "DUPLICATE_RULE"
	KindConcurrentModification Kind = "CONCURRENT_MODIFICATION"
	KindNotFound               Kind = "NOT_FOUND"
	KindValidation             Kind = "VALIDATION"
	KindInternal               Kind = "INTERNAL"
)

// Error carries a taxonomy kind, a user-facing message and an optional cause.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

func newf(kind Kind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// InvalidTransition reports an illegal order status change.
func InvalidTransition(from, to string) *Error {
	return newf(KindInvalidTransition, "illegal transition from %s to %s", from, to)
}

// NotDispatched reports a transition that requires the order to belong to an
// open loading sheet.
func NotDispatched(orderNo string) *Error {
	return newf(KindNotDispatched, "order %s is not assigned to a loading sheet", orderNo)
}

// OrderAlreadyDispatched reports an order already bound to an open load.
func OrderAlreadyDispatched(orderNo string) *Error {
	return newf(KindOrderAlreadyDispatched, "order %s is already assigned to an open loading sheet", orderNo)
}

// IncompleteOrders reports a completion attempt while bound orders are still
// in a non-terminal status.
func IncompleteOrders(sheetNo string) *Error {
	return newf(KindIncompleteOrders, "loading sheet %s has orders that are not yet delivered or cancelled", sheetNo)
}

// NegativeStock reports a movement that would drive a balance below zero.
func NegativeStock(sku string, balance, delta int) *Error {
	return newf(KindNegativeStock, "movement of %d would drive stock of %s below zero (current balance %d)", delta, sku, balance)
}

// DuplicateRule reports a commission rule conflict for an exact
// (supplier, category) pair.
func DuplicateRule(supplier, scope string) *Error {
	return newf(KindDuplicateRule, "a commission rule for supplier %s and category %s already exists", supplier, scope)
}

// ConcurrentModification reports an optimistic-concurrency conflict; the
// caller should re-read and retry.
func ConcurrentModification(entity string) *Error {
	return newf(KindConcurrentModification, "%s was modified concurrently, retry with fresh state", entity)
}

// NotFound reports a missing entity.
func NotFound(entity string) *Error {
	return newf(KindNotFound, "%s not found", entity)
}

// Validation reports malformed or out-of-policy input.
func Validation(format string, args ...interface{}) *Error {
	return newf(KindValidation, format, args...)
}

// Internal wraps an unexpected error behind a generic message. The cause is
// preserved for logging but not exposed to callers.
func Internal(err error) *Error {
	return &Error{Kind: KindInternal, Message: "internal error", Err: err}
}

// KindOf extracts the taxonomy kind, defaulting to KindInternal for errors
// outside the taxonomy.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// IsKind reports whether err belongs to the given taxonomy kind.
func IsKind(err error, kind Kind) bool {
	return KindOf(err) == kind
}

// HTTPStatus maps taxonomy kinds to response status codes.
func HTTPStatus(err error) int {
	switch KindOf(err) {
	case KindNotFound:
		return http.StatusNotFound
	case KindDuplicateRule, KindConcurrentModification, KindOrderAlreadyDispatched:
		return http.StatusConflict
	case KindInvalidTransition, KindNotDispatched, KindIncompleteOrders, KindNegativeStock:
		return http.StatusUnprocessableEntity
	case KindValidation:
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}
