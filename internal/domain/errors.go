package domain

import (
	"errors"
	"fmt"
)

// Kind classifies a failure so transports can map it without string matching.
type Kind string

const (
	KindNotFound     Kind = "not_found"
	KindConflict     Kind = "conflict"
	KindForbidden    Kind = "forbidden"
	KindInvalidState Kind = "invalid_state"
	KindValidation   Kind = "validation"
	KindUnauthorized Kind = "unauthorized"
	KindRateLimited  Kind = "rate_limited"
	KindUnexpected   Kind = "unexpected"
)

// Error is the structured failure returned by every core operation.
type Error struct {
	Kind    Kind
	Code    string
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches on Code so sentinel values work with errors.Is.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Code != "" && t.Code == e.Code
}

func newError(kind Kind, code, msg string) *Error {
	return &Error{Kind: kind, Code: code, Message: msg}
}

var (
	ErrSlotNotFound         = newError(KindNotFound, "SLOT_NOT_FOUND", "Slot not found")
	ErrBookingNotFound      = newError(KindNotFound, "BOOKING_NOT_FOUND", "Booking not found")
	ErrUserNotFound         = newError(KindNotFound, "USER_NOT_FOUND", "User not found")
	ErrDuplicateBooking     = newError(KindConflict, "DUPLICATE_BOOKING", "Duplicate booking")
	ErrSlotAlreadyApproved  = newError(KindConflict, "SLOT_ALREADY_APPROVED", "Slot already approved")
	ErrSlotAlreadyConfirmed = newError(KindConflict, "SLOT_ALREADY_CONFIRMED", "Slot already confirmed")
	ErrSlotLocked           = newError(KindConflict, "SLOT_LOCKED", "Slot has a confirmed booking")
	ErrSlotExists           = newError(KindConflict, "SLOT_EXISTS", "Slot already exists")
	ErrNameExists           = newError(KindConflict, "NAME_EXISTS", "Name already exists")
	ErrEmailExists          = newError(KindConflict, "EMAIL_EXISTS", "Email already exists")
	ErrForbidden            = newError(KindForbidden, "FORBIDDEN", "Forbidden")
	ErrBookingConfirmed     = newError(KindInvalidState, "BOOKING_CONFIRMED", "Booking is confirmed and can no longer change")
	ErrInvalidStatus        = newError(KindInvalidState, "INVALID_STATUS", "Invalid booking status")
	ErrInvalidCredentials   = newError(KindUnauthorized, "INVALID_CREDENTIALS", "Invalid email or password")
	ErrUnauthorized         = newError(KindUnauthorized, "UNAUTHORIZED", "Authentication required")
	ErrTooManyRequests      = newError(KindRateLimited, "TOO_MANY_REQUESTS", "Too many requests, try again later")
)

// Validation builds a validation failure for a malformed input field.
func Validation(msg string) *Error {
	return newError(KindValidation, "VALIDATION_ERROR", msg)
}

// Unexpected wraps an infrastructure failure.
func Unexpected(msg string, err error) *Error {
	return &Error{Kind: KindUnexpected, Code: "INTERNAL_ERROR", Message: msg, Err: err}
}

// KindOf returns the kind of err, KindUnexpected for foreign errors.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnexpected
}

// CodeOf returns the machine code of err.
func CodeOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return "INTERNAL_ERROR"
}

func IsNotFound(err error) bool     { return err != nil && KindOf(err) == KindNotFound }
func IsConflict(err error) bool     { return err != nil && KindOf(err) == KindConflict }
func IsForbidden(err error) bool    { return err != nil && KindOf(err) == KindForbidden }
func IsInvalidState(err error) bool { return err != nil && KindOf(err) == KindInvalidState }
func IsUnexpected(err error) bool   { return err != nil && KindOf(err) == KindUnexpected }
