package errors

import (
	"errors"
	"fmt"
	"net/http"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

type Code codes.Code

const (
	CodeInvalidArgument    = Code(codes.InvalidArgument)
	CodeNotFound           = Code(codes.NotFound)
	CodeAlreadyExists      = Code(codes.AlreadyExists)
	CodeFailedPrecondition = Code(codes.FailedPrecondition)
	CodeInternal           = Code(codes.Internal)
	CodeUnauthenticated    = Code(codes.Unauthenticated)
)

var code2http = map[Code]int{
	CodeInvalidArgument:    http.StatusBadRequest,
	CodeNotFound:           http.StatusNotFound,
	CodeAlreadyExists:      http.StatusConflict,
	CodeFailedPrecondition: http.StatusUnprocessableEntity,
	CodeInternal:           http.StatusInternalServerError,
	CodeUnauthenticated:    http.StatusUnauthorized,
}

// Reasons identify error kinds that callers match with errors.Is.
const (
	ReasonDecode           = "SCORE_DECODE"
	ReasonUnequalMaxScores = "UNEQUAL_MAX_SCORES"
	ReasonTypeMismatch     = "SCORE_TYPE_MISMATCH"
	ReasonOutOfRange       = "SCORE_OUT_OF_RANGE"
)

var (
	// ErrDecode is returned when a persisted score string matches no known encoding.
	ErrDecode = New(CodeInvalidArgument, WithReason(ReasonDecode))

	// ErrUnequalMaxScores is returned when a min-scored group mixes tests with different max scores.
	ErrUnequalMaxScores = New(CodeFailedPrecondition, WithReason(ReasonUnequalMaxScores))

	// ErrTypeMismatch is returned when two different score variants are added or compared.
	ErrTypeMismatch = New(CodeFailedPrecondition, WithReason(ReasonTypeMismatch))

	// ErrOutOfRange is returned when a score or a sum of scores cannot be represented.
	ErrOutOfRange = New(CodeInvalidArgument, WithReason(ReasonOutOfRange))
)

type Error struct {
	Code    Code   `json:"code"`
	Reason  string `json:"reason,omitempty"`
	Message string `json:"message"`
	err     error
}

func New(code Code, opts ...Option) *Error {
	e := &Error{
		Code:    code,
		Message: codes.Code(code).String(),
	}

	for _, opt := range opts {
		opt.apply(e)
	}

	return e
}

func (e *Error) Error() string {
	s := fmt.Sprintf("code: %d, message: %s", e.Code, e.Message)
	if e.Reason != "" {
		s += fmt.Sprintf(", reason: %s", e.Reason)
	}
	if e.err != nil {
		s += fmt.Sprintf(", err: %s", e.err)
	}

	return s
}

func (e *Error) Unwrap() error {
	return e.err
}

// Is reports whether target carries the same reason. Errors without a reason only match themselves.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}

	return e.Reason != "" && e.Reason == t.Reason
}

func (e *Error) GRPCStatus() *status.Status {
	return status.New(codes.Code(e.Code), e.Message)
}

func (e *Error) HTTPStatusCode() int {
	if c, ok := code2http[e.Code]; ok {
		return c
	}

	return http.StatusInternalServerError
}

func Convert(err error) *Error {
	var e *Error
	if !errors.As(err, &e) {
		return Internal(err)
	}

	return e
}

func Internal(err error) *Error {
	return New(CodeInternal, WithCause(err))
}

// Wrap derives a new error from a sentinel, keeping its code and reason.
func Wrap(sentinel *Error, opts ...Option) *Error {
	e := &Error{
		Code:    sentinel.Code,
		Reason:  sentinel.Reason,
		Message: sentinel.Message,
	}

	for _, opt := range opts {
		opt.apply(e)
	}

	return e
}

type Option interface {
	apply(*Error)
}

type optionFunc func(*Error)

func (f optionFunc) apply(e *Error) {
	f(e)
}

func WithCause(err error) Option {
	return optionFunc(func(e *Error) {
		e.err = err
	})
}

func WithMessagef(format string, args ...any) Option {
	return optionFunc(func(e *Error) {
		e.Message = fmt.Sprintf(format, args...)
	})
}

func WithReason(reason string) Option {
	return optionFunc(func(e *Error) {
		e.Reason = reason
	})
}
