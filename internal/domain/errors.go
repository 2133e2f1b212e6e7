package domain

import (
	"errors"
	"fmt"
)

// ErrJoinCodeTaken is the store-level uniqueness violation on events.join_code.
// The creation path treats it as one more collision inside the retry budget.
var ErrJoinCodeTaken = errors.New("join code already taken")

type ErrCode string

const (
	CodeValidation    ErrCode = "validation_error"
	CodeMissingFields ErrCode = "missing_fields"
	CodeNotFound      ErrCode = "not_found"
	CodeForbidden     ErrCode = "forbidden"
	CodeExhausted     ErrCode = "generation_exhausted"
	CodeInvalidState  ErrCode = "invalid_state"
)

type AppError struct {
	Code    ErrCode
	Message string
	Meta    map[string]string
}

func (e *AppError) Error() string {
	if len(e.Meta) == 0 {
		return fmt.Sprintf("%s: %s", e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s (%v)", e.Code, e.Message, e.Meta)
}

func ErrValidation(msg string) error { return &AppError{Code: CodeValidation, Message: msg} }
func ErrValidationMeta(msg string, meta map[string]string) error {
	return &AppError{Code: CodeValidation, Message: msg, Meta: meta}
}
func ErrNotFound(msg string) error     { return &AppError{Code: CodeNotFound, Message: msg} }
func ErrForbidden(msg string) error    { return &AppError{Code: CodeForbidden, Message: msg} }
func ErrInvalidState(msg string) error { return &AppError{Code: CodeInvalidState, Message: msg} }

// ErrGenerationExhausted is returned when the join-code retry budget runs out.
// It signals store saturation or a code-space problem, not a client mistake.
func ErrGenerationExhausted(attempts int) error {
	return &AppError{
		Code:    CodeExhausted,
		Message: fmt.Sprintf("could not allocate a unique join code after %d attempts", attempts),
	}
}

// ErrMissingFields carries the complete set of fields blocking a public
// visibility transition, not just the first one encountered.
func ErrMissingFields(fields []string) error {
	meta := make(map[string]string, len(fields))
	for _, f := range fields {
		meta[f] = "required"
	}
	return &AppError{
		Code:    CodeMissingFields,
		Message: "event is missing fields required for public visibility",
		Meta:    meta,
	}
}
