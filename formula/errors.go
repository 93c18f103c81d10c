package formula

import (
	"errors"
	"fmt"
)

// Validator rejections.
var (
	ErrFormulaTooLong  = errors.New("formula too long")
	ErrSyntax          = errors.New("invalid formula syntax")
	ErrUnsafeConstruct = errors.New("unsafe construct")
)

// Evaluation failures.
var (
	ErrDivisionByZero  = errors.New("division by zero")
	ErrTypeMismatch    = errors.New("type mismatch")
	ErrUnboundVariable = errors.New("unbound variable")
	ErrEvaluation      = errors.New("evaluation error")
)

// SecurityError is returned when a formula is rejected before evaluation.
// Construct names the offending node kind for ErrUnsafeConstruct.
type SecurityError struct {
	Kind      error
	Construct string
	Pos       int
	Detail    string
}

func (e *SecurityError) Error() string {
	switch {
	case e.Construct != "" && e.Detail != "":
		return fmt.Sprintf("%v: %s: %s", e.Kind, e.Construct, e.Detail)
	case e.Construct != "":
		return fmt.Sprintf("%v: %s", e.Kind, e.Construct)
	case e.Detail != "":
		return fmt.Sprintf("%v: %s", e.Kind, e.Detail)
	}
	return e.Kind.Error()
}

func (e *SecurityError) Unwrap() error { return e.Kind }

// EvaluationError is returned when a validated formula fails at run time.
// Detail is always a user-facing message; host error text never reaches it.
type EvaluationError struct {
	Kind   error
	Detail string
}

func (e *EvaluationError) Error() string {
	if e.Detail == "" {
		return e.Kind.Error()
	}
	return fmt.Sprintf("%v: %s", e.Kind, e.Detail)
}

func (e *EvaluationError) Unwrap() error { return e.Kind }

func syntaxError(pos int, format string, args ...any) *SecurityError {
	return &SecurityError{Kind: ErrSyntax, Pos: pos, Detail: fmt.Sprintf(format, args...)}
}

func unsafe(construct string, pos int, detail string) *SecurityError {
	return &SecurityError{Kind: ErrUnsafeConstruct, Construct: construct, Pos: pos, Detail: detail}
}

func evalError(kind error, format string, args ...any) *EvaluationError {
	return &EvaluationError{Kind: kind, Detail: fmt.Sprintf(format, args...)}
}
