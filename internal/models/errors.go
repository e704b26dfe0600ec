package models

import "fmt"

// RowErrorKind classifies why a single row was dropped. Format means the
// value could not be decoded into its type; Semantic means it decoded but
// violates a domain rule.
type RowErrorKind int

const (
	ErrFormat RowErrorKind = iota
	ErrSemantic
)

func (k RowErrorKind) String() string {
	switch k {
	case ErrFormat:
		return "format"
	case ErrSemantic:
		return "semantic"
	default:
		return "unknown"
	}
}

// RowError is a classified single-row failure. Rows failing with a
// RowError are dropped and counted, never propagated to the caller.
type RowError struct {
	Kind  RowErrorKind
	Field string
	Value string
	Msg   string
}

func (e *RowError) Error() string {
	if e.Value != "" {
		return fmt.Sprintf("%s error on field %s: %s (value: %q)", e.Kind, e.Field, e.Msg, e.Value)
	}
	return fmt.Sprintf("%s error on field %s: %s", e.Kind, e.Field, e.Msg)
}

func NewFormatError(field, value, msg string) *RowError {
	return &RowError{Kind: ErrFormat, Field: field, Value: value, Msg: msg}
}

func NewSemanticError(field, msg string) *RowError {
	return &RowError{Kind: ErrSemantic, Field: field, Msg: msg}
}
