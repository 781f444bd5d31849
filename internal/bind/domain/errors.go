package domain

import (
	"errors"
	"fmt"
	"strings"
)

// Error kinds. A *ParseError always carries exactly one of these as its Kind,
// so callers can branch with errors.Is without inspecting messages.
var (
	ErrSyntax               = errors.New("syntax error")
	ErrInvalidServerAddress = errors.New("invalid server address")
	ErrInvalidIPAddress     = errors.New("invalid IP address")
	ErrInvalidZoneType      = errors.New("invalid zone type")
	ErrMissingField         = errors.New("missing required field")
	ErrCircularInclude      = errors.New("circular include detected")
	ErrFileNotFound         = errors.New("file not found")
	ErrIO                   = errors.New("io error")
	ErrIncomplete           = errors.New("incomplete input")
)

// ParseError describes a failure while lexing, parsing or resolving a
// configuration text. Line and Column are 1-based and zero when unknown.
type ParseError struct {
	Kind     error
	Line     int
	Column   int
	Expected string
	Detail   string
	Path     string
	Err      error
}

// Error renders the kind followed by whatever position and detail is known.
func (e *ParseError) Error() string {
	var b strings.Builder
	b.WriteString(e.Kind.Error())
	if e.Path != "" {
		b.WriteString(": ")
		b.WriteString(e.Path)
	}
	if e.Line > 0 {
		fmt.Fprintf(&b, " at line %d, column %d", e.Line, e.Column)
	}
	if e.Expected != "" {
		b.WriteString(": expected ")
		b.WriteString(e.Expected)
	}
	if e.Detail != "" {
		b.WriteString(": ")
		b.WriteString(e.Detail)
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

// Unwrap exposes both the kind sentinel and the underlying cause.
func (e *ParseError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// NewParseError builds a ParseError of the given kind with a free-form detail.
func NewParseError(kind error, detail string) *ParseError {
	return &ParseError{Kind: kind, Detail: detail}
}

// WithPath returns a copy of the error annotated with the file it came from.
// An existing path is kept, so the innermost file wins.
func (e *ParseError) WithPath(path string) *ParseError {
	cp := *e
	if cp.Path == "" {
		cp.Path = path
	}
	return &cp
}

// AsParseError extracts a *ParseError from err.
func AsParseError(err error) (*ParseError, bool) {
	var pe *ParseError
	if errors.As(err, &pe) {
		return pe, true
	}
	return nil, false
}
