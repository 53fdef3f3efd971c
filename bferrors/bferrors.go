// Package bferrors defines the error taxonomy shared by the fesl and
// theater clients.
package bferrors

import (
	"errors"
	"fmt"
)

// Kind classifies what part of the protocol stack raised an error.
type Kind int

const (
	// Connection covers DNS, dial, send and receive failures.
	Connection Kind = iota
	// Timeout covers progress timeouts on connect or read.
	Timeout
	// Protocol covers malformed headers, length mismatches, body parse
	// failures and unknown transmission-type discriminators.
	Protocol
	// Auth covers rejected FESL logins and rejected Theater authentication.
	Auth
	// Parameter covers errorCode=21 and locally-validated bad input.
	Parameter
	// NotFound covers the record/player/server/lobby-not-found family.
	// Use the Not field to tell the four apart.
	NotFound
	// Search covers search queries that returned no or too many results.
	Search
)

func (k Kind) String() string {
	switch k {
	case Connection:
		return "connection"
	case Timeout:
		return "timeout"
	case Protocol:
		return "protocol"
	case Auth:
		return "auth"
	case Parameter:
		return "parameter"
	case NotFound:
		return "not_found"
	case Search:
		return "search"
	default:
		return "unknown"
	}
}

// Not refines a NotFound error into which kind of entity was missing.
type Not int

const (
	NotNone Not = iota
	Player
	Lobby
	Server
	Record
)

func (n Not) String() string {
	switch n {
	case Player:
		return "player"
	case Lobby:
		return "lobby"
	case Server:
		return "server"
	case Record:
		return "record"
	default:
		return ""
	}
}

// Error is the single concrete error type raised by this module. Callers
// distinguish cases with errors.As and a switch over Kind/Not rather than
// a type hierarchy.
type Error struct {
	Kind Kind
	Not  Not
	// Code is the FESL errorCode, when the error originated from a FESL
	// response body. Zero if not applicable.
	Code int
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Not != NotNone {
		if e.Msg != "" {
			return fmt.Sprintf("%s: %s (%s)", e.Kind, e.Not, e.Msg)
		}
		return fmt.Sprintf("%s: %s", e.Kind, e.Not)
	}
	if e.Code != 0 {
		return fmt.Sprintf("%s: %s (code %d)", e.Kind, e.Msg, e.Code)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Msg, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func New(kind Kind, msg string) *Error {
	return &Error{Kind: kind, Msg: msg}
}

func Wrap(kind Kind, msg string, err error) *Error {
	return &Error{Kind: kind, Msg: msg, Err: err}
}

func NewNotFound(not Not, msg string) *Error {
	return &Error{Kind: NotFound, Not: not, Msg: msg}
}

func NewCoded(kind Kind, code int, msg string) *Error {
	return &Error{Kind: kind, Code: code, Msg: msg}
}

// Is reports whether err is (or wraps) a *Error of the given kind.
func Is(err error, kind Kind) bool {
	var e *Error
	if !errors.As(err, &e) {
		return false
	}
	return e.Kind == kind
}
