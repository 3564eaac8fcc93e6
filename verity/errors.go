package verity

import (
	"errors"
	"fmt"
)

// Kind is a stable category for programmatic error handling.
//
// Callers should branch on Code/RuleID rather than matching error strings.
// Error() strings are human-readable and may evolve.
type Kind string

const (
	KindDomain   Kind = "Domain"
	KindPolicy   Kind = "Policy"
	KindCrypto   Kind = "Crypto"
	KindEncoding Kind = "Encoding"
	KindConfig   Kind = "Config"
	KindInternal Kind = "Internal"
)

// Code names the single verification rule an attestation violated.
type Code string

const (
	CodeInvalidName             Code = "InvalidName"
	CodeInvalidVersion          Code = "InvalidVersion"
	CodeInvalidCluster          Code = "InvalidCluster"
	CodeSubjectMismatch         Code = "SubjectMismatch"
	CodeSubjectIsNotSigner      Code = "SubjectIsNotSigner"
	CodeExpired                 Code = "Expired"
	CodeInvalidSchema           Code = "InvalidSchema"
	CodeSignatureRecoveryFailed Code = "SignatureRecoveryFailed"
	CodeUntrustedSigner         Code = "UntrustedSigner"

	// Not verification outcomes; raised while loading configuration or
	// decoding untrusted input.
	CodeInvalidConfig     Code = "InvalidConfig"
	CodeMalformedEncoding Code = "MalformedEncoding"
)

// Error is the package's structured error type.
//
// RuleID is a stable identifier (e.g. VERITY-DOM-001, VERITY-CRYPTO-101)
// naming the violated rule. Stage is the last verification stage reached
// before the failure.
type Error struct {
	Kind    Kind
	Code    Code
	RuleID  string
	Stage   Stage
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

// Is matches another *Error by Code, so sentinel comparisons such as
// errors.Is(err, verity.ErrExpired) work regardless of message or stage.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok || e == nil || t == nil {
		return false
	}
	return e.Code == t.Code
}

// Sentinels for errors.Is. Only Code is compared.
var (
	ErrInvalidName             = &Error{Code: CodeInvalidName}
	ErrInvalidVersion          = &Error{Code: CodeInvalidVersion}
	ErrInvalidCluster          = &Error{Code: CodeInvalidCluster}
	ErrSubjectMismatch         = &Error{Code: CodeSubjectMismatch}
	ErrSubjectIsNotSigner      = &Error{Code: CodeSubjectIsNotSigner}
	ErrExpired                 = &Error{Code: CodeExpired}
	ErrInvalidSchema           = &Error{Code: CodeInvalidSchema}
	ErrSignatureRecoveryFailed = &Error{Code: CodeSignatureRecoveryFailed}
	ErrUntrustedSigner         = &Error{Code: CodeUntrustedSigner}
	ErrInvalidConfig           = &Error{Code: CodeInvalidConfig}
	ErrMalformedEncoding       = &Error{Code: CodeMalformedEncoding}
)

func newError(kind Kind, code Code, ruleID, msg string) *Error {
	return &Error{Kind: kind, Code: code, RuleID: ruleID, Message: msg}
}

func wrapError(kind Kind, code Code, ruleID, msg string, cause error) *Error {
	e := newError(kind, code, ruleID, msg)
	e.Cause = cause
	return e
}

// IsKind reports whether err is (or wraps) a *Error with the given Kind.
func IsKind(err error, kind Kind) bool {
	var e *Error
	if !errors.As(err, &e) {
		return false
	}
	return e.Kind == kind
}

// CodeOf returns the Code of a structured error, or "" if err is not one.
func CodeOf(err error) Code {
	var e *Error
	if !errors.As(err, &e) {
		return ""
	}
	return e.Code
}

// RuleID returns the stable RuleID for a structured error, or "" if unknown.
func RuleID(err error) string {
	var e *Error
	if !errors.As(err, &e) {
		return ""
	}
	return e.RuleID
}
