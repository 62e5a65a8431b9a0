package protocol

import (
	"errors"
	"fmt"
)

// Class groups error codes by who has to act on them.
type Class string

const (
	ClassProtocol    Class = "ProtocolError"
	ClassValidation  Class = "ValidationError"
	ClassRules       Class = "RulesError"
	ClassSequence    Class = "SequenceError"
	ClassConcurrency Class = "ConcurrencyError"
	ClassNotFound    Class = "NotFoundError"
	ClassEngine      Class = "EngineFault"
)

// Code is the specific failure inside a Class.
type Code string

const (
	CodeMalformedMessage  Code = "MalformedMessage"
	CodeBatchOrdering     Code = "BatchOrderingError"
	CodeUnknownActionKind Code = "UnknownActionKind"
	CodeArityMismatch     Code = "ArityMismatch"
	CodeTypeMismatch      Code = "TypeMismatch"
	CodeWrongKind         Code = "wrong-kind"
	CodeWrongPlayer       Code = "wrong-player"
	CodeIllegalTarget     Code = "illegal-target"
	CodeIllegalTiming     Code = "illegal-timing"
	CodeSequenceGap       Code = "SequenceGap"
	CodeSessionBusy       Code = "SessionBusy"
	CodeNotAParticipant   Code = "NotAParticipant"
	CodeUnknownGame       Code = "UnknownGame"
	CodeEngineFault       Code = "EngineFault"
)

var codeClasses = map[Code]Class{
	CodeMalformedMessage:  ClassProtocol,
	CodeBatchOrdering:     ClassProtocol,
	CodeUnknownActionKind: ClassValidation,
	CodeArityMismatch:     ClassValidation,
	CodeTypeMismatch:      ClassValidation,
	CodeWrongKind:         ClassRules,
	CodeWrongPlayer:       ClassRules,
	CodeIllegalTarget:     ClassRules,
	CodeIllegalTiming:     ClassRules,
	CodeSequenceGap:       ClassSequence,
	CodeSessionBusy:       ClassConcurrency,
	CodeNotAParticipant:   ClassNotFound,
	CodeUnknownGame:       ClassNotFound,
	CodeEngineFault:       ClassEngine,
}

// Error is the error type shared by the codec, the engine and the session.
type Error struct {
	Class Class
	Code  Code
	// Slot is the offending argument index for TypeMismatch, -1 otherwise.
	Slot int
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	msg := e.Msg
	if msg == "" {
		msg = string(e.Code)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Class, msg, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Class, msg)
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches any *Error carrying the same Code, so the sentinels below work
// with errors.Is.
func (e *Error) Is(target error) bool {
	var other *Error
	if !errors.As(target, &other) {
		return false
	}
	return other.Code == e.Code
}

// Sentinels for errors.Is.
var (
	ErrMalformedMessage  = &Error{Class: ClassProtocol, Code: CodeMalformedMessage, Slot: -1}
	ErrBatchOrdering     = &Error{Class: ClassProtocol, Code: CodeBatchOrdering, Slot: -1}
	ErrUnknownActionKind = &Error{Class: ClassValidation, Code: CodeUnknownActionKind, Slot: -1}
	ErrArityMismatch     = &Error{Class: ClassValidation, Code: CodeArityMismatch, Slot: -1}
	ErrTypeMismatch      = &Error{Class: ClassValidation, Code: CodeTypeMismatch, Slot: -1}
	ErrWrongKind         = &Error{Class: ClassRules, Code: CodeWrongKind, Slot: -1}
	ErrWrongPlayer       = &Error{Class: ClassRules, Code: CodeWrongPlayer, Slot: -1}
	ErrIllegalTarget     = &Error{Class: ClassRules, Code: CodeIllegalTarget, Slot: -1}
	ErrIllegalTiming     = &Error{Class: ClassRules, Code: CodeIllegalTiming, Slot: -1}
	ErrSequenceGap       = &Error{Class: ClassSequence, Code: CodeSequenceGap, Slot: -1}
	ErrSessionBusy       = &Error{Class: ClassConcurrency, Code: CodeSessionBusy, Slot: -1}
	ErrNotAParticipant   = &Error{Class: ClassNotFound, Code: CodeNotAParticipant, Slot: -1}
	ErrUnknownGame       = &Error{Class: ClassNotFound, Code: CodeUnknownGame, Slot: -1}
	ErrEngineFault       = &Error{Class: ClassEngine, Code: CodeEngineFault, Slot: -1}
)

// Errorf builds an *Error for code with a formatted message.
func Errorf(code Code, format string, args ...any) *Error {
	return &Error{
		Class: codeClasses[code],
		Code:  code,
		Slot:  -1,
		Msg:   fmt.Sprintf(format, args...),
	}
}

// Wrap builds an *Error for code around a cause.
func Wrap(code Code, err error, msg string) *Error {
	return &Error{Class: codeClasses[code], Code: code, Slot: -1, Msg: msg, Err: err}
}

func slotError(slot int, format string, args ...any) *Error {
	e := Errorf(CodeTypeMismatch, format, args...)
	e.Slot = slot
	return e
}

// ClassOf returns the Class of err, or "" when err is not an *Error.
func ClassOf(err error) Class {
	var e *Error
	if errors.As(err, &e) {
		return e.Class
	}
	return ""
}

// CodeOf returns the Code of err, or "" when err is not an *Error.
func CodeOf(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}
