// Package errs implements Lumesh's two-layer error model: RuntimeError
// for evaluation/IO failures and SyntaxError for parse-time failures.
// Both carry a stable small-integer code, queryable from script code via
// the err.try builtin, the way mvdan-sh's ExitStatus is a small integer
// that errors.As can recover from an opaque error value
// (_examples/mvdan-sh/interp/api.go).
package errs

import (
	"fmt"

	"lumesh.sh/lumesh/value"
)

// Kind enumerates the error taxonomy from the spec's §7. Control-flow
// sentinels (Break/Continue/Return) are included so they can travel the
// same error channel as real errors, caught only by their matching
// construct — the same "control flow as errors" design the spec's
// design notes explicitly allow.
type Kind uint8

const (
	KindNone Kind = iota
	KindArgumentMismatch
	KindInvalidArgument
	KindTypeError
	KindNotCallable
	KindInvalidOperator
	KindUndefinedSymbol
	KindKeyNotFound
	KindIndexOutOfBounds
	KindDivideByZero
	KindOverflow
	KindBreak
	KindContinue
	KindReturn
	KindProgramNotFound
	KindCommandFailed
	KindWildcardNotMatched
	KindPermissionDenied
	KindIO
	KindSyntaxError
	KindStackOverflow
	KindCustomError
	KindInterrupted
)

var kindNames = [...]string{
	KindNone:               "None",
	KindArgumentMismatch:   "ArgumentMismatch",
	KindInvalidArgument:    "InvalidArgument",
	KindTypeError:          "TypeError",
	KindNotCallable:        "NotCallable",
	KindInvalidOperator:    "InvalidOperator",
	KindUndefinedSymbol:    "UndefinedSymbol",
	KindKeyNotFound:        "KeyNotFound",
	KindIndexOutOfBounds:   "IndexOutOfBounds",
	KindDivideByZero:       "DivideByZero",
	KindOverflow:           "Overflow",
	KindBreak:              "Break",
	KindContinue:           "Continue",
	KindReturn:             "Return",
	KindProgramNotFound:    "ProgramNotFound",
	KindCommandFailed:      "CommandFailed",
	KindWildcardNotMatched: "WildcardNotMatched",
	KindPermissionDenied:   "PermissionDenied",
	KindIO:                 "Io",
	KindSyntaxError:        "SyntaxError",
	KindStackOverflow:      "StackOverflow",
	KindCustomError:        "CustomError",
	KindInterrupted:        "Interrupted",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "Unknown"
}

// Code returns the stable small-integer code for k, queryable from
// script code (e.g. `err.try(1/0, (e) -> e.code)`).
func (k Kind) Code() int { return int(k) }

// IsSentinel reports whether k is a control-flow sentinel
// (Break/Continue/Return), which err.try must never catch.
func (k Kind) IsSentinel() bool {
	return k == KindBreak || k == KindContinue || k == KindReturn
}

// RuntimeError is the error produced by evaluation or command
// execution. Context is the AST node responsible, kept for diagnostics;
// Depth tracks recursion at the point of failure.
type RuntimeError struct {
	Kind    Kind
	Message string
	Context value.Expression
	Depth   int

	// Value carries the payload for control-flow sentinels: the break
	// target count, the loop's continue signal, or the returned value.
	Value value.Expression
}

func New(kind Kind, format string, args ...any) *RuntimeError {
	return &RuntimeError{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

func (e *RuntimeError) Error() string {
	if e.Message == "" {
		return e.Kind.String()
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *RuntimeError) Code() int { return e.Kind.Code() }

// WithContext returns a copy of e with Context set to ctx, if not
// already set. Used by the evaluator to attach the originating node the
// first time an error bubbles through a dispatch site.
func (e *RuntimeError) WithContext(ctx value.Expression) *RuntimeError {
	if e.Context != nil {
		return e
	}
	cp := *e
	cp.Context = ctx
	return &cp
}

// Custom builds a user-raised error, as produced by the Err.raise and
// assert builtins.
func Custom(message string) *RuntimeError {
	return &RuntimeError{Kind: KindCustomError, Message: message}
}

// AsMap renders the error the way err.try hands it to its handler: a
// map with message/code/kind/expression fields.
func (e *RuntimeError) AsMap() value.Map {
	ctxStr := ""
	if e.Context != nil {
		ctxStr = e.Context.String()
	}
	return value.NewMap(map[string]value.Expression{
		"message":    value.String(e.Message),
		"code":       value.Integer(e.Code()),
		"kind":       value.String(e.Kind.String()),
		"expression": value.String(ctxStr),
	})
}

// Position is a source location, used by SyntaxError for diagnostics.
type Position struct {
	Line, Column int
}

func (p Position) String() string { return fmt.Sprintf("%d:%d", p.Line, p.Column) }

// SyntaxError wraps a tokenizer/parser diagnostic with its source span.
type SyntaxError struct {
	Message string
	Start   Position
	End     Position
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("syntax error at %s: %s", e.Start, e.Message)
}

func (e *SyntaxError) Code() int { return KindSyntaxError.Code() }
