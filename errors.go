// errors.go
//
// Error taxonomy for the calling engine. Two families:
//
//   - bind-time errors (OpenError, InvalidTypeError, VoidArgError,
//     BindArityError, SymbolNotFoundError, CIFError, CloseError): these are
//     environmental — a missing library, a misspelled symbol, a bad type tag
//     during development. Hosts should surface them as recoverable results.
//   - call-time errors (ArityError, TypeMismatchError, ClosedError): these
//     indicate a programming mistake at the call site and should be raised
//     abruptly by the host rather than returned as a result pair.
//
// All types are plain structs implementing error and matchable with errors.As.

package dynlib

import (
	"fmt"
	"strings"
)

// OpenError reports a failed dlopen, carrying the loader diagnostic.
type OpenError struct {
	Path   string
	Detail string // dlerror() text
}

func (e *OpenError) Error() string {
	return fmt.Sprintf("failed to open library %q: %s", e.Path, e.Detail)
}

// InvalidTypeError reports an unrecognized type tag spelling.
type InvalidTypeError struct {
	Tag string
}

func (e *InvalidTypeError) Error() string {
	return fmt.Sprintf("invalid type %q (expected one of: %s)",
		e.Tag, strings.Join(TypeTags(), ", "))
}

// VoidArgError reports "void" used at an argument position (1-based).
type VoidArgError struct {
	Pos int
}

func (e *VoidArgError) Error() string {
	return fmt.Sprintf("argument %d: void cannot be used as argument type", e.Pos)
}

// BindArityError reports a bind request whose declared argument list exceeds
// the engine's fixed ceiling.
type BindArityError struct {
	Got int
}

func (e *BindArityError) Error() string {
	return fmt.Sprintf("number of argument types must be at most %d, got %d",
		MaxArgs, e.Got)
}

// SymbolNotFoundError reports a name absent from the library's export table
// (Detail carries the dlerror text) or never bound on the handle (Detail
// empty).
type SymbolNotFoundError struct {
	Name   string
	Detail string
}

func (e *SymbolNotFoundError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("symbol %q is not bound", e.Name)
	}
	return fmt.Sprintf("failed to find symbol %q: %s", e.Name, e.Detail)
}

// CIFError reports that libffi rejected the signature during call-interface
// preparation. Status carries the raw ffi_status, Detail its category text.
type CIFError struct {
	Name   string
	Status int
	Detail string
}

func (e *CIFError) Error() string {
	return fmt.Sprintf("failed to prepare call interface for symbol %q (%s)",
		e.Name, e.Detail)
}

// ArityError reports a call with the wrong number of arguments.
type ArityError struct {
	Symbol string
	Want   int
	Got    int
}

func (e *ArityError) Error() string {
	return fmt.Sprintf("invalid number of arguments for symbol %q: expected %d but got %d",
		e.Symbol, e.Want, e.Got)
}

// TypeMismatchError reports a value incompatible with its declared type tag.
// Pos is the 1-based argument position, or 0 when the mismatch is not tied to
// an argument (variable writes).
type TypeMismatchError struct {
	Symbol string
	Pos    int
	Want   string // expected category, e.g. "char* requires null or string"
	Got    string // observed value kind
}

func (e *TypeMismatchError) Error() string {
	if e.Pos == 0 {
		return fmt.Sprintf("symbol %q: %s, got %s", e.Symbol, e.Want, e.Got)
	}
	return fmt.Sprintf("symbol %q: argument %d: %s, got %s",
		e.Symbol, e.Pos, e.Want, e.Got)
}

// ClosedError reports an operation attempted on a closed library handle.
type ClosedError struct {
	Path string
}

func (e *ClosedError) Error() string {
	return fmt.Sprintf("library %q is closed", e.Path)
}

// CloseError reports a failed dlclose. In-process bookkeeping is torn down
// regardless; only the native unload itself failed.
type CloseError struct {
	Path   string
	Detail string
}

func (e *CloseError) Error() string {
	return fmt.Sprintf("failed to close library %q: %s", e.Path, e.Detail)
}
