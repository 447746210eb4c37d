// cif.go
//
// Call-Interface compiler: turns a return descriptor plus an ordered argument
// descriptor list into a reusable native call descriptor. Compiled once per
// bound symbol; invoking it is side-effect-free and repeatable.

package dynlib

import "unsafe"

// callInterface owns the compiled native descriptor for one fixed signature.
// Valid exactly as long as its owning Symbol (and thus Library) is open.
type callInterface struct {
	raw  *rawCIF
	ret  *TypeDesc
	args []*TypeDesc
}

// compileCIF validates the signature and prepares the native call interface.
//
// Failure modes:
//   - more than MaxArgs argument positions: *BindArityError
//   - "void" at any argument position: *VoidArgError (1-based position)
//   - libffi rejecting the layout: *CIFError with the status category.
//     The registry only hands out representations libffi knows, so this is a
//     safety net rather than an expected path.
func compileCIF(name string, ret *TypeDesc, args []*TypeDesc) (*callInterface, error) {
	if len(args) > MaxArgs {
		return nil, &BindArityError{Got: len(args)}
	}
	vec := make([]unsafe.Pointer, len(args))
	for i, a := range args {
		if a.IsVoid() {
			return nil, &VoidArgError{Pos: i + 1}
		}
		vec[i] = a.ffi
	}
	raw, st := prepRawCIF(ret.ffi, vec)
	if raw == nil {
		return nil, &CIFError{Name: name, Status: st, Detail: ffiStatusMessage(st)}
	}
	return &callInterface{raw: raw, ret: ret, args: args}, nil
}

// release frees the C-heap descriptor. Idempotent.
func (ci *callInterface) release() {
	if ci.raw != nil {
		ci.raw.free()
		ci.raw = nil
	}
}
