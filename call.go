// call.go
//
// Call dispatcher: the single point where control crosses into native code.
// Validates arity, marshals left to right, invokes the compiled call
// interface, and converts the return buffer back to a host Value.

package dynlib

import "unsafe"

// Call invokes the bound symbol with the given host values.
//
// Contract:
//   - a closed owning Library fails with *ClosedError before any marshalling
//   - len(args) must equal the declared arity (*ArityError otherwise)
//   - the first argument that cannot be converted aborts the call with a
//     *TypeMismatchError; no native call is issued
//   - a "void" return yields zero results, one result otherwise.
//
// The native call blocks the calling goroutine for its native duration; the
// engine imposes no timeout or cancellation.
func (s *Symbol) Call(args ...Value) ([]Value, error) {
	l := s.lib
	l.mu.RLock()
	defer l.mu.RUnlock()
	if l.handle == nil {
		return nil, &ClosedError{Path: l.path}
	}
	want := len(s.ci.args)
	if len(args) != want {
		return nil, &ArityError{Symbol: s.name, Want: want, Got: len(args)}
	}

	frame := newCallFrame()
	defer frame.release()
	if err := marshalArgs(s.name, s.ci.args, args, frame); err != nil {
		return nil, err
	}

	var rbuf unsafe.Pointer
	if !s.ci.ret.IsVoid() {
		rbuf = frame.retBuf()
	}
	rawFFICall(s.ci.raw, s.addr, rbuf, frame.argv(want))

	if s.ci.ret.IsVoid() {
		return []Value{}, nil
	}
	return []Value{unmarshalRet(s.ci.ret, frame.retBuf())}, nil
}

// Call invokes a bound symbol by name (last-bound wins when names collide).
// An unbound name fails with *SymbolNotFoundError; a closed handle with
// *ClosedError.
func (l *Library) Call(name string, args ...Value) ([]Value, error) {
	l.mu.RLock()
	if l.handle == nil {
		l.mu.RUnlock()
		return nil, &ClosedError{Path: l.path}
	}
	idx, ok := l.byName[name]
	if !ok {
		l.mu.RUnlock()
		return nil, &SymbolNotFoundError{Name: name}
	}
	s := l.syms[idx]
	l.mu.RUnlock()
	return s.Call(args...)
}
