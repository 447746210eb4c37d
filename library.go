// library.go
//
// Library handle lifecycle: open, symbol binding, idempotent close. A Library
// exclusively owns its native handle and every Symbol bound through it. The
// open/closed flag and the symbol table are guarded by an RWMutex: calls take
// shared access, bind and close take exclusive access, so a close waits for
// in-flight calls to drain and can never observe a half-mutated symbol list.

package dynlib

import (
	"fmt"
	"runtime"
	"strings"
	"sync"
	"unsafe"

	"go.uber.org/zap"
)

// Library is one successfully opened native shared object and the registry of
// symbols bound against it. The zero value is not usable; obtain one with
// Open.
type Library struct {
	mu     sync.RWMutex
	handle unsafe.Pointer // nil once closed (terminal)
	path   string         // original load path, kept for diagnostics
	syms   []*Symbol      // bind order preserved
	byName map[string]int // name -> index into syms; last-bound wins
}

// Open loads the shared object at path (RTLD_NOW | RTLD_LOCAL). On failure
// the returned *OpenError carries the loader's diagnostic text.
//
// The handle is finalizer-backed: if it becomes unreachable while still open,
// the runtime routes it through the same Close path, swallowing any close
// error. Callers should still Close explicitly for deterministic release.
func Open(path string) (*Library, error) {
	h, detail := dlOpen(path)
	if h == nil {
		return nil, &OpenError{Path: path, Detail: detail}
	}
	l := &Library{handle: h, path: path, byName: make(map[string]int)}
	runtime.SetFinalizer(l, func(l *Library) { _ = l.Close() })
	Logger().Debug("library opened", zap.String("path", path))
	return l, nil
}

// Bind resolves name in the library's export table and compiles a call
// interface for the declared signature. At most MaxArgs argument tags.
//
// Rebinding a name is allowed and creates an independent Symbol; the later
// binding shadows the earlier one in name-based lookup only. Both remain
// owned by the Library until it closes.
func (l *Library) Bind(retTag, name string, argTags ...string) (*Symbol, error) {
	if len(argTags) > MaxArgs {
		return nil, &BindArityError{Got: len(argTags)}
	}
	ret, err := ResolveType(retTag)
	if err != nil {
		return nil, err
	}
	args := make([]*TypeDesc, len(argTags))
	for i, tag := range argTags {
		d, err := ResolveType(tag)
		if err != nil {
			return nil, err
		}
		if d.IsVoid() {
			return nil, &VoidArgError{Pos: i + 1}
		}
		args[i] = d
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if l.handle == nil {
		return nil, &ClosedError{Path: l.path}
	}
	addr, detail := dlSym(l.handle, name)
	if detail != "" {
		return nil, &SymbolNotFoundError{Name: name, Detail: detail}
	}
	ci, err := compileCIF(name, ret, args)
	if err != nil {
		return nil, err
	}
	// strings.Clone detaches the stored name from whatever backing array the
	// caller handed in.
	sym := &Symbol{lib: l, name: strings.Clone(name), addr: addr, ci: ci}
	l.syms = append(l.syms, sym)
	l.byName[sym.name] = len(l.syms) - 1
	Logger().Debug("symbol bound",
		zap.String("path", l.path), zap.String("signature", sym.Signature()))
	return sym, nil
}

// Symbol returns the bound symbol for name (last-bound wins), or false if
// name was never bound or the handle is closed.
func (l *Library) Symbol(name string) (*Symbol, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	idx, ok := l.byName[name]
	if !ok {
		return nil, false
	}
	return l.syms[idx], true
}

// Symbols enumerates every bound symbol in bind order (shadowed bindings
// included). The order has no semantic weight beyond diagnostics.
func (l *Library) Symbols() []*Symbol {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]*Symbol, len(l.syms))
	copy(out, l.syms)
	return out
}

// Closed reports whether the handle has been closed.
func (l *Library) Closed() bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.handle == nil
}

// Close releases every bound symbol's call interface and unloads the native
// handle. Closing an already-closed Library is a no-op that reports success.
//
// When the native unload itself fails, the in-process bookkeeping is torn
// down regardless — no Symbol stays reachable through the handle — and the
// *CloseError carries the loader diagnostic.
func (l *Library) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.handle == nil {
		return nil
	}
	for _, s := range l.syms {
		s.ci.release()
	}
	l.syms = nil
	l.byName = nil
	h := l.handle
	l.handle = nil
	runtime.SetFinalizer(l, nil)
	if detail := dlClose(h); detail != "" {
		Logger().Warn("dlclose failed",
			zap.String("path", l.path), zap.String("detail", detail))
		return &CloseError{Path: l.path, Detail: detail}
	}
	Logger().Debug("library closed", zap.String("path", l.path))
	return nil
}

// String renders the handle state for diagnostics.
func (l *Library) String() string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if l.handle == nil {
		return fmt.Sprintf("dynlib: closed (%s)", l.path)
	}
	return fmt.Sprintf("dynlib: %p (%s)", l.handle, l.path)
}
