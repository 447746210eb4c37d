// symbol.go
//
// A Symbol is one bound native function: resolved address + compiled call
// interface + declared tags. Immutable after binding; its address and call
// interface are valid exactly as long as the owning Library stays open.

package dynlib

import (
	"strings"
	"unsafe"
)

// Symbol is a bound, callable native function. Created by Library.Bind;
// released when the owning Library closes.
type Symbol struct {
	lib  *Library
	name string
	addr unsafe.Pointer // borrowed from the library handle's lifetime
	ci   *callInterface
}

// Name returns the symbol's export name.
func (s *Symbol) Name() string { return s.name }

// Arity returns the declared argument count.
func (s *Symbol) Arity() int { return len(s.ci.args) }

// Signature renders the declared signature, e.g. "int sum5(int, int, int)".
func (s *Symbol) Signature() string {
	var b strings.Builder
	b.WriteString(s.ci.ret.Tag)
	b.WriteByte(' ')
	b.WriteString(s.name)
	b.WriteByte('(')
	for i, a := range s.ci.args {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(a.Tag)
	}
	b.WriteByte(')')
	return b.String()
}
