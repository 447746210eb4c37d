// variable.go
//
// Scalar global variable binding: dlsym also resolves exported data objects,
// and for the scalar/pointer tags in the registry the address can be read and
// written through the same conversion rules the call boundary uses.

package dynlib

import (
	"fmt"
	"unsafe"
)

// Variable is a bound native global. Its address is borrowed from the owning
// Library's lifetime, like a Symbol's function address.
type Variable struct {
	lib  *Library
	name string
	typ  *TypeDesc
	addr unsafe.Pointer
}

// BindVar resolves an exported data object and binds it at the given type
// tag. "void" is not a storable type and is rejected.
func (l *Library) BindVar(tag, name string) (*Variable, error) {
	d, err := ResolveType(tag)
	if err != nil {
		return nil, err
	}
	if d.IsVoid() {
		return nil, fmt.Errorf("void cannot be used as a variable type")
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
	return &Variable{lib: l, name: name, typ: d, addr: addr}, nil
}

// Name returns the variable's export name.
func (v *Variable) Name() string { return v.name }

// Get reads the current native value. char* variables yield a copied string
// up to the NUL terminator (null pointer yields null).
func (v *Variable) Get() (Value, error) {
	v.lib.mu.RLock()
	defer v.lib.mu.RUnlock()
	if v.lib.handle == nil {
		return Null, &ClosedError{Path: v.lib.path}
	}
	return unmarshalRet(v.typ, v.addr), nil
}

// Set writes a new native value. char* variables are read-only: there is no
// owned native storage to place a string into.
func (v *Variable) Set(val Value) error {
	v.lib.mu.Lock()
	defer v.lib.mu.Unlock()
	if v.lib.handle == nil {
		return &ClosedError{Path: v.lib.path}
	}
	switch v.typ.kind {
	case kindPointer:
		switch val.Tag {
		case VTNull:
			*(*unsafe.Pointer)(v.addr) = nil
		case VTPtr:
			*(*unsafe.Pointer)(v.addr) = val.Data.(unsafe.Pointer)
		default:
			return &TypeMismatchError{Symbol: v.name,
				Want: "void* requires null or pointer", Got: val.TagName()}
		}
	case kindString:
		return &TypeMismatchError{Symbol: v.name,
			Want: "char* variables are read-only", Got: val.TagName()}
	case kindInt:
		n, ok := val.AsInt()
		if !ok {
			return &TypeMismatchError{Symbol: v.name,
				Want: fmt.Sprintf("%s requires a number", v.typ.Tag), Got: val.TagName()}
		}
		writeInt(v.addr, v.typ.bits, n)
	case kindFloat:
		x, ok := val.AsFloat()
		if !ok {
			return &TypeMismatchError{Symbol: v.name,
				Want: fmt.Sprintf("%s requires a number", v.typ.Tag), Got: val.TagName()}
		}
		writeFloat(v.addr, v.typ.bits, x)
	}
	return nil
}
