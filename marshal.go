// marshal.go
//
// Value <-> native conversion at the call boundary. Each call gets one
// fixed-size C-heap frame: a return slot, MaxArgs 8-byte value slots, and the
// void** argument vector libffi consumes. A single allocation per call keeps
// argument storage off the Go heap, which the cgo pointer rules require
// anyway (the argv vector must not contain Go pointers).

package dynlib

import (
	"fmt"
	"unsafe"
)

const (
	slotSize   = 8 // covers every scalar and pointer representation
	ptrSize    = unsafe.Sizeof(uintptr(0))
	frameRet   = 0
	frameVals  = slotSize
	frameArgv  = frameVals + MaxArgs*slotSize
	frameBytes = frameArgv + MaxArgs*ptrSize
)

// callFrame is the per-call native scratch storage.
type callFrame struct {
	base unsafe.Pointer   // single C allocation, zeroed
	cstr []unsafe.Pointer // C strings for char* arguments, freed on release
}

func newCallFrame() *callFrame {
	return &callFrame{base: cCalloc(1, frameBytes)}
}

func (f *callFrame) retBuf() unsafe.Pointer { return f.base }

func (f *callFrame) slot(i int) unsafe.Pointer {
	return unsafe.Add(f.base, frameVals+uintptr(i)*slotSize)
}

// bindArgv points the i-th argv entry at the i-th value slot.
func (f *callFrame) bindArgv(i int) {
	entry := unsafe.Add(f.base, frameArgv+uintptr(i)*ptrSize)
	*(*unsafe.Pointer)(entry) = f.slot(i)
}

// argv returns the head of the void** vector, or nil for zero arguments.
func (f *callFrame) argv(n int) unsafe.Pointer {
	if n == 0 {
		return nil
	}
	return unsafe.Add(f.base, frameArgv)
}

// release frees the frame and any C strings copied for char* arguments.
// The strings were valid only for the call's duration by contract.
func (f *callFrame) release() {
	for _, p := range f.cstr {
		cFree(p)
	}
	f.cstr = nil
	if f.base != nil {
		cFree(f.base)
		f.base = nil
	}
}

// marshalArgs converts args into the frame strictly left to right. The first
// incompatible value aborts with a *TypeMismatchError naming the 1-based
// position; nothing native has run at that point.
func marshalArgs(symName string, tags []*TypeDesc, args []Value, f *callFrame) error {
	for i, d := range tags {
		if err := marshalArg(symName, d, i, args[i], f); err != nil {
			return err
		}
		f.bindArgv(i)
	}
	return nil
}

func marshalArg(symName string, d *TypeDesc, i int, v Value, f *callFrame) error {
	slot := f.slot(i)
	switch d.kind {
	case kindPointer:
		switch v.Tag {
		case VTNull:
			*(*unsafe.Pointer)(slot) = nil
		case VTPtr:
			*(*unsafe.Pointer)(slot) = v.Data.(unsafe.Pointer)
		default:
			return &TypeMismatchError{
				Symbol: symName, Pos: i + 1,
				Want: "void* requires null or pointer", Got: v.TagName(),
			}
		}
	case kindString:
		switch v.Tag {
		case VTNull:
			*(*unsafe.Pointer)(slot) = nil
		case VTStr:
			cs := cCString(v.Data.(string))
			f.cstr = append(f.cstr, cs)
			*(*unsafe.Pointer)(slot) = cs
		default:
			return &TypeMismatchError{
				Symbol: symName, Pos: i + 1,
				Want: "char* requires null or string", Got: v.TagName(),
			}
		}
	case kindInt:
		n, ok := v.AsInt()
		if !ok {
			return &TypeMismatchError{
				Symbol: symName, Pos: i + 1,
				Want: fmt.Sprintf("%s requires a number", d.Tag), Got: v.TagName(),
			}
		}
		writeInt(slot, d.bits, n)
	case kindFloat:
		x, ok := v.AsFloat()
		if !ok {
			return &TypeMismatchError{
				Symbol: symName, Pos: i + 1,
				Want: fmt.Sprintf("%s requires a number", d.Tag), Got: v.TagName(),
			}
		}
		writeFloat(slot, d.bits, x)
	default:
		// GUARD: void arguments are rejected at bind time; this is a safety
		// net for implementation bugs.
		return &VoidArgError{Pos: i + 1}
	}
	return nil
}

// writeInt stores n at the target width, wrapping on truncation (no range
// check beyond the host-side integer conversion).
func writeInt(p unsafe.Pointer, bits int, n int64) {
	switch bits {
	case 8:
		*(*int8)(p) = int8(n)
	case 16:
		*(*int16)(p) = int16(n)
	case 32:
		*(*int32)(p) = int32(n)
	default:
		*(*int64)(p) = n
	}
}

func writeFloat(p unsafe.Pointer, bits int, x float64) {
	if bits == 32 {
		*(*float32)(p) = float32(x)
		return
	}
	*(*float64)(p) = x
}

// unmarshalRet converts the native return buffer back into a host Value.
// Narrow integers are read at the buffer head: libffi widens small integral
// returns into the full slot with the value at the low end.
func unmarshalRet(d *TypeDesc, p unsafe.Pointer) Value {
	switch d.kind {
	case kindPointer:
		q := *(*unsafe.Pointer)(p)
		if q == nil {
			return Null
		}
		return Ptr(q)
	case kindString:
		q := *(*unsafe.Pointer)(p)
		if q == nil {
			return Null
		}
		return Str(cGoString(q))
	case kindInt:
		return Int(readInt(p, d.bits, d.signed))
	case kindFloat:
		if d.bits == 32 {
			return Num(float64(*(*float32)(p)))
		}
		return Num(*(*float64)(p))
	default:
		return Null
	}
}

func readInt(p unsafe.Pointer, bits int, signed bool) int64 {
	if signed {
		switch bits {
		case 8:
			return int64(*(*int8)(p))
		case 16:
			return int64(*(*int16)(p))
		case 32:
			return int64(*(*int32)(p))
		default:
			return *(*int64)(p)
		}
	}
	switch bits {
	case 8:
		return int64(*(*uint8)(p))
	case 16:
		return int64(*(*uint16)(p))
	case 32:
		return int64(*(*uint32)(p))
	default:
		// values above 1<<63-1 wrap into negative space, same as the host
		// integer representation allows
		return int64(*(*uint64)(p))
	}
}
