// value.go
//
// Host-side dynamic value carrier used at the call boundary. The engine does
// not know anything about the embedding host beyond this type: arguments come
// in as Values, results go back out as Values. The tag determines which Go
// type Data holds (see ValueTag).

package dynlib

import (
	"fmt"
	"strconv"
	"unsafe"
)

// ValueTag enumerates the dynamic kinds a Value may carry across the
// native-call boundary.
type ValueTag int

const (
	VTNull ValueTag = iota // null (no payload)
	VTBool                 // bool
	VTInt                  // int64
	VTNum                  // float64
	VTStr                  // string
	VTPtr                  // unsafe.Pointer (opaque native pointer)
)

// Value is the universal carrier exchanged with the engine.
//
// Invariants:
//   - When Tag==VTNull, Data is nil.
//   - When Tag==VTPtr, Data is an unsafe.Pointer whose pointee the engine
//     never inspects; it is handed to native code verbatim.
type Value struct {
	Tag  ValueTag
	Data interface{}
}

// Null is the singleton null Value.
var Null = Value{Tag: VTNull}

// Primitive constructors.
func Bool(b bool) Value          { return Value{Tag: VTBool, Data: b} }
func Int(n int64) Value          { return Value{Tag: VTInt, Data: n} }
func Num(f float64) Value        { return Value{Tag: VTNum, Data: f} }
func Str(s string) Value         { return Value{Tag: VTStr, Data: s} }
func Ptr(p unsafe.Pointer) Value { return Value{Tag: VTPtr, Data: p} }

// String renders a human-friendly debug representation.
func (v Value) String() string {
	switch v.Tag {
	case VTNull:
		return "null"
	case VTBool:
		return fmt.Sprintf("%v", v.Data.(bool))
	case VTInt:
		return strconv.FormatInt(v.Data.(int64), 10)
	case VTNum:
		return strconv.FormatFloat(v.Data.(float64), 'g', -1, 64)
	case VTStr:
		return fmt.Sprintf("%q", v.Data.(string))
	case VTPtr:
		return fmt.Sprintf("<ptr %p>", v.Data.(unsafe.Pointer))
	default:
		return "<unknown>"
	}
}

// TagName returns the lowercase kind name used in diagnostics
// ("null", "bool", "int", "num", "str", "ptr").
func (v Value) TagName() string {
	switch v.Tag {
	case VTNull:
		return "null"
	case VTBool:
		return "bool"
	case VTInt:
		return "int"
	case VTNum:
		return "num"
	case VTStr:
		return "str"
	case VTPtr:
		return "ptr"
	default:
		return "unknown"
	}
}

// AsInt reports the value as an int64 when it carries a numeric payload.
// Floats are truncated toward zero; booleans map to 0/1.
func (v Value) AsInt() (int64, bool) {
	switch v.Tag {
	case VTInt:
		return v.Data.(int64), true
	case VTNum:
		return int64(v.Data.(float64)), true
	case VTBool:
		if v.Data.(bool) {
			return 1, true
		}
		return 0, true
	default:
		return 0, false
	}
}

// AsFloat reports the value as a float64 when it carries a numeric payload.
func (v Value) AsFloat() (float64, bool) {
	switch v.Tag {
	case VTNum:
		return v.Data.(float64), true
	case VTInt:
		return float64(v.Data.(int64)), true
	case VTBool:
		if v.Data.(bool) {
			return 1, true
		}
		return 0, true
	default:
		return 0, false
	}
}

// AsStr reports the string payload, if any.
func (v Value) AsStr() (string, bool) {
	if v.Tag == VTStr {
		return v.Data.(string), true
	}
	return "", false
}

// AsPtr reports the opaque pointer payload, if any.
func (v Value) AsPtr() (unsafe.Pointer, bool) {
	if v.Tag == VTPtr {
		return v.Data.(unsafe.Pointer), true
	}
	return nil, false
}
