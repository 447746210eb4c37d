// typetag.go
//
// The fixed registry of supported type tags. Each of the 26 spellings maps to
// exactly one native representation (ffi_type pointer + width + signedness).
// The table is built once at package init and never mutated; it is the only
// process-wide state in the engine.

package dynlib

import "unsafe"

// MaxArgs is the fixed ceiling on declared argument positions per symbol.
const MaxArgs = 32

type typeKind uint8

const (
	kindVoid    typeKind = iota
	kindPointer          // void*: opaque pointer value
	kindString           // char*: NUL-terminated string
	kindInt              // all integer tags
	kindFloat            // float, double
)

// TypeDesc is the resolved, immutable description of one type tag.
type TypeDesc struct {
	Tag    string
	kind   typeKind
	bits   int  // storage width for kindInt/kindFloat
	signed bool // kindInt only
	ffi    unsafe.Pointer // matching builtin ffi_type
}

func (d *TypeDesc) String() string { return d.Tag }

// IsVoid reports whether the tag is "void" (valid only as a return type).
func (d *TypeDesc) IsVoid() bool { return d.kind == kindVoid }

// typeTags lists every supported spelling in declaration order. The order is
// stable: it is what InvalidTypeError renders as the option set.
var typeTags = []string{
	"void", "void*", "char*",
	"char", "signed char", "unsigned char",
	"short", "unsigned short",
	"int", "unsigned int",
	"int8", "uint8", "int16", "uint16",
	"int32", "uint32", "int64", "uint64",
	"long", "unsigned long",
	"long long", "unsigned long long",
	"float", "double",
	"size_t", "ssize_t",
}

var typeTable = buildTypeTable()

func buildTypeTable() map[string]*TypeDesc {
	intDesc := func(tag string, bits int, signed bool) *TypeDesc {
		return &TypeDesc{Tag: tag, kind: kindInt, bits: bits, signed: signed, ffi: ffiTypeInt(bits, signed)}
	}
	floatDesc := func(tag string, bits int) *TypeDesc {
		return &TypeDesc{Tag: tag, kind: kindFloat, bits: bits, ffi: ffiTypeFloat(bits)}
	}

	descs := []*TypeDesc{
		{Tag: "void", kind: kindVoid, ffi: ffiTypeVoid()},
		{Tag: "void*", kind: kindPointer, bits: sizeofPtr * 8, ffi: ffiTypePointer()},
		{Tag: "char*", kind: kindString, bits: sizeofPtr * 8, ffi: ffiTypePointer()},
		// char is mapped signed regardless of the platform's bare-char
		// signedness; narrowing behaves identically either way.
		intDesc("char", 8, true),
		intDesc("signed char", 8, true),
		intDesc("unsigned char", 8, false),
		intDesc("short", sizeofShort*8, true),
		intDesc("unsigned short", sizeofShort*8, false),
		intDesc("int", sizeofInt*8, true),
		intDesc("unsigned int", sizeofInt*8, false),
		intDesc("int8", 8, true),
		intDesc("uint8", 8, false),
		intDesc("int16", 16, true),
		intDesc("uint16", 16, false),
		intDesc("int32", 32, true),
		intDesc("uint32", 32, false),
		intDesc("int64", 64, true),
		intDesc("uint64", 64, false),
		intDesc("long", sizeofLong*8, true),
		intDesc("unsigned long", sizeofLong*8, false),
		intDesc("long long", sizeofLongLong*8, true),
		intDesc("unsigned long long", sizeofLongLong*8, false),
		floatDesc("float", 32),
		floatDesc("double", 64),
		intDesc("size_t", sizeofSizeT*8, false),
		intDesc("ssize_t", sizeofSizeT*8, true),
	}

	table := make(map[string]*TypeDesc, len(descs))
	for _, d := range descs {
		table[d.Tag] = d
	}
	// every spelling in typeTags must be backed by a descriptor
	for _, tag := range typeTags {
		if _, ok := table[tag]; !ok {
			panic("dynlib: internal: missing type descriptor for " + tag)
		}
	}
	return table
}

// TypeTags returns the supported tag spellings in declaration order.
// The returned slice is a copy.
func TypeTags() []string {
	out := make([]string, len(typeTags))
	copy(out, typeTags)
	return out
}

// ResolveType looks up a tag spelling (exact match) and returns its
// descriptor, or an *InvalidTypeError carrying the offending string.
func ResolveType(tag string) (*TypeDesc, error) {
	d, ok := typeTable[tag]
	if !ok {
		return nil, &InvalidTypeError{Tag: tag}
	}
	return d, nil
}
