//go:build unix

// ffi.go
//
// The single translation unit touching C. Everything the engine needs from
// the platform — dlopen/dlsym/dlclose, libffi call-interface preparation and
// invocation, C-heap memory, errno — is wrapped here behind plain Go helpers
// so no other file imports "C" or handles C types directly.

package dynlib

/*
#cgo LDFLAGS: -ldl
#cgo pkg-config: libffi
#include <ffi.h>
#include <dlfcn.h>
#include <stdlib.h>
#include <string.h>
#include <errno.h>

static void* dl_open(const char* path) {
	return dlopen(path, RTLD_NOW | RTLD_LOCAL);
}
static const char* dl_error(void) {
	return dlerror();
}
// Clear dlerror, call dlsym, and return the error (if any) alongside the
// symbol, so a NULL-valued export is distinguishable from a lookup failure.
static void* dl_sym_clear(void* h, const char* name, char** err) {
	dlerror(); // clear
	void* p = dlsym(h, name);
	char* e = dlerror();
	if (e) { if (err) *err = e; return NULL; }
	if (err) *err = NULL;
	return p;
}
static int dl_close(void* h) {
	return dlclose(h);
}

// Allocate the cif on the C heap so it outlives Go stack frames; libffi keeps
// internal pointers into it and into the argument-type vector for as long as
// the cif is used.
static ffi_cif* dl_alloc_cif(void) {
	return (ffi_cif*)malloc(sizeof(ffi_cif));
}
static int dl_prep_cif(ffi_cif* cif, unsigned int nargs, ffi_type* rtype, ffi_type** atypes) {
	return ffi_prep_cif(cif, FFI_DEFAULT_ABI, nargs, rtype, atypes);
}
// ffi_call wrapper: accept a generic void* fn and a void** argv vector to
// avoid cgo's function-pointer typing constraints at the call site.
static void dl_ffi_call(ffi_cif* cif, void* fn, void* rvalue, void** avalue) {
	ffi_call(cif, (void (*)(void))fn, rvalue, avalue);
}
static const char* dl_ffi_strstatus(int st) {
	switch (st) {
	case FFI_OK:          return "FFI_OK";
	case FFI_BAD_TYPEDEF: return "FFI_BAD_TYPEDEF (invalid ffi_type definition)";
	case FFI_BAD_ABI:     return "FFI_BAD_ABI (unsupported ABI)";
	// FFI_BAD_ARGTYPE exists only on newer libffi; it is the sole remaining
	// status value, so the default case covers it on older headers too.
	default:              return "FFI_BAD_ARGTYPE (invalid argument type)";
	}
}

static int dl_errno_get(void)   { return errno; }
static void dl_errno_set(int v) { errno = v; }
*/
import "C"

import "unsafe"

// Native widths of the C scalar types the registry maps onto.
const (
	sizeofShort    = C.sizeof_short
	sizeofInt      = C.sizeof_int
	sizeofLong     = C.sizeof_long
	sizeofLongLong = C.sizeof_longlong
	sizeofSizeT    = C.sizeof_size_t
	sizeofPtr      = C.sizeof_size_t // uintptr-sized on every supported ABI
)

// -------------------------
// dynamic loader wrappers
// -------------------------

// dlerr returns the last dlerror as a Go string, or a fallback label.
func dlerr() string {
	errC := C.dl_error()
	if errC != nil {
		return C.GoString(errC)
	}
	return "unknown dlerror"
}

// dlOpen opens path and returns the handle, or "" and the dlerror detail.
func dlOpen(path string) (unsafe.Pointer, string) {
	cs := C.CString(path)
	defer C.free(unsafe.Pointer(cs))
	h := C.dl_open(cs)
	if h == nil {
		return nil, dlerr()
	}
	return unsafe.Pointer(h), ""
}

// dlSym resolves name in h; on failure the dlerror detail is non-empty.
func dlSym(h unsafe.Pointer, name string) (unsafe.Pointer, string) {
	cs := C.CString(name)
	defer C.free(unsafe.Pointer(cs))
	var cerr *C.char
	p := C.dl_sym_clear(h, cs, &cerr)
	if cerr != nil {
		return nil, C.GoString(cerr)
	}
	return p, ""
}

// dlClose unloads h; on failure the dlerror detail is non-empty.
func dlClose(h unsafe.Pointer) string {
	if int(C.dl_close(h)) != 0 {
		return dlerr()
	}
	return ""
}

// -------------------------
// C-heap memory and strings
// -------------------------

func cCalloc(count, size uintptr) unsafe.Pointer {
	return C.calloc(C.size_t(count), C.size_t(size))
}
func cFree(p unsafe.Pointer) { C.free(p) }

// cCString copies s to a NUL-terminated C-heap string (release with cFree).
func cCString(s string) unsafe.Pointer { return unsafe.Pointer(C.CString(s)) }

// cGoString copies a NUL-terminated C string into a fresh Go string.
func cGoString(p unsafe.Pointer) string { return C.GoString((*C.char)(p)) }

// -------------------------
// libffi call interface
// -------------------------

const ffiOK = int(C.FFI_OK)

// rawCIF is a compiled ffi_cif plus the C-heap argument-type vector it points
// into. Both stay allocated until free().
type rawCIF struct {
	cif    unsafe.Pointer // *ffi_cif, C heap
	atypes unsafe.Pointer // ffi_type**, C heap; nil for zero-argument signatures
}

// prepRawCIF builds the native call descriptor for the given return and
// argument ffi_type pointers (as produced by ffiTypeInt and friends). On
// failure it returns nil and the non-OK ffi_status.
func prepRawCIF(rtype unsafe.Pointer, args []unsafe.Pointer) (*rawCIF, int) {
	n := len(args)
	var atypes unsafe.Pointer
	if n > 0 {
		atypes = C.malloc(C.size_t(n) * C.size_t(unsafe.Sizeof(uintptr(0))))
		vec := (*[1<<30 - 1]*C.ffi_type)(atypes)[:n:n]
		for i, a := range args {
			vec[i] = (*C.ffi_type)(a)
		}
	}
	cif := C.dl_alloc_cif()
	st := int(C.dl_prep_cif(cif, C.uint(n), (*C.ffi_type)(rtype), (**C.ffi_type)(atypes)))
	if st != ffiOK {
		C.free(unsafe.Pointer(cif))
		if atypes != nil {
			C.free(atypes)
		}
		return nil, st
	}
	return &rawCIF{cif: unsafe.Pointer(cif), atypes: atypes}, st
}

func (r *rawCIF) free() {
	if r.cif != nil {
		C.free(r.cif)
		r.cif = nil
	}
	if r.atypes != nil {
		C.free(r.atypes)
		r.atypes = nil
	}
}

// rawFFICall crosses into native code: fn is the resolved symbol address,
// rvalue the return buffer (nil for void), argv the first element of a C-heap
// void** vector (nil for zero-argument calls).
func rawFFICall(r *rawCIF, fn, rvalue, argv unsafe.Pointer) {
	C.dl_ffi_call((*C.ffi_cif)(r.cif), fn, rvalue, (*unsafe.Pointer)(argv))
}

// ffiStatusMessage renders an ffi_status as its category text.
func ffiStatusMessage(st int) string {
	return C.GoString(C.dl_ffi_strstatus(C.int(st)))
}

// -------------------------
// builtin ffi_type accessors (opaque pointers; C types stay in this file)
// -------------------------

func ffiTypeVoid() unsafe.Pointer    { return unsafe.Pointer(&C.ffi_type_void) }
func ffiTypePointer() unsafe.Pointer { return unsafe.Pointer(&C.ffi_type_pointer) }

func ffiTypeInt(bits int, signed bool) unsafe.Pointer {
	switch bits {
	case 8:
		if signed {
			return unsafe.Pointer(&C.ffi_type_sint8)
		}
		return unsafe.Pointer(&C.ffi_type_uint8)
	case 16:
		if signed {
			return unsafe.Pointer(&C.ffi_type_sint16)
		}
		return unsafe.Pointer(&C.ffi_type_uint16)
	case 32:
		if signed {
			return unsafe.Pointer(&C.ffi_type_sint32)
		}
		return unsafe.Pointer(&C.ffi_type_uint32)
	case 64:
		if signed {
			return unsafe.Pointer(&C.ffi_type_sint64)
		}
		return unsafe.Pointer(&C.ffi_type_uint64)
	default:
		panic("dynlib: internal: unsupported integer width")
	}
}

func ffiTypeFloat(bits int) unsafe.Pointer {
	switch bits {
	case 32:
		return unsafe.Pointer(&C.ffi_type_float)
	case 64:
		return unsafe.Pointer(&C.ffi_type_double)
	default:
		panic("dynlib: internal: unsupported float width")
	}
}

// -------------------------
// errno
// -------------------------

// Errno returns the calling thread's current C errno value. Meaningful only
// immediately after a native call on the same goroutine, with the usual
// caveats about the Go scheduler migrating goroutines between threads.
func Errno() int { return int(C.dl_errno_get()) }

// SetErrno overwrites the calling thread's C errno, typically to zero it
// before a call that reports failure through errno.
func SetErrno(v int) { C.dl_errno_set(C.int(v)) }
