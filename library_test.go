package dynlib

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestOpen_Nonexistent(t *testing.T) {
	l, err := Open("/nonexistent/libdynlib-missing.so")
	if l != nil {
		t.Fatal("want nil handle on open failure")
	}
	var oe *OpenError
	require.ErrorAs(t, err, &oe)
	require.Equal(t, "/nonexistent/libdynlib-missing.so", oe.Path)
	require.Contains(t, err.Error(), "failed to open")
	require.Contains(t, err.Error(), oe.Path)
}

func TestClose_Idempotent(t *testing.T) {
	if testLibPath == "" {
		t.Skip("no C compiler available; fixture library not built")
	}
	l, err := Open(testLibPath)
	require.NoError(t, err)
	require.False(t, l.Closed())

	require.NoError(t, l.Close())
	require.True(t, l.Closed())

	// second close is a no-op success
	require.NoError(t, l.Close())

	// every other operation reports the closed state
	var ce *ClosedError
	_, err = l.Bind("int", "id_int", "int")
	require.ErrorAs(t, err, &ce)
	_, err = l.Call("id_int", Int(1))
	require.ErrorAs(t, err, &ce)
	_, err = l.BindVar("int", "g_counter")
	require.ErrorAs(t, err, &ce)
	require.Contains(t, ce.Error(), "is closed")
}

func TestSymbolInvalidAfterClose(t *testing.T) {
	if testLibPath == "" {
		t.Skip("no C compiler available; fixture library not built")
	}
	l, err := Open(testLibPath)
	require.NoError(t, err)
	s := mustBind(t, l, "int", "id_int", "int")
	require.NoError(t, l.Close())

	_, err = s.Call(Int(1))
	var ce *ClosedError
	require.ErrorAs(t, err, &ce)

	// the bound-symbol table is gone too
	_, ok := l.Symbol("id_int")
	require.False(t, ok)
	require.Empty(t, l.Symbols())
}

func TestString_Rendering(t *testing.T) {
	l := openFixture(t)
	s := l.String()
	if !strings.Contains(s, testLibPath) {
		t.Fatalf("open rendering %q misses path", s)
	}
	if strings.Contains(s, "closed") {
		t.Fatalf("open rendering %q claims closed", s)
	}
	_ = l.Close()
	s = l.String()
	if !strings.Contains(s, "closed") || !strings.Contains(s, testLibPath) {
		t.Fatalf("closed rendering %q misses state or path", s)
	}
}

func TestBind_Failures(t *testing.T) {
	l := openFixture(t)

	t.Run("invalid-return-tag", func(t *testing.T) {
		_, err := l.Bind("Int", "id_int", "int")
		var ite *InvalidTypeError
		require.ErrorAs(t, err, &ite)
		require.Equal(t, "Int", ite.Tag)
	})
	t.Run("invalid-arg-tag", func(t *testing.T) {
		_, err := l.Bind("int", "id_int", "floot")
		var ite *InvalidTypeError
		require.ErrorAs(t, err, &ite)
	})
	t.Run("void-argument", func(t *testing.T) {
		_, err := l.Bind("int", "add2", "int", "void")
		var vae *VoidArgError
		require.ErrorAs(t, err, &vae)
		require.Equal(t, 2, vae.Pos)
		require.Contains(t, err.Error(), "void cannot be used as argument")
	})
	t.Run("unknown-symbol", func(t *testing.T) {
		_, err := l.Bind("int", "no_such_export")
		var snf *SymbolNotFoundError
		require.ErrorAs(t, err, &snf)
		require.Equal(t, "no_such_export", snf.Name)
		require.NotEmpty(t, snf.Detail) // dlerror text is preserved
	})
	t.Run("too-many-args", func(t *testing.T) {
		tags := make([]string, MaxArgs+1)
		for i := range tags {
			tags[i] = "int"
		}
		_, err := l.Bind("int", "id_int", tags...)
		var bae *BindArityError
		require.ErrorAs(t, err, &bae)
		require.Equal(t, MaxArgs+1, bae.Got)
	})
	t.Run("max-args-accepted", func(t *testing.T) {
		// a 32-argument signature compiles; the declared shape need not
		// match the export, binding never inspects the callee
		tags := make([]string, MaxArgs)
		for i := range tags {
			tags[i] = "int"
		}
		_, err := l.Bind("int", "sum5", tags...)
		require.NoError(t, err)
	})
}

func TestBind_ShadowingKeepsBoth(t *testing.T) {
	l := openFixture(t)
	first := mustBind(t, l, "int32", "id_int", "int32")
	second := mustBind(t, l, "int", "id_int", "int")

	// enumeration preserves bind order and keeps the shadowed entry
	syms := l.Symbols()
	require.Len(t, syms, 2)
	require.Same(t, first, syms[0])
	require.Same(t, second, syms[1])

	// name lookup resolves to the last binding
	got, ok := l.Symbol("id_int")
	require.True(t, ok)
	require.Same(t, second, got)

	// both stay callable until close
	require.Equal(t, Int(7), call1(t, first, Int(7)))
	require.Equal(t, Int(9), call1(t, second, Int(9)))
}

func TestSignatureRendering(t *testing.T) {
	l := openFixture(t)
	s := mustBind(t, l, "int", "sum5", "int", "int", "int", "int", "int")
	require.Equal(t, "int sum5(int, int, int, int, int)", s.Signature())
	v := mustBind(t, l, "void", "noop")
	require.Equal(t, "void noop()", v.Signature())
	require.Equal(t, 0, v.Arity())

	p := mustBind(t, l, "char*", "id_charp", "char*")
	require.Equal(t, "char* id_charp(char*)", p.Signature())
}

func TestBindErrorsAreRecoverable(t *testing.T) {
	// a failed bind leaves the handle fully usable
	l := openFixture(t)
	if _, err := l.Bind("int", "no_such_export"); err == nil {
		t.Fatal("want bind failure")
	}
	s := mustBind(t, l, "int", "add2", "int", "int")
	got := call1(t, s, Int(2), Int(3))
	if got != Int(5) {
		t.Fatalf("add2: got %v", got)
	}
}
