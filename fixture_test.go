package dynlib

import (
	"os"
	"os/exec"
	"path/filepath"
	"testing"
)

// testLibPath is the compiled fixture shared object, or "" when no C
// compiler is available (fixture-dependent tests skip themselves).
var testLibPath string

func TestMain(m *testing.M) {
	dir, err := os.MkdirTemp("", "dynlib-test")
	if err == nil {
		out := filepath.Join(dir, "libdynlibtest.so")
		cc := exec.Command("cc", "-shared", "-fPIC", "-O1", "-o", out, "testdata/testlib.c")
		if cerr := cc.Run(); cerr == nil {
			testLibPath = out
		}
	}
	code := m.Run()
	if dir != "" {
		os.RemoveAll(dir)
	}
	os.Exit(code)
}

// openFixture opens the compiled fixture, skipping when it could not be
// built, and closes it when the test finishes.
func openFixture(t *testing.T) *Library {
	t.Helper()
	if testLibPath == "" {
		t.Skip("no C compiler available; fixture library not built")
	}
	l, err := Open(testLibPath)
	if err != nil {
		t.Fatalf("Open(%q): %v", testLibPath, err)
	}
	t.Cleanup(func() { _ = l.Close() })
	return l
}

// openLibc opens the platform C library, skipping on systems that name it
// differently.
func openLibc(t *testing.T) *Library {
	t.Helper()
	l, err := Open("libc.so.6")
	if err != nil {
		t.Skipf("libc.so.6 not available: %v", err)
	}
	t.Cleanup(func() { _ = l.Close() })
	return l
}

// mustBind binds or fails the test.
func mustBind(t *testing.T, l *Library, ret, name string, args ...string) *Symbol {
	t.Helper()
	s, err := l.Bind(ret, name, args...)
	if err != nil {
		t.Fatalf("Bind(%s %s%v): %v", ret, name, args, err)
	}
	return s
}

// call1 invokes and requires exactly one result.
func call1(t *testing.T, s *Symbol, args ...Value) Value {
	t.Helper()
	res, err := s.Call(args...)
	if err != nil {
		t.Fatalf("Call(%s): %v", s.Name(), err)
	}
	if len(res) != 1 {
		t.Fatalf("Call(%s): want 1 result, got %d", s.Name(), len(res))
	}
	return res[0]
}
