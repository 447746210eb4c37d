package dynlib

import (
	"errors"
	"strings"
	"testing"
)

func TestResolveType_AllTags(t *testing.T) {
	tags := TypeTags()
	if len(tags) != 26 {
		t.Fatalf("want 26 type tags, got %d", len(tags))
	}
	for _, tag := range tags {
		d, err := ResolveType(tag)
		if err != nil {
			t.Fatalf("ResolveType(%q): %v", tag, err)
		}
		if d.Tag != tag {
			t.Fatalf("ResolveType(%q): descriptor tag %q", tag, d.Tag)
		}
	}
}

func TestResolveType_Unknown(t *testing.T) {
	for _, bad := range []string{"", "Int", "int*", "uint", "char *", "short int"} {
		_, err := ResolveType(bad)
		var ite *InvalidTypeError
		if !errors.As(err, &ite) {
			t.Fatalf("ResolveType(%q): want *InvalidTypeError, got %v", bad, err)
		}
		if ite.Tag != bad {
			t.Fatalf("ResolveType(%q): error carries %q", bad, ite.Tag)
		}
		// the option set is part of the diagnostic
		if msg := err.Error(); !strings.Contains(msg, "unsigned long long") {
			t.Fatalf("ResolveType(%q): option set missing from %q", bad, msg)
		}
	}
}

func TestResolveType_VoidIsVoid(t *testing.T) {
	d, err := ResolveType("void")
	if err != nil {
		t.Fatal(err)
	}
	if !d.IsVoid() {
		t.Fatal("void descriptor not marked void")
	}
	for _, tag := range []string{"void*", "char*", "int", "double"} {
		d, err := ResolveType(tag)
		if err != nil {
			t.Fatal(err)
		}
		if d.IsVoid() {
			t.Fatalf("%q marked void", tag)
		}
	}
}

func TestTypeTags_ReturnsCopy(t *testing.T) {
	a := TypeTags()
	a[0] = "mutated"
	b := TypeTags()
	if b[0] != "void" {
		t.Fatal("TypeTags exposed internal storage")
	}
}
