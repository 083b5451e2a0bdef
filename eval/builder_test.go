package eval

import (
	"errors"
	"testing"
)

func buildPass(t *testing.T, entries map[string]string, failed map[string]error) *Result[string] {
	t.Helper()
	b := NewBuilder[string]()
	for name, v := range entries {
		b.AddResult(NewKey("target", name), v)
	}
	for name, err := range failed {
		key := NewKey("target", name)
		b.AddError(key, NewErrorInfo(key, err))
	}
	if len(failed) > 0 {
		b.SetHasError(true)
	}
	return b.Build()
}

func TestMergeFrom(t *testing.T) {
	passA := buildPass(t, map[string]string{"a": "va"}, nil)
	passB := buildPass(t, map[string]string{"b": "vb"}, map[string]error{"x": errors.New("boom")})

	merged := NewBuilder[string]().MergeFrom(passA).MergeFrom(passB).Build()

	if v, ok := merged.Get(NewKey("target", "a")); !ok || v != "va" {
		t.Fatalf("Get(a) = %q, %v after merge", v, ok)
	}
	if v, ok := merged.Get(NewKey("target", "b")); !ok || v != "vb" {
		t.Fatalf("Get(b) = %q, %v after merge", v, ok)
	}
	if merged.Err(NewKey("target", "x")) == nil {
		t.Fatal("merged result lost the error for x")
	}
	if !merged.HasError() {
		t.Fatal("hasError flag was not ORed across merges")
	}
}

func TestMergeFromAssociativity(t *testing.T) {
	// Merging disjoint passes yields the same final maps regardless of
	// grouping.
	passA := buildPass(t, map[string]string{"a": "va"}, nil)
	passB := buildPass(t, map[string]string{"b": "vb"}, nil)
	passC := buildPass(t, nil, map[string]error{"c": errors.New("boom")})

	left := NewBuilder[string]().MergeFrom(passA).MergeFrom(passB).MergeFrom(passC).Build()

	bc := NewBuilder[string]().MergeFrom(passB).MergeFrom(passC).Build()
	right := NewBuilder[string]().MergeFrom(passA).MergeFrom(bc).Build()

	for _, name := range []string{"a", "b"} {
		lv, lok := left.Get(NewKey("target", name))
		rv, rok := right.Get(NewKey("target", name))
		if lv != rv || lok != rok {
			t.Fatalf("groupings disagree on %s: (%q,%v) vs (%q,%v)", name, lv, lok, rv, rok)
		}
	}
	cKey := NewKey("target", "c")
	if (left.Err(cKey) == nil) != (right.Err(cKey) == nil) {
		t.Fatal("groupings disagree on the error for c")
	}
	if left.HasError() != right.HasError() {
		t.Fatal("groupings disagree on hasError")
	}
}

func TestMergeFromDoesNotTouchCatastropheOrGraph(t *testing.T) {
	boom := errors.New("aborted")
	other := NewBuilder[string]().SetCatastrophe(errors.New("other")).Build()

	result := NewBuilder[string]().
		SetCatastrophe(boom).
		MergeFrom(other).
		Build()

	if result.Catastrophe() != boom {
		t.Fatalf("Catastrophe() = %v, want the builder's own %v", result.Catastrophe(), boom)
	}
}

func TestBuilderChaining(t *testing.T) {
	key := NewKey("target", "x")
	result := NewBuilder[int]().
		AddResult(key, 42).
		SetHasError(false).
		Build()
	if v, ok := result.Get(key); !ok || v != 42 {
		t.Fatalf("Get = %d, %v; want 42, true", v, ok)
	}
}
