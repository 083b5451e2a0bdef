package fingerprint

import "testing"

func TestHashDeterministic(t *testing.T) {
	a := Hash(map[string]int{"x": 1, "y": 2})
	b := Hash(map[string]int{"y": 2, "x": 1})
	if a != b {
		t.Fatalf("equal maps hashed differently: %s vs %s", a, b)
	}
}

func TestHashDistinguishesValues(t *testing.T) {
	if Hash("a") == Hash("b") {
		t.Fatal("different values hashed equal")
	}
	if Hash(1) == Hash("1") {
		t.Fatal("int and string with same JSON text should still differ")
	}
}

func TestHashNonEncodable(t *testing.T) {
	ch := make(chan int)
	fp := Hash(ch)
	if fp.IsZero() {
		t.Fatal("non-encodable value should still produce a fingerprint")
	}
}

func TestCombineOrderSensitive(t *testing.T) {
	a, b := Hash("a"), Hash("b")
	if Combine(a, b) == Combine(b, a) {
		t.Fatal("Combine should be order-sensitive")
	}
	if Combine(a, b) != Combine(a, b) {
		t.Fatal("Combine should be deterministic")
	}
}

func TestZero(t *testing.T) {
	if !Zero.IsZero() {
		t.Fatal("Zero.IsZero() = false")
	}
	if Hash(nil).IsZero() {
		t.Fatal("Hash(nil) should not equal the unset fingerprint")
	}
}
