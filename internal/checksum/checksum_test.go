package checksum

import "testing"

func TestSumStable(t *testing.T) {
	if Sum([]byte("abc")) != Sum([]byte("abc")) {
		t.Fatal("Sum not deterministic")
	}
	if Sum([]byte("abc")) == Sum([]byte("abd")) {
		t.Fatal("Sum collision on different input")
	}
}

func TestItemSeparatesFields(t *testing.T) {
	if Item("ab", []byte("c")) == Item("a", []byte("bc")) {
		t.Error("label/payload boundary not encoded")
	}
}
