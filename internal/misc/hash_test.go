package misc

import "testing"

func TestSumSHA256(t *testing.T) {
	t.Parallel()

	a := SumSHA256([]byte("payload"), "key")
	if len(a) != 64 {
		t.Fatalf("digest length=%d want 64", len(a))
	}
	if b := SumSHA256([]byte("payload"), "key"); b != a {
		t.Error("digest not deterministic")
	}
	if b := SumSHA256([]byte("payload"), "other"); b == a {
		t.Error("key must change the digest")
	}
	if b := SumSHA256([]byte("tampered"), "key"); b == a {
		t.Error("payload must change the digest")
	}
}
