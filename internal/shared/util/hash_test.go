package util

import "testing"

func TestHashPrincipal(t *testing.T) {
	principal := "203.0.113.7"
	got := HashPrincipal(principal)
	if got != HashPrincipal(principal) {
		t.Fatalf("expected stable hash, got %s", got)
	}
	for _, ch := range got {
		if !((ch >= 'a' && ch <= 'f') || (ch >= '0' && ch <= '9')) {
			t.Fatalf("hash contains non-hex character: %c", ch)
		}
	}
	if len(got) != 64 {
		t.Fatalf("expected 64 hex characters, got %d", len(got))
	}
}
