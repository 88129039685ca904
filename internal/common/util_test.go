package common

import (
	"testing"
)

// ---------- GenerateRandByteArray ----------

func TestGenerateRandByteArray_Length(t *testing.T) {
	b := GenerateRandByteArray(32)
	if len(b) != 32 {
		t.Fatalf("unexpected length: got %d, want 32", len(b))
	}
}

// ---------- WipeByteArray ----------

func TestWipeByteArray(t *testing.T) {
	b := []byte("secret")
	WipeByteArray(b)
	for i, v := range b {
		if v != 0 {
			t.Fatalf("byte %d not wiped: %v", i, v)
		}
	}
	WipeByteArray(nil) // must not panic
}
