package common

import (
	"encoding/hex"
	"strings"
	"testing"
)

// ---------- MakeRandHexString ----------

func TestMakeRandHexString_LengthAndHex(t *testing.T) {
	const n = 16
	s, err := MakeRandHexString(n)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(s) != n*2 {
		t.Fatalf("expected hex length %d, got %d", n*2, len(s))
	}
	if _, err := hex.DecodeString(s); err != nil {
		t.Fatalf("string is not valid hex: %v", err)
	}
}

func TestMakeRandHexString_ZeroSize(t *testing.T) {
	s, err := MakeRandHexString(0)
	if err != nil {
		t.Fatalf("unexpected error for size=0: %v", err)
	}
	if s != "" {
		t.Fatalf("expected empty string for size=0, got %q", s)
	}
}

// ---------- GenerateStrongPassword ----------

func TestGenerateStrongPassword_ContainsEveryClass(t *testing.T) {
	for i := 0; i < 50; i++ {
		p, err := GenerateStrongPassword(StrongPasswordLength)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(p) != StrongPasswordLength {
			t.Fatalf("expected length %d, got %d (%q)", StrongPasswordLength, len(p), p)
		}
		for _, set := range []string{lowerChars, upperChars, digitChars, symbolChars} {
			if !strings.ContainsAny(p, set) {
				t.Fatalf("password %q misses a char from %q", p, set)
			}
		}
	}
}

func TestGenerateStrongPassword_TooShort(t *testing.T) {
	if _, err := GenerateStrongPassword(3); err == nil {
		t.Fatalf("expected error for length 3")
	}
}
