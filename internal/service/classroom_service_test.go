package service

import (
	"strings"
	"testing"
)

func TestGenerateJoinCode(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 200; i++ {
		code, err := generateJoinCode(6)
		if err != nil {
			t.Fatalf("generateJoinCode: %v", err)
		}
		if len(code) != 6 {
			t.Fatalf("code %q has length %d, want 6", code, len(code))
		}
		for _, r := range code {
			if !strings.ContainsRune(joinCodeAlphabet, r) {
				t.Fatalf("code %q contains %q, outside the alphabet", code, r)
			}
		}
		seen[code] = true
	}
	if len(seen) < 2 {
		t.Error("200 draws produced a single code")
	}
}

func TestGenerateJoinCodeCoversAlphabet(t *testing.T) {
	// With rejection sampling every character is equally likely; over
	// 500 six-character codes each of the 31 characters should appear.
	counts := make(map[rune]int)
	for i := 0; i < 500; i++ {
		code, err := generateJoinCode(6)
		if err != nil {
			t.Fatalf("generateJoinCode: %v", err)
		}
		for _, r := range code {
			counts[r]++
		}
	}
	for _, r := range joinCodeAlphabet {
		if counts[r] == 0 {
			t.Errorf("character %q never drawn in 3000 samples", r)
		}
	}
}
