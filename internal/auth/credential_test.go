// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package auth

import (
	"errors"
	"strings"
	"testing"
)

func TestGeneratePassword(t *testing.T) {
	seen := make(map[string]bool)
	for range 20 {
		p, err := GeneratePassword()
		if err != nil {
			t.Fatalf("GeneratePassword error: %v", err)
		}
		if len(p) != PasswordLength {
			t.Fatalf("len = %d, want %d", len(p), PasswordLength)
		}
		for _, r := range p {
			if !strings.ContainsRune(passwordAlphabet, r) {
				t.Fatalf("unexpected character %q in %q", r, p)
			}
		}
		seen[p] = true
	}
	if len(seen) < 2 {
		t.Error("generated passwords are not random")
	}
}

func TestGenerateAccessCode(t *testing.T) {
	code, err := GenerateAccessCode()
	if err != nil {
		t.Fatalf("GenerateAccessCode error: %v", err)
	}
	if len(code) != CodeLength {
		t.Fatalf("len = %d, want %d", len(code), CodeLength)
	}
	for _, r := range code {
		if !(r >= 'A' && r <= 'Z') && !(r >= '0' && r <= '9') {
			t.Fatalf("unexpected character %q in %q", r, code)
		}
	}
}

func TestValidatePassword(t *testing.T) {
	tests := []struct {
		password string
		want     error
	}{
		{"Abcdefg1", nil},
		{"Ab1", ErrPasswordTooShort},
		{"abcdefg1", ErrPasswordNoUpper},
		{"Abcdefgh", ErrPasswordNoDigit},
		{"ÉCOLE2026", nil},
		{"Ωmegaabc1", ErrPasswordNoUpper},
		{"Abcdefg١", ErrPasswordNoDigit},
	}

	for _, tt := range tests {
		t.Run(tt.password, func(t *testing.T) {
			if err := ValidatePassword(tt.password); !errors.Is(err, tt.want) {
				t.Errorf("ValidatePassword(%q) = %v, want %v", tt.password, err, tt.want)
			}
		})
	}
}

func TestValidateProfilePassword(t *testing.T) {
	tests := []struct {
		password string
		want     error
	}{
		{"abcdefgh", nil},
		{"éééééééé", nil},
		{"abcdefg", ErrPasswordTooShort},
		{"", ErrPasswordTooShort},
	}

	for _, tt := range tests {
		t.Run(tt.password, func(t *testing.T) {
			if err := ValidateProfilePassword(tt.password); !errors.Is(err, tt.want) {
				t.Errorf("ValidateProfilePassword(%q) = %v, want %v", tt.password, err, tt.want)
			}
		})
	}

	if err := ValidateProfileChange("abcdefgh", "abcdefgi"); !errors.Is(err, ErrPasswordsMismatch) {
		t.Errorf("err = %v, want ErrPasswordsMismatch", err)
	}
	if err := ValidateProfileChange("abcdefgh", "abcdefgh"); err != nil {
		t.Errorf("lowercase profile password rejected: %v", err)
	}
}

func TestValidateNewPassword(t *testing.T) {
	if err := ValidateNewPassword("Abcdefg1", "Abcdefg1"); err != nil {
		t.Errorf("matching passwords rejected: %v", err)
	}
	if err := ValidateNewPassword("Abcdefg1", "Abcdefg2"); !errors.Is(err, ErrPasswordsMismatch) {
		t.Errorf("err = %v, want ErrPasswordsMismatch", err)
	}
	if err := ValidateNewPassword("short", "short"); !errors.Is(err, ErrPasswordTooShort) {
		t.Errorf("err = %v, want ErrPasswordTooShort", err)
	}
}
