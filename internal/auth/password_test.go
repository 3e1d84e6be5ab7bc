// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package auth

import (
	"errors"
	"strings"
	"testing"
)

func TestHashCredential(t *testing.T) {
	hash, err := HashCredential("K7Q2ZP9M")
	if err != nil {
		t.Fatalf("HashCredential error: %v", err)
	}
	if !strings.HasPrefix(hash, "$argon2id$v=19$m=19456,t=2,p=1$") {
		t.Fatalf("unexpected hash format: %s", hash)
	}

	again, err := HashCredential("K7Q2ZP9M")
	if err != nil {
		t.Fatalf("HashCredential error: %v", err)
	}
	if hash == again {
		t.Error("two hashes of the same secret should use different salts")
	}
}

func TestVerifyCredential(t *testing.T) {
	hash, err := HashCredential("Secret123")
	if err != nil {
		t.Fatalf("HashCredential error: %v", err)
	}

	tests := []struct {
		name   string
		secret string
		hash   string
		want   bool
	}{
		{name: "correct", secret: "Secret123", hash: hash, want: true},
		{name: "wrong", secret: "secret123", hash: hash, want: false},
		{name: "empty secret", secret: "", hash: hash, want: false},
		{name: "cleared credential", secret: "", hash: "", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := VerifyCredential(tt.secret, tt.hash)
			if err != nil {
				t.Fatalf("VerifyCredential error: %v", err)
			}
			if got != tt.want {
				t.Errorf("VerifyCredential() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestVerifyCredential_OtherParameters(t *testing.T) {
	// Hash of "changeme" produced with m=65536,t=1,p=4.
	stored := "$argon2id$v=19$m=65536,t=1,p=4$mucMvOaS6lZ2LWNS1OEFKw$UYEWv8cvCOO6l2zGeqv3JPVe1nyy0x9GXBfYEuDM544"

	ok, err := VerifyCredential("changeme", stored)
	if err != nil {
		t.Fatalf("VerifyCredential error: %v", err)
	}
	if !ok {
		t.Fatal("stored hash rejected its secret")
	}
	if !NeedsRehash(stored) {
		t.Error("NeedsRehash() = false for non-default parameters")
	}
}

func TestVerifyCredential_Malformed(t *testing.T) {
	for _, h := range []string{"plain", "$bcrypt$x$y$z$w", "$argon2id$v=19$m=1,t=1,p=1$!!$!!"} {
		if _, err := VerifyCredential("x", h); !errors.Is(err, ErrMalformedHash) {
			t.Errorf("VerifyCredential(%q) error = %v, want ErrMalformedHash", h, err)
		}
	}
}

func TestNeedsRehash_Current(t *testing.T) {
	hash, err := HashCredential("anything")
	if err != nil {
		t.Fatalf("HashCredential error: %v", err)
	}
	if NeedsRehash(hash) {
		t.Error("NeedsRehash() = true for a fresh hash")
	}
	if !NeedsRehash("garbage") {
		t.Error("NeedsRehash() = false for garbage")
	}
}
