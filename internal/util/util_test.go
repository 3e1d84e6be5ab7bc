// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package util

import (
	"errors"
	"net/http/httptest"
	"testing"
)

func TestFold(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"Léa Dubois", "lea dubois"},
		{"NOÉ", "noe"},
		{"  Çà et là  ", "ca et la"},
		{"plain", "plain"},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := Fold(tt.input); got != tt.want {
				t.Errorf("Fold(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestMatchesQuery(t *testing.T) {
	tests := []struct {
		name   string
		query  string
		fields []string
		want   bool
	}{
		{"empty query", "", []string{"anything"}, true},
		{"accent insensitive", "lea", []string{"Léa Dubois", "lea@x.io"}, true},
		{"case insensitive", "DUBOIS", []string{"Léa Dubois"}, true},
		{"matches email", "example.com", []string{"Hugo", "hugo@example.com"}, true},
		{"no match", "zoe", []string{"Léa Dubois", "lea@x.io"}, false},
		{"no fields", "a", nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := MatchesQuery(tt.query, tt.fields...); got != tt.want {
				t.Errorf("MatchesQuery(%q, %v) = %v, want %v", tt.query, tt.fields, got, tt.want)
			}
		})
	}
}

func TestTitle(t *testing.T) {
	if got := Title("supercoach"); got != "Supercoach" {
		t.Errorf("Title = %q", got)
	}
}

func TestClientIP(t *testing.T) {
	tests := []struct {
		remote string
		want   string
	}{
		{"192.0.2.1:1234", "192.0.2.1"},
		{"[2001:db8::1]:443", "2001:db8::1"},
		{"192.0.2.7", "192.0.2.7"},
	}

	for _, tt := range tests {
		r := httptest.NewRequest("GET", "/", nil)
		r.RemoteAddr = tt.remote
		if got := ClientIP(r); got != tt.want {
			t.Errorf("ClientIP(%q) = %q, want %q", tt.remote, got, tt.want)
		}
	}
}

func TestValidateHTTPURL(t *testing.T) {
	long := "https://example.com/" + string(make([]byte, MaxURLLength))

	tests := []struct {
		name    string
		input   string
		want    string
		wantErr error
	}{
		{"https", "https://docs.google.com/d/abc", "https://docs.google.com/d/abc", nil},
		{"trimmed", "  http://example.com  ", "http://example.com", nil},
		{"empty", "   ", "", ErrURLRequired},
		{"relative", "/docs/abc", "", ErrURLInvalid},
		{"ftp", "ftp://example.com/file", "", ErrURLInvalid},
		{"javascript", "javascript:alert(1)", "", ErrURLInvalid},
		{"no host", "https://", "", ErrURLInvalid},
		{"too long", long, "", ErrURLTooLong},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ValidateHTTPURL(tt.input)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("err = %v, want %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}
