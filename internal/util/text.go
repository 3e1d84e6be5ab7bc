// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package util provides general-purpose helpers: accent-insensitive text
// matching, client address extraction and link validation.
package util

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var foldCaser = cases.Fold()

// Fold removes accents and case from s so that "Léa" and "LEA" compare equal.
func Fold(s string) string {
	// Decompose accents, drop the combining marks, then recompose.
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	result, _, err := transform.String(t, s)
	if err != nil {
		result = s
	}
	return foldCaser.String(strings.TrimSpace(result))
}

// MatchesQuery reports whether any of fields contains query after folding.
// An empty query matches everything.
func MatchesQuery(query string, fields ...string) bool {
	q := Fold(query)
	if q == "" {
		return true
	}
	for _, f := range fields {
		if strings.Contains(Fold(f), q) {
			return true
		}
	}
	return false
}

// Title upper-cases the first letter of each word, used for display names
// built from enum values such as "supercoach".
func Title(s string) string {
	return cases.Title(language.English).String(s)
}
