// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package auth

import (
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
)

// Character sets for generated credentials.
const (
	passwordAlphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789!@#$%^&*()"
	codeAlphabet     = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
)

// Generated credential lengths.
const (
	PasswordLength = 12
	CodeLength     = 8
)

// MinPasswordLength is the shortest password a user may choose.
const MinPasswordLength = 8

// Password policy errors.
var (
	ErrPasswordTooShort  = fmt.Errorf("password must be at least %d characters", MinPasswordLength)
	ErrPasswordNoUpper   = errors.New("password must contain an uppercase letter")
	ErrPasswordNoDigit   = errors.New("password must contain a digit")
	ErrPasswordsMismatch = errors.New("passwords do not match")
)

// GeneratePassword returns a random permanent password for coach roles.
func GeneratePassword() (string, error) {
	return randomString(passwordAlphabet, PasswordLength)
}

// GenerateAccessCode returns a random temporary access code for students.
func GenerateAccessCode() (string, error) {
	return randomString(codeAlphabet, CodeLength)
}

func randomString(alphabet string, n int) (string, error) {
	limit := big.NewInt(int64(len(alphabet)))
	buf := make([]byte, n)
	for i := range buf {
		idx, err := rand.Int(rand.Reader, limit)
		if err != nil {
			return "", fmt.Errorf("generating credential: %w", err)
		}
		buf[i] = alphabet[idx.Int64()]
	}
	return string(buf), nil
}

// ValidatePassword checks a password chosen at first login: at least
// MinPasswordLength characters with an ASCII uppercase letter and an ASCII
// digit.
func ValidatePassword(password string) error {
	if err := ValidateProfilePassword(password); err != nil {
		return err
	}
	var upper, digit bool
	for _, r := range password {
		switch {
		case r >= 'A' && r <= 'Z':
			upper = true
		case r >= '0' && r <= '9':
			digit = true
		}
	}
	if !upper {
		return ErrPasswordNoUpper
	}
	if !digit {
		return ErrPasswordNoDigit
	}
	return nil
}

// ValidateProfilePassword checks a password changed from the profile page,
// where only the length is enforced.
func ValidateProfilePassword(password string) error {
	if len([]rune(password)) < MinPasswordLength {
		return ErrPasswordTooShort
	}
	return nil
}

// ValidateNewPassword checks the first-login policy and that the
// confirmation matches.
func ValidateNewPassword(password, confirm string) error {
	return confirmed(ValidatePassword(password), password, confirm)
}

// ValidateProfileChange checks the profile policy and that the confirmation
// matches.
func ValidateProfileChange(password, confirm string) error {
	return confirmed(ValidateProfilePassword(password), password, confirm)
}

func confirmed(policyErr error, password, confirm string) error {
	if policyErr != nil {
		return policyErr
	}
	if password != confirm {
		return ErrPasswordsMismatch
	}
	return nil
}
