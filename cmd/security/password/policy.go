package password

import (
	"errors"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Policy rejections returned by Validate, ValidateFor and HashFor.
var (
	ErrPasswordTooShort = errors.New("password: below minimum length")
	ErrPasswordTooLong  = errors.New("password: above maximum length")
	ErrWeakPassword     = errors.New("password: too easy to guess")
)

// Validate checks password policy. It does not mutate input.
func (c Config) Validate(password string) error {
	return c.ValidateFor(password, "")
}

// ValidateFor checks password policy for a specific account. When the weak
// check is enabled, passwords equal to the email or its local part are rejected.
func (c Config) ValidateFor(password, email string) error {
	// Count runes, not bytes.
	n := utf8.RuneCountInString(password)

	if n < c.Policy.MinLength {
		return ErrPasswordTooShort
	}
	if n > c.Policy.MaxLength {
		return ErrPasswordTooLong
	}

	if !c.Policy.RejectVeryWeak {
		return nil
	}
	if looksVeryWeak(password) || matchesAccount(password, email) {
		return ErrWeakPassword
	}
	return nil
}

func matchesAccount(pw, email string) bool {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return false
	}
	lower := strings.ToLower(strings.TrimSpace(pw))
	if lower == email {
		return true
	}
	local, _, ok := strings.Cut(email, "@")
	return ok && local != "" && lower == local
}

// looksVeryWeak is minimal on purpose; it is not a strength estimator.
func looksVeryWeak(pw string) bool {
	s := strings.TrimSpace(pw)
	if s == "" {
		return true
	}

	first, _ := utf8.DecodeRuneInString(s)
	if strings.Trim(s, string(first)) == "" {
		return true
	}

	onlyDigits := strings.IndexFunc(s, func(r rune) bool { return !unicode.IsDigit(r) }) < 0
	if onlyDigits && utf8.RuneCountInString(s) < 12 {
		return true
	}

	switch strings.ToLower(s) {
	case "password", "password123", "senha123", "12345678", "123456789", "qwerty123", "abcdefgh":
		return true
	}

	return false
}
