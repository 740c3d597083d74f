package handlers

import (
	"net/mail"
	"strings"
)

const passwordSymbols = "@$!%*?&"

// validatePassword enforces the account password policy: at least eight
// characters with a lowercase letter, an uppercase letter, a digit, and one
// of the allowed symbols.
func validatePassword(password string) []string {
	var violations []string
	if len(password) < 8 {
		violations = append(violations, "password must be at least 8 characters")
	}

	var lower, upper, digit, symbol bool
	for _, r := range password {
		switch {
		case r >= 'a' && r <= 'z':
			lower = true
		case r >= 'A' && r <= 'Z':
			upper = true
		case r >= '0' && r <= '9':
			digit = true
		case strings.ContainsRune(passwordSymbols, r):
			symbol = true
		}
	}
	if !lower {
		violations = append(violations, "password must contain a lowercase letter")
	}
	if !upper {
		violations = append(violations, "password must contain an uppercase letter")
	}
	if !digit {
		violations = append(violations, "password must contain a digit")
	}
	if !symbol {
		violations = append(violations, "password must contain one of "+passwordSymbols)
	}
	return violations
}

func validateNameField(field, value string) []string {
	trimmed := strings.TrimSpace(value)
	if len(trimmed) < 2 || len(trimmed) > 50 {
		return []string{field + " must be between 2 and 50 characters"}
	}
	return nil
}

func validEmail(email string) bool {
	addr, err := mail.ParseAddress(strings.TrimSpace(email))
	return err == nil && addr.Address == strings.TrimSpace(email)
}

func validTheme(theme string) bool {
	return theme == "light" || theme == "dark"
}

func validQuality(quality string) bool {
	switch quality {
	case "auto", "720p", "1080p":
		return true
	}
	return false
}
