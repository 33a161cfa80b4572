package services

import "strings"

// NormalizePhone strips whitespace, hyphens and parentheses from phone.
func NormalizePhone(phone string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case '-', '(', ')':
			return -1
		}
		if r == ' ' || r == '\t' || r == '\n' || r == '\r' || r == '\v' || r == '\f' {
			return -1
		}
		return r
	}, phone)
}
