// Melodex - AI-Powered Music Discovery for Media Library Managers
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/melodex

package logging

import "strings"

// SanitizeToken masks an API key or token, showing only the first and last
// four characters. Short values are fully masked.
//
//	"sk-proj-abcdef0123456789" -> "sk-p...6789"
func SanitizeToken(token string) string {
	if token == "" {
		return ""
	}
	if len(token) <= 12 {
		return "***"
	}
	return token[:4] + "..." + token[len(token)-4:]
}

// SanitizeError removes potentially sensitive information from error text
// before it reaches a log line. Provider errors can echo request headers.
func SanitizeError(err string) string {
	sensitive := []string{
		"api_key",
		"apikey",
		"authorization",
		"bearer",
		"secret",
		"token",
	}

	lower := strings.ToLower(err)
	for _, pattern := range sensitive {
		if strings.Contains(lower, pattern) {
			return "provider error (detail withheld: possible credential echo)"
		}
	}
	return TruncateField(err, 200)
}

// TruncateField limits untrusted free text (artist names, model output) to a
// sane length for log lines.
func TruncateField(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
