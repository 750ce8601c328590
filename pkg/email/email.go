// Package email derives presentation values from email addresses. Not every
// token issuer populates a name claim, and the local part of the address is
// the best fallback identity available.
package email

import (
	"strings"
	"unicode"
)

// DisplayName builds a human-readable name from the address's local part,
// splitting on common separators and capitalizing each piece, so
// "ada.lovelace@example.com" becomes "Ada Lovelace". Returns "" when the
// address has no usable local part.
func DisplayName(address string) string {
	localPart := address
	if at := strings.IndexByte(address, '@'); at >= 0 {
		localPart = address[:at]
	}

	parts := strings.FieldsFunc(localPart, func(r rune) bool {
		return r == '.' || r == '_' || r == '-' || r == '+'
	})
	if len(parts) == 0 {
		return ""
	}

	for i, part := range parts {
		parts[i] = capitalize(part)
	}
	return strings.Join(parts, " ")
}

func capitalize(s string) string {
	runes := []rune(s)
	runes[0] = unicode.ToUpper(runes[0])
	return string(runes)
}
