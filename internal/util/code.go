package util

import (
	crand "crypto/rand"
	"math/rand"
	"strings"
)

// CodeAlphabet is the join-code alphabet: uppercase letters and digits
// without I, O, 0, 1, which operators misread over the phone.
const CodeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

// GenerateCode returns a random join code of the given length drawn from
// CodeAlphabet. It prefers crypto/rand and falls back to math/rand if the
// system source is unavailable; generation itself never fails.
func GenerateCode(length int) string {
	if length <= 0 {
		return ""
	}
	buf := make([]byte, length)
	if _, err := crand.Read(buf); err != nil {
		for i := range buf {
			buf[i] = byte(rand.Intn(256))
		}
	}
	code := make([]byte, length)
	for i := range code {
		code[i] = CodeAlphabet[int(buf[i])%len(CodeAlphabet)]
	}
	return string(code)
}

// NormalizeCode trims, uppercases and strips everything outside [A-Z0-9]
// from caller-typed input, so "ab c-d2" becomes "ABCD2".
func NormalizeCode(input string) string {
	var b strings.Builder
	for _, ch := range strings.ToUpper(strings.TrimSpace(input)) {
		if (ch >= 'A' && ch <= 'Z') || (ch >= '0' && ch <= '9') {
			b.WriteRune(ch)
		}
	}
	return b.String()
}

// IsValidCode reports whether code has exactly the expected length and
// every character belongs to CodeAlphabet. Codes of an older configured
// length do not pass.
func IsValidCode(code string, length int) bool {
	if len(code) != length {
		return false
	}
	for i := 0; i < len(code); i++ {
		if !strings.ContainsRune(CodeAlphabet, rune(code[i])) {
			return false
		}
	}
	return true
}
