package util

import (
	"fmt"
	"regexp"
	"strings"
)

var colorRe = regexp.MustCompile(`^#[0-9A-F]{6}$`)

// NormalizeColor uppercases a participant color and validates it against
// the "#RRGGBB" format.
func NormalizeColor(color string) (string, error) {
	c := strings.ToUpper(strings.TrimSpace(color))
	if !colorRe.MatchString(c) {
		return "", fmt.Errorf("invalid color %q, want #RRGGBB", color)
	}
	return c, nil
}

// NormalizeDisplayName trims a display name and enforces the length cap.
// A blank name collapses to absent (empty string).
func NormalizeDisplayName(name string) (string, error) {
	n := strings.TrimSpace(name)
	if len(n) > 64 {
		return "", fmt.Errorf("display name too long, max 64 characters")
	}
	return n, nil
}
