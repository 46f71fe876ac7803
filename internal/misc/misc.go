package misc

import (
	"unicode/utf8"

	"golang.org/x/exp/constraints"
)

func Min[T constraints.Ordered](a, b T) T {
	if a < b {
		return a
	}
	return b
}

// StringLimit truncates s to at most n bytes, appending "..." when something
// was cut off. The cut never lands inside a multi-byte rune. Used to keep
// push notification bodies short.
func StringLimit(s string, n int) string {
	if n <= 0 {
		return ""
	}
	if len(s) <= n {
		return s
	}
	cut := n
	if n > 3 {
		cut = n - 3
	}
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	if n <= 3 {
		return s[:cut]
	}
	return s[:cut] + "..."
}
