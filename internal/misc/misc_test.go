package misc

import (
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
)

func TestMin(t *testing.T) {
	assert.Equal(t, 3, Min(3, 5))
	assert.Equal(t, -7, Min(-1, -7))
	assert.Equal(t, "a", Min("a", "b"))
}

func TestStringLimit(t *testing.T) {
	assert.Equal(t, "short", StringLimit("short", 10))
	assert.Equal(t, "exact", StringLimit("exact", 5))
	assert.Equal(t, "lon...", StringLimit("long string", 6))
	assert.Equal(t, "ab", StringLimit("abcdef", 2))
	assert.Equal(t, "", StringLimit("abc", 0))
	assert.Equal(t, "", StringLimit("abc", -1))
}

func TestStringLimitMultibyte(t *testing.T) {
	assert.Equal(t, "héllo", StringLimit("héllo", 6))
	assert.Equal(t, "hé...", StringLimit("héllo world", 6))
	assert.Equal(t, "日...", StringLimit("日本語のテキスト", 7))
	assert.Equal(t, "日本語", StringLimit("日本語", 9))

	for n := 0; n <= 12; n++ {
		got := StringLimit("héllo 日本語", n)
		assert.True(t, utf8.ValidString(got), "n=%d got=%q", n, got)
		assert.LessOrEqual(t, len(got), n, "n=%d got=%q", n, got)
	}
}
