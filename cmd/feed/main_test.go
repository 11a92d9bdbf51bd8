package main

import (
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
)

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "exactly", truncate("exactly", 7))
	assert.Equal(t, "abc...", truncate("abcdefgh", 6))

	// Multi-byte content must never be cut mid-rune
	cut := truncate("日本語のテキストです", 6)
	assert.Equal(t, "日本語...", cut)
	assert.True(t, utf8.ValidString(cut))

	// Limits too small for an ellipsis just hard-cut
	assert.Equal(t, "日本", truncate("日本語のテキスト", 2))
	assert.Equal(t, "", truncate("anything", 0))
	assert.Equal(t, "", truncate("anything", -5))
}
