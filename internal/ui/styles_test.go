package ui

import (
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
)

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", Truncate("short", 10))
	assert.Equal(t, "exact", Truncate("exact", 5))
	assert.Equal(t, "long ti...", Truncate("long title here", 10))
}

func TestTruncateTinyMax(t *testing.T) {
	// Degenerate widths must not panic or slice negatively
	assert.Equal(t, "t...", Truncate("truncated", 0))
	assert.Equal(t, "t...", Truncate("truncated", 2))
	assert.Equal(t, "ok", Truncate("ok", 0))
}

func TestTruncateMultibyte(t *testing.T) {
	got := Truncate("ページタイトルが長い", 6)
	assert.True(t, utf8.ValidString(got), "cut must land on a rune boundary")
	assert.Equal(t, "ページ...", got)
}
