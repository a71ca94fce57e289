package recognition

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClean_NFCComposition(t *testing.T) {
	// "e" + combining acute composes to a single rune.
	out := Clean("café", DefaultCleanOptions())
	assert.Equal(t, "caf\u00e9", out)
}

func TestClean_Disabled(t *testing.T) {
	in := "café"
	assert.Equal(t, in, Clean(in, CleanOptions{NormalizeForm: "none"}))
}

func TestClean_ZeroWidthAndControls(t *testing.T) {
	opts := CleanOptions{
		NormalizeForm:      "NFC",
		RemoveZeroWidth:    true,
		RemoveControlChars: true,
	}
	assert.Equal(t, "ab", Clean("a\u200bb", opts))
	assert.Equal(t, "ab", Clean("a\x00b", opts))
	assert.Equal(t, "a\tb", Clean("a\tb", opts), "tabs survive control stripping")
}

func TestClean_WhitespaceCollapseAndTrim(t *testing.T) {
	opts := CleanOptions{
		NormalizeForm:      "NFC",
		CollapseWhitespace: true,
		Trim:               true,
	}
	assert.Equal(t, "a b c", Clean("  a \t b\n\nc ", opts))
}

func TestClean_Empty(t *testing.T) {
	assert.Empty(t, Clean("", DefaultCleanOptions()))
}
