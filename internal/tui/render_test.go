package tui

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSplitSentences(t *testing.T) {
	assert.Equal(t, []string{"One.", " Two!", "three"}, splitSentences("One. Two! three"))
	assert.Equal(t, []string{"no punctuation"}, splitSentences("no punctuation"))
	assert.Empty(t, splitSentences("   "))
}

func TestHighlightBestSentence(t *testing.T) {
	text := "Shipping takes a week. Refunds are processed within 14 days. Contact support for help."

	// unrelated questions leave the answer untouched
	assert.Equal(t, text, highlightBestSentence(text, "weather today"))
	assert.Equal(t, text, highlightBestSentence(text, ""))
	// single sentences are never highlighted
	assert.Equal(t, "Only one.", highlightBestSentence("Only one.", "one"))

	out := highlightBestSentence(text, "How are refunds processed?")
	assert.Contains(t, out, "Refunds are processed within 14 days.")
	assert.Contains(t, out, "Shipping takes a week.")
	assert.Contains(t, out, "Contact support for help.")
}

func TestTokenOverlapScore(t *testing.T) {
	q := toTokenSet("refund policy refund")
	assert.Len(t, q, 2)
	assert.Equal(t, 2, tokenOverlapScore(q, "The Refund policy: refund now."))
	assert.Equal(t, 0, tokenOverlapScore(q, "nothing here"))
}
