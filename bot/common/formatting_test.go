package common

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseMention(t *testing.T) {
	assert.Equal(t, "123", ParseMention("<@123>"))
	assert.Equal(t, "123", ParseMention("<@!123>"))
	assert.Equal(t, "123", ParseMention(" 123 "))
	assert.Equal(t, "<@&55>", ParseMention("<@&55>"))
}

func TestParseAmount(t *testing.T) {
	v, ok := ParseAmount("12.9")
	assert.True(t, ok)
	assert.Equal(t, int64(12), v)

	v, ok = ParseAmount("-3")
	assert.True(t, ok)
	assert.Equal(t, int64(-3), v)

	_, ok = ParseAmount("lots")
	assert.False(t, ok)
}

func TestCodeBlock(t *testing.T) {
	assert.Equal(t, "x", CodeBlock("x", true))
	assert.Equal(t, "```\nx\n```", CodeBlock("x", false))
	assert.Equal(t, "\n```json\n{}\n```", JSONBlock("{}", false))
}
