package shared

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStripKeyQuery(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"", ""},
		{"?", ""},
		{"key=secret", ""},
		{"?key=secret", ""},
		{"key=secret&x=1", "x=1"},
		{"x=1&key=secret&y=2", "x=1&y=2"},
		{"format=json", "format=json"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, StripKeyQuery(tt.in), "in=%q", tt.in)
	}
}

func TestStripKeyQueryMalformedFallsBackToTextual(t *testing.T) {
	got := StripKeyQuery("a=%zz&key=secret&b=2")
	assert.NotContains(t, got, "key=secret")
	assert.Contains(t, got, "b=2")
}

func TestParseIntText(t *testing.T) {
	n, ok := ParseIntText(" 42\n")
	require.True(t, ok)
	assert.Equal(t, int64(42), n)

	n, ok = ParseIntText("-7")
	require.True(t, ok)
	assert.Equal(t, int64(-7), n)

	_, ok = ParseIntText("")
	assert.False(t, ok)
	_, ok = ParseIntText("abc")
	assert.False(t, ok)
	_, ok = ParseIntText("12.5")
	assert.False(t, ok)
}
