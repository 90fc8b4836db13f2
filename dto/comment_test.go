package dto

import (
	"testing"

	"github.com/bytedance/sonic"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractCommentFieldsShortKeys(t *testing.T) {
	f := ExtractCommentFields(`{"t":1700000000000,"n":"Kasia","m":"Popieram!"}`)
	assert.Equal(t, "Kasia", f.Name)
	assert.Equal(t, "Popieram!", f.Message)
	assert.Equal(t, int64(1700000000000), f.Time)
	assert.NotNil(t, f.Raw)
}

func TestExtractCommentFieldsLongKeys(t *testing.T) {
	f := ExtractCommentFields(`{"name":"Wojtek","message":"konkret","time":5}`)
	assert.Equal(t, "Wojtek", f.Name)
	assert.Equal(t, "konkret", f.Message)
	assert.Equal(t, int64(5), f.Time)
}

func TestExtractCommentFieldsPlainText(t *testing.T) {
	f := ExtractCommentFields("  zwykły tekst  ")
	assert.Empty(t, f.Name)
	assert.Equal(t, "zwykły tekst", f.Message)
	assert.Nil(t, f.Raw)
}

func TestExtractCommentFieldsObjectWithoutMessage(t *testing.T) {
	// An object with no message is treated as a bare-text comment.
	raw := `{"n":"ktoś"}`
	f := ExtractCommentFields(raw)
	assert.Empty(t, f.Name)
	assert.Equal(t, raw, f.Message)
	assert.Nil(t, f.Raw)
}

func TestAnnotatePreservesUnknownFields(t *testing.T) {
	f := ExtractCommentFields(`{"n":"Kasia","m":"hej","extra":"zostaje"}`)
	out, err := f.Annotate(6, 1700000000123)
	require.NoError(t, err)

	var stored map[string]interface{}
	require.NoError(t, sonic.UnmarshalString(out, &stored))
	assert.Equal(t, float64(6), stored["s"])
	assert.Equal(t, float64(1700000000123), stored["t"])
	assert.Equal(t, "zostaje", stored["extra"])
	assert.Equal(t, "hej", stored["m"])
}

func TestAnnotateKeepsExistingTimestamp(t *testing.T) {
	f := ExtractCommentFields(`{"n":"x","m":"y","t":42}`)
	out, err := f.Annotate(5, 1700000000123)
	require.NoError(t, err)

	var stored map[string]interface{}
	require.NoError(t, sonic.UnmarshalString(out, &stored))
	assert.Equal(t, float64(42), stored["t"])
}

func TestAnnotateWrapsPlainText(t *testing.T) {
	f := ExtractCommentFields("czysty tekst")
	out, err := f.Annotate(7, 1700000000123)
	require.NoError(t, err)

	var entry CommentEntry
	require.NoError(t, sonic.UnmarshalString(out, &entry))
	assert.Equal(t, "czysty tekst", entry.Message)
	assert.Equal(t, 7, entry.Score)
	assert.Equal(t, int64(1700000000123), entry.Time)
	assert.Empty(t, entry.Name)
}
