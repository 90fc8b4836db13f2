package dto

import (
	"strconv"
	"strings"

	"github.com/bytedance/sonic"
)

// Forum entries are stored upstream as compact JSON {t,n,m,s}. Clients may
// submit either that JSON shape or plain text; plain text is wrapped before
// it is persisted.

type CommentEntry struct {
	Time    int64  `json:"t"`
	Name    string `json:"n"`
	Message string `json:"m"`
	Score   int    `json:"s"`
}

// CommentFields is the parsed view of a submitted forum element. Raw keeps
// the decoded JSON object (when there was one) so unknown fields survive
// the score/timestamp annotation round trip.
type CommentFields struct {
	Name    string
	Message string
	Time    int64
	Raw     map[string]interface{}
}

// ExtractCommentFields pulls name/message/time out of a submitted element.
// Accepts both the short keys (n/m/t) and the long ones (name/message/time).
// Anything that is not a JSON object is treated as a bare message.
func ExtractCommentFields(rawElement string) CommentFields {
	raw := strings.TrimSpace(rawElement)

	var obj map[string]interface{}
	if err := sonic.UnmarshalString(raw, &obj); err == nil && obj != nil {
		name := strings.TrimSpace(stringField(obj, "n", "name"))
		msg := strings.TrimSpace(stringField(obj, "m", "message"))
		t := intField(obj, "t", "time")
		if msg != "" {
			return CommentFields{Name: name, Message: msg, Time: t, Raw: obj}
		}
	}

	return CommentFields{Message: raw}
}

// Annotate sets the moderation score (and a timestamp when missing) on the
// submitted object and re-encodes it for storage.
func (f CommentFields) Annotate(score int, nowMillis int64) (string, error) {
	if f.Raw != nil {
		f.Raw["s"] = score
		if f.Time == 0 {
			f.Raw["t"] = nowMillis
		}
		return sonic.MarshalString(f.Raw)
	}

	t := f.Time
	if t == 0 {
		t = nowMillis
	}
	return sonic.MarshalString(CommentEntry{
		Time:    t,
		Name:    f.Name,
		Message: f.Message,
		Score:   score,
	})
}

func stringField(obj map[string]interface{}, keys ...string) string {
	for _, k := range keys {
		if v, ok := obj[k]; ok {
			if s, ok := v.(string); ok {
				return s
			}
		}
	}
	return ""
}

func intField(obj map[string]interface{}, keys ...string) int64 {
	for _, k := range keys {
		v, ok := obj[k]
		if !ok {
			continue
		}
		switch n := v.(type) {
		case float64:
			return int64(n)
		case int64:
			return n
		case string:
			if parsed, err := strconv.ParseInt(strings.TrimSpace(n), 10, 64); err == nil {
				return parsed
			}
		}
	}
	return 0
}
