package shared

import (
	"net/url"
	"regexp"
	"strings"
)

// Counter and basic-DB names are free-form strings on the wire. Everything
// below converts them into a closed set of namespaces at the API boundary so
// nothing unvalidated ever reaches the upstream licznik service.

var nameRegex = regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9_-]{0,127}$`)

func IsValidName(name string) bool {
	if name == "" || len(name) > 128 {
		return false
	}
	return nameRegex.MatchString(name)
}

func IsAllowedCounterName(name string) bool {
	if !IsValidName(name) {
		return false
	}
	return strings.HasPrefix(name, "staszek-") ||
		strings.HasPrefix(name, "like-") ||
		strings.HasPrefix(name, "like_") ||
		strings.HasPrefix(name, "forum-")
}

// IsAllowedPublicCounterName reports whether non-admin callers may read or
// increment the counter. Anything else is hidden from the outside world.
func IsAllowedPublicCounterName(name string) bool {
	if !IsValidName(name) {
		return false
	}
	switch name {
	case CounterViews, CounterVisitors, CounterVote:
		return true
	}
	return strings.HasPrefix(name, "like-news-") ||
		strings.HasPrefix(name, "like-program-") ||
		strings.HasPrefix(name, "like-poster-")
}

func IsAllowedForumThreadKey(key string) bool {
	if !IsValidName(key) {
		return false
	}
	if key == ForumRootKey {
		return true
	}
	return strings.HasPrefix(key, "staszek-news-") ||
		strings.HasPrefix(key, "staszek-program-") ||
		strings.HasPrefix(key, "staszek-poster-")
}

// IsAllowedBasicDbKey is the loose namespace check used by admin reset,
// where any staszek-* or pv-* name may be zeroed.
func IsAllowedBasicDbKey(key string) bool {
	if !IsValidName(key) {
		return false
	}
	return strings.HasPrefix(key, "staszek-") || strings.HasPrefix(key, "pv-")
}

type BasicDbKind int

const (
	BasicDbForumThread BasicDbKind = iota + 1
	BasicDbContact
)

// BasicDbKey is a validated basic-DB key tagged with its namespace.
type BasicDbKey struct {
	Name string
	Kind BasicDbKind
}

// ClassifyBasicDbKey validates a raw key for the dodaj/odczyt/usun
// operations and tags it. Forum threads are the moderated namespace;
// the contact box is the only pv-* key and its reads are admin-only.
func ClassifyBasicDbKey(key string) (BasicDbKey, bool) {
	if !IsAllowedBasicDbKey(key) {
		return BasicDbKey{}, false
	}
	if strings.HasPrefix(key, "staszek-") {
		if !IsAllowedForumThreadKey(key) {
			return BasicDbKey{}, false
		}
		return BasicDbKey{Name: key, Kind: BasicDbForumThread}, true
	}
	if key != ContactKey {
		return BasicDbKey{}, false
	}
	return BasicDbKey{Name: key, Kind: BasicDbContact}, true
}

func (k BasicDbKey) Moderated() bool {
	return k.Kind == BasicDbForumThread
}

func (k BasicDbKey) AdminReadOnly() bool {
	return k.Kind == BasicDbContact
}

// DecodePathSegment unescapes a raw path segment, returning "" when the
// escape sequence is malformed (which then fails name validation).
func DecodePathSegment(seg string) string {
	decoded, err := url.PathUnescape(seg)
	if err != nil {
		return ""
	}
	return decoded
}
