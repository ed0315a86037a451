package memory

import (
	"strings"
	"unicode"
)

// MaxConsolidationKeyLength bounds derived consolidation keys.
const MaxConsolidationKeyLength = 64

// KeyDeriver extracts a consolidation key from content. It returns the key
// and true when the content should be consolidated, or ("", false) when the
// content is a plain append-only memory.
//
// The deriver is pluggable so the detection heuristic can be swapped or
// strengthened without touching the engine.
type KeyDeriver func(content string) (string, bool)

// DeriveConsolidationKey is the default KeyDeriver.
//
// It detects "key: value"-shaped content: when the substring before the
// first ':' is non-empty after trimming, contains no embedded whitespace and
// is at most MaxConsolidationKeyLength characters, its lowercased form is
// the consolidation key. Anything else is not consolidated.
func DeriveConsolidationKey(content string) (string, bool) {
	head, _, found := strings.Cut(content, ":")
	if !found {
		return "", false
	}

	key := strings.TrimSpace(head)
	if key == "" || len(key) > MaxConsolidationKeyLength {
		return "", false
	}
	if strings.ContainsFunc(key, unicode.IsSpace) {
		return "", false
	}

	return strings.ToLower(key), true
}
