// Package sanitize provides shared identifier sanitization for shard artifact names.
//
// Per-owner index artifacts are stored as files named after the owner ID, so
// every owner identifier must reduce to a safe filename component matching
// ^[a-z0-9_]{1,64}$. This package ensures all identifiers conform.
package sanitize

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

const (
	// MaxIdentifierLength is the maximum length for a sanitized identifier.
	MaxIdentifierLength = 64

	// HashSuffixLength is the length of the hash suffix added to truncated
	// identifiers. Format: _<8-char-hash> = 9 characters total.
	HashSuffixLength = 9

	// DefaultIdentifier is used when sanitization produces an empty result.
	DefaultIdentifier = "default"
)

// Identifier sanitizes a string for use as a shard artifact name component.
//
// Rules applied:
//   - Converts to lowercase
//   - Replaces invalid characters with underscores
//   - Collapses multiple underscores
//   - Trims leading/trailing underscores
//   - Truncates to MaxIdentifierLength with hash suffix if too long
//   - Returns DefaultIdentifier if result would be empty
//
// Distinct inputs that sanitize to the same base string (including inputs
// differing only by letter case) are disambiguated by a hash suffix over the
// raw input; callers that need stronger collision resistance should pass
// already-safe IDs (e.g. UUIDs).
func Identifier(s string) string {
	if s == "" {
		return DefaultIdentifier
	}

	lowered := strings.ToLower(s)

	var result strings.Builder
	result.Grow(len(lowered))
	for _, r := range lowered {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '_' || r == '-' {
			result.WriteRune(r)
		} else {
			result.WriteRune('_')
		}
	}

	out := collapseUnderscores(result.String())
	out = strings.Trim(out, "_")

	if out == "" {
		return DefaultIdentifier
	}

	// Any rewrite, case folding included, means two different raw IDs could
	// collide on the sanitized form. Append a short hash of the raw input to
	// keep them distinct.
	if out != s {
		out = truncate(out, MaxIdentifierLength-HashSuffixLength) + hashSuffix(s)
		return out
	}

	if len(out) > MaxIdentifierLength {
		out = truncate(out, MaxIdentifierLength-HashSuffixLength) + hashSuffix(s)
	}

	return out
}

// collapseUnderscores reduces runs of underscores to a single underscore.
func collapseUnderscores(s string) string {
	for strings.Contains(s, "__") {
		s = strings.ReplaceAll(s, "__", "_")
	}
	return s
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}

// hashSuffix returns "_" plus the first 8 hex chars of the SHA-256 of s.
func hashSuffix(s string) string {
	sum := sha256.Sum256([]byte(s))
	return "_" + hex.EncodeToString(sum[:])[:HashSuffixLength-1]
}
