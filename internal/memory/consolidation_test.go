package memory_test

import (
	"strings"
	"testing"

	"github.com/fyrsmithlabs/recalld/internal/memory"
	"github.com/stretchr/testify/assert"
)

func TestDeriveConsolidationKey(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantKey string
		wantOK  bool
	}{
		{"simple fact", "email: a@x.com", "email", true},
		{"uppercased key lowered", "Email: a@x.com", "email", true},
		{"surrounding space trimmed", "  city : Paris", "city", true},
		{"hyphenated key", "favorite-food: pizza", "favorite-food", true},
		{"no colon", "just a plain message", "", false},
		{"empty key", ": value", "", false},
		{"embedded whitespace", "favorite food: pizza", "", false},
		{"key too long", strings.Repeat("k", 65) + ": v", "", false},
		{"key at max length", strings.Repeat("k", 64) + ": v", strings.Repeat("k", 64), true},
		{"only first colon counts", "url: http://example.com", "url", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			key, ok := memory.DeriveConsolidationKey(tt.content)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.wantKey, key)
		})
	}
}
