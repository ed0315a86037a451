package memory

import (
	"context"
	"time"
)

// SearchResult is one retrieved memory with its similarity score.
type SearchResult struct {
	// VectorKey identifies the memory in both stores.
	VectorKey string

	// Content is the stored text.
	Content string

	// ContentType is the record's type tag.
	ContentType string

	// Score is the similarity score from index search (higher is more
	// similar). Distinct from the record's mutable relevance score.
	Score float32

	// Timestamp is the record's creation or last-update time.
	Timestamp time.Time

	// Attributes are the record's free-form tags.
	Attributes map[string]string
}

// ProfileProvider supplies an owner's serialized onboarding profile.
//
// The serialized form is the compact "Key: Value | Key: Value" text produced
// by the profile package (or an equivalent external serializer). Implementors
// return ok == false when the owner has no completed profile.
type ProfileProvider interface {
	Profile(ctx context.Context, ownerID string) (text string, ok bool, err error)
}

// Defaults hold retrieval parameters applied when a caller passes zero
// values.
type Defaults struct {
	// TopK is the default number of search results.
	TopK int

	// RecentMessages is the default recency window for conversation context.
	RecentMessages int

	// MinRelevance is the minimum similarity score for assembled context.
	// nil applies the documented default; an explicit zero disables the
	// floor.
	MinRelevance *float32
}

// applyDefaults fills unset fields with documented defaults.
func (d *Defaults) applyDefaults() {
	if d.TopK <= 0 {
		d.TopK = 8
	}
	if d.RecentMessages <= 0 {
		d.RecentMessages = 5
	}
	if d.MinRelevance == nil {
		v := float32(0.5)
		d.MinRelevance = &v
	}
}
