// Package record implements the durable metadata store for memory records.
//
// Every embedded vector in an owner's shard is correlated to exactly one
// record here through its vector key. Records carry the original content,
// a content type tag, owner and conversation scoping, a relevance score and
// free-form string attributes.
package record

import (
	"time"
)

// AttrConsolidationKey is the attribute carrying a record's consolidation
// key, the derived label enforcing single-latest-value semantics for
// fact-like content.
const AttrConsolidationKey = "consolidation_key"

// Record is one durable memory record.
type Record struct {
	// ID is the primary key of the record store.
	ID string

	// VectorKey correlates this record to exactly one slot in its owner's
	// vector index shard.
	VectorKey string

	// Content is the text payload that was embedded.
	Content string

	// ContentType tags the record: "message", "onboarding-profile", "fact",
	// or any caller-defined type.
	ContentType string

	// OwnerID scopes the record to one tenant. No cross-owner visibility.
	OwnerID string

	// ConversationID groups conversational records; empty for profile and
	// standalone facts.
	ConversationID string

	// Timestamp is creation or last-update time, monotonically
	// non-decreasing per record.
	Timestamp time.Time

	// RelevanceScore is a mutable secondary weighting signal, distinct from
	// the similarity score returned by index search. Defaults to 1.0.
	RelevanceScore float64

	// Attributes carries the consolidation key and other free-form tags.
	Attributes map[string]string
}

// ConsolidationKey returns the record's consolidation key, if any.
func (r *Record) ConsolidationKey() (string, bool) {
	if r.Attributes == nil {
		return "", false
	}
	key, ok := r.Attributes[AttrConsolidationKey]
	return key, ok
}
