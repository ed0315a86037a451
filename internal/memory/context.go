package memory

import (
	"context"
	"strings"

	"go.uber.org/zap"
)

// NoContextSentinel is returned by GetConversationContext when no section
// has content, so downstream prompt assembly never receives an empty string.
const NoContextSentinel = "No specific context available."

// Section headers, in fixed precedence order.
const (
	profileHeader  = "User Profile & Preferences:"
	recentHeader   = "Recent conversation context:"
	relevantHeader = "Relevant background information:"
)

// defaultMemoryQuery retrieves general background facts when the caller has
// no specific query.
const defaultMemoryQuery = "user preferences background information facts"

// ContentTypeProfile tags onboarding-profile records; it is excluded from
// the relevant-memory section because the profile section already covers it.
const ContentTypeProfile = "onboarding-profile"

// relevantContentTypes is the allowed set for the relevant-memory section.
var relevantContentTypes = []string{"fact"}

// GetConversationContext assembles one bounded context string from three
// sources in fixed precedence: the owner's profile (the foundation of
// personalization, always first when present), the most recent records of
// the conversation, and topically relevant general memories.
//
// Sections with no content are omitted. When all three are empty the fixed
// NoContextSentinel is returned. Retrieval failures degrade to partial or
// sentinel context; this method never returns an error.
func (s *Service) GetConversationContext(ctx context.Context, ownerID, conversationID string, recentCount, memoryLimit int) string {
	if recentCount <= 0 {
		recentCount = s.defaults.RecentMessages
	}
	if memoryLimit <= 0 {
		memoryLimit = s.defaults.TopK
	}

	var parts []string

	if text, ok := s.profileText(ctx, ownerID); ok {
		parts = append(parts, profileHeader, text, "")
	}

	if recent := s.recentConversation(ctx, conversationID, recentCount); len(recent) > 0 {
		parts = append(parts, recentHeader)
		parts = append(parts, recent...)
		parts = append(parts, "")
	}

	if relevant := s.relevantMemories(ctx, ownerID, memoryLimit); len(relevant) > 0 {
		parts = append(parts, relevantHeader)
		parts = append(parts, relevant...)
	}

	if len(parts) == 0 {
		return NoContextSentinel
	}
	return strings.TrimRight(strings.Join(parts, "\n"), "\n")
}

// profileText fetches the owner's serialized profile, swallowing failures.
func (s *Service) profileText(ctx context.Context, ownerID string) (string, bool) {
	if s.profiles == nil {
		return "", false
	}

	text, ok, err := s.profiles.Profile(ctx, ownerID)
	if err != nil {
		s.logger.Warn("profile retrieval failed, omitting profile section",
			zap.String("owner_id", ownerID), zap.Error(err))
		return "", false
	}
	if !ok || text == "" {
		return "", false
	}
	return text, true
}

// recentConversation renders the conversation's most recent records as
// bullet lines, most-recent-last.
func (s *Service) recentConversation(ctx context.Context, conversationID string, count int) []string {
	if conversationID == "" {
		return nil
	}

	records, err := s.records.ListByConversation(ctx, conversationID, count)
	if err != nil {
		s.logger.Warn("recent conversation lookup failed, omitting section",
			zap.String("conversation_id", conversationID), zap.Error(err))
		return nil
	}

	// ListByConversation returns most-recent-first; render oldest to newest.
	lines := make([]string, 0, len(records))
	for i := len(records) - 1; i >= 0; i-- {
		lines = append(lines, "- "+records[i].Content)
	}
	return lines
}

// relevantMemories renders topically relevant fact memories as bullet
// lines ordered by descending similarity score.
func (s *Service) relevantMemories(ctx context.Context, ownerID string, limit int) []string {
	results, err := s.SearchMemories(ctx, ownerID, defaultMemoryQuery, relevantContentTypes, limit, *s.defaults.MinRelevance)
	if err != nil {
		s.logger.Warn("relevant memory search failed, omitting section",
			zap.String("owner_id", ownerID), zap.Error(err))
		return nil
	}

	lines := make([]string, 0, len(results))
	for _, r := range results {
		lines = append(lines, "- "+r.Content)
	}
	return lines
}
