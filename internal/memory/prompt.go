package memory

import (
	"context"
	"strings"
)

// basePrompt is the fixed instruction prefix; profile-derived directives are
// appended to it.
const basePrompt = "You are a helpful, attentive AI companion. Be context-aware and personalized " +
	"based on the user's preferences and background information."

// BuildPersonalizedPrompt derives a system prompt from the owner's profile.
//
// Known profile labels translate into instruction sentences appended to the
// base prompt, in the order they appear in the profile; unrecognized labels
// are ignored. Without a profile the base prompt is returned unchanged.
func (s *Service) BuildPersonalizedPrompt(ctx context.Context, ownerID string) string {
	text, ok := s.profileText(ctx, ownerID)
	if !ok {
		return basePrompt
	}

	directives := deriveDirectives(text)
	if len(directives) == 0 {
		return basePrompt
	}

	var b strings.Builder
	b.WriteString(basePrompt)
	b.WriteString("\n\nYour specific instructions:")
	for _, d := range directives {
		b.WriteString("\n- ")
		b.WriteString(d)
	}
	return b.String()
}

// deriveDirectives scans serialized profile text ("Key: Value | ...") for
// known personalization labels.
func deriveDirectives(profileText string) []string {
	var directives []string

	for _, part := range strings.Split(profileText, " | ") {
		label, value, found := strings.Cut(part, ": ")
		if !found || value == "" {
			continue
		}

		switch label {
		case "ResponseStyle":
			switch value {
			case "Concise":
				directives = append(directives, "Keep responses brief and to the point")
			case "Detailed":
				directives = append(directives, "Provide comprehensive, detailed responses")
			case "Balanced":
				directives = append(directives, "Balance between concise and detailed responses")
			}
		case "Tone":
			directives = append(directives, "Maintain a "+strings.ToLower(value)+" tone")
		case "AIPersona":
			directives = append(directives, "Act as: "+value)
		case "AvoidTopics":
			directives = append(directives, "Never discuss: "+value)
		}
	}

	return directives
}
