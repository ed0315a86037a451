package memory_test

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBuildPersonalizedPromptWithoutProfile(t *testing.T) {
	env := newTestEnv(t, nil)

	got := env.service.BuildPersonalizedPrompt(context.Background(), "alice")
	assert.Contains(t, got, "helpful, attentive AI companion")
	assert.NotContains(t, got, "Your specific instructions:")
}

func TestBuildPersonalizedPromptDirectives(t *testing.T) {
	profile := "Name: Ada | ResponseStyle: Concise | Tone: Warm | AIPersona: Coach | AvoidTopics: politics"
	env := newTestEnv(t, stubProfiles{text: profile, ok: true})

	got := env.service.BuildPersonalizedPrompt(context.Background(), "alice")

	assert.Contains(t, got, "Your specific instructions:")
	assert.Contains(t, got, "- Keep responses brief and to the point")
	assert.Contains(t, got, "- Maintain a warm tone")
	assert.Contains(t, got, "- Act as: Coach")
	assert.Contains(t, got, "- Never discuss: politics")

	// Directives follow profile order.
	assert.Less(t, strings.Index(got, "brief and to the point"), strings.Index(got, "warm tone"))
}

func TestBuildPersonalizedPromptIgnoresUnknownLabels(t *testing.T) {
	env := newTestEnv(t, stubProfiles{text: "Name: Ada | FavoriteColor: blue", ok: true})

	got := env.service.BuildPersonalizedPrompt(context.Background(), "alice")
	assert.NotContains(t, got, "Your specific instructions:")
	assert.NotContains(t, got, "blue")
}

func TestBuildPersonalizedPromptResponseStyles(t *testing.T) {
	cases := map[string]string{
		"Concise":  "Keep responses brief and to the point",
		"Detailed": "Provide comprehensive, detailed responses",
		"Balanced": "Balance between concise and detailed responses",
	}
	for style, want := range cases {
		env := newTestEnv(t, stubProfiles{text: "ResponseStyle: " + style, ok: true})
		got := env.service.BuildPersonalizedPrompt(context.Background(), "alice")
		assert.Contains(t, got, want, "style %s", style)
	}
}
