// Package profile serializes onboarding profiles into compact retrieval text.
//
// The memory service consumes profiles as opaque serialized strings via the
// ProfileProvider interface; this package provides the reference struct and
// serializer for callers that manage profiles in-process.
package profile

import "strings"

// Profile is a completed onboarding profile. All fields are optional; empty
// fields are omitted from the serialized form.
type Profile struct {
	Identity      Identity
	Interests     Interests
	Communication Communication
	Goals         Goals
	Boundaries    Boundaries
	Fun           Fun
}

// Identity holds basic identity fields.
type Identity struct {
	Name     string
	Nickname string
	Pronouns string
	Location string
	Birthday string
}

// Interests holds interest fields.
type Interests struct {
	Topics    []string
	Hobbies   string
	Favorites string
}

// Communication holds communication-preference fields.
type Communication struct {
	ResponseStyle string
	Tone          []string
	SmallTalk     string
}

// Goals holds goal fields.
type Goals struct {
	PrimaryReason string
	PersonalGoals string
}

// Boundaries holds boundary fields.
type Boundaries struct {
	AvoidTopics  string
	MemoryPolicy string
}

// Fun holds lighter personalization fields.
type Fun struct {
	DreamTrip  string
	RandomFact string
	AIPersona  string
}

// Serialize produces the compact "Key: Value | Key: Value" text used as the
// profile section of assembled context and as input to directive derivation.
func Serialize(p Profile) string {
	var parts []string
	add := func(label, value string) {
		if value != "" {
			parts = append(parts, label+": "+value)
		}
	}

	name := p.Identity.Name
	if name == "" {
		name = p.Identity.Nickname
	}
	add("Name", name)
	add("Pronouns", p.Identity.Pronouns)
	add("Location", p.Identity.Location)
	add("Birthday", p.Identity.Birthday)

	add("Topics", strings.Join(p.Interests.Topics, ", "))
	add("Hobbies", p.Interests.Hobbies)
	add("Favorites", p.Interests.Favorites)

	add("ResponseStyle", p.Communication.ResponseStyle)
	add("Tone", strings.Join(p.Communication.Tone, ", "))
	add("SmallTalkLevel", p.Communication.SmallTalk)

	add("PrimaryReason", p.Goals.PrimaryReason)
	add("PersonalGoals", p.Goals.PersonalGoals)

	add("AvoidTopics", p.Boundaries.AvoidTopics)
	add("MemoryPolicy", p.Boundaries.MemoryPolicy)

	add("DreamTrip", p.Fun.DreamTrip)
	add("RandomFact", p.Fun.RandomFact)
	add("AIPersona", p.Fun.AIPersona)

	return strings.Join(parts, " | ")
}
