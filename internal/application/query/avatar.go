// Package query contains read operations (CQRS - Queries).
package query

// ══════════════════════════════════════════════════════════════════════════════
// AVATAR EVOLUTION
// The user's avatar grows with their level. Stages are keyed by the level
// that unlocks them; a user shows the highest stage at or below their
// current level.
// ══════════════════════════════════════════════════════════════════════════════

// AvatarDTO describes the avatar stage shown for a level.
type AvatarDTO struct {
	// Stage is the stage name.
	Stage string `json:"stage"`

	// Color is the stage's hex color.
	Color string `json:"color"`

	// Size is the stage's render size token.
	Size string `json:"size"`

	// Emoji is the stage's emoji.
	Emoji string `json:"emoji"`
}

// avatarStage pairs an unlock level with its look.
type avatarStage struct {
	level  int
	avatar AvatarDTO
}

// avatarStages in ascending unlock order.
var avatarStages = []avatarStage{
	{1, AvatarDTO{Stage: "Seedling", Color: "#90EE90", Size: "small", Emoji: "🌱"}},
	{5, AvatarDTO{Stage: "Sprout", Color: "#32CD32", Size: "medium", Emoji: "🌿"}},
	{10, AvatarDTO{Stage: "Young Tree", Color: "#228B22", Size: "large", Emoji: "🌳"}},
	{20, AvatarDTO{Stage: "Mature Tree", Color: "#006400", Size: "xl", Emoji: "🌲"}},
	{30, AvatarDTO{Stage: "Ancient Tree", Color: "#8B4513", Size: "2xl", Emoji: "🌴"}},
	{40, AvatarDTO{Stage: "Magical Tree", Color: "#FFD700", Size: "3xl", Emoji: "✨🌳"}},
	{50, AvatarDTO{Stage: "Legendary Tree", Color: "#FF6347", Size: "4xl", Emoji: "🏆🌳"}},
}

// AvatarForLevel returns the avatar stage for a level: the highest stage
// whose unlock level does not exceed it.
func AvatarForLevel(level int) AvatarDTO {
	current := avatarStages[0].avatar
	for _, s := range avatarStages {
		if level >= s.level {
			current = s.avatar
		}
	}
	return current
}
