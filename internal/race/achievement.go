package race

// Achievement is a catalog entry whose unlock flag only ever flips from
// false to true.
type Achievement struct {
	ID          string
	Name        string
	Description string
	Unlocked    bool
}

// Achievement catalog order matters: session milestones come before
// performance unlocks so the first notification a player sees after their
// first race is "First Steps".
func achievementCatalog() []Achievement {
	return []Achievement{
		{ID: "first_race", Name: "First Steps", Description: "Complete your first race"},
		{ID: "speed_demon", Name: "Speed Demon", Description: "Reach 60+ WPM"},
		{ID: "accuracy_master", Name: "Accuracy Master", Description: "Achieve 95%+ accuracy"},
		{ID: "lightning_fast", Name: "Lightning Fast", Description: "Reach 100+ WPM"},
		{ID: "perfectionist", Name: "Perfectionist", Description: "Complete a race with 100% accuracy"},
	}
}

// unlocked reports whether the predicate for the given id holds for the
// final race stats.
func achievementEarned(id string, wpm, accuracy int) bool {
	switch id {
	case "first_race":
		return true
	case "speed_demon":
		return wpm >= 60
	case "accuracy_master":
		return accuracy >= 95
	case "lightning_fast":
		return wpm >= 100
	case "perfectionist":
		return accuracy == 100
	default:
		return false
	}
}
