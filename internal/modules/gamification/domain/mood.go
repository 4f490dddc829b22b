package domain

// Mood is one of the fixed check-in categories.
type Mood string

const (
	MoodExcellent  Mood = "excellent"
	MoodGood       Mood = "good"
	MoodOkay       Mood = "okay"
	MoodLow        Mood = "low"
	MoodFrustrated Mood = "frustrated"
	MoodGrateful   Mood = "grateful"
	MoodMotivated  Mood = "motivated"
	MoodTired      Mood = "tired"
)

var moodEmoji = map[Mood]string{
	MoodExcellent:  "😄",
	MoodGood:       "😊",
	MoodOkay:       "😐",
	MoodLow:        "😔",
	MoodFrustrated: "😤",
	MoodGrateful:   "🤗",
	MoodMotivated:  "💪",
	MoodTired:      "😴",
}

// Moods lists the categories in display order.
var Moods = []Mood{
	MoodExcellent, MoodGood, MoodOkay, MoodLow,
	MoodFrustrated, MoodGrateful, MoodMotivated, MoodTired,
}

// IsMood reports whether s names a known category.
func IsMood(s string) bool {
	_, ok := moodEmoji[Mood(s)]
	return ok
}

// Emoji returns the glyph for m, or "" when m is unknown.
func (m Mood) Emoji() string {
	return moodEmoji[m]
}
