// Package progression maps XP to levels and level progress. Every function is
// total over its documented domain and free of side effects.
package progression

import "math"

// XPPerLevel is the width of every level band.
const XPPerLevel = 100

// LevelForXP returns floor(xp/100)+1. xp must be non-negative.
func LevelForXP(xp int) int {
	return xp/XPPerLevel + 1
}

// XPThresholdForLevel is the XP at which level is completed, i.e. the value
// shown as "XP needed for next level". level must be at least 1.
func XPThresholdForLevel(level int) int {
	return level * XPPerLevel
}

// XPWithinLevel is the progress toward the next level, in [0, 99].
func XPWithinLevel(xp int) int {
	return xp % XPPerLevel
}

// ProgressFraction is XPWithinLevel scaled to [0.0, 1.0).
func ProgressFraction(xp int) float64 {
	return float64(XPWithinLevel(xp)) / XPPerLevel
}

// Level title bands. Titles are display-only.
const (
	LevelLegend   = 50 // 🏆 Legend
	LevelChampion = 20 // ⭐ Champion
	LevelDevoted  = 10 // 📣 Devoted
	LevelRegular  = 5  // 👤 Regular
)

// Weekly activity thresholds, in XP earned over the last 7 days.
const (
	WeeklyOnFire   = 100
	WeeklyTrending = 50
	WeeklyActive   = 20
)

// Status is the progression snapshot the dashboard renders.
type Status struct {
	Level         int     `json:"level"`
	Title         string  `json:"title"`
	CurrentXP     int     `json:"current_xp"`
	XPWithinLevel int     `json:"xp_within_level"`
	XPToNextLevel int     `json:"xp_to_next_level"`
	NextLevelAt   int     `json:"next_level_at"`
	Progress      float64 `json:"progress"` // percentage, two decimals

	WeeklyXP    int    `json:"weekly_xp"`
	WeeklyLabel string `json:"weekly_label"`
}

// GetStatus computes the snapshot from total XP alone.
func GetStatus(xp int) Status {
	return GetStatusWithWeekly(xp, 0)
}

// GetStatusWithWeekly computes the snapshot plus the weekly activity label.
func GetStatusWithWeekly(xp, weeklyXP int) Status {
	level := LevelForXP(xp)
	within := XPWithinLevel(xp)

	status := Status{
		Level:         level,
		Title:         TitleForLevel(level),
		CurrentXP:     xp,
		XPWithinLevel: within,
		XPToNextLevel: XPPerLevel - within,
		NextLevelAt:   XPThresholdForLevel(level),
		Progress:      math.Round(ProgressFraction(xp)*100*100) / 100,
		WeeklyXP:      weeklyXP,
	}

	switch {
	case weeklyXP >= WeeklyOnFire:
		status.WeeklyLabel = "🔥 On Fire!"
	case weeklyXP >= WeeklyTrending:
		status.WeeklyLabel = "⚡ Trending"
	case weeklyXP >= WeeklyActive:
		status.WeeklyLabel = "📈 Active"
	}

	return status
}

// TitleForLevel names the band a level falls into.
func TitleForLevel(level int) string {
	switch {
	case level >= LevelLegend:
		return "Legend"
	case level >= LevelChampion:
		return "Champion"
	case level >= LevelDevoted:
		return "Devoted"
	case level >= LevelRegular:
		return "Regular"
	default:
		return "Newcomer"
	}
}
