package dto

import "anoa.com/moodquest/internal/modules/gamification/progression"

// UserStats summarizes one user's activity for the dashboard.
type UserStats struct {
	TotalXP             int                `json:"total_xp"`
	CurrentStreak       int                `json:"current_streak"`
	LongestStreak       int                `json:"longest_streak"`
	TotalJournalEntries int                `json:"total_journal_entries"`
	TotalMoodCheckins   int                `json:"total_mood_checkins"`
	DaysActive          int                `json:"days_active"`
	Achievements        int                `json:"achievements"`
	Status              progression.Status `json:"status"`
}
