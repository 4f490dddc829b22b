package dto

import "anoa.com/moodquest/internal/modules/gamification/progression"

// Timeframes accepted by the leaderboard.
const (
	TimeframeAllTime = "all_time"
	TimeframeMonthly = "monthly"
	TimeframeWeekly  = "weekly"
)

// LeaderboardEntry is a single ranked user. Position is 1-based. PeriodXP is
// the XP that placed the user on this board; Status always reflects all-time XP.
type LeaderboardEntry struct {
	Username  string             `json:"username"`
	AvatarURL *string            `json:"avatar_url,omitempty"`
	Position  int                `json:"position"`
	PeriodXP  int                `json:"period_xp"`
	Status    progression.Status `json:"status"`
}
