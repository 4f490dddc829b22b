// Package domain holds the value types the gamification core computes over.
// They carry no persistence tags; the session store maps them to entities.
package domain

import (
	"time"

	"github.com/google/uuid"
)

// AccountCreated is the last action of a profile nothing has happened to yet.
const AccountCreated = "Account created"

// Profile is a user's progression state. Engine operations take a Profile by
// value and return a new one; the input is never mutated.
type Profile struct {
	UserID         uuid.UUID `json:"user_id"`
	Username       string    `json:"username"`
	Email          string    `json:"email"`
	XP             int       `json:"xp"`
	Level          int       `json:"level"`
	Streak         int       `json:"streak"`
	LongestStreak  int       `json:"longest_streak"`
	LastAction     string    `json:"last_action"`
	LastActionDate time.Time `json:"last_action_date"`
	JoinDate       time.Time `json:"join_date"`
	TotalActions   int       `json:"total_actions"`
	MoodCount      int       `json:"mood_count"`
	JournalCount   int       `json:"journal_count"`

	// Unlocked maps achievement keys to their unlock time.
	Unlocked map[string]time.Time `json:"unlocked"`
}

// HasUnlocked reports whether key was unlocked at any point in the past.
func (p Profile) HasUnlocked(key string) bool {
	_, ok := p.Unlocked[key]
	return ok
}

// WithUnlocked returns a copy of p with key recorded as unlocked at t.
func (p Profile) WithUnlocked(key string, t time.Time) Profile {
	unlocked := make(map[string]time.Time, len(p.Unlocked)+1)
	for k, v := range p.Unlocked {
		unlocked[k] = v
	}
	unlocked[key] = t
	p.Unlocked = unlocked
	return p
}

// Achievement is one unlock event produced by the catalog.
type Achievement struct {
	Key         string    `json:"key"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	XPReward    int       `json:"xp_reward"`
	Icon        string    `json:"icon"`
	Unlocked    bool      `json:"unlocked"`
	UnlockedAt  time.Time `json:"unlocked_at"`

	// BonusLabel names the XP award granted for XPReward.
	BonusLabel string `json:"-"`
}

// Award is one XP grant inside an outcome. AchievementKey is empty for the
// base award of a user action and set for milestone bonuses.
type Award struct {
	Amount         int       `json:"amount"`
	Label          string    `json:"label"`
	AchievementKey string    `json:"achievement_key,omitempty"`
	At             time.Time `json:"at"`
}
