package dto

import (
	"anoa.com/moodquest/internal/entity"
	"anoa.com/moodquest/internal/modules/gamification/domain"
	"anoa.com/moodquest/internal/modules/gamification/progression"
)

type CheckInInput struct {
	Mood string `json:"mood" binding:"required,mood"`
	Note string `json:"note" binding:"max=1000"`
}

type JournalInput struct {
	Title   string `json:"title" binding:"required,max=200"`
	Content string `json:"content" binding:"required,max=20000"`
	Mood    string `json:"mood" binding:"omitempty,mood"`
}

// SessionResponse is the dashboard payload returned on load.
type SessionResponse struct {
	Profile      domain.Profile        `json:"profile"`
	Status       progression.Status    `json:"status"`
	Moods        []entity.MoodEntry    `json:"moods"`
	Journals     []entity.JournalEntry `json:"journals"`
	Achievements []domain.Achievement  `json:"achievements"`
}

// ActionResponse is returned after a mood check-in or journal entry.
type ActionResponse struct {
	Entry        any                  `json:"entry"`
	Profile      domain.Profile       `json:"profile"`
	Status       progression.Status   `json:"status"`
	XPGained     int                  `json:"xp_gained"`
	Achievements []domain.Achievement `json:"achievements"`
}
