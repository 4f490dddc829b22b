package entity

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// User is the persisted profile. Level is a cached value of the XP and is
// rewritten on every XP change; it is never set on its own.
type User struct {
	ID             uuid.UUID         `gorm:"type:uuid;primaryKey" json:"id"`
	Username       string            `gorm:"size:50;uniqueIndex;not null" json:"username"`
	Email          string            `gorm:"size:100;uniqueIndex;not null" json:"email"`
	PasswordHash   string            `gorm:"size:255;not null" json:"-"`
	AvatarURL      *string           `gorm:"type:text" json:"avatar_url,omitempty"`
	XP             int               `gorm:"not null;default:0;index" json:"xp"`
	Level          int               `gorm:"not null;default:1" json:"level"`
	Streak         int               `gorm:"not null;default:0" json:"streak"`
	LongestStreak  int               `gorm:"not null;default:0" json:"longest_streak"`
	LastAction     string            `gorm:"size:255" json:"last_action"`
	LastActionDate time.Time         `json:"last_action_date"`
	JoinDate       time.Time         `gorm:"not null" json:"join_date"`
	TotalActions   int               `gorm:"not null;default:0" json:"total_actions"`
	MoodCount      int               `gorm:"not null;default:0" json:"mood_count"`
	JournalCount   int               `gorm:"not null;default:0" json:"journal_count"`
	CreatedAt      time.Time         `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time         `gorm:"autoUpdateTime" json:"updated_at"`
	Achievements   []UserAchievement `gorm:"constraint:OnDelete:CASCADE" json:"achievements,omitempty"`
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}
