package entity

import (
	"time"

	"github.com/google/uuid"
)

// XPLog records one XP award. A single user action can produce several rows
// (base award plus milestone bonuses), all written in the same transaction.
type XPLog struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	UserID         uuid.UUID `gorm:"type:uuid;index:idx_xp_user_date,priority:1;not null" json:"user_id"`
	User           User      `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
	Amount         int       `gorm:"not null" json:"amount"`
	Label          string    `gorm:"size:100;not null" json:"label"`           // 'Mood check-in completed', '7-day streak bonus', ...
	AchievementKey string    `gorm:"size:50" json:"achievement_key,omitempty"` // set for milestone bonuses
	CreatedAt      time.Time `gorm:"index:idx_xp_user_date,priority:2;index:idx_xp_date" json:"created_at"`
}

// UserAchievement is an unlocked catalog entry. (user_id, key) is unique so a
// milestone can be unlocked at most once per user.
type UserAchievement struct {
	ID          uint      `gorm:"primaryKey" json:"-"`
	UserID      uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_user_achievement,priority:1" json:"-"`
	Key         string    `gorm:"size:50;not null;uniqueIndex:idx_user_achievement,priority:2" json:"key"`
	Title       string    `gorm:"size:100;not null" json:"title"`
	Description string    `gorm:"type:text" json:"description"`
	XPReward    int       `gorm:"not null;default:0" json:"xp_reward"`
	Icon        string    `gorm:"size:10" json:"icon"`
	UnlockedAt  time.Time `gorm:"not null" json:"unlocked_at"`
}
