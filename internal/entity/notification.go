package entity

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Notification is a transient achievement toast. It stays visible until it is
// dismissed or ExpiresAt passes, whichever comes first.
type Notification struct {
	ID             uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	UserID         uuid.UUID  `gorm:"type:uuid;not null;index:idx_notification_user,priority:1" json:"user_id"`
	User           *User      `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
	AchievementKey string     `gorm:"size:50;not null" json:"achievement_key"`
	Title          string     `gorm:"size:100;not null" json:"title"`
	Message        string     `gorm:"type:text" json:"message"`
	Icon           string     `gorm:"size:10" json:"icon"`
	XPReward       int        `gorm:"not null;default:0" json:"xp_reward"`
	CreatedAt      time.Time  `gorm:"not null;index:idx_notification_user,priority:2" json:"created_at"`
	ExpiresAt      time.Time  `gorm:"not null;index" json:"expires_at"`
	DismissedAt    *time.Time `json:"dismissed_at,omitempty"`
}

func (n *Notification) BeforeCreate(tx *gorm.DB) (err error) {
	if n.ID == uuid.Nil {
		n.ID, err = uuid.NewV7()
	}
	return
}
