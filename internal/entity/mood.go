package entity

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type MoodEntry struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID    uuid.UUID `gorm:"type:uuid;not null;index:idx_mood_user_date,priority:1" json:"user_id"`
	User      User      `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	Mood      string    `gorm:"size:20;not null" json:"mood"`
	Emoji     string    `gorm:"size:10;not null" json:"emoji"`
	Note      *string   `gorm:"type:text" json:"note,omitempty"`
	CreatedAt time.Time `gorm:"not null;index:idx_mood_user_date,priority:2" json:"created_at"`
}

func (m *MoodEntry) BeforeCreate(tx *gorm.DB) (err error) {
	if m.ID == uuid.Nil {
		m.ID, err = uuid.NewV7()
	}
	return
}
