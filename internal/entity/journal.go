package entity

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type JournalEntry struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID    uuid.UUID `gorm:"type:uuid;not null;index:idx_journal_user_date,priority:1" json:"user_id"`
	User      User      `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	Title     string    `gorm:"size:200;not null" json:"title"`
	Content   string    `gorm:"type:text;not null" json:"content"`
	Mood      *string   `gorm:"size:20" json:"mood,omitempty"`
	CreatedAt time.Time `gorm:"not null;index:idx_journal_user_date,priority:2" json:"created_at"`
}

func (j *JournalEntry) BeforeCreate(tx *gorm.DB) (err error) {
	if j.ID == uuid.Nil {
		j.ID, err = uuid.NewV7()
	}
	return
}
