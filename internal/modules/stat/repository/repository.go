package repository

import (
	"context"
	"time"

	"anoa.com/moodquest/internal/entity"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Activity is what the log tables say about one user.
type Activity struct {
	MoodEntries    int64
	JournalEntries int64
	DaysActive     int64
	XPSince        int64
}

type StatRepository interface {
	// Activity counts entries and active days for userID, and sums the XP
	// logged at or after since.
	Activity(ctx context.Context, userID uuid.UUID, since time.Time) (*Activity, error)
}

type statRepository struct {
	db *gorm.DB
}

func NewStatRepository(db *gorm.DB) StatRepository {
	return &statRepository{db: db}
}

func (r *statRepository) Activity(ctx context.Context, userID uuid.UUID, since time.Time) (*Activity, error) {
	db := r.db.WithContext(ctx)
	var a Activity

	if err := db.Model(&entity.MoodEntry{}).Where("user_id = ?", userID).Count(&a.MoodEntries).Error; err != nil {
		return nil, err
	}
	if err := db.Model(&entity.JournalEntry{}).Where("user_id = ?", userID).Count(&a.JournalEntries).Error; err != nil {
		return nil, err
	}
	if err := db.Model(&entity.XPLog{}).
		Where("user_id = ?", userID).
		Select("COUNT(DISTINCT DATE(created_at))").
		Scan(&a.DaysActive).Error; err != nil {
		return nil, err
	}
	if err := db.Model(&entity.XPLog{}).
		Where("user_id = ? AND created_at >= ?", userID, since).
		Select("COALESCE(SUM(amount), 0)").
		Scan(&a.XPSince).Error; err != nil {
		return nil, err
	}

	return &a, nil
}
