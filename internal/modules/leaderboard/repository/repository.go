package repository

import (
	"context"
	"time"

	"anoa.com/moodquest/internal/entity"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Row is one ranked user. PeriodXP equals XP for the all-time board.
type Row struct {
	UserID    uuid.UUID
	Username  string
	AvatarURL *string
	XP        int
	PeriodXP  int
}

type LeaderboardRepository interface {
	// TopAllTime ranks users by total XP.
	TopAllTime(ctx context.Context, limit int) ([]Row, error)
	// TopSince ranks users by XP logged at or after since.
	TopSince(ctx context.Context, since time.Time, limit int) ([]Row, error)
	// XPSince sums logged XP per user at or after since. Users with no rows
	// are absent from the map.
	XPSince(ctx context.Context, userIDs []uuid.UUID, since time.Time) (map[uuid.UUID]int, error)
}

type leaderboardRepository struct {
	db *gorm.DB
}

func NewLeaderboardRepository(db *gorm.DB) LeaderboardRepository {
	return &leaderboardRepository{db: db}
}

func (r *leaderboardRepository) TopAllTime(ctx context.Context, limit int) ([]Row, error) {
	var rows []Row
	err := r.db.WithContext(ctx).
		Model(&entity.User{}).
		Select("id AS user_id, username, avatar_url, xp, xp AS period_xp").
		Order("xp DESC").
		Order("username ASC").
		Limit(limit).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *leaderboardRepository) TopSince(ctx context.Context, since time.Time, limit int) ([]Row, error) {
	var rows []Row
	err := r.db.WithContext(ctx).
		Table("xp_logs").
		Select("users.id AS user_id, users.username, users.avatar_url, users.xp, SUM(xp_logs.amount) AS period_xp").
		Joins("JOIN users ON users.id = xp_logs.user_id").
		Where("xp_logs.created_at >= ?", since).
		Group("users.id, users.username, users.avatar_url, users.xp").
		Order("period_xp DESC").
		Order("users.username ASC").
		Limit(limit).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *leaderboardRepository) XPSince(ctx context.Context, userIDs []uuid.UUID, since time.Time) (map[uuid.UUID]int, error) {
	out := make(map[uuid.UUID]int, len(userIDs))
	if len(userIDs) == 0 {
		return out, nil
	}

	var sums []struct {
		UserID uuid.UUID
		Total  int
	}
	err := r.db.WithContext(ctx).
		Model(&entity.XPLog{}).
		Select("user_id, SUM(amount) AS total").
		Where("user_id IN ? AND created_at >= ?", userIDs, since).
		Group("user_id").
		Scan(&sums).Error
	if err != nil {
		return nil, err
	}

	for _, s := range sums {
		out[s.UserID] = s.Total
	}
	return out, nil
}
