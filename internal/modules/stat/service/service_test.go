package service

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"anoa.com/moodquest/internal/entity"
	statRepo "anoa.com/moodquest/internal/modules/stat/repository"
	userRepo "anoa.com/moodquest/internal/modules/user/repository"
	"anoa.com/moodquest/pkg/apperror"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setup(t *testing.T, now time.Time) (*statService, *gorm.DB) {
	t.Helper()
	name := strings.ReplaceAll(t.Name(), "/", "_")
	db, err := gorm.Open(sqlite.Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", name)), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&entity.User{},
		&entity.UserAchievement{},
		&entity.MoodEntry{},
		&entity.JournalEntry{},
		&entity.XPLog{},
	))
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})

	s := NewStatService(userRepo.NewUserRepository(db), statRepo.NewStatRepository(db)).(*statService)
	s.now = func() time.Time { return now }
	return s, db
}

func TestGetUserStats(t *testing.T) {
	now := time.Date(2026, 5, 10, 18, 0, 0, 0, time.UTC)
	s, db := setup(t, now)
	ctx := context.Background()

	u := &entity.User{
		Username: "rio", Email: "rio@example.com", PasswordHash: "x",
		XP: 250, Level: 3, Streak: 4, LongestStreak: 9, JoinDate: now.AddDate(0, -1, 0),
	}
	require.NoError(t, db.Create(u).Error)
	require.NoError(t, db.Create(&entity.UserAchievement{UserID: u.ID, Key: "level-2", Title: "Level 2 Reached!", UnlockedAt: now}).Error)

	// Two logs on one day, one on another, one outside the weekly window.
	logs := []entity.XPLog{
		{UserID: u.ID, Amount: 10, Label: "Mood check-in completed", CreatedAt: now.Add(-2 * time.Hour)},
		{UserID: u.ID, Amount: 20, Label: "Journal entry created", CreatedAt: now.Add(-3 * time.Hour)},
		{UserID: u.ID, Amount: 10, Label: "Mood check-in completed", CreatedAt: now.AddDate(0, 0, -2)},
		{UserID: u.ID, Amount: 210, Label: "Mood check-in completed", CreatedAt: now.AddDate(0, 0, -12)},
	}
	require.NoError(t, db.Create(&logs).Error)

	require.NoError(t, db.Create(&entity.MoodEntry{UserID: u.ID, Mood: "good", Emoji: "😊", CreatedAt: now}).Error)
	require.NoError(t, db.Create(&entity.MoodEntry{UserID: u.ID, Mood: "tired", Emoji: "😴", CreatedAt: now}).Error)
	require.NoError(t, db.Create(&entity.JournalEntry{UserID: u.ID, Title: "t", Content: "c", CreatedAt: now}).Error)

	stats, err := s.GetUserStats(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, 250, stats.TotalXP)
	assert.Equal(t, 4, stats.CurrentStreak)
	assert.Equal(t, 9, stats.LongestStreak)
	assert.Equal(t, 2, stats.TotalMoodCheckins)
	assert.Equal(t, 1, stats.TotalJournalEntries)
	assert.Equal(t, 3, stats.DaysActive)
	assert.Equal(t, 1, stats.Achievements)
	assert.Equal(t, 3, stats.Status.Level)
	assert.Equal(t, 40, stats.Status.WeeklyXP)
	assert.Equal(t, "📈 Active", stats.Status.WeeklyLabel)
}

func TestGetUserStats_UnknownUser(t *testing.T) {
	s, _ := setup(t, time.Now())
	_, err := s.GetUserStats(context.Background(), uuid.New())
	assert.ErrorIs(t, err, apperror.ErrNotFound)
}

func TestGetTotalUsers(t *testing.T) {
	s, db := setup(t, time.Now())
	for _, name := range []string{"a1a", "b2b"} {
		require.NoError(t, db.Create(&entity.User{Username: name, Email: name + "@x.io", PasswordHash: "x", JoinDate: time.Now()}).Error)
	}

	n, err := s.GetTotalUsers(context.Background())
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)
}
