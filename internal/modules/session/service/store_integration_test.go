package service

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"anoa.com/moodquest/internal/entity"
	"anoa.com/moodquest/internal/modules/session/dto"
	"anoa.com/moodquest/internal/modules/session/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func openSQLite(t *testing.T) *gorm.DB {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	db, err := gorm.Open(sqlite.Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", name)), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&entity.User{},
		&entity.MoodEntry{},
		&entity.JournalEntry{},
		&entity.XPLog{},
		&entity.UserAchievement{},
	))
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}

func TestOutsideGrantSurvivesCachedSession(t *testing.T) {
	db := openSQLite(t)
	ctx := context.Background()

	now := time.Now()
	u := &entity.User{
		Username:       "riley",
		Email:          "riley@example.com",
		PasswordHash:   "x",
		Level:          1,
		JoinDate:       now,
		LastActionDate: now,
	}
	require.NoError(t, db.Create(u).Error)

	server := NewSessionService(store.NewGormStore(db), nil, Options{})
	_, err := server.Load(ctx, u.ID)
	require.NoError(t, err)

	// Admin tooling runs its own controller over the same database.
	admin := NewSessionService(store.NewGormStore(db), nil, Options{})
	_, err = admin.AwardXP(ctx, u.ID, 500, "Admin grant")
	require.NoError(t, err)

	res, err := server.CheckIn(ctx, u.ID, dto.CheckInInput{Mood: "good"})
	require.NoError(t, err)
	assert.Equal(t, 510, res.Profile.XP)
	assert.Equal(t, 6, res.Profile.Level)
	assert.Empty(t, res.Achievements)

	var stored entity.User
	require.NoError(t, db.First(&stored, "id = ?", u.ID).Error)
	assert.Equal(t, 510, stored.XP)
	assert.Equal(t, 6, stored.Level)
	assert.Equal(t, 2, stored.TotalActions)
	assert.Equal(t, 1, stored.MoodCount)

	var ledger int
	require.NoError(t, db.Model(&entity.XPLog{}).
		Where("user_id = ?", u.ID).
		Select("COALESCE(SUM(amount), 0)").
		Scan(&ledger).Error)
	assert.Equal(t, stored.XP, ledger)

	var unlocks []entity.UserAchievement
	require.NoError(t, db.Where("user_id = ?", u.ID).Find(&unlocks).Error)
	require.Len(t, unlocks, 1)
	assert.Equal(t, "level-6", unlocks[0].Key)
}
