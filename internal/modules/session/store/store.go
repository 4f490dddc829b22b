// Package store is the persistence boundary of the session controller. It
// maps gamification profiles onto the users table and writes a whole action
// (entry, profile fields, XP log and unlocks) in a single transaction.
package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"anoa.com/moodquest/internal/entity"
	"anoa.com/moodquest/internal/modules/gamification/domain"
	"anoa.com/moodquest/pkg/apperror"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Fields is a partial profile update keyed by column name. Only the supplied
// columns change; updated_at is stamped by the store.
type Fields map[string]any

// Change is everything one top-level action persists. Before is the profile
// the outcome was computed from; the write only lands while the stored row
// still carries its xp and total_actions.
type Change struct {
	UserID       uuid.UUID
	Before       domain.Profile
	Profile      domain.Profile
	Achievements []domain.Achievement
	Awards       []domain.Award
	Mood         *entity.MoodEntry
	Journal      *entity.JournalEntry
}

type DataStore interface {
	ReadProfile(ctx context.Context, userID uuid.UUID) (domain.Profile, error)
	WriteProfile(ctx context.Context, userID uuid.UUID, fields Fields) error
	AppendMoodEntry(ctx context.Context, userID uuid.UUID, entry *entity.MoodEntry) (uuid.UUID, error)
	AppendJournalEntry(ctx context.Context, userID uuid.UUID, entry *entity.JournalEntry) (uuid.UUID, error)
	ListRecentMoodEntries(ctx context.Context, userID uuid.UUID, limit int) ([]entity.MoodEntry, error)
	ListRecentJournalEntries(ctx context.Context, userID uuid.UUID, limit int) ([]entity.JournalEntry, error)
	// Commit applies c atomically: either every row is written or none is.
	// It fails with apperror.ErrConflict when the stored profile no longer
	// matches c.Before.
	Commit(ctx context.Context, c Change) error
}

type gormStore struct {
	db *gorm.DB
}

func NewGormStore(db *gorm.DB) DataStore {
	return &gormStore{db: db}
}

func (s *gormStore) ReadProfile(ctx context.Context, userID uuid.UUID) (domain.Profile, error) {
	var user entity.User
	if err := s.db.WithContext(ctx).
		Preload("Achievements").
		Where("id = ?", userID).
		First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.Profile{}, apperror.ErrNotFound
		}
		return domain.Profile{}, err
	}

	return ToProfile(&user), nil
}

func (s *gormStore) WriteProfile(ctx context.Context, userID uuid.UUID, fields Fields) error {
	return writeProfile(s.db.WithContext(ctx), userID, fields)
}

func writeProfile(db *gorm.DB, userID uuid.UUID, fields Fields) error {
	if len(fields) == 0 {
		return nil
	}
	res := db.Model(&entity.User{}).Where("id = ?", userID).Updates(map[string]any(fields))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return apperror.ErrNotFound
	}
	return nil
}

func (s *gormStore) AppendMoodEntry(ctx context.Context, userID uuid.UUID, entry *entity.MoodEntry) (uuid.UUID, error) {
	entry.UserID = userID
	if err := s.db.WithContext(ctx).Omit("User").Create(entry).Error; err != nil {
		return uuid.Nil, err
	}
	return entry.ID, nil
}

func (s *gormStore) AppendJournalEntry(ctx context.Context, userID uuid.UUID, entry *entity.JournalEntry) (uuid.UUID, error) {
	entry.UserID = userID
	if err := s.db.WithContext(ctx).Omit("User").Create(entry).Error; err != nil {
		return uuid.Nil, err
	}
	return entry.ID, nil
}

func (s *gormStore) ListRecentMoodEntries(ctx context.Context, userID uuid.UUID, limit int) ([]entity.MoodEntry, error) {
	var entries []entity.MoodEntry
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at desc").
		Limit(limit).
		Find(&entries).Error
	return entries, err
}

func (s *gormStore) ListRecentJournalEntries(ctx context.Context, userID uuid.UUID, limit int) ([]entity.JournalEntry, error) {
	var entries []entity.JournalEntry
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at desc").
		Limit(limit).
		Find(&entries).Error
	return entries, err
}

func (s *gormStore) Commit(ctx context.Context, c Change) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if c.Mood != nil {
			c.Mood.UserID = c.UserID
			if err := tx.Omit("User").Create(c.Mood).Error; err != nil {
				return err
			}
		}
		if c.Journal != nil {
			c.Journal.UserID = c.UserID
			if err := tx.Omit("User").Create(c.Journal).Error; err != nil {
				return err
			}
		}

		if err := writeGuarded(tx, c); err != nil {
			return err
		}

		if len(c.Awards) > 0 {
			logs := make([]entity.XPLog, 0, len(c.Awards))
			for _, a := range c.Awards {
				logs = append(logs, entity.XPLog{
					UserID:         c.UserID,
					Amount:         a.Amount,
					Label:          a.Label,
					AchievementKey: a.AchievementKey,
					CreatedAt:      a.At,
				})
			}
			if err := tx.Omit("User").Create(&logs).Error; err != nil {
				return err
			}
		}

		if len(c.Achievements) > 0 {
			rows := make([]entity.UserAchievement, 0, len(c.Achievements))
			for _, a := range c.Achievements {
				rows = append(rows, entity.UserAchievement{
					UserID:      c.UserID,
					Key:         a.Key,
					Title:       a.Title,
					Description: a.Description,
					XPReward:    a.XPReward,
					Icon:        a.Icon,
					UnlockedAt:  a.UnlockedAt,
				})
			}
			// The unique (user_id, key) index keeps replays from duplicating unlocks.
			if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&rows).Error; err != nil {
				return err
			}
		}

		return nil
	})
}

func writeGuarded(tx *gorm.DB, c Change) error {
	res := tx.Model(&entity.User{}).
		Where("id = ? AND xp = ? AND total_actions = ?", c.UserID, c.Before.XP, c.Before.TotalActions).
		Updates(map[string]any(ProfileFields(c.Profile)))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected > 0 {
		return nil
	}

	var n int64
	if err := tx.Model(&entity.User{}).Where("id = ?", c.UserID).Count(&n).Error; err != nil {
		return err
	}
	if n == 0 {
		return apperror.ErrNotFound
	}
	return fmt.Errorf("%w: profile of %s changed since it was read", apperror.ErrConflict, c.UserID)
}

// ProfileFields lists every column the gamification engine owns.
func ProfileFields(p domain.Profile) Fields {
	return Fields{
		"xp":               p.XP,
		"level":            p.Level,
		"streak":           p.Streak,
		"longest_streak":   p.LongestStreak,
		"last_action":      p.LastAction,
		"last_action_date": p.LastActionDate,
		"total_actions":    p.TotalActions,
		"mood_count":       p.MoodCount,
		"journal_count":    p.JournalCount,
	}
}

// ToProfile maps a persisted user, with achievements preloaded, to a profile.
func ToProfile(u *entity.User) domain.Profile {
	p := domain.Profile{
		UserID:         u.ID,
		Username:       u.Username,
		Email:          u.Email,
		XP:             u.XP,
		Level:          u.Level,
		Streak:         u.Streak,
		LongestStreak:  u.LongestStreak,
		LastAction:     u.LastAction,
		LastActionDate: u.LastActionDate,
		JoinDate:       u.JoinDate,
		TotalActions:   u.TotalActions,
		MoodCount:      u.MoodCount,
		JournalCount:   u.JournalCount,
	}
	if len(u.Achievements) > 0 {
		p.Unlocked = make(map[string]time.Time, len(u.Achievements))
		for _, a := range u.Achievements {
			p.Unlocked[a.Key] = a.UnlockedAt
		}
	}
	return p
}
