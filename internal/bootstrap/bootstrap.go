package bootstrap

import (
	"time"

	"anoa.com/moodquest/internal/entity"
	"anoa.com/moodquest/internal/modules/gamification/domain"
	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&entity.User{},
		&entity.MoodEntry{},
		&entity.JournalEntry{},
		&entity.XPLog{},
		&entity.UserAchievement{},
		&entity.Notification{},
	)
}

// Demo account created in development environments.
const (
	DemoEmail    = "demo@moodquest.local"
	DemoUsername = "demo"
	demoPassword = "demo12345"
)

// SeedDemoUser creates the demo account once. It reports whether a row was
// inserted.
func SeedDemoUser(db *gorm.DB) (bool, error) {
	var count int64
	if err := db.Model(&entity.User{}).
		Where("email = ?", DemoEmail).
		Count(&count).Error; err != nil {
		return false, err
	}
	if count > 0 {
		log.Debug().Str("email", DemoEmail).Msg("demo user already exists, skipping seed")
		return false, nil
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(demoPassword), bcrypt.DefaultCost)
	if err != nil {
		return false, err
	}

	now := time.Now()
	user := entity.User{
		Username:       DemoUsername,
		Email:          DemoEmail,
		PasswordHash:   string(hashed),
		Level:          1,
		LastAction:     domain.AccountCreated,
		LastActionDate: now,
		JoinDate:       now,
	}
	if err := db.Create(&user).Error; err != nil {
		return false, err
	}

	log.Info().Str("email", DemoEmail).Str("password", demoPassword).Msg("demo user seeded")
	return true, nil
}
