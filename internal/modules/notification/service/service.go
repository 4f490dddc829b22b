package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"anoa.com/moodquest/internal/entity"
	"anoa.com/moodquest/internal/modules/gamification/domain"
	notifRepo "anoa.com/moodquest/internal/modules/notification/repository"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// MaxVisible is how many achievement toasts a user sees at once.
const MaxVisible = 3

// NotificationService is an explicit queue of achievement toasts. Each item
// carries its own expiry; readers filter on it and callers dismiss items.
type NotificationService interface {
	Enqueue(ctx context.Context, userID uuid.UUID, achievements []domain.Achievement) error
	Pending(ctx context.Context, userID uuid.UUID) ([]entity.Notification, error)
	Dismiss(ctx context.Context, userID, id uuid.UUID) error
	PurgeExpired(ctx context.Context) (int64, error)
}

type notificationService struct {
	repo        notifRepo.NotificationRepository
	redisClient *redis.Client
	ttl         time.Duration
	now         func() time.Time
}

func NewNotificationService(repo notifRepo.NotificationRepository, redisClient *redis.Client, ttl time.Duration) NotificationService {
	if ttl <= 0 {
		ttl = 5 * time.Second
	}
	return &notificationService{
		repo:        repo,
		redisClient: redisClient,
		ttl:         ttl,
		now:         time.Now,
	}
}

// Channel is the Redis pub/sub channel carrying a user's notifications.
func Channel(userID uuid.UUID) string {
	return fmt.Sprintf("user_notifications:%s", userID.String())
}

func (s *notificationService) Enqueue(ctx context.Context, userID uuid.UUID, achievements []domain.Achievement) error {
	if len(achievements) == 0 {
		return nil
	}

	now := s.now()
	notifications := make([]entity.Notification, 0, len(achievements))
	for i, a := range achievements {
		notifications = append(notifications, entity.Notification{
			UserID:         userID,
			AchievementKey: a.Key,
			Title:          a.Title,
			Message:        a.Description,
			Icon:           a.Icon,
			XPReward:       a.XPReward,
			// Keep emission order visible when sorting newest first.
			CreatedAt: now.Add(time.Duration(i) * time.Microsecond),
			ExpiresAt: now.Add(s.ttl),
		})
	}

	if err := s.repo.CreateBatch(ctx, notifications); err != nil {
		return err
	}

	if s.redisClient != nil {
		channel := Channel(userID)
		for _, n := range notifications {
			payload, err := json.Marshal(n)
			if err != nil {
				continue
			}
			if err := s.redisClient.Publish(ctx, channel, payload).Err(); err != nil {
				log.Warn().Err(err).Str("channel", channel).Msg("failed to publish notification")
			}
		}
	}

	return nil
}

func (s *notificationService) Pending(ctx context.Context, userID uuid.UUID) ([]entity.Notification, error) {
	return s.repo.Pending(ctx, userID, s.now(), MaxVisible)
}

func (s *notificationService) Dismiss(ctx context.Context, userID, id uuid.UUID) error {
	return s.repo.Dismiss(ctx, userID, id, s.now())
}

func (s *notificationService) PurgeExpired(ctx context.Context) (int64, error) {
	return s.repo.PurgeExpired(ctx, s.now())
}
