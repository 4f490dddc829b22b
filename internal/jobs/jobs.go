package jobs

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
)

// SessionSweeper drops idle in-memory sessions.
type SessionSweeper interface {
	Sweep(now time.Time) int
}

// NotificationPurger deletes notifications whose display window has ended.
type NotificationPurger interface {
	PurgeExpired(ctx context.Context) (int64, error)
}

type sessionSweep struct {
	sessions SessionSweeper
	schedule string
	now      func() time.Time
}

// NewSessionSweep evicts idle sessions every minute.
func NewSessionSweep(sessions SessionSweeper) Job {
	return &sessionSweep{sessions: sessions, schedule: "@every 1m", now: time.Now}
}

func (j *sessionSweep) Name() string     { return "session-sweep" }
func (j *sessionSweep) Schedule() string { return j.schedule }

func (j *sessionSweep) Run(context.Context) error {
	if n := j.sessions.Sweep(j.now()); n > 0 {
		log.Info().Int("dropped", n).Msg("idle sessions swept")
	}
	return nil
}

type notificationPurge struct {
	notifications NotificationPurger
}

// NewNotificationPurge removes expired notifications every ten minutes.
func NewNotificationPurge(notifications NotificationPurger) Job {
	return &notificationPurge{notifications: notifications}
}

func (j *notificationPurge) Name() string     { return "notification-purge" }
func (j *notificationPurge) Schedule() string { return "@every 10m" }

func (j *notificationPurge) Run(ctx context.Context) error {
	n, err := j.notifications.PurgeExpired(ctx)
	if err != nil {
		return err
	}
	if n > 0 {
		log.Info().Int64("deleted", n).Msg("expired notifications purged")
	}
	return nil
}
