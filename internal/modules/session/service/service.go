package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"anoa.com/moodquest/internal/entity"
	"anoa.com/moodquest/internal/modules/gamification/domain"
	"anoa.com/moodquest/internal/modules/gamification/engine"
	"anoa.com/moodquest/internal/modules/gamification/progression"
	"anoa.com/moodquest/internal/modules/session/dto"
	"anoa.com/moodquest/internal/modules/session/store"
	"anoa.com/moodquest/pkg/apperror"
	"anoa.com/moodquest/pkg/ratelimiter"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// Notifier receives the achievements a committed action unlocked.
type Notifier interface {
	Enqueue(ctx context.Context, userID uuid.UUID, achievements []domain.Achievement) error
}

// JournalIndexer makes committed journal entries searchable.
type JournalIndexer interface {
	IndexJournal(ctx context.Context, entry *entity.JournalEntry) error
}

// SessionService owns the in-memory profile and recent entries of every
// active user. Calls for one user are serialized; state only changes after
// the data store has accepted the write.
type SessionService interface {
	Load(ctx context.Context, userID uuid.UUID) (*dto.SessionResponse, error)
	CheckIn(ctx context.Context, userID uuid.UUID, input dto.CheckInInput) (*dto.ActionResponse, error)
	WriteJournal(ctx context.Context, userID uuid.UUID, input dto.JournalInput) (*dto.ActionResponse, error)
	AwardXP(ctx context.Context, userID uuid.UUID, amount int, label string) (*dto.ActionResponse, error)
	RecentMoods(ctx context.Context, userID uuid.UUID) ([]entity.MoodEntry, error)
	RecentJournals(ctx context.Context, userID uuid.UUID) ([]entity.JournalEntry, error)
	Drop(userID uuid.UUID)
	Sweep(now time.Time) int
	Active() int
}

type Options struct {
	RecentLimit   int
	IdleTTL       time.Duration
	EntryCooldown time.Duration
	Redis         *redis.Client
	Notifier      Notifier
	Indexer       JournalIndexer
}

type session struct {
	mu       sync.Mutex
	loaded   bool
	profile  domain.Profile
	moods    []entity.MoodEntry
	journals []entity.JournalEntry
	lastSeen time.Time
}

type sessionService struct {
	store  store.DataStore
	engine *engine.Engine
	opts   Options
	now    func() time.Time

	mu       sync.Mutex
	sessions map[uuid.UUID]*session
}

func NewSessionService(ds store.DataStore, eng *engine.Engine, opts Options) SessionService {
	if opts.RecentLimit <= 0 {
		opts.RecentLimit = 10
	}
	if eng == nil {
		eng = engine.New(nil)
	}
	return &sessionService{
		store:    ds,
		engine:   eng,
		opts:     opts,
		now:      time.Now,
		sessions: make(map[uuid.UUID]*session),
	}
}

// acquire returns the user's session locked. The caller must unlock it.
func (s *sessionService) acquire(userID uuid.UUID) *session {
	s.mu.Lock()
	sess, ok := s.sessions[userID]
	if !ok {
		sess = &session{}
		s.sessions[userID] = sess
	}
	s.mu.Unlock()

	sess.mu.Lock()
	sess.lastSeen = s.now()
	return sess
}

func (s *sessionService) ensureLoaded(ctx context.Context, userID uuid.UUID, sess *session) error {
	if sess.loaded {
		return nil
	}

	profile, err := s.store.ReadProfile(ctx, userID)
	if err != nil {
		return collaborator(err)
	}

	if fixed, mismatch := engine.Reconcile(profile); mismatch {
		log.Warn().
			Str("user_id", userID.String()).
			Int("stored_level", profile.Level).
			Int("xp", profile.XP).
			Int("level", fixed.Level).
			Msg("profile level out of sync with xp, recomputed")
		if err := s.store.WriteProfile(ctx, userID, store.Fields{"level": fixed.Level}); err != nil {
			log.Warn().Err(err).Str("user_id", userID.String()).Msg("failed to persist recomputed level")
		}
		profile = fixed
	}

	moods, err := s.store.ListRecentMoodEntries(ctx, userID, s.opts.RecentLimit)
	if err != nil {
		return collaborator(err)
	}
	journals, err := s.store.ListRecentJournalEntries(ctx, userID, s.opts.RecentLimit)
	if err != nil {
		return collaborator(err)
	}

	sess.profile = profile
	sess.moods = moods
	sess.journals = journals
	sess.loaded = true
	return nil
}

// Load hydrates the session if needed and advances the daily streak.
func (s *sessionService) Load(ctx context.Context, userID uuid.UUID) (*dto.SessionResponse, error) {
	sess := s.acquire(userID)
	defer sess.mu.Unlock()

	if err := s.ensureLoaded(ctx, userID, sess); err != nil {
		return nil, err
	}

	now := s.now()
	out, err := s.apply(ctx, userID, sess, store.Change{}, func(p domain.Profile) (engine.Outcome, error) {
		return s.engine.UpdateStreak(p, now)
	})
	if err != nil {
		return nil, err
	}

	return &dto.SessionResponse{
		Profile:      sess.profile,
		Status:       progression.GetStatus(sess.profile.XP),
		Moods:        append([]entity.MoodEntry(nil), sess.moods...),
		Journals:     append([]entity.JournalEntry(nil), sess.journals...),
		Achievements: nonNil(out.Achievements),
	}, nil
}

func (s *sessionService) CheckIn(ctx context.Context, userID uuid.UUID, input dto.CheckInInput) (*dto.ActionResponse, error) {
	mood := domain.Mood(strings.TrimSpace(input.Mood))
	if !domain.IsMood(string(mood)) {
		return nil, fmt.Errorf("%w: %q is not a known mood", apperror.ErrValidation, input.Mood)
	}

	sess := s.acquire(userID)
	defer sess.mu.Unlock()

	if err := s.ensureLoaded(ctx, userID, sess); err != nil {
		return nil, err
	}

	release, err := ratelimiter.Acquire(ctx, s.opts.Redis, userID, ratelimiter.ScopeEntry, s.opts.EntryCooldown)
	if err != nil {
		return nil, err
	}

	now := s.now()
	entry := &entity.MoodEntry{
		UserID:    userID,
		Mood:      string(mood),
		Emoji:     mood.Emoji(),
		CreatedAt: now,
	}
	if note := strings.TrimSpace(input.Note); note != "" {
		entry.Note = &note
	}

	out, err := s.apply(ctx, userID, sess, store.Change{Mood: entry}, func(p domain.Profile) (engine.Outcome, error) {
		return s.engine.RecordMoodCheckIn(p, now)
	})
	if err != nil {
		release()
		return nil, err
	}

	sess.moods = prepend(sess.moods, *entry, s.opts.RecentLimit)
	return s.actionResponse(entry, sess, out), nil
}

func (s *sessionService) WriteJournal(ctx context.Context, userID uuid.UUID, input dto.JournalInput) (*dto.ActionResponse, error) {
	title := strings.TrimSpace(input.Title)
	content := strings.TrimSpace(input.Content)
	if title == "" || content == "" {
		return nil, fmt.Errorf("%w: journal entries need a title and content", apperror.ErrValidation)
	}
	var mood *string
	if m := strings.TrimSpace(input.Mood); m != "" {
		if !domain.IsMood(m) {
			return nil, fmt.Errorf("%w: %q is not a known mood", apperror.ErrValidation, input.Mood)
		}
		mood = &m
	}

	sess := s.acquire(userID)
	defer sess.mu.Unlock()

	if err := s.ensureLoaded(ctx, userID, sess); err != nil {
		return nil, err
	}

	release, err := ratelimiter.Acquire(ctx, s.opts.Redis, userID, ratelimiter.ScopeEntry, s.opts.EntryCooldown)
	if err != nil {
		return nil, err
	}

	now := s.now()
	entry := &entity.JournalEntry{
		UserID:    userID,
		Title:     title,
		Content:   content,
		Mood:      mood,
		CreatedAt: now,
	}

	out, err := s.apply(ctx, userID, sess, store.Change{Journal: entry}, func(p domain.Profile) (engine.Outcome, error) {
		return s.engine.RecordJournalEntry(p, now)
	})
	if err != nil {
		release()
		return nil, err
	}

	sess.journals = prepend(sess.journals, *entry, s.opts.RecentLimit)

	if s.opts.Indexer != nil {
		if err := s.opts.Indexer.IndexJournal(ctx, entry); err != nil {
			log.Warn().Err(err).Str("journal_id", entry.ID.String()).Msg("failed to index journal entry")
		}
	}

	return s.actionResponse(entry, sess, out), nil
}

// AwardXP grants XP outside the mood and journal flows, e.g. from admin tooling.
func (s *sessionService) AwardXP(ctx context.Context, userID uuid.UUID, amount int, label string) (*dto.ActionResponse, error) {
	sess := s.acquire(userID)
	defer sess.mu.Unlock()

	if err := s.ensureLoaded(ctx, userID, sess); err != nil {
		return nil, err
	}

	now := s.now()
	out, err := s.apply(ctx, userID, sess, store.Change{}, func(p domain.Profile) (engine.Outcome, error) {
		return s.engine.AwardXP(p, amount, label, now)
	})
	if err != nil {
		return nil, err
	}

	return s.actionResponse(nil, sess, out), nil
}

func (s *sessionService) RecentMoods(ctx context.Context, userID uuid.UUID) ([]entity.MoodEntry, error) {
	sess := s.acquire(userID)
	defer sess.mu.Unlock()

	if err := s.ensureLoaded(ctx, userID, sess); err != nil {
		return nil, err
	}
	return append([]entity.MoodEntry{}, sess.moods...), nil
}

func (s *sessionService) RecentJournals(ctx context.Context, userID uuid.UUID) ([]entity.JournalEntry, error) {
	sess := s.acquire(userID)
	defer sess.mu.Unlock()

	if err := s.ensureLoaded(ctx, userID, sess); err != nil {
		return nil, err
	}
	return append([]entity.JournalEntry{}, sess.journals...), nil
}

// apply runs step against the cached profile and commits a changed outcome
// together with base. When another writer has moved the stored profile since
// it was cached, the session is reloaded and step runs once more.
func (s *sessionService) apply(ctx context.Context, userID uuid.UUID, sess *session, base store.Change, step func(domain.Profile) (engine.Outcome, error)) (engine.Outcome, error) {
	for attempt := 0; ; attempt++ {
		out, err := step(sess.profile)
		if err != nil {
			return engine.Outcome{}, err
		}
		if !out.Changed {
			return out, nil
		}

		err = s.commit(ctx, userID, sess, out, base)
		if err == nil {
			return out, nil
		}
		if !errors.Is(err, apperror.ErrConflict) {
			return engine.Outcome{}, err
		}

		sess.loaded = false
		if attempt > 0 {
			return engine.Outcome{}, err
		}
		log.Warn().Str("user_id", userID.String()).Msg("profile changed outside this session, reloading")
		if err := s.ensureLoaded(ctx, userID, sess); err != nil {
			return engine.Outcome{}, err
		}
	}
}

// commit persists the outcome together with base and, only on success,
// replaces the session state with the outcome.
func (s *sessionService) commit(ctx context.Context, userID uuid.UUID, sess *session, out engine.Outcome, base store.Change) error {
	base.UserID = userID
	base.Before = sess.profile
	base.Profile = out.Profile
	base.Achievements = out.Achievements
	base.Awards = out.Awards

	if err := s.store.Commit(ctx, base); err != nil {
		if !errors.Is(err, apperror.ErrConflict) {
			log.Error().Err(err).Str("user_id", userID.String()).Msg("failed to commit action")
		}
		return collaborator(err)
	}
	sess.profile = out.Profile

	if len(out.Achievements) > 0 {
		for _, a := range out.Achievements {
			log.Info().Str("user_id", userID.String()).Str("achievement", a.Key).Msg("achievement unlocked")
		}
		if s.opts.Notifier != nil {
			if err := s.opts.Notifier.Enqueue(ctx, userID, out.Achievements); err != nil {
				log.Warn().Err(err).Str("user_id", userID.String()).Msg("failed to enqueue achievement notifications")
			}
		}
	}
	return nil
}

func (s *sessionService) actionResponse(entry any, sess *session, out engine.Outcome) *dto.ActionResponse {
	return &dto.ActionResponse{
		Entry:        entry,
		Profile:      sess.profile,
		Status:       progression.GetStatus(sess.profile.XP),
		XPGained:     out.TotalXP(),
		Achievements: nonNil(out.Achievements),
	}
}

// Drop forgets the user's session, e.g. on sign-out.
func (s *sessionService) Drop(userID uuid.UUID) {
	s.mu.Lock()
	delete(s.sessions, userID)
	s.mu.Unlock()
}

// Sweep drops sessions idle for longer than the configured TTL and reports
// how many were removed. Sessions in use are skipped.
func (s *sessionService) Sweep(now time.Time) int {
	if s.opts.IdleTTL <= 0 {
		return 0
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for id, sess := range s.sessions {
		if !sess.mu.TryLock() {
			continue
		}
		idle := now.Sub(sess.lastSeen) > s.opts.IdleTTL
		sess.mu.Unlock()
		if idle {
			delete(s.sessions, id)
			removed++
		}
	}
	return removed
}

func (s *sessionService) Active() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

func collaborator(err error) error {
	if errors.Is(err, apperror.ErrNotFound) || errors.Is(err, apperror.ErrConflict) || errors.Is(err, apperror.ErrCollaborator) {
		return err
	}
	return fmt.Errorf("%w: %v", apperror.ErrCollaborator, err)
}

func prepend[T any](list []T, item T, limit int) []T {
	out := make([]T, 0, min(len(list)+1, limit))
	out = append(out, item)
	for _, v := range list {
		if len(out) == limit {
			break
		}
		out = append(out, v)
	}
	return out
}

func nonNil(as []domain.Achievement) []domain.Achievement {
	if as == nil {
		return []domain.Achievement{}
	}
	return as
}
