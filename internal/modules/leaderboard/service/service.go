package service

import (
	"context"
	"fmt"
	"time"

	"anoa.com/moodquest/internal/modules/gamification/progression"
	leaderboardDto "anoa.com/moodquest/internal/modules/leaderboard/dto"
	leaderboardRepo "anoa.com/moodquest/internal/modules/leaderboard/repository"
	"anoa.com/moodquest/pkg/apperror"
	"github.com/google/uuid"
)

const (
	DefaultLimit = 10
	MaxLimit     = 50
)

type LeaderboardService interface {
	GetLeaderboard(ctx context.Context, limit int, timeframe string) ([]leaderboardDto.LeaderboardEntry, error)
	// WeeklyXP is the XP a user logged over the last 7 days.
	WeeklyXP(ctx context.Context, userID uuid.UUID) (int, error)
}

type leaderboardService struct {
	repo leaderboardRepo.LeaderboardRepository
	now  func() time.Time
}

func NewLeaderboardService(repo leaderboardRepo.LeaderboardRepository) LeaderboardService {
	return &leaderboardService{repo: repo, now: time.Now}
}

func (s *leaderboardService) GetLeaderboard(ctx context.Context, limit int, timeframe string) ([]leaderboardDto.LeaderboardEntry, error) {
	if limit < 1 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}

	now := s.now()
	weekStart := now.AddDate(0, 0, -7)

	var (
		rows []leaderboardRepo.Row
		err  error
	)
	switch timeframe {
	case "", leaderboardDto.TimeframeAllTime:
		rows, err = s.repo.TopAllTime(ctx, limit)
	case leaderboardDto.TimeframeWeekly:
		rows, err = s.repo.TopSince(ctx, weekStart, limit)
	case leaderboardDto.TimeframeMonthly:
		rows, err = s.repo.TopSince(ctx, now.AddDate(0, -1, 0), limit)
	default:
		return nil, fmt.Errorf("%w: unknown timeframe %q", apperror.ErrValidation, timeframe)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: leaderboard: %v", apperror.ErrCollaborator, err)
	}

	weekly := make(map[uuid.UUID]int, len(rows))
	if timeframe == leaderboardDto.TimeframeWeekly {
		for _, r := range rows {
			weekly[r.UserID] = r.PeriodXP
		}
	} else if len(rows) > 0 {
		ids := make([]uuid.UUID, 0, len(rows))
		for _, r := range rows {
			ids = append(ids, r.UserID)
		}
		if weekly, err = s.repo.XPSince(ctx, ids, weekStart); err != nil {
			return nil, fmt.Errorf("%w: weekly xp: %v", apperror.ErrCollaborator, err)
		}
	}

	entries := make([]leaderboardDto.LeaderboardEntry, 0, len(rows))
	for i, r := range rows {
		entries = append(entries, leaderboardDto.LeaderboardEntry{
			Username:  r.Username,
			AvatarURL: r.AvatarURL,
			Position:  i + 1,
			PeriodXP:  r.PeriodXP,
			Status:    progression.GetStatusWithWeekly(r.XP, weekly[r.UserID]),
		})
	}

	return entries, nil
}

func (s *leaderboardService) WeeklyXP(ctx context.Context, userID uuid.UUID) (int, error) {
	sums, err := s.repo.XPSince(ctx, []uuid.UUID{userID}, s.now().AddDate(0, 0, -7))
	if err != nil {
		return 0, fmt.Errorf("%w: weekly xp: %v", apperror.ErrCollaborator, err)
	}
	return sums[userID], nil
}
