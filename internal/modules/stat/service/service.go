package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"anoa.com/moodquest/internal/modules/gamification/progression"
	statDto "anoa.com/moodquest/internal/modules/stat/dto"
	statRepo "anoa.com/moodquest/internal/modules/stat/repository"
	userRepo "anoa.com/moodquest/internal/modules/user/repository"
	"anoa.com/moodquest/pkg/apperror"
	"github.com/google/uuid"
)

type StatService interface {
	GetTotalUsers(ctx context.Context) (int64, error)
	GetUserStats(ctx context.Context, userID uuid.UUID) (*statDto.UserStats, error)
}

type statService struct {
	userRepo userRepo.UserRepository
	statRepo statRepo.StatRepository
	now      func() time.Time
}

func NewStatService(userRepo userRepo.UserRepository, statRepo statRepo.StatRepository) StatService {
	return &statService{
		userRepo: userRepo,
		statRepo: statRepo,
		now:      time.Now,
	}
}

func (s *statService) GetTotalUsers(ctx context.Context) (int64, error) {
	return s.userRepo.Count(ctx)
}

func (s *statService) GetUserStats(ctx context.Context, userID uuid.UUID) (*statDto.UserStats, error) {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: read user: %v", apperror.ErrCollaborator, err)
	}

	activity, err := s.statRepo.Activity(ctx, userID, s.now().AddDate(0, 0, -7))
	if err != nil {
		return nil, fmt.Errorf("%w: read activity: %v", apperror.ErrCollaborator, err)
	}

	return &statDto.UserStats{
		TotalXP:             user.XP,
		CurrentStreak:       user.Streak,
		LongestStreak:       user.LongestStreak,
		TotalJournalEntries: int(activity.JournalEntries),
		TotalMoodCheckins:   int(activity.MoodEntries),
		DaysActive:          int(activity.DaysActive),
		Achievements:        len(user.Achievements),
		Status:              progression.GetStatusWithWeekly(user.XP, int(activity.XPSince)),
	}, nil
}
