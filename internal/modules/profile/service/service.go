package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"anoa.com/moodquest/internal/modules/gamification/progression"
	profileDto "anoa.com/moodquest/internal/modules/profile/dto"
	userRepo "anoa.com/moodquest/internal/modules/user/repository"
	"anoa.com/moodquest/pkg/apperror"
	"anoa.com/moodquest/pkg/storage"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"
)

// WeeklyXPSource reports the XP a user earned over the last 7 days.
type WeeklyXPSource interface {
	WeeklyXP(ctx context.Context, userID uuid.UUID) (int, error)
}

// Listener is told which user's stored identity fields just changed.
type Listener func(userID uuid.UUID)

type ProfileService interface {
	GetCurrentProfile(ctx context.Context, userID uuid.UUID) (*profileDto.ProfileResponse, error)
	UpdateProfile(ctx context.Context, userID uuid.UUID, input profileDto.UpdateProfileInput, avatar *profileDto.AvatarFile) (*profileDto.ProfileResponse, error)
	OnChange(listener Listener)
}

type profileService struct {
	repo    userRepo.UserRepository
	avatars storage.AvatarStorage
	weekly  WeeklyXPSource

	mu        sync.RWMutex
	listeners []Listener
}

// NewProfileService wires the profile use cases. avatars may be nil when no
// image storage is configured; weekly may be nil to skip the activity label.
func NewProfileService(repo userRepo.UserRepository, avatars storage.AvatarStorage, weekly WeeklyXPSource) ProfileService {
	return &profileService{
		repo:    repo,
		avatars: avatars,
		weekly:  weekly,
	}
}

func (s *profileService) GetCurrentProfile(ctx context.Context, userID uuid.UUID) (*profileDto.ProfileResponse, error) {
	user, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &profileDto.ProfileResponse{
		User:   user,
		Status: progression.GetStatusWithWeekly(user.XP, s.weeklyXP(ctx, userID)),
	}, nil
}

func (s *profileService) UpdateProfile(ctx context.Context, userID uuid.UUID, input profileDto.UpdateProfileInput, avatar *profileDto.AvatarFile) (*profileDto.ProfileResponse, error) {
	user, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	if input.Username != nil {
		username := strings.ReplaceAll(strings.TrimSpace(*input.Username), " ", "_")
		if username != "" && username != user.Username {
			if len(username) < 3 || len(username) > 50 {
				return nil, fmt.Errorf("%w: username must be 3 to 50 characters", apperror.ErrValidation)
			}
			if _, err := s.repo.FindByUsername(ctx, username); err == nil {
				return nil, fmt.Errorf("%w: username already taken", apperror.ErrConflict)
			} else if !errors.Is(err, apperror.ErrNotFound) {
				return nil, fmt.Errorf("%w: %v", apperror.ErrCollaborator, err)
			}
			if err := s.repo.UpdateUsername(ctx, userID, username); err != nil {
				return nil, fmt.Errorf("%w: update username: %v", apperror.ErrCollaborator, err)
			}
			s.emit(userID)
		}
	}

	if input.Password != nil && *input.Password != "" {
		if len(*input.Password) < 8 {
			return nil, fmt.Errorf("%w: password must be at least 8 characters", apperror.ErrValidation)
		}
		hashed, err := bcrypt.GenerateFromPassword([]byte(*input.Password), bcrypt.DefaultCost)
		if err != nil {
			return nil, fmt.Errorf("failed to hash password: %w", err)
		}
		if err := s.repo.UpdatePassword(ctx, userID, string(hashed)); err != nil {
			return nil, fmt.Errorf("%w: update password: %v", apperror.ErrCollaborator, err)
		}
	}

	if avatar != nil && avatar.Reader != nil {
		if s.avatars == nil {
			return nil, fmt.Errorf("%w: avatar uploads are not configured", apperror.ErrUnavailable)
		}
		url, err := s.avatars.UploadAvatar(ctx, avatar.Reader, userID.String(), avatar.FileName)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", apperror.ErrBadRequest, err)
		}
		if err := s.repo.UpdateAvatar(ctx, userID, &url); err != nil {
			return nil, fmt.Errorf("%w: update avatar: %v", apperror.ErrCollaborator, err)
		}
		if user.AvatarURL != nil && *user.AvatarURL != "" {
			if err := s.avatars.DeleteAvatar(ctx, *user.AvatarURL); err != nil {
				log.Warn().Err(err).Str("user_id", userID.String()).Msg("failed to delete previous avatar")
			}
		}
	}

	return s.GetCurrentProfile(ctx, userID)
}

func (s *profileService) OnChange(listener Listener) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, listener)
}

func (s *profileService) emit(userID uuid.UUID) {
	s.mu.RLock()
	listeners := append([]Listener(nil), s.listeners...)
	s.mu.RUnlock()

	for _, l := range listeners {
		l(userID)
	}
}

func (s *profileService) weeklyXP(ctx context.Context, userID uuid.UUID) int {
	if s.weekly == nil {
		return 0
	}
	xp, err := s.weekly.WeeklyXP(ctx, userID)
	if err != nil {
		log.Warn().Err(err).Str("user_id", userID.String()).Msg("weekly xp unavailable")
		return 0
	}
	return xp
}
