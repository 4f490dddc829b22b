package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"anoa.com/moodquest/internal/entity"
	"anoa.com/moodquest/internal/modules/gamification/domain"
	"anoa.com/moodquest/internal/modules/user/dto"
	"anoa.com/moodquest/internal/modules/user/repository"
	"anoa.com/moodquest/pkg/apperror"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"
)

// EventKind names an identity transition.
type EventKind string

const (
	EventRegistered EventKind = "registered"
	EventSignedIn   EventKind = "signed_in"
	EventSignedOut  EventKind = "signed_out"
)

// Event is delivered to listeners after the transition has taken effect.
type Event struct {
	Kind   EventKind
	UserID uuid.UUID
	At     time.Time
}

type Listener func(Event)

var errInvalidCredentials = apperror.New(http.StatusUnauthorized, "invalid credentials", nil)

type tokenClaims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

// AuthService is the identity provider: it issues, verifies and revokes
// access tokens and tells listeners about sign-in and sign-out.
type AuthService interface {
	Register(ctx context.Context, input dto.RegisterInput) (*dto.AuthResponse, error)
	Login(ctx context.Context, input dto.LoginInput) (*dto.AuthResponse, error)
	Logout(ctx context.Context, identity dto.Identity) error
	CurrentIdentity(ctx context.Context, token string) (*dto.Identity, error)
	OnChange(listener Listener)
}

type authService struct {
	repo     repository.UserRepository
	rdb      *redis.Client
	secret   []byte
	tokenTTL time.Duration
	now      func() time.Time

	mu        sync.RWMutex
	listeners []Listener
	// revoked holds token ids when Redis is not configured.
	revoked map[string]time.Time
}

func NewAuthService(repo repository.UserRepository, rdb *redis.Client, secret string, tokenTTL time.Duration) AuthService {
	if tokenTTL <= 0 {
		tokenTTL = time.Hour
	}
	return &authService{
		repo:     repo,
		rdb:      rdb,
		secret:   []byte(secret),
		tokenTTL: tokenTTL,
		now:      time.Now,
		revoked:  make(map[string]time.Time),
	}
}

func (s *authService) Register(ctx context.Context, input dto.RegisterInput) (*dto.AuthResponse, error) {
	email := strings.ToLower(strings.TrimSpace(input.Email))
	username := strings.TrimSpace(input.Username)

	if _, err := s.repo.FindByEmail(ctx, email); err == nil {
		return nil, fmt.Errorf("%w: email already registered", apperror.ErrConflict)
	} else if !errors.Is(err, apperror.ErrNotFound) {
		return nil, fmt.Errorf("%w: %v", apperror.ErrCollaborator, err)
	}
	if _, err := s.repo.FindByUsername(ctx, username); err == nil {
		return nil, fmt.Errorf("%w: username already taken", apperror.ErrConflict)
	} else if !errors.Is(err, apperror.ErrNotFound) {
		return nil, fmt.Errorf("%w: %v", apperror.ErrCollaborator, err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	now := s.now()
	user := &entity.User{
		Username:       username,
		Email:          email,
		PasswordHash:   string(hash),
		XP:             0,
		Level:          1,
		LastAction:     domain.AccountCreated,
		LastActionDate: now,
		JoinDate:       now,
	}
	if err := s.repo.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("%w: create user: %v", apperror.ErrCollaborator, err)
	}

	log.Info().Str("user_id", user.ID.String()).Msg("user registered")
	s.emit(Event{Kind: EventRegistered, UserID: user.ID, At: now})

	return s.buildAuthResponse(user)
}

func (s *authService) Login(ctx context.Context, input dto.LoginInput) (*dto.AuthResponse, error) {
	user, err := s.repo.FindByEmail(ctx, strings.ToLower(strings.TrimSpace(input.Email)))
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return nil, errInvalidCredentials
		}
		return nil, fmt.Errorf("%w: %v", apperror.ErrCollaborator, err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(input.Password)); err != nil {
		return nil, errInvalidCredentials
	}

	res, err := s.buildAuthResponse(user)
	if err != nil {
		return nil, err
	}
	s.emit(Event{Kind: EventSignedIn, UserID: user.ID, At: s.now()})
	return res, nil
}

// Logout revokes the token until it would have expired anyway.
func (s *authService) Logout(ctx context.Context, identity dto.Identity) error {
	if identity.TokenID == "" {
		return apperror.ErrUnauthorized
	}

	ttl := time.Unix(identity.ExpiresAt, 0).Sub(s.now())
	if ttl > 0 {
		if s.rdb != nil {
			if err := s.rdb.Set(ctx, revokedKey(identity.TokenID), identity.UserID.String(), ttl).Err(); err != nil {
				return fmt.Errorf("%w: revoke token: %v", apperror.ErrCollaborator, err)
			}
		} else {
			s.mu.Lock()
			s.revoked[identity.TokenID] = s.now().Add(ttl)
			s.mu.Unlock()
		}
	}

	s.emit(Event{Kind: EventSignedOut, UserID: identity.UserID, At: s.now()})
	return nil
}

func (s *authService) CurrentIdentity(ctx context.Context, token string) (*dto.Identity, error) {
	parsed, err := jwt.ParseWithClaims(token, &tokenClaims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.secret, nil
	}, jwt.WithTimeFunc(s.now))
	if err != nil || !parsed.Valid {
		return nil, fmt.Errorf("%w: invalid or expired token", apperror.ErrUnauthorized)
	}

	claims, ok := parsed.Claims.(*tokenClaims)
	if !ok || claims.ExpiresAt == nil {
		return nil, fmt.Errorf("%w: invalid token claims", apperror.ErrUnauthorized)
	}
	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid token subject", apperror.ErrUnauthorized)
	}

	revoked, err := s.isRevoked(ctx, claims.ID)
	if err != nil {
		return nil, err
	}
	if revoked {
		return nil, fmt.Errorf("%w: token has been revoked", apperror.ErrUnauthorized)
	}

	return &dto.Identity{
		UserID:    userID,
		Email:     claims.Email,
		TokenID:   claims.ID,
		ExpiresAt: claims.ExpiresAt.Unix(),
	}, nil
}

func (s *authService) OnChange(listener Listener) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, listener)
}

func (s *authService) emit(e Event) {
	s.mu.RLock()
	listeners := append([]Listener(nil), s.listeners...)
	s.mu.RUnlock()

	for _, l := range listeners {
		l(e)
	}
}

func (s *authService) isRevoked(ctx context.Context, tokenID string) (bool, error) {
	if tokenID == "" {
		return false, nil
	}
	if s.rdb != nil {
		n, err := s.rdb.Exists(ctx, revokedKey(tokenID)).Result()
		if err != nil {
			return false, fmt.Errorf("%w: check revocation: %v", apperror.ErrCollaborator, err)
		}
		return n > 0, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	until, ok := s.revoked[tokenID]
	if !ok {
		return false, nil
	}
	if s.now().After(until) {
		delete(s.revoked, tokenID)
		return false, nil
	}
	return true, nil
}

func revokedKey(tokenID string) string {
	return "revoked_token:" + tokenID
}

func (s *authService) buildAuthResponse(user *entity.User) (*dto.AuthResponse, error) {
	token, expiresAt, err := s.generateToken(user)
	if err != nil {
		return nil, err
	}

	user.PasswordHash = ""

	return &dto.AuthResponse{
		AccessToken: token,
		TokenType:   "Bearer",
		ExpiresIn:   expiresAt,
		User:        user,
	}, nil
}

func (s *authService) generateToken(user *entity.User) (string, int64, error) {
	now := s.now()
	expiresAt := now.Add(s.tokenTTL)

	claims := tokenClaims{
		Email: user.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   user.ID.String(),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", 0, err
	}

	return signed, expiresAt.Unix(), nil
}
