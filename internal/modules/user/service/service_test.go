package service

import (
	"context"
	"net/http"
	"sync"
	"testing"
	"time"

	"anoa.com/moodquest/internal/entity"
	"anoa.com/moodquest/internal/modules/user/dto"
	"anoa.com/moodquest/pkg/apperror"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memUserRepo struct {
	mu    sync.Mutex
	users map[uuid.UUID]*entity.User
}

func newMemUserRepo() *memUserRepo {
	return &memUserRepo{users: make(map[uuid.UUID]*entity.User)}
}

func (r *memUserRepo) Create(_ context.Context, user *entity.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	cp := *user
	r.users[user.ID] = &cp
	return nil
}

func (r *memUserRepo) find(match func(*entity.User) bool) (*entity.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if match(u) {
			cp := *u
			return &cp, nil
		}
	}
	return nil, apperror.ErrNotFound
}

func (r *memUserRepo) FindByID(_ context.Context, id uuid.UUID) (*entity.User, error) {
	return r.find(func(u *entity.User) bool { return u.ID == id })
}

func (r *memUserRepo) FindByEmail(_ context.Context, email string) (*entity.User, error) {
	return r.find(func(u *entity.User) bool { return u.Email == email })
}

func (r *memUserRepo) FindByUsername(_ context.Context, username string) (*entity.User, error) {
	return r.find(func(u *entity.User) bool { return u.Username == username })
}

func (r *memUserRepo) UpdateAvatar(_ context.Context, id uuid.UUID, avatarURL *string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.users[id].AvatarURL = avatarURL
	return nil
}

func (r *memUserRepo) UpdateUsername(_ context.Context, id uuid.UUID, username string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.users[id].Username = username
	return nil
}

func (r *memUserRepo) UpdatePassword(_ context.Context, id uuid.UUID, passwordHash string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.users[id].PasswordHash = passwordHash
	return nil
}

func (r *memUserRepo) FindAll(context.Context) ([]entity.User, error) { return nil, nil }

func (r *memUserRepo) Count(context.Context) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return int64(len(r.users)), nil
}

func newTestService(t *testing.T) (*authService, *memUserRepo, *time.Time) {
	t.Helper()
	repo := newMemUserRepo()
	now := time.Date(2026, 4, 2, 10, 0, 0, 0, time.UTC)
	s := NewAuthService(repo, nil, "test-secret", time.Hour).(*authService)
	s.now = func() time.Time { return now }
	return s, repo, &now
}

func TestRegister_CreatesFreshProfile(t *testing.T) {
	s, repo, now := newTestService(t)
	ctx := context.Background()

	var events []Event
	s.OnChange(func(e Event) { events = append(events, e) })

	res, err := s.Register(ctx, dto.RegisterInput{Username: "river", Email: "River@Example.com", Password: "hunter22!"})
	require.NoError(t, err)

	assert.Equal(t, "Bearer", res.TokenType)
	assert.NotEmpty(t, res.AccessToken)
	assert.Empty(t, res.User.PasswordHash)

	stored, err := repo.FindByEmail(ctx, "river@example.com")
	require.NoError(t, err)
	assert.Equal(t, 0, stored.XP)
	assert.Equal(t, 1, stored.Level)
	assert.Zero(t, stored.Streak)
	assert.Zero(t, stored.TotalActions)
	assert.Equal(t, "Account created", stored.LastAction)
	assert.Equal(t, *now, stored.JoinDate)
	assert.NotEqual(t, "hunter22!", stored.PasswordHash)

	require.Len(t, events, 1)
	assert.Equal(t, EventRegistered, events[0].Kind)
	assert.Equal(t, stored.ID, events[0].UserID)
}

func TestRegister_Conflicts(t *testing.T) {
	s, _, _ := newTestService(t)
	ctx := context.Background()

	_, err := s.Register(ctx, dto.RegisterInput{Username: "river", Email: "river@example.com", Password: "hunter22!"})
	require.NoError(t, err)

	_, err = s.Register(ctx, dto.RegisterInput{Username: "other", Email: "river@example.com", Password: "hunter22!"})
	assert.ErrorIs(t, err, apperror.ErrConflict)

	_, err = s.Register(ctx, dto.RegisterInput{Username: "river", Email: "new@example.com", Password: "hunter22!"})
	assert.ErrorIs(t, err, apperror.ErrConflict)
}

func TestLogin(t *testing.T) {
	s, _, _ := newTestService(t)
	ctx := context.Background()

	_, err := s.Register(ctx, dto.RegisterInput{Username: "river", Email: "river@example.com", Password: "hunter22!"})
	require.NoError(t, err)

	res, err := s.Login(ctx, dto.LoginInput{Email: "river@example.com", Password: "hunter22!"})
	require.NoError(t, err)

	id, err := s.CurrentIdentity(ctx, res.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, res.User.ID, id.UserID)
	assert.Equal(t, "river@example.com", id.Email)
	assert.NotEmpty(t, id.TokenID)

	_, err = s.Login(ctx, dto.LoginInput{Email: "river@example.com", Password: "wrong"})
	assert.Equal(t, http.StatusUnauthorized, apperror.MapErrorToStatus(err))

	_, err = s.Login(ctx, dto.LoginInput{Email: "nobody@example.com", Password: "hunter22!"})
	assert.Equal(t, http.StatusUnauthorized, apperror.MapErrorToStatus(err))
}

func TestLogout_RevokesToken(t *testing.T) {
	s, _, _ := newTestService(t)
	ctx := context.Background()

	res, err := s.Register(ctx, dto.RegisterInput{Username: "river", Email: "river@example.com", Password: "hunter22!"})
	require.NoError(t, err)

	var signedOut []uuid.UUID
	s.OnChange(func(e Event) {
		if e.Kind == EventSignedOut {
			signedOut = append(signedOut, e.UserID)
		}
	})

	id, err := s.CurrentIdentity(ctx, res.AccessToken)
	require.NoError(t, err)

	require.NoError(t, s.Logout(ctx, *id))
	assert.Equal(t, []uuid.UUID{id.UserID}, signedOut)

	_, err = s.CurrentIdentity(ctx, res.AccessToken)
	assert.ErrorIs(t, err, apperror.ErrUnauthorized)
}

func TestCurrentIdentity_Rejects(t *testing.T) {
	s, _, now := newTestService(t)
	ctx := context.Background()

	res, err := s.Register(ctx, dto.RegisterInput{Username: "river", Email: "river@example.com", Password: "hunter22!"})
	require.NoError(t, err)

	_, err = s.CurrentIdentity(ctx, "not-a-token")
	assert.ErrorIs(t, err, apperror.ErrUnauthorized)

	other := NewAuthService(newMemUserRepo(), nil, "other-secret", time.Hour)
	_, err = other.CurrentIdentity(ctx, res.AccessToken)
	assert.ErrorIs(t, err, apperror.ErrUnauthorized)

	*now = now.Add(2 * time.Hour)
	_, err = s.CurrentIdentity(ctx, res.AccessToken)
	assert.ErrorIs(t, err, apperror.ErrUnauthorized)
}
