package engine

import (
	"testing"
	"time"

	"anoa.com/moodquest/internal/modules/gamification/domain"
	"anoa.com/moodquest/pkg/apperror"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2026, 5, 10, 8, 30, 0, 0, time.UTC)

func achievementKeys(o Outcome) []string {
	var out []string
	for _, a := range o.Achievements {
		out = append(out, a.Key)
	}
	return out
}

func TestAwardXP_Monotonic(t *testing.T) {
	e := New(nil)
	p := domain.Profile{XP: 37, Level: 1, TotalActions: 3}

	for _, amount := range []int{1, 10, 63, 250} {
		out, err := e.AwardXP(p, amount, "test", t0)
		require.NoError(t, err)
		assert.Equal(t, p.XP+amount, out.Profile.XP)
		assert.Equal(t, p.TotalActions+1, out.Profile.TotalActions)
		assert.Equal(t, "test", out.Profile.LastAction)
		assert.Equal(t, t0, out.Profile.LastActionDate)
	}
	assert.Equal(t, 37, p.XP, "input must not change")
}

func TestAwardXP_LevelUp(t *testing.T) {
	e := New(nil)

	out, err := e.AwardXP(domain.Profile{XP: 95, Level: 1}, 10, "mood", t0)
	require.NoError(t, err)

	assert.Equal(t, 105, out.Profile.XP)
	assert.Equal(t, 2, out.Profile.Level)
	require.Len(t, out.Achievements, 1)
	assert.Equal(t, "level-2", out.Achievements[0].Key)
	assert.Zero(t, out.Achievements[0].XPReward)
	assert.Len(t, out.Awards, 1, "level-up must not grant XP")
	assert.True(t, out.Profile.HasUnlocked("level-2"))
}

func TestAwardXP_NoLevelUp(t *testing.T) {
	out, err := New(nil).AwardXP(domain.Profile{XP: 100, Level: 2}, 50, "x", t0)
	require.NoError(t, err)
	assert.Empty(t, out.Achievements)
	assert.Equal(t, 2, out.Profile.Level)
}

func TestAwardXP_Validation(t *testing.T) {
	e := New(nil)

	for _, amount := range []int{0, -5} {
		_, err := e.AwardXP(domain.Profile{}, amount, "x", t0)
		assert.ErrorIs(t, err, apperror.ErrValidation)
	}

	_, err := e.AwardXP(domain.Profile{XP: -1}, 10, "x", t0)
	assert.ErrorIs(t, err, apperror.ErrValidation)

	_, err = e.UpdateStreak(domain.Profile{XP: -1}, t0)
	assert.ErrorIs(t, err, apperror.ErrValidation)
}

func TestUpdateStreak(t *testing.T) {
	e := New(nil)
	p := domain.Profile{XP: 200, Level: 3, Streak: 3, LongestStreak: 4, LastActionDate: t0}

	t.Run("same day is a no-op", func(t *testing.T) {
		out, err := e.UpdateStreak(p, t0.Add(23*time.Hour+59*time.Minute))
		require.NoError(t, err)
		assert.Equal(t, p, out.Profile)
		assert.False(t, out.Changed)
	})

	t.Run("clock skew is a no-op", func(t *testing.T) {
		out, err := e.UpdateStreak(p, t0.Add(-3*day))
		require.NoError(t, err)
		assert.Equal(t, p, out.Profile)
	})

	t.Run("next day increments", func(t *testing.T) {
		now := t0.Add(day + time.Hour)
		out, err := e.UpdateStreak(p, now)
		require.NoError(t, err)
		assert.Equal(t, 4, out.Profile.Streak)
		assert.Equal(t, 4, out.Profile.LongestStreak)
		assert.Equal(t, now, out.Profile.LastActionDate)
		assert.Equal(t, p.XP, out.Profile.XP)
		assert.True(t, out.Changed)
		assert.Empty(t, out.Achievements)
	})

	t.Run("gap resets to one", func(t *testing.T) {
		out, err := e.UpdateStreak(p, t0.Add(2*day))
		require.NoError(t, err)
		assert.Equal(t, 1, out.Profile.Streak)
		assert.Equal(t, 4, out.Profile.LongestStreak)
	})

	t.Run("never acted starts at one", func(t *testing.T) {
		out, err := e.UpdateStreak(domain.Profile{}, t0)
		require.NoError(t, err)
		assert.Equal(t, 1, out.Profile.Streak)
	})
}

func TestUpdateStreak_Milestones(t *testing.T) {
	e := New(nil)

	tests := []struct {
		name     string
		streak   int
		wantKeys []string
		wantXP   int
	}{
		{"reaches 7", 6, []string{"streak-7"}, 50},
		{"reaches 30", 29, []string{"streak-30", "level-13"}, 200},
		{"reaches 8", 7, nil, 0},
		{"reaches 31", 30, nil, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := domain.Profile{XP: 1010, Level: 11, Streak: tt.streak, LastActionDate: t0}
			out, err := e.UpdateStreak(p, t0.Add(day))
			require.NoError(t, err)

			assert.Equal(t, tt.streak+1, out.Profile.Streak)
			assert.Equal(t, tt.wantKeys, achievementKeys(out))
			assert.Equal(t, tt.wantXP, out.TotalXP())
			assert.Equal(t, p.XP+tt.wantXP, out.Profile.XP)
		})
	}
}

func TestUpdateStreak_OnceEver(t *testing.T) {
	e := New(nil)
	p := domain.Profile{Streak: 6, LastActionDate: t0}.WithUnlocked("streak-7", t0.Add(-30*day))

	out, err := e.UpdateStreak(p, t0.Add(day))
	require.NoError(t, err)
	assert.Equal(t, 7, out.Profile.Streak)
	assert.Empty(t, out.Achievements)
	assert.Zero(t, out.TotalXP())
}

func TestRecordJournalEntry_Milestone(t *testing.T) {
	e := New(nil)
	p := domain.Profile{XP: 0, Level: 1, JournalCount: 4, TotalActions: 4}

	out, err := e.RecordJournalEntry(p, t0)
	require.NoError(t, err)

	assert.Equal(t, 5, out.Profile.JournalCount)
	assert.Equal(t, []string{"journal-5"}, achievementKeys(out))
	require.Len(t, out.Awards, 2)
	assert.Equal(t, domain.Award{Amount: 20, Label: JournalEntryLabel, At: t0}, out.Awards[0])
	assert.Equal(t, domain.Award{Amount: 50, Label: "Journal milestone bonus", AchievementKey: "journal-5", At: t0}, out.Awards[1])
	assert.Equal(t, 70, out.Profile.XP)
	assert.Equal(t, 6, out.Profile.TotalActions)

	again, err := e.RecordJournalEntry(out.Profile, t0.Add(time.Minute))
	require.NoError(t, err)
	assert.Empty(t, again.Achievements)
	assert.Equal(t, 90, again.Profile.XP)
}

func TestRecordJournalEntry_MilestoneAndLevelUp(t *testing.T) {
	e := New(nil)
	p := domain.Profile{XP: 70, Level: 1, JournalCount: 4}

	out, err := e.RecordJournalEntry(p, t0)
	require.NoError(t, err)

	// 70 +20 -> 90, then +50 bonus -> 140 crosses into level 2.
	assert.Equal(t, []string{"journal-5", "level-2"}, achievementKeys(out))
	assert.Equal(t, 140, out.Profile.XP)
	assert.Equal(t, 2, out.Profile.Level)
}

func TestRecordMoodCheckIn(t *testing.T) {
	out, err := New(nil).RecordMoodCheckIn(domain.Profile{XP: 5, Level: 1, MoodCount: 2}, t0)
	require.NoError(t, err)

	assert.Equal(t, 15, out.Profile.XP)
	assert.Equal(t, 3, out.Profile.MoodCount)
	assert.Equal(t, MoodCheckInLabel, out.Profile.LastAction)
	assert.Empty(t, out.Achievements)
}

func TestEndToEnd_StreakBonusLevelsUp(t *testing.T) {
	e := New(nil)
	p := domain.Profile{XP: 480, Level: 5, Streak: 6, TotalActions: 40, LastActionDate: t0.Add(-2 * time.Hour)}

	first, err := e.AwardXP(p, 10, "mood", t0)
	require.NoError(t, err)
	assert.Equal(t, 490, first.Profile.XP)
	assert.Equal(t, 5, first.Profile.Level)
	assert.Equal(t, 6, first.Profile.Streak)
	assert.Equal(t, 41, first.Profile.TotalActions)
	assert.Empty(t, first.Achievements)

	second, err := e.UpdateStreak(first.Profile, first.Profile.LastActionDate.Add(day))
	require.NoError(t, err)
	assert.Equal(t, 7, second.Profile.Streak)
	assert.Equal(t, 540, second.Profile.XP)
	assert.Equal(t, 6, second.Profile.Level)
	assert.Equal(t, 42, second.Profile.TotalActions)
	assert.Equal(t, []string{"streak-7", "level-6"}, achievementKeys(second))
	assert.Equal(t, "7-day streak bonus", second.Profile.LastAction)
}

func TestReconcile(t *testing.T) {
	p, changed := Reconcile(domain.Profile{XP: 540, Level: 5})
	assert.True(t, changed)
	assert.Equal(t, 6, p.Level)

	p, changed = Reconcile(domain.Profile{XP: 99, Level: 1})
	assert.False(t, changed)
	assert.Equal(t, 1, p.Level)
}

func TestDaysBetween(t *testing.T) {
	assert.Equal(t, 0, DaysBetween(t0, t0.Add(23*time.Hour)))
	assert.Equal(t, 1, DaysBetween(t0, t0.Add(47*time.Hour)))
	assert.Equal(t, 2, DaysBetween(t0, t0.Add(48*time.Hour)))
	assert.Equal(t, 2, DaysBetween(time.Time{}, t0))
}
