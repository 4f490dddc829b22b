// Package engine turns user actions into XP, level, streak and achievement
// changes. Every operation is a pure function of its inputs: it takes a
// profile value and returns an Outcome describing the next state, leaving
// persistence to the caller.
package engine

import (
	"fmt"
	"time"

	"anoa.com/moodquest/internal/modules/gamification/achievement"
	"anoa.com/moodquest/internal/modules/gamification/domain"
	"anoa.com/moodquest/internal/modules/gamification/progression"
	"anoa.com/moodquest/pkg/apperror"
)

// Base rewards for user actions.
const (
	MoodCheckInXP  = 10
	JournalEntryXP = 20

	MoodCheckInLabel  = "Mood check-in completed"
	JournalEntryLabel = "Journal entry created"
)

const day = 24 * time.Hour

// Outcome is the batched result of one top-level action: the final profile,
// every achievement unlocked on the way and every XP grant, in emission order.
type Outcome struct {
	Profile      domain.Profile
	Achievements []domain.Achievement
	Awards       []domain.Award

	// Changed is false when the operation was a no-op and Profile is the input.
	Changed bool
}

// TotalXP sums every award in the outcome.
func (o Outcome) TotalXP() int {
	total := 0
	for _, a := range o.Awards {
		total += a.Amount
	}
	return total
}

type Engine struct {
	catalog achievement.Catalog
}

// New builds an engine over catalog. A nil catalog selects the default one.
func New(catalog achievement.Catalog) *Engine {
	if catalog == nil {
		catalog = achievement.Default()
	}
	return &Engine{catalog: catalog}
}

// AwardXP grants amount XP and resolves the resulting level-up and any
// milestone bonuses.
func (e *Engine) AwardXP(p domain.Profile, amount int, label string, now time.Time) (Outcome, error) {
	if err := validateProfile(p); err != nil {
		return Outcome{}, err
	}
	if amount <= 0 {
		return Outcome{}, fmt.Errorf("%w: xp amount must be positive, got %d", apperror.ErrValidation, amount)
	}

	out := Outcome{Profile: p}
	e.award(&out, amount, label, "", now)
	return out, nil
}

// UpdateStreak advances, keeps or resets the daily streak based on whole days
// elapsed since the last recorded action. Same-day calls return p unchanged.
func (e *Engine) UpdateStreak(p domain.Profile, now time.Time) (Outcome, error) {
	if err := validateProfile(p); err != nil {
		return Outcome{}, err
	}

	out := Outcome{Profile: p}

	daysDiff := DaysBetween(p.LastActionDate, now)
	if daysDiff <= 0 {
		return out, nil
	}

	after := p
	if daysDiff == 1 {
		after.Streak = p.Streak + 1
	} else {
		after.Streak = 1
	}
	after.LastActionDate = now
	if after.Streak > after.LongestStreak {
		after.LongestStreak = after.Streak
	}

	out.Profile = after
	out.Changed = true
	e.unlock(&out, p, after, achievement.Context{Kind: achievement.KindStreakUpdate, At: now})
	return out, nil
}

// RecordMoodCheckIn counts a mood check-in and grants its base XP.
func (e *Engine) RecordMoodCheckIn(p domain.Profile, now time.Time) (Outcome, error) {
	if err := validateProfile(p); err != nil {
		return Outcome{}, err
	}

	after := p
	after.MoodCount++

	out := Outcome{Profile: after}
	e.award(&out, MoodCheckInXP, MoodCheckInLabel, "", now)
	e.unlock(&out, p, after, achievement.Context{Kind: achievement.KindMoodCheckIn, At: now})
	return out, nil
}

// RecordJournalEntry counts a journal entry, grants its base XP and then
// checks the journal milestone.
func (e *Engine) RecordJournalEntry(p domain.Profile, now time.Time) (Outcome, error) {
	if err := validateProfile(p); err != nil {
		return Outcome{}, err
	}

	after := p
	after.JournalCount++

	out := Outcome{Profile: after}
	e.award(&out, JournalEntryXP, JournalEntryLabel, "", now)
	e.unlock(&out, p, after, achievement.Context{Kind: achievement.KindJournalEntry, At: now})
	return out, nil
}

// Evaluate exposes the catalog check for a single transition.
func (e *Engine) Evaluate(before, after domain.Profile, ctx achievement.Context) []domain.Achievement {
	return e.catalog.Evaluate(before, after, ctx)
}

// Reconcile recomputes the cached level from XP. The bool reports whether the
// stored level disagreed.
func Reconcile(p domain.Profile) (domain.Profile, bool) {
	want := progression.LevelForXP(p.XP)
	if p.Level == want {
		return p, false
	}
	p.Level = want
	return p, true
}

// DaysBetween is the number of whole 24h periods from last to now. A zero
// last time counts as a long gap.
func DaysBetween(last, now time.Time) int {
	if last.IsZero() {
		return 2
	}
	return int(now.Sub(last) / day)
}

func (e *Engine) award(out *Outcome, amount int, label, key string, now time.Time) {
	before := out.Profile

	after := before
	after.XP = before.XP + amount
	after.Level = progression.LevelForXP(after.XP)
	after.LastAction = label
	after.LastActionDate = now
	after.TotalActions = before.TotalActions + 1

	out.Profile = after
	out.Changed = true
	out.Awards = append(out.Awards, domain.Award{
		Amount:         amount,
		Label:          label,
		AchievementKey: key,
		At:             now,
	})

	e.unlock(out, before, after, achievement.Context{Kind: achievement.KindXPAward, At: now})
}

// unlock records every achievement the transition fires and pays out their
// bonuses. Bonus awards only move XP, so they can fire nothing but level-ups,
// which carry no reward; the chain always terminates.
func (e *Engine) unlock(out *Outcome, before, after domain.Profile, ctx achievement.Context) {
	for _, a := range e.catalog.Evaluate(before, after, ctx) {
		if out.Profile.HasUnlocked(a.Key) {
			continue
		}
		out.Profile = out.Profile.WithUnlocked(a.Key, ctx.At)
		out.Achievements = append(out.Achievements, a)

		if a.XPReward > 0 {
			e.award(out, a.XPReward, a.BonusLabel, a.Key, ctx.At)
		}
	}
}

func validateProfile(p domain.Profile) error {
	if p.XP < 0 {
		return fmt.Errorf("%w: profile xp is negative (%d)", apperror.ErrValidation, p.XP)
	}
	return nil
}
