// Package achievement holds the static catalog of unlockable achievements and
// the predicates that fire them on a profile transition.
package achievement

import (
	"fmt"
	"time"

	"anoa.com/moodquest/internal/modules/gamification/domain"
	"anoa.com/moodquest/internal/modules/gamification/progression"
)

// Kind is the semantic kind of action that produced a transition.
type Kind string

const (
	KindMoodCheckIn  Kind = "mood_check_in"
	KindJournalEntry Kind = "journal_entry"
	KindXPAward      Kind = "xp_award"
	KindStreakUpdate Kind = "streak_update"
)

// Context describes the action being evaluated.
type Context struct {
	Kind Kind
	At   time.Time
}

const (
	KeyJournal5  = "journal-5"
	KeyStreak7   = "streak-7"
	KeyStreak30  = "streak-30"
	levelKeyFmt  = "level-%d"
	journalGoal  = 5
	streakShort  = 7
	streakLong   = 30
	bonusJournal = 50
	bonusWeek    = 50
	bonusMonth   = 200
)

// LevelKey is the achievement key for reaching level.
func LevelKey(level int) string {
	return fmt.Sprintf(levelKeyFmt, level)
}

// Trigger is one catalog entry. Fire inspects the transition and returns the
// achievement it unlocks, if any.
type Trigger struct {
	Name string
	Fire func(before, after domain.Profile, ctx Context) (domain.Achievement, bool)
}

// Catalog is an ordered list of triggers; evaluation preserves that order.
type Catalog []Trigger

// Default returns the catalog in declared order: journal milestone, 7- and
// 30-day streaks, level-up.
func Default() Catalog {
	return Catalog{
		{Name: KeyJournal5, Fire: journalMilestone},
		{Name: KeyStreak7, Fire: streakMilestone(streakShort, KeyStreak7, "7-Day Streak!",
			"You've been active for 7 days in a row!", "🔥", bonusWeek, "7-day streak bonus")},
		{Name: KeyStreak30, Fire: streakMilestone(streakLong, KeyStreak30, "30-Day Streak!",
			"Amazing dedication! 30 days in a row!", "👑", bonusMonth, "30-day streak bonus")},
		{Name: "level-up", Fire: levelUp},
	}
}

// Evaluate returns every achievement newly satisfied by before -> after, in
// catalog order. Keys already unlocked on either profile are skipped. It has
// no side effects and returns the same result for the same input.
func (c Catalog) Evaluate(before, after domain.Profile, ctx Context) []domain.Achievement {
	var unlocked []domain.Achievement
	for _, t := range c {
		a, ok := t.Fire(before, after, ctx)
		if !ok {
			continue
		}
		if before.HasUnlocked(a.Key) || after.HasUnlocked(a.Key) {
			continue
		}
		a.Unlocked = true
		a.UnlockedAt = ctx.At
		unlocked = append(unlocked, a)
	}
	return unlocked
}

func journalMilestone(before, after domain.Profile, ctx Context) (domain.Achievement, bool) {
	if ctx.Kind != KindJournalEntry || before.JournalCount == journalGoal || after.JournalCount != journalGoal {
		return domain.Achievement{}, false
	}
	return domain.Achievement{
		Key:         KeyJournal5,
		Title:       "Journaling Habit!",
		Description: "You've written 5 journal entries!",
		XPReward:    bonusJournal,
		Icon:        "📝",
		BonusLabel:  "Journal milestone bonus",
	}, true
}

func streakMilestone(length int, key, title, description, icon string, reward int, label string) func(before, after domain.Profile, ctx Context) (domain.Achievement, bool) {
	return func(before, after domain.Profile, ctx Context) (domain.Achievement, bool) {
		if ctx.Kind != KindStreakUpdate || before.Streak == length || after.Streak != length {
			return domain.Achievement{}, false
		}
		return domain.Achievement{
			Key:         key,
			Title:       title,
			Description: description,
			XPReward:    reward,
			Icon:        icon,
			BonusLabel:  label,
		}, true
	}
}

func levelUp(before, after domain.Profile, ctx Context) (domain.Achievement, bool) {
	if ctx.Kind != KindXPAward {
		return domain.Achievement{}, false
	}
	newLevel := progression.LevelForXP(after.XP)
	if newLevel <= progression.LevelForXP(before.XP) {
		return domain.Achievement{}, false
	}
	return domain.Achievement{
		Key:         LevelKey(newLevel),
		Title:       fmt.Sprintf("Level %d Reached!", newLevel),
		Description: fmt.Sprintf("You've reached level %d!", newLevel),
		Icon:        "🎉",
	}, true
}
