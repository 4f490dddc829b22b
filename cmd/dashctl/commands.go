package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"anoa.com/moodquest/internal/bootstrap"
	"anoa.com/moodquest/internal/jobs"
	"anoa.com/moodquest/internal/modules/gamification/engine"
	notifRepo "anoa.com/moodquest/internal/modules/notification/repository"
	notifService "anoa.com/moodquest/internal/modules/notification/service"
	sessionService "anoa.com/moodquest/internal/modules/session/service"
	sessionStore "anoa.com/moodquest/internal/modules/session/store"
	userRepo "anoa.com/moodquest/internal/modules/user/repository"
	"anoa.com/moodquest/pkg/apperror"
	"anoa.com/moodquest/pkg/database"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

func init() {
	migrateCmd := &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			db, _, err := openDB()
			if err != nil {
				return err
			}
			if err := bootstrap.Migrate(db); err != nil {
				return err
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), "schema up to date")
			return nil
		},
	}
	rootCmd.AddCommand(migrateCmd)

	var dryRun bool
	reconcileCmd := &cobra.Command{
		Use:   "reconcile-levels",
		Short: "Recompute every cached level from XP",
		RunE: func(cmd *cobra.Command, args []string) error {
			db, _, err := openDB()
			if err != nil {
				return err
			}
			_, err = reconcileLevels(cmd.Context(), db, dryRun, cmd.OutOrStdout())
			return err
		},
	}
	reconcileCmd.Flags().BoolVar(&dryRun, "dry-run", false, "Report mismatches without writing")
	rootCmd.AddCommand(reconcileCmd)

	var (
		userRef string
		amount  int
		label   string
	)
	grantCmd := &cobra.Command{
		Use:   "grant-xp",
		Short: "Grant bonus XP to a user",
		RunE: func(cmd *cobra.Command, args []string) error {
			db, cfg, err := openDB()
			if err != nil {
				return err
			}
			rdb, err := database.ConnectRedis(cmd.Context(), cfg.RedisURL)
			if err != nil {
				return err
			}
			if rdb != nil {
				defer rdb.Close()
			}
			return grantXP(cmd.Context(), db, rdb, userRef, amount, label, cmd.OutOrStdout())
		},
	}
	grantCmd.Flags().StringVarP(&userRef, "user", "u", "", "User ID or email (required)")
	grantCmd.Flags().IntVarP(&amount, "amount", "a", 0, "XP to grant (required)")
	grantCmd.Flags().StringVarP(&label, "label", "l", "Bonus XP", "Label recorded in the XP log")
	_ = grantCmd.MarkFlagRequired("user")
	_ = grantCmd.MarkFlagRequired("amount")
	rootCmd.AddCommand(grantCmd)

	runJobCmd := &cobra.Command{
		Use:   "run-job <name>",
		Short: "Run a maintenance job once, e.g. notification-purge",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			db, _, err := openDB()
			if err != nil {
				return err
			}
			return runJob(cmd.Context(), db, args[0], cmd.OutOrStdout())
		},
	}
	rootCmd.AddCommand(runJobCmd)
}

// runJob runs one of the jobs that make sense outside a server process.
// Session sweeps are left out: a CLI process holds no sessions.
func runJob(ctx context.Context, db *gorm.DB, name string, out io.Writer) error {
	scheduler := jobs.NewScheduler()
	notifications := notifService.NewNotificationService(notifRepo.NewNotificationRepository(db), nil, 0)
	if err := scheduler.Register(jobs.NewNotificationPurge(notifications)); err != nil {
		return err
	}

	if err := scheduler.RunByName(ctx, name); err != nil {
		return fmt.Errorf("%w (available: %s)", err, strings.Join(scheduler.Names(), ", "))
	}
	_, _ = fmt.Fprintf(out, "%s done\n", name)
	return nil
}

// reconcileLevels fixes users whose stored level disagrees with their XP and
// returns how many were out of sync.
func reconcileLevels(ctx context.Context, db *gorm.DB, dryRun bool, out io.Writer) (int, error) {
	users, err := userRepo.NewUserRepository(db).FindAll(ctx)
	if err != nil {
		return 0, err
	}
	store := sessionStore.NewGormStore(db)

	fixed := 0
	for i := range users {
		p, changed := engine.Reconcile(sessionStore.ToProfile(&users[i]))
		if !changed {
			continue
		}
		fixed++
		_, _ = fmt.Fprintf(out, "%s\t%s\txp=%d\tlevel %d -> %d\n", users[i].ID, users[i].Username, p.XP, users[i].Level, p.Level)
		if dryRun {
			continue
		}
		if err := store.WriteProfile(ctx, users[i].ID, sessionStore.Fields{"level": p.Level}); err != nil {
			return fixed, fmt.Errorf("update %s: %w", users[i].ID, err)
		}
	}

	_, _ = fmt.Fprintf(out, "%d of %d users out of sync\n", fixed, len(users))
	return fixed, nil
}

// grantXP awards XP through the session service so bonuses, achievements and
// XP log rows follow the same path as user actions.
func grantXP(ctx context.Context, db *gorm.DB, rdb *redis.Client, userRef string, amount int, label string, out io.Writer) error {
	users := userRepo.NewUserRepository(db)

	id, err := uuid.Parse(userRef)
	if err != nil {
		u, ferr := users.FindByEmail(ctx, userRef)
		if ferr != nil {
			if errors.Is(ferr, apperror.ErrNotFound) {
				return fmt.Errorf("no user with id or email %q", userRef)
			}
			return ferr
		}
		id = u.ID
	}

	sessions := sessionService.NewSessionService(sessionStore.NewGormStore(db), engine.New(nil), sessionService.Options{})
	res, err := sessions.AwardXP(ctx, id, amount, label)
	if err != nil {
		return err
	}

	if err := sessionService.PublishInvalidation(ctx, rdb, id); err != nil {
		_, _ = fmt.Fprintf(out, "warning: running servers were not notified: %v\n", err)
	}

	_, _ = fmt.Fprintf(out, "granted %d xp to %s: xp=%d level=%d\n", res.XPGained, id, res.Profile.XP, res.Profile.Level)
	for _, a := range res.Achievements {
		_, _ = fmt.Fprintf(out, "unlocked %s %s\n", a.Icon, a.Title)
	}
	return nil
}
