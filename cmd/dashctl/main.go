package main

import (
	"fmt"
	"os"

	"anoa.com/moodquest/internal/config"
	"anoa.com/moodquest/pkg/database"
	"anoa.com/moodquest/pkg/logger"
	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

var rootCmd = &cobra.Command{
	Use:           "dashctl",
	Short:         "Maintenance commands for the moodquest database",
	SilenceUsage:  true,
	SilenceErrors: true,
}

// openDB loads config from the environment and connects to Postgres.
func openDB() (*gorm.DB, *config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}
	logger.Init("dashctl", cfg.AppEnv)
	db, err := database.Connect(cfg.Database)
	return db, cfg, err
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
