package main

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/taskpad/taskpad-go/internal/config"
	"github.com/taskpad/taskpad-go/internal/crypto"
	"github.com/taskpad/taskpad-go/internal/repository"
)

// app carries the resolved configuration and opened resources shared by
// subcommands.
type app struct {
	v      *viper.Viper
	cfg    config.Config
	db     *sql.DB
	hasher *crypto.Hasher
}

func newRootCmd() *cobra.Command {
	a := &app{v: config.NewViper()}

	root := &cobra.Command{
		Use:           "taskpadctl",
		Short:         "Administer a Taskpad database",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			_ = godotenv.Load()
			a.cfg = config.FromViper(a.v)
			return nil
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			if a.db != nil {
				return a.db.Close()
			}
			return nil
		},
	}

	root.PersistentFlags().String("db", "", "database file (default $DATABASE_PATH or data/taskpad.db)")
	root.PersistentFlags().Int("bcrypt-cost", 0, "bcrypt cost (default $BCRYPT_COST or 10)")
	_ = a.v.BindPFlag("database_path", root.PersistentFlags().Lookup("db"))
	_ = a.v.BindPFlag("bcrypt_cost", root.PersistentFlags().Lookup("bcrypt-cost"))

	root.AddCommand(newMigrateCmd(a))
	root.AddCommand(newUserCmd(a))
	return root
}

// open connects to the database and brings its schema up to date.
func (a *app) open(ctx context.Context) (repository.MigrationResult, error) {
	hasher, err := crypto.NewHasher(a.cfg.BcryptCost)
	if err != nil {
		return repository.MigrationResult{}, err
	}
	a.hasher = hasher

	db, err := repository.NewDB(ctx, a.cfg.DatabasePath)
	if err != nil {
		return repository.MigrationResult{}, fmt.Errorf("open %s: %w", a.cfg.DatabasePath, err)
	}
	a.db = db

	return repository.NewMigrator(db, repository.MigratorOptions{
		HashPassword:    hasher.HashPassword,
		DemoPassword:    a.cfg.DemoPassword,
		LegacyTasksFile: a.cfg.LegacyTasksFile,
	}).EnsureSchema(ctx)
}
