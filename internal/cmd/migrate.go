package cmd

import (
	"database/sql"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sandeepkv93/dayplan/internal/storage"
)

func newMigrateCommand(root *rootOptions) *cobra.Command {
	c := &cobra.Command{
		Use:   "migrate",
		Short: "Apply or revert the database schema",
	}
	c.AddCommand(
		migrateStep(root, "up", "Apply pending migrations", storage.MigrateUp),
		migrateStep(root, "down", "Revert every migration", storage.MigrateDown),
	)
	return c
}

func migrateStep(root *rootOptions, use, short string, step func(*sql.DB) error) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(c *cobra.Command, _ []string) error {
			a, err := openApp(root.configPath, c.ErrOrStderr(), openOptions{skipMigrate: true})
			if err != nil {
				return err
			}
			defer a.Close()
			if err := step(a.repo.DB()); err != nil {
				return err
			}
			fmt.Fprintf(c.OutOrStdout(), "migrate %s: %s\n", use, a.cfg.Database.Path)
			return nil
		},
	}
}
