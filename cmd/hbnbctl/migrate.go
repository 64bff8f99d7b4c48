package main

import (
	"fmt"
	"strings"

	"hbnb/internal/database"

	"github.com/spf13/cobra"
)

func (c *cli) migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the SQL schema",
	}
	cmd.AddCommand(c.migrateUpCmd(), c.migrateStatusCmd(), c.migrateDownCmd())
	return cmd
}

func (c *cli) migrateUpCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := c.connect()
			if err != nil {
				return err
			}
			defer database.Close(db)

			if err := database.RunMigrations(cmd.Context(), db); err != nil {
				return fmt.Errorf("sql migrations failed: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "sql migrations applied")
			return nil
		},
	}
}

func (c *cli) migrateStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show applied and pending migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := c.connect()
			if err != nil {
				return err
			}
			defer database.Close(db)

			status, err := database.GetSchemaStatus(cmd.Context(), db, c.cfg)
			if err != nil {
				return fmt.Errorf("schema status failed: %w", err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "mode: %s (env %s)\n", status.Mode, status.Environment)
			fmt.Fprintf(out, "sql migrations: %t, automigrate: %t\n", status.WillRunSQL, status.WillRunAutoMigrate)
			fmt.Fprintf(out, "applied: %v\n", status.AppliedVersions)
			if len(status.MissingTables) > 0 {
				fmt.Fprintf(out, "missing tables: %s\n", strings.Join(status.MissingTables, ", "))
			}
			if len(status.PendingMigrations) == 0 {
				fmt.Fprintln(out, "pending: none")
				return nil
			}
			fmt.Fprintln(out, "pending:")
			for i := range status.PendingMigrations {
				fmt.Fprintf(out, "  %s\n", status.PendingMigrations[i].String())
			}
			return nil
		},
	}
}

func (c *cli) migrateDownCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "down",
		Short: "Roll back the most recent migration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := c.connect()
			if err != nil {
				return err
			}
			defer database.Close(db)

			version, ok, err := database.RollbackLatest(cmd.Context(), db)
			if err != nil {
				return fmt.Errorf("rollback failed: %w", err)
			}
			if !ok {
				fmt.Fprintln(cmd.OutOrStdout(), "nothing to roll back")
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "rolled back migration %d\n", version)
			return nil
		},
	}
}
