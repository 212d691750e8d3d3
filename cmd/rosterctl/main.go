// rosterctl manages the admin roster directly against the database. It is
// the recovery path when the web surface is locked out (for example, every
// admin address is stale): run it on the host next to the sqlite file.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	_ "modernc.org/sqlite"

	"github.com/hdale/clockless/internal/adapters/sqlite"
	"github.com/hdale/clockless/internal/app/ports"
	"github.com/hdale/clockless/internal/application/authz"
	"github.com/hdale/clockless/internal/config"
	"github.com/hdale/clockless/internal/db"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// openStore reads config and opens the roster store. The caller must defer
// the returned close func.
func openStore() (*sqlite.Store, func(), error) {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("loading config: %w", err)
	}

	path := cfg.Database.Path
	if dbPath != "" {
		path = dbPath
	}

	database, err := db.New(path)
	if err != nil {
		return nil, nil, fmt.Errorf("opening database: %w", err)
	}

	return sqlite.NewStore(database), func() { _ = database.Close() }, nil
}

var dbPath string

var rootCmd = &cobra.Command{
	Use:   "rosterctl",
	Short: "Manage the admin roster",
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List roster entries",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, closeStore, err := openStore()
		if err != nil {
			return err
		}
		defer closeStore()

		admins, err := store.ListAdmins(context.Background())
		if err != nil {
			return fmt.Errorf("listing admins: %w", err)
		}
		for _, admin := range admins {
			fmt.Printf("%s\t%s\n", admin.Email, admin.CreatedAt.Format("2006-01-02 15:04:05"))
		}
		return nil
	},
}

var addCmd = &cobra.Command{
	Use:   "add <email>",
	Short: "Add a roster entry",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, closeStore, err := openStore()
		if err != nil {
			return err
		}
		defer closeStore()

		admin, err := store.AddAdmin(context.Background(), authz.NormalizeEmail(args[0]))
		if errors.Is(err, ports.ErrAlreadyExists) {
			return fmt.Errorf("%s is already on the roster", args[0])
		}
		if err != nil {
			return fmt.Errorf("adding admin: %w", err)
		}
		fmt.Printf("Added %s\n", admin.Email)
		return nil
	},
}

var removeCmd = &cobra.Command{
	Use:   "remove <email>",
	Short: "Remove a roster entry (refuses to empty the roster)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, closeStore, err := openStore()
		if err != nil {
			return err
		}
		defer closeStore()

		err = store.RemoveAdmin(context.Background(), authz.NormalizeEmail(args[0]))
		if errors.Is(err, ports.ErrLastAdminProtected) {
			return fmt.Errorf("refusing to remove the last admin")
		}
		if errors.Is(err, ports.ErrNotFound) {
			return fmt.Errorf("%s is not on the roster", args[0])
		}
		if err != nil {
			return fmt.Errorf("removing admin: %w", err)
		}
		fmt.Printf("Removed %s\n", args[0])
		return nil
	},
}

var bootstrapCmd = &cobra.Command{
	Use:   "bootstrap",
	Short: "Seed the configured bootstrap admin into an empty roster",
	RunE: func(cmd *cobra.Command, args []string) error {
		_ = godotenv.Load()
		cfg, err := config.Load()
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}

		store, closeStore, err := openStore()
		if err != nil {
			return err
		}
		defer closeStore()

		if err := authz.NewService(store).Bootstrap(context.Background(), cfg.Auth.BootstrapAdmin); err != nil {
			return fmt.Errorf("bootstrapping roster: %w", err)
		}
		count, err := store.CountAdmins(context.Background())
		if err != nil {
			return fmt.Errorf("counting admins: %w", err)
		}
		fmt.Printf("Roster has %d entries\n", count)
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "database path (overrides CLOCKLESS_DB_PATH)")
	rootCmd.AddCommand(listCmd, addCmd, removeCmd, bootstrapCmd)
}
