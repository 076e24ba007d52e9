package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/cesizen/cesizen-backend/internal/app"
	"github.com/cesizen/cesizen-backend/internal/data/repos"
	"github.com/cesizen/cesizen-backend/internal/platform/logger"
	"github.com/cesizen/cesizen-backend/internal/services"
)

var log *logger.Logger

var rootCmd = &cobra.Command{
	Use:   "cesizen",
	Short: "CesiZen API server",
	Long: `CesiZen serves the wellness content, stress diagnostics, comments and
interaction ledger behind the CesiZen web and mobile apps.

Run without arguments to start the HTTP server.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		l, err := app.NewLogger()
		if err != nil {
			return err
		}
		log = l
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if log != nil {
			log.Sync()
		}
	},
	RunE: runServe,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API",
	RunE:  runServe,
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply database migrations and exit",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := app.LoadConfig(log)
		database, err := app.OpenDatabase(log, cfg)
		if err != nil {
			return err
		}
		defer database.Close()
		log.Info("Migrations applied", "driver", database.Driver())
		return nil
	},
}

var promoteEmail string

var promoteAdminCmd = &cobra.Command{
	Use:   "promote-admin",
	Short: "Grant the admin role to an existing account",
	Long: `Grant the admin role to the account registered with --email.

The account's sessions are revoked so its next login carries the new role.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if promoteEmail == "" {
			return errors.New("--email is required")
		}
		cfg := app.LoadConfig(log)
		database, err := app.OpenDatabase(log, cfg)
		if err != nil {
			return err
		}
		defer database.Close()

		db := database.DB()
		users := services.NewUserService(db, log, repos.NewUserRepo(db, log), repos.NewUserTokenRepo(db, log))
		u, err := users.PromoteByEmail(cmd.Context(), promoteEmail)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s is now %s\n", u.Email, u.Role)
		return nil
	},
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.New(log)
	if err != nil {
		return err
	}
	defer a.Close()

	if err := a.Start(ctx); err != nil {
		return err
	}
	if err := a.Run(ctx); err != nil {
		return fmt.Errorf("server failed: %w", err)
	}
	log.Info("Server stopped")
	return nil
}

func init() {
	promoteAdminCmd.Flags().StringVar(&promoteEmail, "email", "", "email of the account to promote")
	rootCmd.AddCommand(serveCmd, migrateCmd, promoteAdminCmd)
}

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
