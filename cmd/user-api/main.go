package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/deppfellow/user-api/internal/api"
	"github.com/deppfellow/user-api/internal/auth"
	"github.com/deppfellow/user-api/internal/config"
	"github.com/deppfellow/user-api/internal/database"
	"github.com/deppfellow/user-api/internal/handler"
	"github.com/deppfellow/user-api/internal/logger"
	"github.com/deppfellow/user-api/internal/router"
	"github.com/deppfellow/user-api/internal/server"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

const shutdownTimeout = 30 * time.Second

func main() {
	root := &cobra.Command{
		Use:           "user-api",
		Short:         "User CRUD service",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(serveCmd(), migrateCmd(), tokenCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func bootstrap() (*config.Config, *logger.LoggerService, zerolog.Logger, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, nil, zerolog.Logger{}, err
	}

	loggerService := logger.NewLoggerService(cfg.Observability)
	log := logger.NewLoggerWithService(cfg.Observability, loggerService)
	return cfg, loggerService, log, nil
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, loggerService, log, err := bootstrap()
			if err != nil {
				return err
			}
			defer loggerService.Shutdown()

			srv, err := server.New(cfg, &log, loggerService)
			if err != nil {
				return fmt.Errorf("failed to initialize server: %w", err)
			}

			d, err := api.New(srv)
			if err != nil {
				return fmt.Errorf("failed to build dispatcher: %w", err)
			}

			srv.SetupHTTPServer(router.NewRouter(srv, handler.NewHandlers(srv, d)))

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			errCh := make(chan error, 1)
			go func() {
				if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					errCh <- err
				}
				close(errCh)
			}()

			select {
			case err := <-errCh:
				if err != nil {
					return fmt.Errorf("server stopped: %w", err)
				}
				return nil
			case <-ctx.Done():
			}

			log.Info().Msg("shutting down server")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()

			if err := srv.Shutdown(shutdownCtx); err != nil {
				return err
			}
			log.Info().Msg("server exited properly")
			return nil
		},
	}
}

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply database migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, loggerService, log, err := bootstrap()
			if err != nil {
				return err
			}
			defer loggerService.Shutdown()

			if cfg.Database.Driver != config.DriverPostgres {
				return fmt.Errorf("migrations need the %s driver, got %s", config.DriverPostgres, cfg.Database.Driver)
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), time.Minute)
			defer cancel()

			return database.Migrate(ctx, &log, cfg)
		},
	}
}

func tokenCmd() *cobra.Command {
	var (
		scopes string
		ttl    time.Duration
	)

	cmd := &cobra.Command{
		Use:   "token <subject>",
		Short: "Mint a bearer token for local testing",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadConfig()
			if err != nil {
				return err
			}
			if cfg.Auth.Mode != config.AuthModeJWT {
				return fmt.Errorf("tokens can only be minted in %s auth mode", config.AuthModeJWT)
			}

			token, err := auth.NewJWTResolver(cfg.Auth.SecretKey, cfg.Auth.Issuer).
				IssueToken(args[0], strings.FieldsFunc(scopes, func(r rune) bool { return r == ',' || r == ' ' }), ttl)
			if err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}

	cmd.Flags().StringVar(&scopes, "scopes", api.ScopeUsersRead+","+api.ScopeUsersWrite, "comma separated scopes to grant")
	cmd.Flags().DurationVar(&ttl, "ttl", 24*time.Hour, "token lifetime, 0 for no expiry")
	return cmd
}
