package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/onlineexam/examsvc/internal/infra/logging"
	"github.com/onlineexam/examsvc/internal/infra/telemetry"
	http_ "github.com/onlineexam/examsvc/internal/infra/transport/http"
	"github.com/onlineexam/examsvc/internal/repo/user"
	"github.com/onlineexam/examsvc/internal/svc/examsvc"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the registration endpoint over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context())
		},
	}
}

// runServe blocks until the server fails or the process receives SIGINT or SIGTERM.
func runServe(ctx context.Context) (err error) {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := loadConfig(ctx)
	if err != nil {
		return err
	}

	log := logging.GetLogger("cmd.examsvc")

	defer func() {
		if err != nil {
			log.ErrorContext(ctx, "error", "err", err)

			return
		}

		log.InfoContext(ctx, "shutdown")
	}()

	shutdownTelemetry, err := telemetry.Setup(ctx, cfg.Telemetry, svcName)
	if err != nil {
		return fmt.Errorf("setup telemetry: %w", err)
	}

	defer func() {
		if err := shutdownTelemetry(context.WithoutCancel(ctx)); err != nil {
			log.WarnContext(ctx, "telemetry shutdown failed", "err", err)
		}
	}()

	repoFactory, err := user.NewRepositoryFactory(cfg.User)
	if err != nil {
		return fmt.Errorf("user repository: %w", err)
	}

	userSvc, err := examsvc.NewUserService(repoFactory)
	if err != nil {
		return fmt.Errorf("new user service: %w", err)
	}
	defer userSvc.Close()

	httpTransport := examsvc.NewHTTPTransport(userSvc, cfg.HTTP)

	if err := http_.ListenAndServe(ctx, httpTransport, cfg.HTTP.HTTPTransportConfig); err != nil {
		return fmt.Errorf("listen and serve: %w", err)
	}

	return nil
}
