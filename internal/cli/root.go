package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/onlineexam/examsvc/internal/infra/config"
	"github.com/onlineexam/examsvc/internal/infra/logging"
	"github.com/onlineexam/examsvc/internal/infra/telemetry"
	"github.com/onlineexam/examsvc/internal/repo/user"
	"github.com/onlineexam/examsvc/internal/svc/examsvc"
	"github.com/onlineexam/examsvc/internal/svc/examsvc/examclient"
)

var (
	version = "dev"
	commit  = "none"
)

const (
	appName = "exam"
	svcName = "examsvc"
)

// Config is the complete environment configuration of the examsvc binary.
type Config struct {
	config.EnvConfig

	Log       logging.LoggerConfig        `envPrefix:"LOG_"`
	HTTP      examsvc.HTTPTransportConfig `envPrefix:"HTTP_"`
	User      user.RepositoryConfig       `envPrefix:"USER_"`
	Client    examclient.HTTPClientConfig `envPrefix:"CLIENT_"`
	Telemetry telemetry.TelemetryConfig   `envPrefix:"TELEMETRY_"`
}

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   svcName,
		Short: "Exam platform user registration service",
		Long: "examsvc registers exam platform users. Without a subcommand it serves " +
			"POST /api/register over HTTP.",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context())
		},
	}
	cmd.AddCommand(newServeCmd())
	cmd.AddCommand(newRegisterCmd())
	cmd.AddCommand(newVersionCmd())

	return cmd
}

// NewRootCmdForTest returns the root command for testing.
func NewRootCmdForTest() *cobra.Command {
	return newRootCmd()
}

func Execute() error {
	return newRootCmd().ExecuteContext(context.Background())
}

// loadConfig parses the environment under the EXAM_EXAMSVC namespace and
// configures logging from it.
func loadConfig(ctx context.Context) (Config, error) {
	var (
		cfg Config

		configPrefix = strings.ToUpper(strings.Join([]string{appName, svcName}, "_"))
		loggerName   = strings.ToLower(strings.Join([]string{appName, svcName}, "."))
	)

	if err := config.Parse(ctx, &cfg, configPrefix); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}

	if err := logging.Configure(ctx, cfg.Log, loggerName); err != nil {
		return Config{}, fmt.Errorf("configure logging: %w", err)
	}

	return cfg, nil
}
