package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/onlineexam/examsvc/internal/domain"
	"github.com/onlineexam/examsvc/internal/repo/user"
	"github.com/onlineexam/examsvc/internal/svc/examsvc"
	"github.com/onlineexam/examsvc/internal/svc/examsvc/examclient"
)

func newRegisterCmd() *cobra.Command {
	var (
		candidate domain.User
		remote    bool
		serverURL string
	)

	cmd := &cobra.Command{
		Use:   "register",
		Short: "Register a user",
		Long: "Register a user directly in the configured store, or through a running " +
			"examsvc when --remote or --server is given. Prints the stored user as JSON.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			cfg, err := loadConfig(ctx)
			if err != nil {
				return err
			}

			var creator examsvc.UserCreator

			if remote || serverURL != "" {
				if serverURL != "" {
					cfg.Client.ServerURL = serverURL
				}

				creator = examclient.NewHTTPClient(cfg.Client, nil)
			} else {
				repoFactory, err := user.NewRepositoryFactory(cfg.User)
				if err != nil {
					return fmt.Errorf("user repository: %w", err)
				}

				userSvc, err := examsvc.NewUserService(repoFactory)
				if err != nil {
					return fmt.Errorf("new user service: %w", err)
				}
				defer userSvc.Close()

				creator = userSvc
			}

			saved, err := creator.CreateUser(ctx, candidate)
			if err != nil {
				return fmt.Errorf("register: %w", err)
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")

			if err := enc.Encode(saved.Redacted()); err != nil {
				return fmt.Errorf("encode user: %w", err)
			}

			return nil
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&candidate.Email, "email", "", "email address (required)")
	flags.StringVar(&candidate.Username, "username", "", "username (required)")
	flags.StringVar(&candidate.FirstName, "first-name", "", "first name")
	flags.StringVar(&candidate.LastName, "last-name", "", "last name")
	flags.StringVar(&candidate.Phone, "phone", "", "phone number")
	flags.StringVar(&candidate.Role, "role", "", "role, e.g. student or teacher")
	flags.StringVar(&candidate.Password, "password", "", "password, stored as given")
	flags.BoolVar(&remote, "remote", false, "register through the server at CLIENT_SERVER_URL")
	flags.StringVar(&serverURL, "server", "", "register through the examsvc at this base URL")

	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("username")

	return cmd
}
