package cmd

import (
	"bufio"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/slotmatch/slotmatch/internal/config"
	"github.com/slotmatch/slotmatch/internal/google"
)

func newAuthCmd() *cobra.Command {
	var account string

	cmd := &cobra.Command{
		Use:   "auth",
		Short: "Connect a Google calendar for busy-time lookups",
		Long: `Run the Google OAuth flow for the calendar read-only scopes and store the
token so that serve can suggest NG slots from your busy times.

Requires GOOGLE_CLIENT_ID and GOOGLE_CLIENT_SECRET. Open the printed URL,
approve access and paste the code shown by Google.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.FromEnv()
			if cmd.Flags().Changed("account") {
				cfg.GoogleAccount = account
			}

			gc := google.Config{
				ClientID:     cfg.GoogleClientID,
				ClientSecret: cfg.GoogleClientSecret,
				RedirectURL:  cfg.GoogleRedirectURL,
			}
			if err := gc.Validate(); err != nil {
				return err
			}
			conf := gc.OAuth2()

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Open this URL in your browser and approve access:\n\n%s\n\nPaste the authorization code: ", google.AuthURL(conf, uuid.NewString()))

			code, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
			if err != nil && code == "" {
				return fmt.Errorf("failed to read authorization code: %w", err)
			}
			code = strings.TrimSpace(code)
			if code == "" {
				return errors.New("authorization code is required")
			}

			tok, err := google.Exchange(cmd.Context(), conf, code)
			if err != nil {
				return err
			}
			provider := google.NewFileTokenProvider(cfg.GoogleTokenDir)
			if err := provider.SaveToken(cfg.GoogleAccount, tok); err != nil {
				return err
			}
			fmt.Fprintf(out, "Token for account %q saved in %s\n", cfg.GoogleAccount, provider.Dir)
			return nil
		},
	}

	cmd.Flags().StringVar(&account, "account", config.DefaultGoogleAccount, "Account name the token is stored under. Can also use GOOGLE_ACCOUNT env var.")
	return cmd
}
