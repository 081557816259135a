package commands

import (
	"context"
	"errors"
	"fmt"
	"seiassist-backend/internal/scrapers/sei"

	"github.com/spf13/cobra"
)

var ErrNoCredentials = errors.New("no token given and no username/password configured")

type loginer interface {
	Login(ctx context.Context, username, password string) sei.LoginResult
}

func init() {
	rootCmd.AddCommand(loginCmd)
}

// loginArgs accepts either no arguments or both a username and a password.
func loginArgs(cmd *cobra.Command, args []string) error {
	if len(args) != 0 && len(args) != 2 {
		return fmt.Errorf("expected both username and password, got %d argument(s)", len(args))
	}
	return nil
}

var loginCmd = &cobra.Command{
	Use:   "login [<username> <password>]",
	Short: "Logs into the portal and prints the session token.",
	Args:  loginArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		username, password := cfg.Username, cfg.Password
		if len(args) == 2 {
			username, password = args[0], args[1]
		}
		if username == "" || password == "" {
			return ErrNoCredentials
		}

		result := client.Login(cmd.Context(), username, password)
		if asJson {
			if err := writeJson(cmd.OutOrStdout(), result); err != nil {
				return err
			}
		} else {
			renderLogin(cmd.OutOrStdout(), result)
		}
		if !result.Success {
			return result.Err
		}
		return nil
	},
}

// resolveToken returns the --token flag or logs in with the configured credentials.
func resolveToken(ctx context.Context, portal loginer) (string, error) {
	if token != "" {
		return token, nil
	}
	if cfg.Username == "" || cfg.Password == "" {
		return "", ErrNoCredentials
	}
	result := portal.Login(ctx, cfg.Username, cfg.Password)
	if !result.Success {
		return "", fmt.Errorf("%s: %w", result.Message, result.Err)
	}
	return result.Token, nil
}
