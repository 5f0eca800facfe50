package command

// root.go defines the root command for the bookhub CLI and the helpers
// shared by its subcommands.

import (
	"context"
	"fmt"
	"os"
	"time"

	"bookhub/cmd/cli/authentication"
	"bookhub/cmd/cli/command/client"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

const requestTimeout = 15 * time.Second

var apiURL string // Global flag for API server URL

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "bookhub",
	Short: "bookhub - reading progress and rewards from the command line",
	Long: `bookhub is a client for the bookhub API. Use it to:
- Record how far you are in a book
- Take book quizzes for bonus points
- Check your points, level and the leaderboard

Use "bookhub [command] --help" to see all available commands.`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		color.New(color.FgRed).Fprintln(os.Stderr, "✗", err)
		os.Exit(1)
	}
}

func init() {
	defaultAPI := os.Getenv("BOOKHUB_API")
	if defaultAPI == "" {
		defaultAPI = "http://localhost:8080"
	}
	// Global persistent flags = available to all subcommands
	rootCmd.PersistentFlags().StringVar(&apiURL, "api", defaultAPI, "API server URL")

	rootCmd.AddCommand(authCmd, progressCmd, quizCmd, rewardsCmd, leaderboardCmd, adminCmd, watchCmd)
}

func commandContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	parent := cmd.Context()
	if parent == nil {
		parent = context.Background()
	}
	return context.WithTimeout(parent, requestTimeout)
}

// withAuth runs fn with an authenticated client. An expired access token is
// refreshed first, and a 401 triggers one refresh and retry.
func withAuth(ctx context.Context, fn func(c *client.HTTPClient) error) error {
	creds, err := authentication.GetTokens()
	if err != nil {
		return err
	}
	base := client.NewHTTPClient(apiURL)

	if creds.Expired(time.Now()) {
		if err := refresh(ctx, base, creds); err != nil {
			return err
		}
	}

	err = fn(base.WithToken(creds.AccessToken))
	if !client.IsUnauthorized(err) || creds.RefreshToken == "" {
		return err
	}
	if err := refresh(ctx, base, creds); err != nil {
		return err
	}
	return fn(base.WithToken(creds.AccessToken))
}

func refresh(ctx context.Context, c *client.HTTPClient, creds *authentication.StoredCredentials) error {
	resp, err := c.RefreshToken(ctx, creds.RefreshToken)
	if err != nil {
		return fmt.Errorf("session expired, please login again: %w", err)
	}
	creds.AccessToken = resp.AccessToken
	creds.ExpiresAt = time.Now().Add(time.Duration(resp.ExpiresIn) * time.Second).Unix()
	return authentication.StoreTokens(creds)
}

func success(format string, args ...any) {
	color.Green("✓ "+format, args...)
}
