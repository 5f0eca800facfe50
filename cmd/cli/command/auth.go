package command

import (
	"errors"
	"fmt"
	"time"

	"bookhub/cmd/cli/authentication"
	"bookhub/cmd/cli/command/client"
	"bookhub/internal/microservices/http-api/dto"

	"github.com/spf13/cobra"
)

// authCmd represents the auth command for authentication related subcommands
var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Authentication commands",
	Long:  `Authenticate with the bookhub API server. Supports login, registration, logout.`,
}

// registerCmd represents the register command
var registerCmd = &cobra.Command{
	Use:   "register",
	Short: "Register a new bookhub account",
	RunE: func(cmd *cobra.Command, args []string) error {
		var req dto.RegisterRequest
		req.Username, _ = cmd.Flags().GetString("username")
		req.Password, _ = cmd.Flags().GetString("password")
		req.Email, _ = cmd.Flags().GetString("email")

		ctx, cancel := commandContext(cmd)
		defer cancel()

		response, err := client.NewHTTPClient(apiURL).Register(ctx, &req)
		if err != nil {
			return fmt.Errorf("registration process failed: %w", err)
		}

		success("Registration successful! Please login to continue.")
		fmt.Printf("UserID: %s\n", response.UserID)
		return nil
	},
}

// loginCmd represents the login command
var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Login to your bookhub account",
	RunE: func(cmd *cobra.Command, args []string) error {
		var req dto.LoginRequest
		req.Username, _ = cmd.Flags().GetString("username")
		req.Password, _ = cmd.Flags().GetString("password")

		ctx, cancel := commandContext(cmd)
		defer cancel()

		response, err := client.NewHTTPClient(apiURL).Login(ctx, &req)
		if err != nil {
			return fmt.Errorf("login process failed: %w", err)
		}

		creds := &authentication.StoredCredentials{
			AccessToken:  response.AccessToken,
			RefreshToken: response.RefreshToken,
			Username:     response.Username,
			ExpiresAt:    time.Now().Add(time.Duration(response.ExpiresIn) * time.Second).Unix(),
		}
		if err := authentication.StoreTokens(creds); err != nil {
			return fmt.Errorf("could not save credentials: %w", err)
		}

		success("Successfully logged in as %s (%s)", response.Username, response.Role)
		return nil
	},
}

// logoutCmd revokes the refresh token and forgets the stored credentials.
var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Logout from your bookhub account",
	RunE: func(cmd *cobra.Command, args []string) error {
		creds, err := authentication.GetTokens()
		if errors.Is(err, authentication.ErrNotLoggedIn) {
			success("Already logged out.")
			return nil
		}
		if err != nil {
			return err
		}

		ctx, cancel := commandContext(cmd)
		defer cancel()

		// the server answers 200 for any token, so only transport errors matter
		if err := client.NewHTTPClient(apiURL).RevokeToken(ctx, creds.RefreshToken); err != nil {
			fmt.Printf("warning: could not revoke token: %v\n", err)
		}
		if err := authentication.DeleteTokens(); err != nil {
			return err
		}
		success("Successfully logged out.")
		return nil
	},
}

// whoamiCmd prints the stored identity.
var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the logged in user",
	RunE: func(cmd *cobra.Command, args []string) error {
		creds, err := authentication.GetTokens()
		if err != nil {
			return err
		}
		fmt.Printf("Logged in as %s\n", creds.Username)
		if creds.Expired(time.Now()) {
			fmt.Println("Access token expired, it will be refreshed on the next request.")
		}
		return nil
	},
}

// init function to add auth commands to root command
func init() {
	authCmd.AddCommand(registerCmd, loginCmd, logoutCmd, whoamiCmd)

	registerCmd.Flags().StringP("username", "u", "", "Username for the new account")
	registerCmd.Flags().StringP("password", "p", "", "Password for the new account")
	registerCmd.Flags().StringP("email", "e", "", "Email address for the new account")
	registerCmd.MarkFlagRequired("username")
	registerCmd.MarkFlagRequired("password")
	registerCmd.MarkFlagRequired("email")

	loginCmd.Flags().StringP("username", "u", "", "Username for the account")
	loginCmd.Flags().StringP("password", "p", "", "Password for the account")
	loginCmd.MarkFlagRequired("username")
	loginCmd.MarkFlagRequired("password")
}
