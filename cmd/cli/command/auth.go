package command

import (
	"errors"
	"fmt"
	"time"

	"libraryhub/cmd/cli/authentication"
	"libraryhub/cmd/cli/command/client"
	"libraryhub/cmd/cli/dto"

	"github.com/spf13/cobra"
)

// auth.go handles register, login and logout.

// authCmd represents the auth command for authentication related subcommands
var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Authentication commands",
	Long:  `Authenticate with the library API server. Supports login, registration, logout.`,
}

// passwordFlag returns --password, prompting for it when the flag is empty.
func passwordFlag(cmd *cobra.Command) (string, error) {
	password, _ := cmd.Flags().GetString("password")
	if password != "" {
		return password, nil
	}
	return readPassword("Password: ")
}

var registerCmd = &cobra.Command{
	Use:   "register",
	Short: "Register a new library account",
	RunE: func(cmd *cobra.Command, args []string) error {
		var req dto.RegisterRequest
		req.Email, _ = cmd.Flags().GetString("email")
		req.FirstName, _ = cmd.Flags().GetString("first-name")
		req.LastName, _ = cmd.Flags().GetString("last-name")
		password, err := passwordFlag(cmd)
		if err != nil {
			return err
		}
		req.Password = password

		member, err := client.NewHTTPClient(apiURL).Register(&req)
		if err != nil {
			return fmt.Errorf("registration failed: %w", err)
		}

		out := cmd.OutOrStdout()
		fmt.Fprintln(out, "✓ Registration successful! Please login to continue.")
		fmt.Fprintf(out, "Member ID: %d\n", member.ID)
		return nil
	},
}

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Login to your library account",
	RunE: func(cmd *cobra.Command, args []string) error {
		var req dto.LoginRequest
		req.Email, _ = cmd.Flags().GetString("email")
		password, err := passwordFlag(cmd)
		if err != nil {
			return err
		}
		req.Password = password

		resp, err := client.NewHTTPClient(apiURL).Login(&req)
		if err != nil {
			return fmt.Errorf("login failed: %w", err)
		}

		err = authentication.StoreTokens(&authentication.StoredCredentials{
			AccessToken:  resp.AccessToken,
			RefreshToken: resp.RefreshToken,
			Email:        resp.Member.Email,
			IsAdmin:      resp.Member.IsAdmin,
			ExpiresAt:    time.Now().Unix() + resp.ExpiresIn,
		})
		if err != nil {
			return fmt.Errorf("save tokens: %w", err)
		}

		fmt.Fprintf(cmd.OutOrStdout(), "✓ Logged in as %s\n", resp.Member.Email)
		return nil
	},
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Logout from your library account",
	RunE: func(cmd *cobra.Command, args []string) error {
		creds, err := authentication.GetTokens()
		if errors.Is(err, authentication.ErrNotLoggedIn) {
			fmt.Fprintln(cmd.OutOrStdout(), "Not logged in.")
			return nil
		}
		if err != nil {
			return err
		}

		// the server always answers 200; a network failure still clears local state
		if err := client.NewHTTPClient(apiURL).Logout(creds.RefreshToken); err != nil {
			fmt.Fprintln(cmd.ErrOrStderr(), "warning: could not reach server:", err)
		}
		if err := authentication.DeleteTokens(); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "✓ Successfully logged out.")
		return nil
	},
}

func init() {
	authCmd.AddCommand(registerCmd, loginCmd, logoutCmd)

	registerCmd.Flags().StringP("email", "e", "", "Email address for the new account")
	registerCmd.Flags().StringP("password", "p", "", "Password (prompted when omitted)")
	registerCmd.Flags().String("first-name", "", "First name")
	registerCmd.Flags().String("last-name", "", "Last name")
	registerCmd.MarkFlagRequired("email")
	registerCmd.MarkFlagRequired("first-name")
	registerCmd.MarkFlagRequired("last-name")

	loginCmd.Flags().StringP("email", "e", "", "Email address of the account")
	loginCmd.Flags().StringP("password", "p", "", "Password (prompted when omitted)")
	loginCmd.MarkFlagRequired("email")
}
