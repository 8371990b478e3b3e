package command

import (
	"fmt"
	"os"
	"strings"
	"time"

	"libraryhub/cmd/cli/authentication"
	"libraryhub/cmd/cli/command/client"

	"golang.org/x/term"
)

// refresh this long before the access token actually expires
const refreshSkew = 30 * time.Second

// GetAuthenticatedClient returns a client carrying the stored access token,
// refreshing the token pair first when it is about to expire.
func GetAuthenticatedClient() (*client.HTTPClient, error) {
	creds, err := authentication.GetTokens()
	if err != nil {
		return nil, err
	}

	httpClient := client.NewHTTPClient(apiURL)
	if creds.RefreshToken != "" && time.Now().Add(refreshSkew).Unix() >= creds.ExpiresAt {
		pair, err := httpClient.RefreshToken(creds.RefreshToken)
		if err != nil {
			return nil, fmt.Errorf("session expired, please login again: %w", err)
		}
		creds.AccessToken = pair.AccessToken
		creds.RefreshToken = pair.RefreshToken
		creds.ExpiresAt = time.Now().Unix() + pair.ExpiresIn
		if err := authentication.StoreTokens(creds); err != nil {
			return nil, fmt.Errorf("save refreshed tokens: %w", err)
		}
	}

	httpClient.SetToken(creds.AccessToken)
	return httpClient, nil
}

// readPassword prompts for a password without echoing it.
func readPassword(prompt string) (string, error) {
	fmt.Fprint(os.Stderr, prompt)
	bytePassword, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(os.Stderr) // newline after password input
	if err != nil {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	return strings.TrimSpace(string(bytePassword)), nil
}
