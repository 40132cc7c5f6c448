package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"photonotes/pkg/auth"
	"photonotes/pkg/config"
	"photonotes/pkg/ui"
)

// permissions is the access level requested from Flickr
var permissions string

// authenticateCmd represents the authenticate command
var authenticateCmd = &cobra.Command{
	Use:   "authenticate",
	Short: "Authorize photonotes against your Flickr account",
	Long: `Run the Flickr OAuth flow and store the resulting session.

Public photos need no authorization; run this once to let photonotes
see private photos too. The command prints an authorization URL. Open
it in a browser, confirm the access level, and paste the 9-digit
verifier code shown afterwards back into the prompt.

The session is stored in the system keychain when available, falling
back to an encrypted file. Scripted runs can instead provide
PHOTONOTES_OAUTH_TOKEN and PHOTONOTES_OAUTH_TOKEN_SECRET in the
environment.`,
	Example: `  # Read access to private photos
  photonotes authenticate --permissions read

  # Write access (tagging, uploads)
  photonotes authenticate --permissions write`,
	Run: runAuthenticate,
}

func init() {
	rootCmd.AddCommand(authenticateCmd)

	authenticateCmd.Flags().StringVarP(&permissions, "permissions", "p", "", "access level to request: read, write or delete")
	_ = authenticateCmd.MarkFlagRequired("permissions")
}

func runAuthenticate(cmd *cobra.Command, args []string) {
	switch permissions {
	case "read", "write", "delete":
	default:
		ui.PrintError("Invalid permissions", permissions+" (want read, write or delete)")
		os.Exit(1)
	}

	// The OAuth flow needs only the API credentials, not the full
	// database setup, so skip the all-or-nothing validation and prompt
	// for what is missing.
	cfg, err := config.LoadWithoutValidation(configFile, globalFlags())
	if err != nil {
		ui.PrintError("Failed to load configuration", err.Error())
		os.Exit(1)
	}
	initLogging(cfg)

	if cfg.Flickr.APIKey == "" {
		auth.ShowAPIKeyGuide()
		cfg.Flickr.APIKey = promptLine("Flickr API key: ")
	}
	if cfg.Flickr.APIKey != "" && cfg.Flickr.APISecret == "" {
		fmt.Print("Flickr API secret (input hidden): ")
		secret, err := readPassword()
		if err != nil {
			ui.PrintError("Failed to read API secret", err.Error())
			os.Exit(1)
		}
		cfg.Flickr.APISecret = strings.TrimSpace(secret)
	}
	if cfg.Flickr.APIKey == "" || cfg.Flickr.APISecret == "" {
		ui.PrintError("Flickr API credentials are required", "set PHOTONOTES_API_KEY and PHOTONOTES_API_SECRET")
		os.Exit(1)
	}

	client := newFlickrClient(cfg)
	ctx := context.Background()

	requestToken, err := client.GetRequestToken(ctx)
	if err != nil {
		ui.PrintError("Request token exchange failed", err.Error())
		os.Exit(1)
	}

	ui.PrintHighlight("Open this URL in your browser and authorize the application:")
	fmt.Println()
	fmt.Println("  " + client.AuthorizationURL(requestToken, permissions))
	fmt.Println()

	verifier := promptLine("Paste the verifier code shown after authorizing: ")
	if verifier == "" {
		ui.PrintError("No verifier entered")
		os.Exit(1)
	}

	access, err := client.GetAccessToken(ctx, requestToken, verifier)
	if err != nil {
		ui.PrintError("Access token exchange failed", err.Error())
		os.Exit(1)
	}

	// Round-trip the fresh session before storing it
	client.SetSession(access.Token, access.TokenSecret)
	who, err := client.TestLogin(ctx)
	if err != nil {
		ui.PrintError("Session verification failed", err.Error())
		os.Exit(1)
	}
	username := access.Username
	if who.User.Username.Text != "" {
		username = who.User.Username.Text
	}

	session := &auth.Session{
		Username:    username,
		UserID:      access.UserNSID,
		Token:       access.Token,
		TokenSecret: access.TokenSecret,
		Permissions: permissions,
	}

	manager, err := auth.NewManager()
	if err != nil {
		ui.PrintError("Failed to initialize session store", err.Error())
		os.Exit(1)
	}
	if err := manager.Store(session); err != nil {
		ui.PrintError("Failed to store session", err.Error())
		os.Exit(1)
	}

	ui.PrintSuccess(fmt.Sprintf("Authorized as %s with %s access", username, permissions))
	fmt.Println("\nThe session is stored in:")
	if _, err := auth.NewKeyringStore(); err == nil {
		fmt.Println("  • System keychain (primary)")
	}
	fmt.Println("  • Encrypted file (fallback)")
	fmt.Println("\nEvery photonotes command now signs its API calls with it.")
}

// promptLine reads one line from stdin and trims it
func promptLine(prompt string) string {
	fmt.Print(prompt)
	reader := bufio.NewReader(os.Stdin)
	input, err := reader.ReadString('\n')
	if err != nil {
		ui.PrintError("Failed to read input", err.Error())
		os.Exit(1)
	}
	return strings.TrimSpace(input)
}

// readPassword reads a line from stdin without echoing
func readPassword() (string, error) {
	// Try to read without echo
	if term.IsTerminal(int(syscall.Stdin)) {
		password, err := term.ReadPassword(int(syscall.Stdin))
		fmt.Println() // New line after password
		if err == nil {
			return string(password), nil
		}
	}

	// Fallback to regular input
	reader := bufio.NewReader(os.Stdin)
	input, err := reader.ReadString('\n')
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(input), nil
}
