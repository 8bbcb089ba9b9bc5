package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"breedmirror/pkg/auth"
	"breedmirror/pkg/ui"
)

// authCmd represents the auth command
var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Manage the cloud storage OAuth token",
	Long: `Manage the stored cloud storage OAuth token securely.

The token is stored using:
  - System keychain (when available)
  - Encrypted file with PBKDF2 key derivation
  - Environment variables (read-only fallback)

Never share your token or config files!`,
}

// loginCmd represents the auth login command
var loginCmd = &cobra.Command{
	Use:   "login [account]",
	Short: "Store a cloud storage OAuth token securely",
	Long: `Store a cloud storage OAuth token in the system keychain or an
encrypted file.

To get a token, authorize the application on the cloud provider's
OAuth page and copy the issued token value.`,
	Example: `  # Interactive login for the default account
  breedmirror auth login

  # Login under a named account
  breedmirror auth login work`,
	Args: cobra.MaximumNArgs(1),
	Run:  runLogin,
}

// logoutCmd represents the auth logout command
var logoutCmd = &cobra.Command{
	Use:   "logout [account]",
	Short: "Remove the stored token",
	Long:  `Remove the stored cloud storage OAuth token for an account.`,
	Args:  cobra.MaximumNArgs(1),
	Run:   runLogout,
}

// statusCmd represents the auth status command
var statusCmd = &cobra.Command{
	Use:   "status [account]",
	Short: "Show whether a token is stored",
	Long:  `Show whether a token is stored for an account, with the value masked.`,
	Args:  cobra.MaximumNArgs(1),
	Run:   runStatus,
}

func init() {
	rootCmd.AddCommand(authCmd)
	authCmd.AddCommand(loginCmd)
	authCmd.AddCommand(logoutCmd)
	authCmd.AddCommand(statusCmd)
}

func accountArg(args []string) string {
	if len(args) > 0 {
		return strings.TrimSpace(args[0])
	}
	return auth.DefaultAccount
}

func runLogin(cmd *cobra.Command, args []string) {
	manager, err := auth.NewManager()
	if err != nil {
		ui.PrintError("Failed to initialize token manager", err.Error())
		os.Exit(1)
	}

	account := accountArg(args)
	reader := bufio.NewReader(os.Stdin)

	// Check if a token already exists for the account
	if existing, _ := manager.Retrieve(account); existing != nil {
		fmt.Printf("A token for '%s' already exists (%s). Replace it? (y/N): ", account, existing.Masked())
		input, _ := reader.ReadString('\n')
		if !strings.HasPrefix(strings.ToLower(strings.TrimSpace(input)), "y") {
			return
		}
	}

	fmt.Print("OAuth token (hidden as you type): ")
	tokenValue, err := readPassword()
	if err != nil {
		ui.PrintError("Failed to read token", err.Error())
		os.Exit(1)
	}
	fmt.Println()

	tokenValue = strings.TrimSpace(tokenValue)
	if tokenValue == "" {
		ui.PrintError("Token is required", "")
		os.Exit(1)
	}

	token := &auth.Token{
		Account: account,
		OAuth:   tokenValue,
	}
	if err := manager.Store(token); err != nil {
		ui.PrintError("Failed to store token", err.Error())
		os.Exit(1)
	}

	ui.PrintSuccess("Token stored for account: " + account)
	fmt.Println("\nQuick start:")
	fmt.Println("  $ breedmirror mirror")
	if account != auth.DefaultAccount {
		fmt.Printf("  $ breedmirror mirror --account %s\n", account)
	}
}

func runLogout(cmd *cobra.Command, args []string) {
	manager, err := auth.NewManager()
	if err != nil {
		ui.PrintError("Failed to initialize token manager", err.Error())
		os.Exit(1)
	}

	account := accountArg(args)
	if err := manager.Delete(account); err != nil {
		ui.PrintError("Failed to remove token", err.Error())
		os.Exit(1)
	}
	ui.PrintSuccess("Token removed for account: " + account)
}

func runStatus(cmd *cobra.Command, args []string) {
	manager, err := auth.NewManager()
	if err != nil {
		ui.PrintError("Failed to initialize token manager", err.Error())
		os.Exit(1)
	}

	account := accountArg(args)
	token, err := manager.Retrieve(account)
	if err != nil {
		ui.PrintInfo("No token stored", "Use 'breedmirror auth login' to store one")
		return
	}

	ui.PrintInfo("Account", token.Account)
	ui.PrintInfo("Token", token.Masked())
	if !token.LastModified.IsZero() {
		ui.PrintInfo("Last modified", token.LastModified.Format("2006-01-02 15:04:05"))
	}
}

// readPassword reads a line of input without echoing it
func readPassword() (string, error) {
	data, err := term.ReadPassword(int(syscall.Stdin))
	if err != nil {
		return "", err
	}
	return string(data), nil
}
