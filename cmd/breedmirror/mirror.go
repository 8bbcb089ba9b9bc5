package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"breedmirror/pkg/auth"
	"breedmirror/pkg/config"
	"breedmirror/pkg/logger"
	"breedmirror/pkg/mirror"
	"breedmirror/pkg/ui"
)

var (
	// Mirror command flags
	oauthToken  string
	remoteDir   string
	reportPath  string
	accountName string
)

// mirrorCmd represents the mirror command
var mirrorCmd = &cobra.Command{
	Use:   "mirror",
	Short: "Mirror all breed images into cloud storage",
	Long: `Mirror every image of every dog breed and sub-breed into a cloud
storage folder.

This command requires a valid Yandex.Disk OAuth token configured through:
  - Stored token (use 'breedmirror auth login' to store)
  - The BREEDMIRROR_OAUTH_TOKEN environment variable or a .env file
  - Configuration file

Every uploaded file is recorded in a JSON report; when the run fails
partway the report still lists everything mirrored before the failure.`,
	Example: `  # Mirror with default settings
  breedmirror mirror

  # Mirror into a custom folder with a custom report path
  breedmirror mirror --remote-dir /breeds --report mirrored.json

  # Use a specific stored account
  breedmirror mirror --account work`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		runMirror(cmd, args)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(mirrorCmd)

	mirrorCmd.Flags().StringVar(&oauthToken, "oauth-token", "", "cloud storage OAuth token")
	mirrorCmd.Flags().StringVar(&remoteDir, "remote-dir", "", "remote base directory for mirrored images")
	mirrorCmd.Flags().StringVarP(&reportPath, "report", "r", "", "path of the JSON report file")
	mirrorCmd.Flags().StringVarP(&accountName, "account", "a", "", "use specific stored account")
}

func runMirror(cmd *cobra.Command, args []string) {
	// Build flags map from command line
	flags := make(map[string]interface{})
	if oauthToken != "" {
		flags["oauth-token"] = oauthToken
	}
	if remoteDir != "" {
		flags["remote-dir"] = remoteDir
	}
	if reportPath != "" {
		flags["report"] = reportPath
	}
	if logLevel != "info" {
		flags["log-level"] = logLevel
	}

	// Resolve the token before validation so a stored token satisfies it
	if oauthToken == "" && os.Getenv("BREEDMIRROR_OAUTH_TOKEN") == "" {
		if manager, err := auth.NewManager(); err == nil {
			if token, err := manager.Retrieve(accountName); err == nil {
				flags["oauth-token"] = token.OAuth
				ui.PrintInfo("Using stored token", token.Masked())
			}
		}
	}

	// Load configuration
	cfg, err := config.Load(configFile, flags)
	if err != nil {
		ui.PrintError("Failed to load configuration", err.Error())
		os.Exit(1)
	}

	// Initialize logger
	if err := logger.Initialize(&cfg.Logging); err != nil {
		ui.PrintError("Failed to initialize logger", err.Error())
		os.Exit(1)
	}
	log := logger.GetLogger()
	log.WithField("version", version).Info("breedmirror starting")

	if cfg.Storage.OAuthToken == "" {
		log.Error("Missing cloud storage OAuth token")
		ui.PrintError("No cloud storage OAuth token found", "")
		fmt.Println("\nTo store a token securely, run:")
		fmt.Println("  breedmirror auth login")
		fmt.Println("\nYou can also set an environment variable:")
		fmt.Println("  export BREEDMIRROR_OAUTH_TOKEN=your_oauth_token")
		os.Exit(1)
	}

	ui.PrintInfo("Remote directory", cfg.Mirror.RemoteBaseDir)
	ui.PrintInfo("Report", cfg.Mirror.ReportPath)

	// Ctrl-C cancels the run; partial results are still written
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	m := mirror.New(cfg, log)
	rep, runErr := m.Run(ctx)

	if rep.Len() > 0 || runErr == nil {
		if err := rep.Save(cfg.Mirror.ReportPath); err != nil {
			log.WithError(err).Error("Failed to save report")
			ui.PrintError("Failed to save report", err.Error())
			os.Exit(1)
		}
	}

	if runErr != nil {
		log.WithError(runErr).Error("Mirror run failed")
		ui.PrintError("MIRROR RUN FAILED", runErr.Error())
		if rep.Len() > 0 {
			ui.PrintWarning("Partial report saved", fmt.Sprintf("%d files in %s", rep.Len(), cfg.Mirror.ReportPath))
		}
		os.Exit(1)
	}

	log.InfoWithFields("Mirror run completed successfully", map[string]interface{}{
		"files":  rep.Len(),
		"report": cfg.Mirror.ReportPath,
	})
	ui.PrintSuccess(fmt.Sprintf("Mirrored %d files, report saved to %s", rep.Len(), cfg.Mirror.ReportPath))
}
