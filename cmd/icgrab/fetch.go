package main

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"icgrab/pkg/album"
	"icgrab/pkg/config"
	"icgrab/pkg/icloud"
	"icgrab/pkg/logger"
	"icgrab/pkg/ui"
)

var (
	// Fetch command flags
	outputDir  string
	concurrent int
	rateLimit  int
	timeout    int
)

// fetchCmd represents the fetch command
var fetchCmd = &cobra.Command{
	Use:   "fetch <album-url>",
	Short: "Download all photos from a shared album",
	Long: `Download all photos from a public iCloud shared album.

The album URL is the share link from the Photos app, for example:
  https://www.icloud.com/sharedalbum/#B2T5oqs3q2VPkhS

Each photo is downloaded in the largest available size. Failed
downloads are reported at the end without discarding the photos that
succeeded.`,
	Example: `  # Download an album using default settings
  icgrab fetch https://www.icloud.com/sharedalbum/#B2T5oqs3q2VPkhS

  # Download to a specific directory with more parallel transfers
  icgrab fetch https://www.icloud.com/sharedalbum/#B2T5oqs3q2VPkhS --output ./vacation --concurrent 8`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		runFetch(cmd, args)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(fetchCmd)

	// Local flags for fetch command
	fetchCmd.Flags().StringVarP(&outputDir, "output", "o", "", "output directory for downloads (default: ./photos)")
	fetchCmd.Flags().IntVar(&concurrent, "concurrent", 5, "number of concurrent downloads")
	fetchCmd.Flags().IntVar(&rateLimit, "rate-limit", 60, "API requests per minute")
	fetchCmd.Flags().IntVar(&timeout, "timeout", 30, "request timeout in seconds")
}

func runFetch(cmd *cobra.Command, args []string) {
	albumURL := strings.TrimSpace(args[0])

	// Build flags map from command line
	flags := make(map[string]interface{})
	if outputDir != "" {
		flags["output"] = outputDir
	}
	if concurrent != 5 {
		flags["concurrent"] = concurrent
	}
	if rateLimit != 60 {
		flags["rate-limit"] = rateLimit
	}
	if timeout != 30 {
		flags["timeout"] = time.Duration(timeout) * time.Second
	}
	if logLevel != "info" {
		flags["log-level"] = logLevel
	}

	// Load configuration
	cfg, err := config.Load(configFile, flags)
	if err != nil {
		ui.PrintError("Failed to load configuration", err.Error())
		os.Exit(1)
	}

	// Initialize logger
	logger.Initialize(&cfg.Logging)
	logger.WithField("version", version).Info("icgrab starting")

	// Validate the album URL before any network work
	token, err := icloud.ExtractToken(albumURL)
	if err != nil {
		ui.PrintError("Invalid album URL", albumURL)
		fmt.Println("\nExpected a link of the form:")
		fmt.Println("  https://www.icloud.com/sharedalbum/#<token>")
		os.Exit(1)
	}

	logger.WithField("token", token).Info("Starting album fetch")
	ui.PrintHighlight("[FETCHING SHARED ALBUM]")

	fetcher := album.New(cfg)
	summary, err := fetcher.Run(albumURL)

	var partial *album.PartialDownloadError
	switch {
	case err == nil:
		ui.PrintSuccess(fmt.Sprintf("[DONE] %d photos saved to %s", summary.Succeeded, cfg.Output.Directory))
	case errors.As(err, &partial):
		ui.PrintWarning("Some downloads failed", partial.Failed)
		ui.PrintInfo("Saved", fmt.Sprintf("%d/%d photos in %s", summary.Succeeded, summary.Total, cfg.Output.Directory))
		os.Exit(1)
	case errors.Is(err, album.ErrMetadataFetch):
		logger.WithError(err).Error("Album fetch failed")
		ui.PrintError("Could not fetch album", "the album may no longer be shared")
		os.Exit(1)
	default:
		logger.WithError(err).Error("Album fetch failed")
		ui.PrintError("FETCH FAILED", err.Error())
		os.Exit(1)
	}
}
