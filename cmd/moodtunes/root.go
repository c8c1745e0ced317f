package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/justestif/go-moodtunes/internal/config"
)

var envFile string

var rootCmd = &cobra.Command{
	Use:   "moodtunes",
	Short: "Suggest songs that match the emotion on your face",
	Long: `MoodTunes serves a page that captures a webcam frame, detects the
visitor's facial emotion with a Haar cascade and a small CNN, and searches
YouTube or Spotify for songs whose mood matches.`,
	SilenceUsage: true,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", "", "Load environment from this file instead of .env")
}

func initConfig() {
	// .env file is optional, don't fail if not found
	if envFile != "" {
		config.LoadDotEnv(envFile)
		return
	}
	config.LoadDotEnv()
}
