package main

import (
	"fmt"
	"os"

	"github.com/mikesmullin/slack/internal/config"
	"github.com/mikesmullin/slack/internal/logger"

	"github.com/spf13/cobra"
)

var (
	cfgFile string
	cfg     *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "slack",
	Short: "Offline-first local mailbox for Slack",
	Long:  `slack pulls unread Slack activity into a local content-addressed store and lets you read, search, and mark it offline.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(cmd)
		if err != nil {
			return err
		}

		logger.Setup(cfg.Log.Level)
		return nil
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.slack-inbox/config.yaml)")
	rootCmd.PersistentFlags().String("log.level", config.DefaultLogLevel, "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("storage.root", config.DefaultStorageRoot, "storage root directory")
}
