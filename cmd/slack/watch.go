package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/mikesmullin/slack/internal/pull"
	"github.com/mikesmullin/slack/internal/watch"

	"github.com/spf13/cobra"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Pull on a schedule and run rule commands on new events",
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newClient()
		if err != nil {
			return err
		}
		s, err := openStore()
		if err != nil {
			return err
		}
		rules, err := watch.CompileRules(cfg.Watch.Rules)
		if err != nil {
			return err
		}

		interval, _ := cmd.Flags().GetString("interval")
		if interval == "" {
			interval = cfg.Watch.Interval
		}

		opts := pull.Options{Limit: cfg.Pull.Limit}
		if cfg.Pull.Since != "" {
			since, err := pull.ParseSince(cfg.Pull.Since)
			if err != nil {
				return err
			}
			opts.Since = since
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		err = watch.New(pull.New(client, s), s, rules, opts).Run(ctx, interval)
		if err == context.Canceled {
			return nil
		}
		return err
	},
}

func init() {
	rootCmd.AddCommand(watchCmd)
	watchCmd.Flags().String("interval", "", "pull schedule in cron or @every syntax")
}
