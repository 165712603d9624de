package main

import (
	"fmt"

	"github.com/mikesmullin/slack/internal/pull"
	"github.com/mikesmullin/slack/internal/render"

	"github.com/spf13/cobra"
)

var pullCmd = &cobra.Command{
	Use:   "pull",
	Short: "Fetch unread Slack activity into the local store",
	RunE: func(cmd *cobra.Command, args []string) error {
		opts, err := pullOptions(cmd)
		if err != nil {
			return err
		}

		client, err := newClient()
		if err != nil {
			return err
		}
		s, err := openStore()
		if err != nil {
			return err
		}

		result, err := pull.New(client, s).Run(cmd.Context(), opts)
		if err != nil {
			return err
		}

		out, err := render.YAML(result)
		if err != nil {
			return err
		}
		fmt.Print(out)
		return nil
	},
}

func pullOptions(cmd *cobra.Command) (pull.Options, error) {
	opts := pull.Options{Limit: cfg.Pull.Limit}

	sinceFlag, _ := cmd.Flags().GetString("since")
	if sinceFlag == "" {
		sinceFlag = cfg.Pull.Since
	}
	if sinceFlag != "" {
		since, err := pull.ParseSince(sinceFlag)
		if err != nil {
			return opts, err
		}
		opts.Since = since
	}

	if limit, _ := cmd.Flags().GetInt("limit"); limit > 0 {
		opts.Limit = limit
	}
	opts.Type, _ = cmd.Flags().GetString("type")
	opts.ChannelID, _ = cmd.Flags().GetString("channel")
	return opts, nil
}

func init() {
	rootCmd.AddCommand(pullCmd)
	pullCmd.Flags().String("since", "", "cutoff date (YYYY-MM-DD, yesterday, N days ago)")
	pullCmd.Flags().Int("limit", 0, "max events per conversation")
	pullCmd.Flags().String("type", "", "restrict to one category (channels, dms, threads, mentions)")
	pullCmd.Flags().String("channel", "", "pull only one conversation ID")
}
