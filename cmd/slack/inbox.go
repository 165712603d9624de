package main

import (
	"fmt"

	"github.com/mikesmullin/slack/internal/pull"
	"github.com/mikesmullin/slack/internal/readstate"
	"github.com/mikesmullin/slack/internal/remote"
	"github.com/mikesmullin/slack/internal/render"
	"github.com/mikesmullin/slack/internal/store"

	"github.com/spf13/cobra"
)

var inboxCmd = &cobra.Command{
	Use:   "inbox",
	Short: "Read and manage the local mailbox",
}

var inboxListCmd = &cobra.Command{
	Use:   "list",
	Short: "List unread events (use --all to include read)",
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openStore()
		if err != nil {
			return err
		}

		filter, err := listFilter(cmd)
		if err != nil {
			return err
		}
		records, err := s.List(filter)
		if err != nil {
			return err
		}

		fmt.Println(render.NewFormatter().FormatRecords(records, offlineCache()))
		return nil
	},
}

var inboxViewCmd = &cobra.Command{
	Use:   "view <id>",
	Short: "Show one event in full",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openStore()
		if err != nil {
			return err
		}

		hash, err := s.ResolveKey(args[0])
		if err != nil {
			return err
		}
		rec, err := s.Get(hash)
		if err != nil {
			return err
		}

		fmt.Println(render.NewFormatter().FormatRecord(rec, offlineCache()))
		return nil
	},
}

var inboxReadCmd = &cobra.Command{
	Use:   "read <id>",
	Short: "Mark one event read, mirroring the cursor to Slack",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		offlineOnly, _ := cmd.Flags().GetBool("offline-only")
		m, err := newManager(offlineOnly)
		if err != nil {
			return err
		}
		result, err := m.MarkRead(cmd.Context(), args[0], offlineOnly)
		if err != nil {
			return err
		}
		return printYAML(result)
	},
}

var inboxUnreadCmd = &cobra.Command{
	Use:   "unread <id>",
	Short: "Mark one event unread locally",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openStore()
		if err != nil {
			return err
		}
		result, err := readstate.New(s, nil).MarkUnread(args[0])
		if err != nil {
			return err
		}
		return printYAML(result)
	},
}

var inboxMarkThreadCmd = &cobra.Command{
	Use:   "mark-thread <id>",
	Short: "Mark a whole thread read",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		offlineOnly, _ := cmd.Flags().GetBool("offline-only")
		m, err := newManager(offlineOnly)
		if err != nil {
			return err
		}
		result, err := m.MarkThread(cmd.Context(), args[0], offlineOnly)
		if err != nil {
			return err
		}
		return printYAML(result)
	},
}

var inboxMarkChannelCmd = &cobra.Command{
	Use:   "mark-channel <channel>",
	Short: "Mark every stored event of a channel read",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		offlineOnly, _ := cmd.Flags().GetBool("offline-only")
		m, err := newManager(offlineOnly)
		if err != nil {
			return err
		}
		result, err := m.MarkChannel(cmd.Context(), resolveChannelArg(args[0]), offlineOnly)
		if err != nil {
			return err
		}
		return printYAML(result)
	},
}

var inboxSummaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Show counts by event type and read state",
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openStore()
		if err != nil {
			return err
		}
		records, err := s.List(store.Filter{})
		if err != nil {
			return err
		}
		fmt.Println(render.NewFormatter().FormatSummary(records))
		return nil
	},
}

func listFilter(cmd *cobra.Command) (store.Filter, error) {
	all, _ := cmd.Flags().GetBool("all")
	filter := store.Filter{UnreadOnly: !all}

	filter.Type, _ = cmd.Flags().GetString("type")
	channel, _ := cmd.Flags().GetString("channel")
	filter.ChannelID = resolveChannelArg(channel)

	if sinceFlag, _ := cmd.Flags().GetString("since"); sinceFlag != "" {
		since, err := pull.ParseSince(sinceFlag)
		if err != nil {
			return filter, err
		}
		filter.Since = since
	}
	return filter, nil
}

// resolveChannelArg turns a "#name" argument into a channel ID via the
// local cache. IDs and unknown names pass through unchanged.
func resolveChannelArg(arg string) string {
	if arg == "" || arg[0] != '#' {
		return arg
	}
	if profile, ok := offlineCache().ChannelByName(arg); ok {
		if id, ok := profile["id"].(string); ok && id != "" {
			return id
		}
	}
	return arg
}

// newManager wires the read-state manager. Mirroring needs a client, but a
// missing token degrades to offline-only rather than failing the mark.
func newManager(offlineOnly bool) (*readstate.Manager, error) {
	s, err := openStore()
	if err != nil {
		return nil, err
	}
	var marker remote.Marker
	if !offlineOnly && cfg.Remote.Token != "" {
		client, err := newClient()
		if err != nil {
			return nil, err
		}
		marker = client
	}
	return readstate.New(s, marker), nil
}

func printYAML(v interface{}) error {
	out, err := render.YAML(v)
	if err != nil {
		return err
	}
	fmt.Print(out)
	return nil
}

func init() {
	rootCmd.AddCommand(inboxCmd)
	inboxCmd.AddCommand(inboxListCmd, inboxViewCmd, inboxReadCmd, inboxUnreadCmd,
		inboxMarkThreadCmd, inboxMarkChannelCmd, inboxSummaryCmd)

	inboxListCmd.Flags().Bool("all", false, "include already-read events")
	inboxListCmd.Flags().String("type", "", "filter by category (channels, dms, threads, mentions)")
	inboxListCmd.Flags().String("channel", "", "filter by channel ID or #name")
	inboxListCmd.Flags().String("since", "", "cutoff date (YYYY-MM-DD, yesterday, N days ago)")

	for _, c := range []*cobra.Command{inboxReadCmd, inboxMarkThreadCmd, inboxMarkChannelCmd} {
		c.Flags().Bool("offline-only", false, "skip mirroring the read cursor to Slack")
	}
}
