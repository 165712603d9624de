package main

import (
	"fmt"
	"strings"

	apperrors "github.com/mikesmullin/slack/internal/errors"
	"github.com/mikesmullin/slack/internal/render"
	"github.com/mikesmullin/slack/internal/rescache"

	"github.com/spf13/cobra"
)

var resolveCmd = &cobra.Command{
	Use:   "resolve",
	Short: "Resolve user and channel IDs through the local cache",
}

var resolveUserCmd = &cobra.Command{
	Use:   "user <id>",
	Short: "Resolve one user ID (fetches and caches on miss)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		offline, _ := cmd.Flags().GetBool("offline")
		cache, err := newCache(!offline)
		if err != nil {
			return err
		}
		profile, err := cache.ResolveUser(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		return printYAML(profile)
	},
}

var resolveChannelCmd = &cobra.Command{
	Use:   "channel <id>",
	Short: "Resolve one channel ID (fetches and caches on miss)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		offline, _ := cmd.Flags().GetBool("offline")
		cache, err := newCache(!offline)
		if err != nil {
			return err
		}
		profile, err := cache.ResolveChannel(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		return printYAML(profile)
	},
}

var resolveUsersCmd = &cobra.Command{
	Use:   "users",
	Short: "List all cached users",
	RunE: func(cmd *cobra.Command, args []string) error {
		profiles, err := offlineCache().Users()
		if err != nil {
			return err
		}
		fmt.Println(render.NewFormatter().FormatProfiles(profiles,
			[]string{"Name", "Real name", "Email"},
			[]string{"name", "real_name", "profile.email"}))
		return nil
	},
}

var resolveChannelsCmd = &cobra.Command{
	Use:   "channels",
	Short: "List all cached channels",
	RunE: func(cmd *cobra.Command, args []string) error {
		profiles, err := offlineCache().Channels()
		if err != nil {
			return err
		}
		fmt.Println(render.NewFormatter().FormatProfiles(profiles,
			[]string{"Name", "Topic"},
			[]string{"name", "topic.value"}))
		return nil
	},
}

var resolveNameCmd = &cobra.Command{
	Use:   "name <@user|#channel>",
	Short: "Look up a cached profile by name",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cache := offlineCache()

		if strings.HasPrefix(args[0], "#") {
			profile, ok := cache.ChannelByName(args[0])
			if !ok {
				return apperrors.NotFound("no cached channel named " + args[0])
			}
			return printYAML(profile)
		}
		profile, ok := cache.UserByName(args[0])
		if !ok {
			return apperrors.NotFound("no cached user named " + args[0])
		}
		return printYAML(profile)
	},
}

var resolveFindCmd = &cobra.Command{
	Use:   "find <keyword>",
	Short: "Search cached users and channels by keyword",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cache := offlineCache()

		users, err := cache.FindUsers(args[0])
		if err != nil {
			return err
		}
		channels, err := cache.FindChannels(args[0])
		if err != nil {
			return err
		}
		return printYAML(map[string][]rescache.Profile{
			"users":    users,
			"channels": channels,
		})
	},
}

func init() {
	rootCmd.AddCommand(resolveCmd)
	resolveCmd.AddCommand(resolveUserCmd, resolveChannelCmd, resolveUsersCmd,
		resolveChannelsCmd, resolveNameCmd, resolveFindCmd)

	for _, c := range []*cobra.Command{resolveUserCmd, resolveChannelCmd} {
		c.Flags().Bool("offline", false, "serve from cache only, never fetch")
	}
}
