package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/facilita/notifier/internal/bridge"
	"github.com/facilita/notifier/internal/config"
	"github.com/facilita/notifier/internal/inbox"
	"github.com/facilita/notifier/internal/render"
)

// NewNotificationsCmd returns the "notifications" command group that reads
// and manages the stored session's notifications without a live connection.
func NewNotificationsCmd(cfg *config.AppConfig) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "notifications",
		Aliases: []string{"n"},
		Short:   "List, read and delete notifications",
		Long: `List, read and delete notifications of the logged-in user. A notification
is referenced by its position in the list (1 is the newest) or by its id.`,
	}
	cmd.AddCommand(
		newNotificationsListCmd(cfg),
		newNotificationsReadCmd(cfg),
		newNotificationsReadAllCmd(cfg),
		newNotificationsDeleteCmd(cfg),
	)
	return cmd
}

// withBell opens the client session, seeds an inbox from the API and hands
// both to fn.
func withBell(ctx context.Context, cfg *config.AppConfig, fn func(*bell) error) error {
	env, err := openClientEnv(ctx, cfg)
	if err != nil {
		return err
	}
	defer env.Close()
	if err := env.requireLogin(); err != nil {
		return err
	}

	list, err := env.api.ListNotifications(ctx, bridge.FetchLimit, 0)
	if err != nil {
		return fmt.Errorf("loading notifications: %w", err)
	}
	unread, err := env.api.UnreadCount(ctx)
	if err != nil {
		return fmt.Errorf("loading unread count: %w", err)
	}

	in := inbox.NewStore()
	in.SetNotifications(list)
	in.SetUnreadCount(unread)
	return fn(&bell{api: env.api, inbox: in})
}

func printUnread(cmd *cobra.Command, in *inbox.Store) {
	fmt.Fprintf(cmd.OutOrStdout(), "%d unread\n", in.Snapshot().RemoteUnread)
}

func newNotificationsListCmd(cfg *config.AppConfig) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List the newest notifications",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withBell(cmd.Context(), cfg, func(b *bell) error {
				st := b.inbox.Snapshot()
				if len(st.Notifications) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "No notifications.")
					return nil
				}
				fmt.Fprintln(cmd.OutOrStdout(), render.Notifications(st.Notifications, time.Now()))
				printUnread(cmd, b.inbox)
				return nil
			})
		},
	}
}

func newNotificationsReadCmd(cfg *config.AppConfig) *cobra.Command {
	return &cobra.Command{
		Use:   "read <n|id>...",
		Short: "Mark notifications as read",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withBell(cmd.Context(), cfg, func(b *bell) error {
				// Resolve every position up front; marking does not reorder.
				ids := make([]string, len(args))
				for i, ref := range args {
					ids[i] = b.resolve(ref)
				}
				for _, id := range ids {
					if err := b.markRead(cmd.Context(), id); err != nil {
						return err
					}
					fmt.Fprintf(cmd.OutOrStdout(), "Marked %s as read.\n", id)
				}
				printUnread(cmd, b.inbox)
				return nil
			})
		},
	}
}

func newNotificationsReadAllCmd(cfg *config.AppConfig) *cobra.Command {
	return &cobra.Command{
		Use:   "read-all",
		Short: "Mark every notification as read",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withBell(cmd.Context(), cfg, func(b *bell) error {
				if err := b.markAllRead(cmd.Context()); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "All notifications marked as read.")
				printUnread(cmd, b.inbox)
				return nil
			})
		},
	}
}

func newNotificationsDeleteCmd(cfg *config.AppConfig) *cobra.Command {
	return &cobra.Command{
		Use:     "delete <n|id>...",
		Aliases: []string{"rm"},
		Short:   "Delete notifications",
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withBell(cmd.Context(), cfg, func(b *bell) error {
				// Positions refer to the list before any deletion.
				ids := make([]string, len(args))
				for i, ref := range args {
					ids[i] = b.resolve(ref)
				}
				for _, id := range ids {
					if err := b.remove(cmd.Context(), id); err != nil {
						return err
					}
					fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s.\n", id)
				}
				printUnread(cmd, b.inbox)
				return nil
			})
		},
	}
}
