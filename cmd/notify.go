package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/facilita/notifier/internal/config"
	"github.com/facilita/notifier/internal/model"
)

// NewNotifyCmd returns the "notify" subcommand that publishes a content
// lifecycle event through the REST API.
func NewNotifyCmd(cfg *config.AppConfig) *cobra.Command {
	var (
		ev         model.ContentEvent
		evType     string
		entityType string
		file       string
	)

	cmd := &cobra.Command{
		Use:   "notify",
		Short: "Publish a content event to its recipients",
		Long: `Publish a content lifecycle event. Every recipient gets a notification in
their bell and, when offline, an email if the server has SMTP configured.

Examples:
  facilita notify --type CONTENT_SHARED --entity-type LINK --entity-id 42 \
    --message "Ana compartilhou um link com você" --to <user-id>
  facilita notify --file event.yaml`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if file != "" {
				loaded, err := loadContentEvent(file)
				if err != nil {
					return err
				}
				ev = loaded
			} else {
				ev.Type = model.NotificationType(evType)
				ev.EntityType = model.EntityType(entityType)
			}

			env, err := openClientEnv(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer env.Close()
			if err := env.requireLogin(); err != nil {
				return err
			}

			if err := env.api.PublishContentEvent(cmd.Context(), ev); err != nil {
				return fmt.Errorf("publishing event: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Event %s accepted for %d recipient(s).\n", ev.Type, len(ev.Recipients))
			return nil
		},
	}

	cmd.Flags().StringVar(&evType, "type", "", "Notification type, e.g. CONTENT_SHARED")
	cmd.Flags().StringVar(&entityType, "entity-type", "", "Entity type: LINK, SCHEDULE or NOTE")
	cmd.Flags().StringVar(&ev.EntityID, "entity-id", "", "Entity id")
	cmd.Flags().StringVar(&ev.Title, "title", "", "Title (defaults per type)")
	cmd.Flags().StringVar(&ev.Message, "message", "", "Message")
	cmd.Flags().StringVar(&ev.ActionURL, "action-url", "", "Link opened from the notification")
	cmd.Flags().StringSliceVar(&ev.Recipients, "to", nil, "Recipient user ids")
	cmd.Flags().StringVarP(&file, "file", "f", "", "YAML file describing the event")
	cmd.MarkFlagsMutuallyExclusive("file", "type")
	return cmd
}

func loadContentEvent(path string) (model.ContentEvent, error) {
	var ev model.ContentEvent
	raw, err := os.ReadFile(path) //nolint:gosec // path is provided by the operator
	if err != nil {
		return ev, fmt.Errorf("reading %s: %w", path, err)
	}
	if err := yaml.Unmarshal(raw, &ev); err != nil {
		return ev, fmt.Errorf("parsing %s: %w", path, err)
	}
	return ev, nil
}
