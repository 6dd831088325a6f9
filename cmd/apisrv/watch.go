package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/1mt4y/travelbuddy/pkg/client"
	"github.com/1mt4y/travelbuddy/pkg/config"
	"github.com/1mt4y/travelbuddy/pkg/log"
	"github.com/1mt4y/travelbuddy/pkg/models"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Follow a conversation and your badge counts from the terminal",
	Long: `Logs in against a running API and polls it: the conversation with --with
on the conversation interval, unread messages and pending join requests on
the badge interval. Intervals come from the server's client configuration.`,
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().String("api", "http://localhost:8080", "API base URL")
	watchCmd.Flags().String("email", "", "Account email (required)")
	watchCmd.Flags().String("password", "", "Account password (required)")
	watchCmd.Flags().String("with", "", "User ID whose conversation to follow")
	_ = watchCmd.MarkFlagRequired("email")
	_ = watchCmd.MarkFlagRequired("password")
}

func runWatch(cmd *cobra.Command, args []string) error {
	apiURL, _ := cmd.Flags().GetString("api")
	email, _ := cmd.Flags().GetString("email")
	password, _ := cmd.Flags().GetString("password")
	otherID, _ := cmd.Flags().GetString("with")

	logger, err := log.New(&config.LoggingConfig{Level: "info", Format: "text", Output: "stdout"})
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	api := client.New(apiURL, client.WithHTTPClient(&http.Client{Timeout: 10 * time.Second}))
	if _, err := api.Login(ctx, email, password); err != nil {
		return fmt.Errorf("login failed: %w", err)
	}

	cc, err := api.ClientConfig(ctx)
	if err != nil {
		return fmt.Errorf("failed to load client configuration: %w", err)
	}

	poller := client.NewPoller(logger)

	if otherID != "" {
		watcher := client.NewConversationWatcher(api, otherID, func(m models.Message) {
			fmt.Printf("[%s] %s: %s\n", m.CreatedAt.Local().Format("15:04:05"), m.SenderID, m.Content)
		})
		poller.Add(watcher.Job(time.Duration(cc.ConversationPollSeconds) * time.Second))
	}

	var last client.Badges
	first := true
	poller.Add(client.Job{
		Name:     "badges",
		Interval: time.Duration(cc.BadgePollSeconds) * time.Second,
		Run: func(ctx context.Context) error {
			badges, err := api.Badges(ctx)
			if err != nil {
				var apiErr *client.APIError
				if errors.As(err, &apiErr) {
					return fmt.Errorf("badge refresh rejected: %w", err)
				}
				return err
			}
			if first || badges != last {
				fmt.Printf("unread messages: %d, pending join requests: %d\n", badges.UnreadMessages, badges.PendingRequests)
			}
			first = false
			last = badges
			return nil
		},
	})

	if err := poller.Start(ctx); err != nil {
		return err
	}

	<-ctx.Done()
	poller.Stop()
	return nil
}
