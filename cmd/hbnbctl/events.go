package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os/signal"
	"syscall"

	"hbnb/internal/cache"
	"hbnb/internal/notifications"

	"github.com/spf13/cobra"
)

func (c *cli) eventsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "events",
		Short: "Inspect entity change events",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "tail",
		Short: "Print change events as JSON lines until interrupted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rdb := cache.InitRedis(c.cfg.RedisURL)
			if rdb == nil {
				return errors.New("events need REDIS_URL to be set and reachable")
			}
			defer rdb.Close()

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			out := cmd.OutOrStdout()
			enc := json.NewEncoder(out)
			err := notifications.NewNotifier(rdb).Subscribe(ctx, func(ev notifications.Event) {
				_ = enc.Encode(ev)
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "listening on %s\n", notifications.EventsChannel)
			<-ctx.Done()
			if errors.Is(ctx.Err(), context.Canceled) {
				return nil
			}
			return ctx.Err()
		},
	})
	return cmd
}
