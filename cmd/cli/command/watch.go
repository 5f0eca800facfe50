package command

import (
	"fmt"
	"os"
	"os/signal"

	"bookhub/cmd/cli/command/client"
	feed "bookhub/internal/microservices/websocket"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

// watchCmd follows the live rewards feed until interrupted.
var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Follow your rewards as they happen",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
		defer stop()

		fmt.Println("Watching rewards feed, Ctrl+C to stop.")
		return withAuth(ctx, func(c *client.HTTPClient) error {
			return c.WatchFeed(ctx, printEvent)
		})
	},
}

func printEvent(e *feed.Event) {
	switch e.Type {
	case feed.TypePointsAwarded:
		color.Green("+%d points (%s): total %d, level %d", e.Amount, e.Reason, e.Points, e.Level)
	case feed.TypeLevelUp:
		color.Yellow("🎉 Level up! You reached level %d", e.Level)
	case feed.TypeLeaderboardChanged:
		color.Cyan("leaderboard updated")
	case feed.TypeSystem:
		fmt.Println(e.Content)
	}
}
