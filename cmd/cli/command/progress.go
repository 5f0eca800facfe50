package command

import (
	"fmt"
	"strings"

	"bookhub/cmd/cli/command/client"
	"bookhub/internal/microservices/http-api/dto"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

// progressCmd represents the progress command
var progressCmd = &cobra.Command{
	Use:   "progress",
	Short: "Manage book reading progress",
	Long:  `Record how far you are in a book. Finishing a book for the first time earns bonus points.`,
}

// progressUpdateCmd represents the progress update command
var progressUpdateCmd = &cobra.Command{
	Use:   "update",
	Short: "Update reading progress",
	RunE: func(cmd *cobra.Command, args []string) error {
		bookID, _ := cmd.Flags().GetString("book")
		percent, _ := cmd.Flags().GetFloat64("percent")
		if percent < 0 || percent > 100 {
			return fmt.Errorf("--percent must be between 0 and 100")
		}

		ctx, cancel := commandContext(cmd)
		defer cancel()

		var before *dto.RewardsResponse
		var progress *dto.ProgressResponse
		var after *dto.RewardsResponse
		err := withAuth(ctx, func(c *client.HTTPClient) error {
			var err error
			if before, err = c.MyRewards(ctx); err != nil {
				return err
			}
			if progress, err = c.UpdateProgress(ctx, bookID, percent); err != nil {
				return err
			}
			after, err = c.MyRewards(ctx)
			return err
		})
		if err != nil {
			return fmt.Errorf("progress update failed: %w", err)
		}

		success("Progress updated successfully!")
		printProgress(*progress)
		if gained := after.Points - before.Points; gained > 0 {
			color.Yellow("🏆 Book completed! +%d points (total %d, level %d)", gained, after.Points, after.Level)
		}
		return nil
	},
}

var progressListCmd = &cobra.Command{
	Use:   "list",
	Short: "List your reading progress",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := commandContext(cmd)
		defer cancel()

		var list *dto.ProgressListResponse
		err := withAuth(ctx, func(c *client.HTTPClient) error {
			var err error
			list, err = c.ListProgress(ctx)
			return err
		})
		if err != nil {
			return err
		}

		if len(list.Progress) == 0 {
			fmt.Println("No reading progress yet.")
			return nil
		}
		color.Cyan("Reading (%d)", len(list.Reading))
		for _, p := range list.Reading {
			printProgress(p)
		}
		color.Cyan("Completed (%d)", len(list.Completed))
		for _, p := range list.Completed {
			printProgress(p)
		}
		return nil
	},
}

var progressGetCmd = &cobra.Command{
	Use:   "get <book-id>",
	Short: "Show progress for one book",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := commandContext(cmd)
		defer cancel()

		var progress *dto.ProgressResponse
		err := withAuth(ctx, func(c *client.HTTPClient) error {
			var err error
			progress, err = c.GetProgress(ctx, args[0])
			return err
		})
		if err != nil {
			return err
		}
		printProgress(*progress)
		return nil
	},
}

func init() {
	progressCmd.AddCommand(progressUpdateCmd, progressListCmd, progressGetCmd)

	progressUpdateCmd.Flags().StringP("book", "b", "", "Book ID")
	progressUpdateCmd.Flags().Float64P("percent", "p", 0, "Percentage read, 0-100")
	progressUpdateCmd.MarkFlagRequired("book")
	progressUpdateCmd.MarkFlagRequired("percent")
}

func printProgress(p dto.ProgressResponse) {
	label := p.BookID
	if p.Book != nil && p.Book.Title != "" {
		label = p.Book.Title
	}
	fmt.Printf("  %-24s %s %3d%%  %s\n", label, progressBar(p.Percentage, 20), p.Percentage, p.Status)
}

// progressBar renders pct as a fixed width bar.
func progressBar(pct, width int) string {
	pct = max(0, min(100, pct))
	filled := pct * width / 100
	return "[" + strings.Repeat("#", filled) + strings.Repeat("-", width-filled) + "]"
}
