package command

import (
	"fmt"
	"os"

	"bookhub/cmd/cli/command/client"
	"bookhub/internal/microservices/http-api/dto"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var rewardsCmd = &cobra.Command{
	Use:   "rewards",
	Short: "Show your points, level and badges",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := commandContext(cmd)
		defer cancel()

		var rw *dto.RewardsResponse
		err := withAuth(ctx, func(c *client.HTTPClient) error {
			var err error
			rw, err = c.MyRewards(ctx)
			return err
		})
		if err != nil {
			return err
		}

		color.Cyan("Level %d", rw.Level)
		fmt.Printf("Points: %d (next level at %d)\n", rw.Points, rw.Level*100)
		if len(rw.Badges) > 0 {
			fmt.Printf("Badges: %v\n", rw.Badges)
		}
		return nil
	},
}

var leaderboardCmd = &cobra.Command{
	Use:   "leaderboard",
	Short: "Show the top readers",
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")

		ctx, cancel := commandContext(cmd)
		defer cancel()

		board, err := client.NewHTTPClient(apiURL).Leaderboard(ctx, limit)
		if err != nil {
			return err
		}
		if len(board.Users) == 0 {
			fmt.Println("Nobody has earned points yet.")
			return nil
		}

		fmt.Printf("%-5s %-20s %8s %6s\n", "RANK", "READER", "POINTS", "LEVEL")
		for _, u := range board.Users {
			line := fmt.Sprintf("%-5d %-20s %8d %6d", u.Rank, u.Name, u.Points, u.Level)
			if u.Rank <= 3 {
				color.Yellow("%s", line)
				continue
			}
			fmt.Println(line)
		}
		return nil
	},
}

var adminCmd = &cobra.Command{
	Use:   "admin",
	Short: "Administrative commands (admin accounts only)",
}

var adminAwardCmd = &cobra.Command{
	Use:   "award",
	Short: "Credit points to a user by hand",
	RunE: func(cmd *cobra.Command, args []string) error {
		userID, _ := cmd.Flags().GetString("user")
		amount, _ := cmd.Flags().GetInt("amount")

		ctx, cancel := commandContext(cmd)
		defer cancel()

		var rw *dto.RewardsResponse
		err := withAuth(ctx, func(c *client.HTTPClient) error {
			var err error
			rw, err = c.AwardPoints(ctx, userID, amount)
			return err
		})
		if err != nil {
			return err
		}
		success("User %s now has %d points (level %d)", userID, rw.Points, rw.Level)
		return nil
	},
}

// quizFile is the YAML layout accepted by `admin quiz`.
type quizFile struct {
	BookID    string `yaml:"book_id"`
	Questions []struct {
		Prompt  string   `yaml:"prompt"`
		Options []string `yaml:"options"`
		Answer  *int     `yaml:"answer"`
		Points  int      `yaml:"points"`
	} `yaml:"questions"`
}

func loadQuizFile(path string) (*dto.UpsertQuizRequest, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var f quizFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	req := &dto.UpsertQuizRequest{BookID: f.BookID}
	for _, q := range f.Questions {
		req.Questions = append(req.Questions, dto.QuestionRequest{
			Prompt:      q.Prompt,
			Options:     q.Options,
			AnswerIndex: q.Answer,
			Points:      q.Points,
		})
	}
	return req, nil
}

var adminQuizCmd = &cobra.Command{
	Use:   "quiz",
	Short: "Create or replace a book quiz from a YAML file",
	RunE: func(cmd *cobra.Command, args []string) error {
		path, _ := cmd.Flags().GetString("file")
		req, err := loadQuizFile(path)
		if err != nil {
			return err
		}

		ctx, cancel := commandContext(cmd)
		defer cancel()

		var quiz *dto.QuizResponse
		err = withAuth(ctx, func(c *client.HTTPClient) error {
			var err error
			quiz, err = c.UpsertQuiz(ctx, req)
			return err
		})
		if err != nil {
			return err
		}
		success("Quiz for %s saved with %d questions (%d points)", quiz.BookID, len(quiz.Questions), quiz.TotalPoints)
		return nil
	},
}

func init() {
	leaderboardCmd.Flags().IntP("limit", "n", 10, "Number of readers to show")

	adminCmd.AddCommand(adminAwardCmd, adminQuizCmd)
	adminAwardCmd.Flags().String("user", "", "User ID")
	adminAwardCmd.Flags().Int("amount", 0, "Points to credit")
	adminAwardCmd.MarkFlagRequired("user")
	adminAwardCmd.MarkFlagRequired("amount")

	adminQuizCmd.Flags().StringP("file", "f", "", "Quiz YAML file")
	adminQuizCmd.MarkFlagRequired("file")
}
