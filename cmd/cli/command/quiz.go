package command

import (
	"fmt"
	"strconv"
	"strings"

	"bookhub/cmd/cli/command/client"
	"bookhub/internal/microservices/http-api/dto"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var quizCmd = &cobra.Command{
	Use:   "quiz",
	Short: "Book quizzes",
	Long:  `Show a book's quiz and submit answers. A perfect score earns 30 bonus points.`,
}

var quizShowCmd = &cobra.Command{
	Use:   "show <book-id>",
	Short: "Show the questions of a book's quiz",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := commandContext(cmd)
		defer cancel()

		quiz, err := client.NewHTTPClient(apiURL).GetQuiz(ctx, args[0])
		if err != nil {
			return err
		}

		color.Cyan("Quiz for %s (%d points)", quiz.BookID, quiz.TotalPoints)
		for i, q := range quiz.Questions {
			fmt.Printf("\n%d. %s (%d pts)\n", i+1, q.Prompt, q.Points)
			for j, opt := range q.Options {
				fmt.Printf("   [%d] %s\n", j, opt)
			}
		}
		fmt.Printf("\nSubmit with: bookhub quiz submit %s --answers 0,1,...\n", quiz.BookID)
		return nil
	},
}

var quizSubmitCmd = &cobra.Command{
	Use:   "submit <book-id>",
	Short: "Submit answers to a book's quiz",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		raw, _ := cmd.Flags().GetString("answers")
		answers, err := parseAnswers(raw)
		if err != nil {
			return err
		}

		ctx, cancel := commandContext(cmd)
		defer cancel()

		var result *dto.SubmitQuizResponse
		err = withAuth(ctx, func(c *client.HTTPClient) error {
			var err error
			result, err = c.SubmitQuiz(ctx, args[0], answers)
			return err
		})
		if err != nil {
			return fmt.Errorf("quiz submission failed: %w", err)
		}

		success("%s", result.Message)
		fmt.Printf("Total points: %d, level %d\n", result.Points, result.Level)
		return nil
	},
}

func init() {
	quizCmd.AddCommand(quizShowCmd, quizSubmitCmd)

	quizSubmitCmd.Flags().StringP("answers", "a", "", "Comma separated option indexes, '-' to skip a question")
	quizSubmitCmd.MarkFlagRequired("answers")
}

// parseAnswers turns "0,2,-,1" into answer slots. "-" or an empty item
// leaves the question unanswered.
func parseAnswers(raw string) ([]*int, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}
	parts := strings.Split(raw, ",")
	answers := make([]*int, 0, len(parts))
	for i, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" || part == "-" {
			answers = append(answers, nil)
			continue
		}
		n, err := strconv.Atoi(part)
		if err != nil || n < 0 {
			return nil, fmt.Errorf("answer %d: %q is not an option index", i+1, part)
		}
		answers = append(answers, &n)
	}
	return answers, nil
}
