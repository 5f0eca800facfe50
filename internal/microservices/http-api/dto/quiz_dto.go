package dto

import (
	"bookhub/internal/microservices/http-api/models"
	"bookhub/internal/rewards"
)

type QuestionRequest struct {
	Prompt      string   `json:"prompt" binding:"required"`
	Options     []string `json:"options" binding:"required,min=2"`
	AnswerIndex *int     `json:"answer_index"`
	Points      int      `json:"points" binding:"min=0"`
}

type UpsertQuizRequest struct {
	BookID    string            `json:"book_id" binding:"required"`
	Questions []QuestionRequest `json:"questions" binding:"required,min=1,dive"`
}

func (r UpsertQuizRequest) ToQuestions() []rewards.Question {
	out := make([]rewards.Question, 0, len(r.Questions))
	for _, q := range r.Questions {
		out = append(out, rewards.Question{
			Prompt:      q.Prompt,
			Options:     q.Options,
			AnswerIndex: q.AnswerIndex,
			Points:      q.Points,
		})
	}
	return out
}

// SubmitQuizRequest carries one answer slot per question; null leaves it unanswered.
type SubmitQuizRequest struct {
	BookID  string `json:"book_id" binding:"required"`
	Answers []*int `json:"answers"`
}

type SubmitQuizResponse struct {
	Score       int    `json:"score"`
	Total       int    `json:"total"`
	BonusPoints int    `json:"bonus_points"`
	Points      int    `json:"points"`
	Level       int    `json:"level"`
	Message     string `json:"message"`
}

// QuestionResponse never carries the answer.
type QuestionResponse struct {
	Prompt  string   `json:"prompt"`
	Options []string `json:"options"`
	Points  int      `json:"points"`
}

type QuizResponse struct {
	ID          string             `json:"id"`
	BookID      string             `json:"book_id"`
	Questions   []QuestionResponse `json:"questions"`
	TotalPoints int                `json:"total_points"`
}

func NewQuizResponse(q *models.Quiz) QuizResponse {
	questions := make([]QuestionResponse, 0, len(q.Questions))
	for _, question := range q.Questions {
		questions = append(questions, QuestionResponse{
			Prompt:  question.Prompt,
			Options: question.Options,
			Points:  question.PointValue(),
		})
	}
	return QuizResponse{ID: q.ID, BookID: q.BookID, Questions: questions, TotalPoints: q.TotalPoints()}
}
