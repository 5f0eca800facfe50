package service

import (
	"context"
	"log/slog"

	"bookhub/internal/microservices/http-api/models"
	"bookhub/internal/microservices/http-api/repository"
	"bookhub/internal/rewards"
)

type QuizService interface {
	GetQuiz(ctx context.Context, bookID string) (*models.Quiz, error)
	// UpsertQuiz replaces the quiz of an existing book.
	UpsertQuiz(ctx context.Context, bookID string, questions []rewards.Question) (*models.Quiz, error)
}

type quizService struct {
	store repository.Store
}

func NewQuizService(store repository.Store) QuizService {
	return &quizService{store: store}
}

func (s *quizService) GetQuiz(ctx context.Context, bookID string) (*models.Quiz, error) {
	if bookID == "" {
		return nil, invalid("book id is required")
	}
	quiz, err := s.store.Quizzes().GetByBook(ctx, bookID)
	if err != nil {
		return nil, notFound(err, "quiz for book "+bookID)
	}
	return quiz, nil
}

func (s *quizService) UpsertQuiz(ctx context.Context, bookID string, questions []rewards.Question) (*models.Quiz, error) {
	if bookID == "" {
		return nil, invalid("book id is required")
	}
	if err := validateQuestions(questions); err != nil {
		return nil, err
	}
	exists, err := s.store.Books().Exists(ctx, bookID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, ErrUnknownBook
	}

	quiz := &models.Quiz{BookID: bookID, Questions: questions}
	if err := s.store.Quizzes().Upsert(ctx, quiz); err != nil {
		return nil, err
	}
	slog.Info("quiz_upserted", "book_id", bookID, "questions", len(questions))
	return quiz, nil
}

func validateQuestions(questions []rewards.Question) error {
	if len(questions) == 0 {
		return invalid("a quiz needs at least one question")
	}
	for i, q := range questions {
		if q.Prompt == "" {
			return invalid("question %d has no prompt", i)
		}
		if len(q.Options) < 2 {
			return invalid("question %d needs at least two options", i)
		}
		if q.AnswerIndex != nil && (*q.AnswerIndex < 0 || *q.AnswerIndex >= len(q.Options)) {
			return invalid("question %d answer index %d is out of range", i, *q.AnswerIndex)
		}
		if q.Points < 0 {
			return invalid("question %d has negative points", i)
		}
	}
	return nil
}
