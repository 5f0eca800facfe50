package service

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"time"

	"bookhub/internal/microservices/http-api/models"
	"bookhub/internal/microservices/http-api/repository"
	"bookhub/internal/rewards"
	"bookhub/pkg/metrics"
)

type ProgressService interface {
	// UpdateProgress records how far the user got and pays the completion
	// bonus the first time the book reaches 100%.
	UpdateProgress(ctx context.Context, userID, bookID string, percentage float64) (*models.Progress, error)
	// SubmitQuiz grades answers against the book's quiz and credits the bonus.
	SubmitQuiz(ctx context.Context, userID, bookID string, answers []*int) (*QuizResult, error)
	ListProgress(ctx context.Context, userID string) ([]models.Progress, error)
	GetProgress(ctx context.Context, userID, bookID string) (*models.Progress, error)
}

// QuizResult is the outcome of one quiz submission.
type QuizResult struct {
	Score   int
	Total   int
	Bonus   int
	Rewards *models.Rewards
}

type progressService struct {
	store   repository.Store
	ledger  *Ledger
	metrics *metrics.Recorder
	now     func() time.Time
}

func NewProgressService(store repository.Store, ledger *Ledger, m *metrics.Recorder) ProgressService {
	return &progressService{
		store:   store,
		ledger:  ledger,
		metrics: m,
		now:     time.Now,
	}
}

func (s *progressService) UpdateProgress(ctx context.Context, userID, bookID string, percentage float64) (*models.Progress, error) {
	if userID == "" || bookID == "" {
		return nil, invalid("user id and book id are required")
	}
	if math.IsNaN(percentage) || percentage < 0 || percentage > 100 {
		return nil, invalid("percentage must be between 0 and 100, got %v", percentage)
	}
	exists, err := s.store.Books().Exists(ctx, bookID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, ErrUnknownBook
	}

	var (
		result  *models.Progress
		awarded *models.Rewards
	)
	err = inTx(ctx, s.store, s.ledger.policy, s.metrics, "update progress", func(tx repository.Store) error {
		awarded = nil
		cur, err := tx.Progress().GetForUpdate(ctx, userID, bookID)
		if err != nil {
			return notFound(err, "user "+userID)
		}
		t, err := rewards.Advance(cur.State(), percentage)
		if err != nil {
			return invalid("%v", err)
		}
		if !t.Changed {
			result = cur
			return nil
		}

		now := s.now()
		next := &models.Progress{
			UserID:     userID,
			BookID:     bookID,
			Percentage: t.Percentage,
			Status:     t.To.String(),
			UpdatedAt:  now,
		}
		if t.Completes() {
			next.CompletedAt = &now
		}
		if cur == nil {
			next.CreatedAt = now
			err = tx.Progress().Insert(ctx, next)
		} else {
			next.CreatedAt = cur.CreatedAt
			err = tx.Progress().Update(ctx, next)
		}
		if err != nil {
			return notFound(err, "user "+userID)
		}

		if t.Award > 0 {
			rw, err := s.ledger.credit(ctx, tx, userID, t.Award)
			if err != nil {
				return err
			}
			awarded = rw
		}
		result = next
		return nil
	})
	if err != nil {
		return nil, err
	}

	if awarded != nil {
		s.metrics.BookCompleted()
		slog.Info("progress_completed", "user_id", userID, "book_id", bookID)
		s.ledger.committed(ctx, userID, rewards.CompletionBonus, metrics.ReasonCompletion, awarded)
	}
	return result, nil
}

func (s *progressService) SubmitQuiz(ctx context.Context, userID, bookID string, answers []*int) (*QuizResult, error) {
	if userID == "" || bookID == "" {
		return nil, invalid("user id and book id are required")
	}
	quiz, err := s.store.Quizzes().GetByBook(ctx, bookID)
	if err != nil {
		return nil, notFound(err, "quiz for book "+bookID)
	}

	grade := rewards.GradeSubmission(quiz.Questions, answers)
	result := &QuizResult{Score: grade.Score, Total: grade.Total, Bonus: grade.Bonus()}
	s.metrics.QuizSubmitted()

	if result.Bonus == 0 {
		result.Rewards, err = s.ledger.GetRewards(ctx, userID)
	} else {
		result.Rewards, err = s.ledger.award(ctx, userID, result.Bonus, metrics.ReasonQuiz)
	}
	if err != nil {
		return nil, err
	}
	slog.Info("quiz_graded", "user_id", userID, "book_id", bookID,
		"score", result.Score, "total", result.Total, "bonus", result.Bonus)
	return result, nil
}

func (s *progressService) ListProgress(ctx context.Context, userID string) ([]models.Progress, error) {
	if userID == "" {
		return nil, invalid("user id is required")
	}
	list, err := s.store.Progress().ListByUser(ctx, userID)
	if err != nil {
		return nil, notFound(err, "user "+userID)
	}
	if err := s.attachBooks(ctx, list); err != nil {
		return nil, err
	}
	return list, nil
}

func (s *progressService) GetProgress(ctx context.Context, userID, bookID string) (*models.Progress, error) {
	if userID == "" || bookID == "" {
		return nil, invalid("user id and book id are required")
	}
	p, err := s.store.Progress().Get(ctx, userID, bookID)
	if err != nil {
		return nil, notFound(err, "user "+userID)
	}
	if p == nil {
		return nil, fmt.Errorf("%w: no progress for book %s", ErrNotFound, bookID)
	}
	one := []models.Progress{*p}
	if err := s.attachBooks(ctx, one); err != nil {
		return nil, err
	}
	return &one[0], nil
}

// attachBooks labels each record with its catalog entry in one lookup.
// Records whose book has left the catalog keep a nil Book.
func (s *progressService) attachBooks(ctx context.Context, list []models.Progress) error {
	if len(list) == 0 {
		return nil
	}
	ids := make([]string, 0, len(list))
	for _, p := range list {
		ids = append(ids, p.BookID)
	}
	books, err := s.store.Books().ListByIDs(ctx, ids)
	if err != nil {
		return err
	}
	byID := make(map[string]*models.Book, len(books))
	for i := range books {
		byID[books[i].ID] = &books[i]
	}
	for i := range list {
		list[i].Book = byID[list[i].BookID]
	}
	return nil
}

// PartitionProgress splits records into books in progress and finished ones,
// keeping the input order.
func PartitionProgress(list []models.Progress) (reading, completed []models.Progress) {
	reading = make([]models.Progress, 0, len(list))
	completed = make([]models.Progress, 0)
	for _, p := range list {
		if p.IsCompleted() {
			completed = append(completed, p)
		} else {
			reading = append(reading, p)
		}
	}
	return reading, completed
}
