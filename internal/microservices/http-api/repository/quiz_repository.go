package repository

import (
	"context"

	"bookhub/internal/microservices/http-api/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// QuizRepository stores the quiz of each book.
type QuizRepository interface {
	GetByBook(ctx context.Context, bookID string) (*models.Quiz, error)
	// Upsert replaces the questions of the book's quiz, creating it if needed.
	Upsert(ctx context.Context, quiz *models.Quiz) error
}

type quizRepository struct {
	db *gorm.DB
}

func NewQuizRepository(db *gorm.DB) QuizRepository {
	return &quizRepository{db: db}
}

func (r *quizRepository) GetByBook(ctx context.Context, bookID string) (*models.Quiz, error) {
	var q models.Quiz
	if err := r.db.WithContext(ctx).Where("book_id = ?", bookID).First(&q).Error; err != nil {
		return nil, translate("get quiz", err)
	}
	return &q, nil
}

func (r *quizRepository) Upsert(ctx context.Context, quiz *models.Quiz) error {
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "book_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"questions", "updated_at"}),
		}).
		Create(quiz).Error
	if err != nil {
		return translate("upsert quiz", err)
	}
	// on conflict the generated id is not the stored one
	stored, err := r.GetByBook(ctx, quiz.BookID)
	if err != nil {
		return err
	}
	*quiz = *stored
	return nil
}
