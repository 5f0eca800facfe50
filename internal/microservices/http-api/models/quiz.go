package models

import (
	"time"

	"bookhub/internal/rewards"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Quiz is the single quiz attached to a book.
type Quiz struct {
	ID        string                                `gorm:"primaryKey;type:uuid" json:"id"`
	BookID    string                                `gorm:"uniqueIndex;not null" json:"book_id"`
	Questions datatypes.JSONSlice[rewards.Question] `gorm:"type:jsonb;not null" json:"questions"`
	CreatedAt time.Time                             `json:"created_at"`
	UpdatedAt time.Time                             `json:"updated_at"`
}

func (q *Quiz) BeforeCreate(tx *gorm.DB) error {
	if q.ID == "" {
		q.ID = uuid.New().String()
	}
	return nil
}

func (Quiz) TableName() string {
	return "quizzes"
}

// TotalPoints is the maximum score of the quiz.
func (q *Quiz) TotalPoints() int {
	total := 0
	for _, question := range q.Questions {
		total += question.PointValue()
	}
	return total
}
