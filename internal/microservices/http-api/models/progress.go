package models

import (
	"time"

	"bookhub/internal/rewards"
)

// Progress is how far a user got with one book. CompletedAt is set exactly
// once, when Percentage first reaches 100, and is never cleared.
type Progress struct {
	UserID      string     `gorm:"type:uuid;not null;primaryKey" json:"user_id"`
	BookID      string     `gorm:"not null;primaryKey;index" json:"book_id"`
	Percentage  int        `gorm:"not null;default:0" json:"percentage"`
	Status      string     `gorm:"type:text;not null" json:"status"`
	CompletedAt *time.Time `json:"completed_at"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	// Book is filled in by readers that label records; never persisted.
	Book *Book `gorm:"-" json:"book,omitempty"`
}

// TableName overrides the table name used by Progress to `reading_progress`
func (Progress) TableName() string {
	return "reading_progress"
}

// State is the tagged reading state of the record. A nil record is NotStarted.
func (p *Progress) State() rewards.State {
	if p == nil {
		return rewards.NotStarted
	}
	return rewards.ParseState(p.Status)
}

// IsCompleted reports whether the book was finished.
func (p *Progress) IsCompleted() bool {
	return p != nil && p.CompletedAt != nil
}
