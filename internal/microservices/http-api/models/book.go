package models

import "time"

// Book is the slice of the catalog the reading engine needs: enough to check
// existence and label progress entries.
type Book struct {
	ID         string    `gorm:"primaryKey" json:"id" yaml:"id"`
	Title      string    `gorm:"not null" json:"title" yaml:"title"`
	Genre      string    `gorm:"index" json:"genre" yaml:"genre"`
	AuthorName string    `json:"author_name" yaml:"author"`
	CoverURL   string    `json:"cover_url" yaml:"cover_url"`
	CreatedAt  time.Time `json:"created_at" yaml:"-"`
	UpdatedAt  time.Time `json:"updated_at" yaml:"-"`
}

func (Book) TableName() string {
	return "books"
}
