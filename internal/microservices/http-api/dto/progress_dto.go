package dto

import (
	"time"

	"bookhub/internal/microservices/http-api/models"
)

// DTOs for progress-related operations in HTTP API

type UpdateProgressRequest struct {
	BookID string `json:"book_id" binding:"required"`
	// pointer so that an explicit 0 passes the required check
	Percentage *float64 `json:"percentage" binding:"required"`
}

type BookURI struct {
	BookID string `uri:"book_id" binding:"required"`
}

// BookSummary labels a progress record with its catalog entry.
type BookSummary struct {
	Title    string `json:"title"`
	Author   string `json:"author,omitempty"`
	Genre    string `json:"genre,omitempty"`
	CoverURL string `json:"cover_url,omitempty"`
}

type ProgressResponse struct {
	BookID      string       `json:"book_id"`
	Book        *BookSummary `json:"book,omitempty"`
	Percentage  int          `json:"percentage"`
	Status      string       `json:"status"`
	CompletedAt *time.Time   `json:"completed_at"`
	UpdatedAt   time.Time    `json:"updated_at"`
}

type ProgressListResponse struct {
	Progress  []ProgressResponse `json:"progress"`
	Reading   []ProgressResponse `json:"reading"`
	Completed []ProgressResponse `json:"completed"`
}

func NewProgressResponse(p *models.Progress) ProgressResponse {
	resp := ProgressResponse{
		BookID:      p.BookID,
		Percentage:  p.Percentage,
		Status:      p.Status,
		CompletedAt: p.CompletedAt,
		UpdatedAt:   p.UpdatedAt,
	}
	if p.Book != nil {
		resp.Book = &BookSummary{
			Title:    p.Book.Title,
			Author:   p.Book.AuthorName,
			Genre:    p.Book.Genre,
			CoverURL: p.Book.CoverURL,
		}
	}
	return resp
}

func NewProgressResponses(list []models.Progress) []ProgressResponse {
	out := make([]ProgressResponse, 0, len(list))
	for i := range list {
		out = append(out, NewProgressResponse(&list[i]))
	}
	return out
}
