package repository

import (
	"context"

	"bookhub/internal/microservices/http-api/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// BookRepository is the read side of the catalog used by the reading engine.
type BookRepository interface {
	Exists(ctx context.Context, id string) (bool, error)
	GetByID(ctx context.Context, id string) (*models.Book, error)
	// ListByIDs returns the books that exist among ids, in no particular order.
	ListByIDs(ctx context.Context, ids []string) ([]models.Book, error)
	Create(ctx context.Context, book *models.Book) error
}

type bookRepository struct {
	db *gorm.DB
}

func NewBookRepository(db *gorm.DB) BookRepository {
	return &bookRepository{db: db}
}

func (r *bookRepository) Exists(ctx context.Context, id string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.Book{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return false, translate("book exists", err)
	}
	return count > 0, nil
}

func (r *bookRepository) GetByID(ctx context.Context, id string) (*models.Book, error) {
	var b models.Book
	if err := r.db.WithContext(ctx).First(&b, "id = ?", id).Error; err != nil {
		return nil, translate("get book", err)
	}
	return &b, nil
}

func (r *bookRepository) ListByIDs(ctx context.Context, ids []string) ([]models.Book, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var books []models.Book
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&books).Error; err != nil {
		return nil, translate("list books", err)
	}
	return books, nil
}

func (r *bookRepository) Create(ctx context.Context, b *models.Book) error {
	if b.ID == "" {
		b.ID = uuid.New().String()
	}
	return translate("create book", r.db.WithContext(ctx).Create(b).Error)
}
