package repository

import (
	"context"
	"errors"

	"bookstore-backend/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// BookRepository defines the interface for catalog data access.
type BookRepository interface {
	// FindByID returns (nil, nil) when the book does not exist, so callers
	// can tell "absent" apart from a gateway failure.
	FindByID(ctx context.Context, id uuid.UUID) (*models.Book, error)
	FindAll(ctx context.Context, page, limit int) ([]models.Book, int64, error)
	Create(ctx context.Context, book *models.Book) error
}

type GormBookRepository struct {
	db *gorm.DB
}

func NewGormBookRepository(db *gorm.DB) BookRepository {
	return &GormBookRepository{db: db}
}

func (r *GormBookRepository) FindByID(ctx context.Context, id uuid.UUID) (*models.Book, error) {
	var book models.Book
	if err := r.db.WithContext(ctx).First(&book, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &book, nil
}

func (r *GormBookRepository) FindAll(ctx context.Context, page, limit int) ([]models.Book, int64, error) {
	var books []models.Book
	var total int64

	query := r.db.WithContext(ctx).Model(&models.Book{})
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	if err := query.
		Offset(offset).
		Limit(limit).
		Order("created_at DESC").
		Find(&books).Error; err != nil {
		return nil, 0, err
	}
	return books, total, nil
}

func (r *GormBookRepository) Create(ctx context.Context, book *models.Book) error {
	return r.db.WithContext(ctx).Create(book).Error
}
