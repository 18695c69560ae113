package models

import (
	"time"

	"github.com/google/uuid"
)

const (
	BookStatusAvailable    = "available"
	BookStatusOutOfStock   = "out_of_stock"
	BookStatusDiscontinued = "discontinued"
)

type Book struct {
	ID          uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Title       string    `gorm:"not null" json:"title"`
	Author      string    `json:"author"`
	Description string    `json:"description"`
	Price       float64   `gorm:"not null" json:"price"`
	Status      string    `gorm:"type:varchar(20);not null;default:'available'" json:"status"`
	CoverURL    string    `json:"cover_url"`
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// Available reports whether the book can be checked out.
func (b *Book) Available() bool {
	return b.Status == BookStatusAvailable
}
