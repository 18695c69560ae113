package repository

import (
	"context"

	"bookstore-backend/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// SubscriptionRepository defines the interface for push subscription data
// access.
type SubscriptionRepository interface {
	// Upsert inserts the subscription or, when the endpoint is already
	// registered, refreshes its keys, owner and device metadata.
	Upsert(ctx context.Context, sub *models.PushSubscription) error
	// FindAllOrdered lists every subscription with mobile rows first, newest
	// first within each device type. Fan-out dedup relies on this ordering.
	FindAllOrdered(ctx context.Context) ([]models.PushSubscription, error)
	FindByUser(ctx context.Context, userID uuid.UUID) ([]models.PushSubscription, error)
	DeleteByEndpoint(ctx context.Context, endpoint string) error
}

type GormSubscriptionRepository struct {
	db *gorm.DB
}

func NewGormSubscriptionRepository(db *gorm.DB) SubscriptionRepository {
	return &GormSubscriptionRepository{db: db}
}

func (r *GormSubscriptionRepository) Upsert(ctx context.Context, sub *models.PushSubscription) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "endpoint"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"p256dh", "auth", "user_id", "device_type", "user_agent", "updated_at",
			}),
		}).
		Create(sub).Error
}

func (r *GormSubscriptionRepository) FindAllOrdered(ctx context.Context) ([]models.PushSubscription, error) {
	var subs []models.PushSubscription
	if err := r.db.WithContext(ctx).
		Order("CASE WHEN device_type = 'mobile' THEN 0 ELSE 1 END").
		Order("created_at DESC").
		Find(&subs).Error; err != nil {
		return nil, err
	}
	return subs, nil
}

func (r *GormSubscriptionRepository) FindByUser(ctx context.Context, userID uuid.UUID) ([]models.PushSubscription, error) {
	var subs []models.PushSubscription
	if err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Find(&subs).Error; err != nil {
		return nil, err
	}
	return subs, nil
}

func (r *GormSubscriptionRepository) DeleteByEndpoint(ctx context.Context, endpoint string) error {
	return r.db.WithContext(ctx).
		Where("endpoint = ?", endpoint).
		Delete(&models.PushSubscription{}).Error
}
