package repository

import (
	"context"
	"time"

	"bookstore-backend/models"

	"gorm.io/gorm"
)

// OutboxRepository defines the interface for notification intent rows.
type OutboxRepository interface {
	Enqueue(ctx context.Context, entry *models.NotificationOutbox) error
	// ClaimDue returns pending entries whose next attempt time has passed,
	// oldest first.
	ClaimDue(ctx context.Context, limit int) ([]models.NotificationOutbox, error)
	MarkSent(ctx context.Context, id int64) error
	// MarkFailed records the failure; terminal entries stop being retried.
	MarkFailed(ctx context.Context, id int64, attempts int, lastError string, nextAttemptAt time.Time, terminal bool) error
}

type GormOutboxRepository struct {
	db *gorm.DB
}

func NewGormOutboxRepository(db *gorm.DB) OutboxRepository {
	return &GormOutboxRepository{db: db}
}

func (r *GormOutboxRepository) Enqueue(ctx context.Context, entry *models.NotificationOutbox) error {
	if entry.Status == "" {
		entry.Status = models.OutboxStatusPending
	}
	if entry.NextAttemptAt.IsZero() {
		entry.NextAttemptAt = time.Now()
	}
	return r.db.WithContext(ctx).Create(entry).Error
}

func (r *GormOutboxRepository) ClaimDue(ctx context.Context, limit int) ([]models.NotificationOutbox, error) {
	var entries []models.NotificationOutbox
	if err := r.db.WithContext(ctx).
		Where("status = ? AND next_attempt_at <= ?", models.OutboxStatusPending, time.Now()).
		Order("id ASC").
		Limit(limit).
		Find(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}

func (r *GormOutboxRepository) MarkSent(ctx context.Context, id int64) error {
	return r.db.WithContext(ctx).
		Model(&models.NotificationOutbox{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status": models.OutboxStatusSent,
		}).Error
}

func (r *GormOutboxRepository) MarkFailed(ctx context.Context, id int64, attempts int, lastError string, nextAttemptAt time.Time, terminal bool) error {
	status := models.OutboxStatusPending
	if terminal {
		status = models.OutboxStatusFailed
	}
	return r.db.WithContext(ctx).
		Model(&models.NotificationOutbox{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":          status,
			"attempts":        attempts,
			"last_error":      lastError,
			"next_attempt_at": nextAttemptAt,
		}).Error
}
