package services

import (
	"context"
	"regexp"

	"bookstore-backend/apperrors"
	"bookstore-backend/models"
	"bookstore-backend/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

var mobileAgentPattern = regexp.MustCompile(`(?i)mobile|android|iphone|ipad|ipod|blackberry|windows phone`)

// DeviceTypeFromUserAgent classifies the browsing context once, at
// registration time.
func DeviceTypeFromUserAgent(userAgent string) string {
	if userAgent == "" {
		return models.DeviceTypeUnknown
	}
	if mobileAgentPattern.MatchString(userAgent) {
		return models.DeviceTypeMobile
	}
	return models.DeviceTypeDesktop
}

// PushRegistry keeps one delivery endpoint per browsing context and collapses
// endpoints that belong to the same session at fan-out time.
type PushRegistry struct {
	subs   repository.SubscriptionRepository
	logger *zap.Logger
}

func NewPushRegistry(subs repository.SubscriptionRepository, logger *zap.Logger) *PushRegistry {
	return &PushRegistry{subs: subs, logger: logger}
}

// Register upserts a subscription keyed by endpoint.
func (r *PushRegistry) Register(ctx context.Context, userID uuid.UUID, endpoint, p256dh, auth, userAgent string) error {
	if endpoint == "" {
		return apperrors.Validation("endpoint is required")
	}
	if p256dh == "" || auth == "" {
		return apperrors.Validation("subscription keys are required")
	}

	sub := &models.PushSubscription{
		ID:         uuid.New(),
		Endpoint:   endpoint,
		P256dh:     p256dh,
		Auth:       auth,
		UserID:     userID,
		DeviceType: DeviceTypeFromUserAgent(userAgent),
		UserAgent:  userAgent,
	}
	if err := r.subs.Upsert(ctx, sub); err != nil {
		return apperrors.Internal("failed to register subscription", err)
	}
	return nil
}

// ListForFanout returns the fan-out recipient set: one subscription per dedup
// key. Mobile beats desktop within a group; on a device-type tie the first
// row of the ordered listing wins.
func (r *PushRegistry) ListForFanout(ctx context.Context) ([]models.PushSubscription, error) {
	subs, err := r.subs.FindAllOrdered(ctx)
	if err != nil {
		return nil, apperrors.Internal("failed to list subscriptions", err)
	}

	chosen := make(map[string]int)
	result := make([]models.PushSubscription, 0, len(subs))
	for _, sub := range subs {
		key := sub.DedupKey()
		if idx, ok := chosen[key]; ok {
			if result[idx].DeviceType != models.DeviceTypeMobile && sub.DeviceType == models.DeviceTypeMobile {
				result[idx] = sub
			}
			continue
		}
		chosen[key] = len(result)
		result = append(result, sub)
	}
	return result, nil
}

// ListForUser returns every subscription registered by one user.
func (r *PushRegistry) ListForUser(ctx context.Context, userID uuid.UUID) ([]models.PushSubscription, error) {
	subs, err := r.subs.FindByUser(ctx, userID)
	if err != nil {
		return nil, apperrors.Internal("failed to list subscriptions", err)
	}
	return subs, nil
}

// Remove deletes a subscription on explicit unsubscribe.
func (r *PushRegistry) Remove(ctx context.Context, endpoint string) error {
	if err := r.subs.DeleteByEndpoint(ctx, endpoint); err != nil {
		return apperrors.Internal("failed to remove subscription", err)
	}
	return nil
}

// RemoveStale prunes an endpoint the delivery provider reported as
// permanently gone. Called by the dispatcher; failure only logs.
func (r *PushRegistry) RemoveStale(ctx context.Context, endpoint string) {
	if err := r.subs.DeleteByEndpoint(ctx, endpoint); err != nil {
		r.logger.Error("failed to prune stale subscription",
			zap.String("endpoint", endpoint),
			zap.Error(err),
		)
		return
	}
	r.logger.Info("pruned stale push subscription", zap.String("endpoint", endpoint))
}
