package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"

	"bookstore-backend/models"

	webpush "github.com/SherClockHolmes/webpush-go"
	"go.uber.org/zap"
)

// PushSender delivers one payload to one endpoint and reports the provider's
// status code (0 when the request never reached the provider).
type PushSender interface {
	Send(ctx context.Context, message []byte, sub *models.PushSubscription) (int, error)
}

// WebPushSender sends Web Push messages signed with the store's VAPID keys.
type WebPushSender struct {
	publicKey  string
	privateKey string
	subscriber string
}

func NewWebPushSender(publicKey, privateKey, subscriber string) *WebPushSender {
	return &WebPushSender{
		publicKey:  publicKey,
		privateKey: privateKey,
		subscriber: subscriber,
	}
}

// Configured reports whether the VAPID key pair is present.
func (s *WebPushSender) Configured() bool {
	return s.publicKey != "" && s.privateKey != ""
}

func (s *WebPushSender) Send(ctx context.Context, message []byte, sub *models.PushSubscription) (int, error) {
	resp, err := webpush.SendNotificationWithContext(ctx, message, &webpush.Subscription{
		Endpoint: sub.Endpoint,
		Keys: webpush.Keys{
			P256dh: sub.P256dh,
			Auth:   sub.Auth,
		},
	}, &webpush.Options{
		Subscriber:      s.subscriber,
		VAPIDPublicKey:  s.publicKey,
		VAPIDPrivateKey: s.privateKey,
		TTL:             60,
	})
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return resp.StatusCode, fmt.Errorf("push endpoint returned %d", resp.StatusCode)
	}
	return resp.StatusCode, nil
}

// DispatchResult aggregates per-recipient outcomes. Partial and even total
// failure are valid outcomes, never an error.
type DispatchResult struct {
	Sent   int `json:"sent"`
	Failed int `json:"failed"`
	Total  int `json:"total"`
}

// PushDispatcher fans a payload out to a recipient set. Recipients are
// delivered to concurrently and in isolation; a permanently-gone endpoint is
// pruned from the registry, any other failure retains it.
type PushDispatcher struct {
	sender   PushSender
	registry *PushRegistry
	logger   *zap.Logger
}

func NewPushDispatcher(sender PushSender, registry *PushRegistry, logger *zap.Logger) *PushDispatcher {
	return &PushDispatcher{sender: sender, registry: registry, logger: logger}
}

func (d *PushDispatcher) Dispatch(ctx context.Context, payload *models.NotificationPayload, recipients []models.PushSubscription) DispatchResult {
	result := DispatchResult{Total: len(recipients)}
	if len(recipients) == 0 {
		return result
	}

	message, err := json.Marshal(payload)
	if err != nil {
		d.logger.Error("failed to marshal notification payload", zap.Error(err))
		result.Failed = result.Total
		return result
	}

	var mu sync.Mutex
	var wg sync.WaitGroup
	for i := range recipients {
		sub := recipients[i]
		wg.Add(1)
		go func() {
			defer wg.Done()
			status, err := d.sender.Send(ctx, message, &sub)
			if err != nil {
				if status == http.StatusGone || status == http.StatusNotFound {
					d.registry.RemoveStale(ctx, sub.Endpoint)
				} else {
					d.logger.Warn("push delivery failed",
						zap.String("endpoint", sub.Endpoint),
						zap.Int("status", status),
						zap.Error(err),
					)
				}
				mu.Lock()
				result.Failed++
				mu.Unlock()
				return
			}
			mu.Lock()
			result.Sent++
			mu.Unlock()
		}()
	}
	wg.Wait()
	return result
}
