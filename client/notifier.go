// Package client is the store-front notification controller: it owns
// permission state, the push subscription handshake, the unread badge
// counter, and the two producers (live channel and fallback poll) that feed
// shown notifications. Everything lives on an explicit Notifier instance with
// Start/Stop lifecycle; there is no ambient global state.
package client

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"bookstore-backend/models"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

type PermissionState string

const (
	PermissionUnsupported PermissionState = "unsupported"
	PermissionDefault     PermissionState = "default"
	PermissionGranted     PermissionState = "granted"
	PermissionDenied      PermissionState = "denied"
)

// PlatformSubscription is the serializable form of the platform's push
// subscription object.
type PlatformSubscription struct {
	Endpoint string `json:"endpoint"`
	Keys     struct {
		P256dh string `json:"p256dh"`
		Auth   string `json:"auth"`
	} `json:"keys"`
}

// Registrar forwards subscriptions to the server-side registry.
type Registrar interface {
	Register(ctx context.Context, sub PlatformSubscription) error
	Unregister(ctx context.Context, endpoint string) error
}

// BadgeStore persists the unread counter across reloads.
type BadgeStore interface {
	Load() int
	Save(count int)
}

// MemoryBadgeStore is the in-process store used when no persistent backend is
// wired in.
type MemoryBadgeStore struct {
	mu    sync.Mutex
	count int
}

func (s *MemoryBadgeStore) Load() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.count
}

func (s *MemoryBadgeStore) Save(count int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.count = count
}

// EventSource is the live channel of new-catalog-item events.
type EventSource interface {
	Subscribe(ctx context.Context) (<-chan models.NotificationPayload, error)
}

// RedisEventSource subscribes to the server's new-book pub/sub channel.
type RedisEventSource struct {
	Client  *redis.Client
	Channel string
	Logger  *zap.Logger
}

func (s *RedisEventSource) Subscribe(ctx context.Context) (<-chan models.NotificationPayload, error) {
	pubsub := s.Client.Subscribe(ctx, s.Channel)
	if _, err := pubsub.Receive(ctx); err != nil {
		return nil, err
	}

	out := make(chan models.NotificationPayload)
	go func() {
		defer close(out)
		defer pubsub.Close()
		in := pubsub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-in:
				if !ok {
					return
				}
				var payload models.NotificationPayload
				if err := json.Unmarshal([]byte(msg.Payload), &payload); err != nil {
					s.Logger.Warn("dropping malformed live event", zap.Error(err))
					continue
				}
				select {
				case out <- payload:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out, nil
}

// PollFunc fetches any new catalog items since the last poll.
type PollFunc func(ctx context.Context) ([]models.NotificationPayload, error)

// ShowFunc presents one notification to the user.
type ShowFunc func(payload models.NotificationPayload)

type Notifier struct {
	mu           sync.Mutex
	permission   PermissionState
	subscribed   bool
	badge        int
	store        BadgeStore
	registrar    Registrar
	live         EventSource
	poll         PollFunc
	pollInterval time.Duration
	show         ShowFunc
	cancel       context.CancelFunc
	wg           sync.WaitGroup
	logger       *zap.Logger
}

func NewNotifier(registrar Registrar, live EventSource, poll PollFunc, pollInterval time.Duration, store BadgeStore, show ShowFunc, logger *zap.Logger) *Notifier {
	if store == nil {
		store = &MemoryBadgeStore{}
	}
	if pollInterval <= 0 {
		pollInterval = time.Minute
	}
	return &Notifier{
		permission:   PermissionDefault,
		store:        store,
		badge:        store.Load(),
		registrar:    registrar,
		live:         live,
		poll:         poll,
		pollInterval: pollInterval,
		show:         show,
		logger:       logger,
	}
}

// Permission returns the current permission state.
func (n *Notifier) Permission() PermissionState {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.permission
}

// IsSubscribed reports the locally persisted subscribed flag.
func (n *Notifier) IsSubscribed() bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.subscribed
}

// RequestPermission suspends on the platform prompt and records the outcome.
// On grant the subscribed flag is set and listening can begin.
func (n *Notifier) RequestPermission(ctx context.Context, prompt func(ctx context.Context) (PermissionState, error)) (PermissionState, error) {
	state, err := prompt(ctx)
	if err != nil {
		return PermissionDefault, err
	}

	n.mu.Lock()
	n.permission = state
	if state == PermissionGranted {
		n.subscribed = true
	}
	n.mu.Unlock()
	return state, nil
}

// SubscribeToPush forwards the serialized platform subscription to the
// server-side registry.
func (n *Notifier) SubscribeToPush(ctx context.Context, sub PlatformSubscription) error {
	if n.Permission() != PermissionGranted {
		return errors.New("notification permission not granted")
	}
	return n.registrar.Register(ctx, sub)
}

// Start launches both producers. The live channel and the fallback poll run
// independently and feed the same show-notification path; an event arriving
// on both may be shown twice.
func (n *Notifier) Start(ctx context.Context) error {
	n.mu.Lock()
	if n.cancel != nil {
		n.mu.Unlock()
		return errors.New("notifier already started")
	}
	runCtx, cancel := context.WithCancel(ctx)
	n.cancel = cancel
	n.mu.Unlock()

	if n.live != nil {
		events, err := n.live.Subscribe(runCtx)
		if err != nil {
			n.logger.Warn("live channel unavailable, relying on poll", zap.Error(err))
		} else {
			n.wg.Add(1)
			go func() {
				defer n.wg.Done()
				for payload := range events {
					n.notify(payload)
				}
			}()
		}
	}

	if n.poll != nil {
		n.wg.Add(1)
		go func() {
			defer n.wg.Done()
			ticker := time.NewTicker(n.pollInterval)
			defer ticker.Stop()
			for {
				select {
				case <-runCtx.Done():
					return
				case <-ticker.C:
					payloads, err := n.poll(runCtx)
					if err != nil {
						n.logger.Warn("fallback poll failed", zap.Error(err))
						continue
					}
					for _, p := range payloads {
						n.notify(p)
					}
				}
			}
		}()
	}
	return nil
}

// Stop cancels both producers. Deliveries already dispatched server-side are
// not cancellable.
func (n *Notifier) Stop() {
	n.mu.Lock()
	cancel := n.cancel
	n.cancel = nil
	n.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	n.wg.Wait()
}

// Unsubscribe removes the server-side subscription and stops listening.
func (n *Notifier) Unsubscribe(ctx context.Context, endpoint string) error {
	n.Stop()

	n.mu.Lock()
	n.subscribed = false
	n.mu.Unlock()

	return n.registrar.Unregister(ctx, endpoint)
}

func (n *Notifier) notify(payload models.NotificationPayload) {
	n.mu.Lock()
	n.badge++
	n.store.Save(n.badge)
	n.mu.Unlock()

	if n.show != nil {
		n.show(payload)
	}
}

// Badge returns the unread counter.
func (n *Notifier) Badge() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.badge
}

// ClearBadge resets the unread counter, e.g. when the user acts on a
// notification or opens the app.
func (n *Notifier) ClearBadge() {
	n.mu.Lock()
	n.badge = 0
	n.store.Save(0)
	n.mu.Unlock()
}
