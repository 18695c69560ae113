package services

import (
	"context"
	"sort"
	"sync"
	"time"

	"bookstore-backend/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ---- in-memory book repository ----

type memBookRepo struct {
	mu    sync.Mutex
	books map[uuid.UUID]models.Book
	err   error
}

func newMemBookRepo(books ...models.Book) *memBookRepo {
	r := &memBookRepo{books: make(map[uuid.UUID]models.Book)}
	for _, b := range books {
		r.books[b.ID] = b
	}
	return r
}

func (r *memBookRepo) FindByID(_ context.Context, id uuid.UUID) (*models.Book, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return nil, r.err
	}
	b, ok := r.books[id]
	if !ok {
		return nil, nil
	}
	return &b, nil
}

func (r *memBookRepo) FindAll(_ context.Context, _, _ int) ([]models.Book, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]models.Book, 0, len(r.books))
	for _, b := range r.books {
		out = append(out, b)
	}
	return out, int64(len(out)), nil
}

func (r *memBookRepo) Create(_ context.Context, book *models.Book) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.books[book.ID] = *book
	return nil
}

// ---- in-memory cart repository ----

type memCartRepo struct {
	mu           sync.Mutex
	lines        []models.CartLine
	findErr      error
	saveErr      error
	deleteAllErr error
}

func (r *memCartRepo) FindByUser(_ context.Context, userID uuid.UUID) ([]models.CartLine, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.findErr != nil {
		return nil, r.findErr
	}
	var out []models.CartLine
	for _, l := range r.lines {
		if l.UserID == userID {
			out = append(out, l)
		}
	}
	return out, nil
}

func (r *memCartRepo) FindByUserAndBook(_ context.Context, userID, bookID uuid.UUID) (*models.CartLine, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, l := range r.lines {
		if l.UserID == userID && l.BookID == bookID {
			line := l
			return &line, nil
		}
	}
	return nil, nil
}

func (r *memCartRepo) Save(_ context.Context, line *models.CartLine) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.saveErr != nil {
		return r.saveErr
	}
	for i, l := range r.lines {
		if l.UserID == line.UserID && l.BookID == line.BookID {
			r.lines[i] = *line
			return nil
		}
	}
	r.lines = append(r.lines, *line)
	return nil
}

func (r *memCartRepo) Delete(_ context.Context, userID, bookID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := r.lines[:0]
	for _, l := range r.lines {
		if !(l.UserID == userID && l.BookID == bookID) {
			out = append(out, l)
		}
	}
	r.lines = out
	return nil
}

func (r *memCartRepo) DeleteAllForUser(_ context.Context, userID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.deleteAllErr != nil {
		return r.deleteAllErr
	}
	out := r.lines[:0]
	for _, l := range r.lines {
		if l.UserID != userID {
			out = append(out, l)
		}
	}
	r.lines = out
	return nil
}

// ---- in-memory order repository ----

type memOrderRepo struct {
	mu        sync.Mutex
	orders    map[uuid.UUID]models.Order
	items     map[uuid.UUID][]models.OrderItem
	createErr error
	itemsErr  error
	updateErr error
	deleted   []uuid.UUID
}

func newMemOrderRepo() *memOrderRepo {
	return &memOrderRepo{
		orders: make(map[uuid.UUID]models.Order),
		items:  make(map[uuid.UUID][]models.OrderItem),
	}
}

func (r *memOrderRepo) Create(_ context.Context, order *models.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.createErr != nil {
		return r.createErr
	}
	r.orders[order.ID] = *order
	return nil
}

func (r *memOrderRepo) CreateItems(_ context.Context, items []models.OrderItem) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.itemsErr != nil {
		return r.itemsErr
	}
	for _, item := range items {
		r.items[item.OrderID] = append(r.items[item.OrderID], item)
	}
	return nil
}

func (r *memOrderRepo) Delete(_ context.Context, orderID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.orders, orderID)
	delete(r.items, orderID)
	r.deleted = append(r.deleted, orderID)
	return nil
}

func (r *memOrderRepo) FindByID(_ context.Context, orderID uuid.UUID) (*models.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	order, ok := r.orders[orderID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	order.OrderItems = append([]models.OrderItem(nil), r.items[orderID]...)
	return &order, nil
}

func (r *memOrderRepo) FindByIDAndUserID(ctx context.Context, orderID, userID uuid.UUID) (*models.Order, error) {
	order, err := r.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.UserID != userID {
		return nil, gorm.ErrRecordNotFound
	}
	return order, nil
}

func (r *memOrderRepo) FindByUserID(_ context.Context, userID uuid.UUID, _, _ int) ([]models.Order, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Order
	for _, o := range r.orders {
		if o.UserID == userID {
			out = append(out, o)
		}
	}
	return out, int64(len(out)), nil
}

func (r *memOrderRepo) FindAll(_ context.Context, status string, _, _ int) ([]models.Order, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Order
	for _, o := range r.orders {
		if status == "" || o.Status == status {
			out = append(out, o)
		}
	}
	return out, int64(len(out)), nil
}

func (r *memOrderRepo) Update(_ context.Context, order *models.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.updateErr != nil {
		return r.updateErr
	}
	stored := *order
	stored.OrderItems = nil
	r.orders[order.ID] = stored
	return nil
}

// ---- in-memory subscription repository ----

type memSubRepo struct {
	mu   sync.Mutex
	subs []models.PushSubscription
}

func (r *memSubRepo) Upsert(_ context.Context, sub *models.PushSubscription) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, s := range r.subs {
		if s.Endpoint == sub.Endpoint {
			r.subs[i] = *sub
			return nil
		}
	}
	r.subs = append(r.subs, *sub)
	return nil
}

func (r *memSubRepo) FindAllOrdered(_ context.Context) ([]models.PushSubscription, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := append([]models.PushSubscription(nil), r.subs...)
	sort.SliceStable(out, func(i, j int) bool {
		mi := out[i].DeviceType == models.DeviceTypeMobile
		mj := out[j].DeviceType == models.DeviceTypeMobile
		if mi != mj {
			return mi
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (r *memSubRepo) FindByUser(_ context.Context, userID uuid.UUID) ([]models.PushSubscription, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.PushSubscription
	for _, s := range r.subs {
		if s.UserID == userID {
			out = append(out, s)
		}
	}
	return out, nil
}

func (r *memSubRepo) DeleteByEndpoint(_ context.Context, endpoint string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := r.subs[:0]
	for _, s := range r.subs {
		if s.Endpoint != endpoint {
			out = append(out, s)
		}
	}
	r.subs = out
	return nil
}

func (r *memSubRepo) hasEndpoint(endpoint string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range r.subs {
		if s.Endpoint == endpoint {
			return true
		}
	}
	return false
}

// ---- in-memory outbox repository ----

type memOutboxRepo struct {
	mu         sync.Mutex
	entries    []models.NotificationOutbox
	nextID     int64
	enqueueErr error
}

func (r *memOutboxRepo) Enqueue(_ context.Context, entry *models.NotificationOutbox) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.enqueueErr != nil {
		return r.enqueueErr
	}
	r.nextID++
	entry.ID = r.nextID
	if entry.Status == "" {
		entry.Status = models.OutboxStatusPending
	}
	if entry.NextAttemptAt.IsZero() {
		entry.NextAttemptAt = time.Now()
	}
	r.entries = append(r.entries, *entry)
	return nil
}

func (r *memOutboxRepo) ClaimDue(_ context.Context, limit int) ([]models.NotificationOutbox, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.NotificationOutbox
	now := time.Now()
	for _, e := range r.entries {
		if e.Status == models.OutboxStatusPending && !e.NextAttemptAt.After(now) {
			out = append(out, e)
			if len(out) == limit {
				break
			}
		}
	}
	return out, nil
}

func (r *memOutboxRepo) MarkSent(_ context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.entries {
		if r.entries[i].ID == id {
			r.entries[i].Status = models.OutboxStatusSent
		}
	}
	return nil
}

func (r *memOutboxRepo) MarkFailed(_ context.Context, id int64, attempts int, lastError string, nextAttemptAt time.Time, terminal bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.entries {
		if r.entries[i].ID == id {
			r.entries[i].Attempts = attempts
			r.entries[i].LastError = lastError
			r.entries[i].NextAttemptAt = nextAttemptAt
			if terminal {
				r.entries[i].Status = models.OutboxStatusFailed
			} else {
				r.entries[i].Status = models.OutboxStatusPending
			}
		}
	}
	return nil
}

func (r *memOutboxRepo) byKind(kind string) []models.NotificationOutbox {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.NotificationOutbox
	for _, e := range r.entries {
		if e.Kind == kind {
			out = append(out, e)
		}
	}
	return out
}
