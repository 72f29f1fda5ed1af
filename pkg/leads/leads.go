// Package leads keeps the quote requests that reached the business so they
// can be followed up: a small status pipeline with free form notes.
package leads

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// ErrNotFound is returned for unknown lead ids.
var ErrNotFound = errors.New("leads: not found")

// ErrInvalidStatus is returned for statuses outside the pipeline.
var ErrInvalidStatus = errors.New("leads: invalid status")

// Status is the follow-up stage of a lead.
type Status string

const (
	StatusNew       Status = "New"
	StatusContacted Status = "Contacted"
	StatusBooked    Status = "Booked"
	StatusLost      Status = "Lost"
)

// Statuses lists the pipeline in order.
func Statuses() []Status {
	return []Status{StatusNew, StatusContacted, StatusBooked, StatusLost}
}

// ParseStatus matches s case-insensitively.
func ParseStatus(s string) (Status, error) {
	for _, status := range Statuses() {
		if strings.EqualFold(string(status), strings.TrimSpace(s)) {
			return status, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidStatus, s)
}

// Lead is one quote request.
type Lead struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Email       string    `json:"email"`
	Phone       string    `json:"phone"`
	City        string    `json:"city"`
	ZipCode     string    `json:"zipCode"`
	ServiceType string    `json:"serviceType"`
	Bedrooms    int       `json:"bedrooms"`
	Bathrooms   int       `json:"bathrooms"`
	Frequency   string    `json:"frequency"`
	PriceQuote  int       `json:"priceQuote"`
	Status      Status    `json:"status"`
	Notes       string    `json:"notes"`
	CreatedAt   time.Time `json:"createdAt"`
}

// Store persists leads. List returns the newest first.
type Store interface {
	Add(ctx context.Context, lead Lead) (Lead, error)
	List(ctx context.Context) ([]Lead, error)
	Get(ctx context.Context, id uuid.UUID) (Lead, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status Status) error
	UpdateNotes(ctx context.Context, id uuid.UUID, notes string) error
	Delete(ctx context.Context, id uuid.UUID) error
	Close() error
}

// prepare assigns the id, creation time and initial status of a new lead.
func prepare(lead Lead, now time.Time) Lead {
	if lead.ID == uuid.Nil {
		lead.ID = uuid.New()
	}
	if lead.CreatedAt.IsZero() {
		lead.CreatedAt = now
	}
	lead.CreatedAt = lead.CreatedAt.UTC()
	if lead.Status == "" {
		lead.Status = StatusNew
	}
	return lead
}

func validStatus(status Status) error {
	for _, candidate := range Statuses() {
		if candidate == status {
			return nil
		}
	}
	return fmt.Errorf("%w: %q", ErrInvalidStatus, status)
}

// MemoryStore keeps leads in process memory.
type MemoryStore struct {
	mu    sync.RWMutex
	leads map[uuid.UUID]Lead
	now   func() time.Time
}

// NewMemoryStore returns an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{leads: make(map[uuid.UUID]Lead), now: time.Now}
}

func (m *MemoryStore) Add(_ context.Context, lead Lead) (Lead, error) {
	lead = prepare(lead, m.now())
	if err := validStatus(lead.Status); err != nil {
		return Lead{}, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.leads[lead.ID] = lead
	return lead, nil
}

func (m *MemoryStore) List(_ context.Context) ([]Lead, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Lead, 0, len(m.leads))
	for _, lead := range m.leads {
		out = append(out, lead)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID.String() < out[j].ID.String()
	})
	return out, nil
}

func (m *MemoryStore) Get(_ context.Context, id uuid.UUID) (Lead, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	lead, ok := m.leads[id]
	if !ok {
		return Lead{}, ErrNotFound
	}
	return lead, nil
}

func (m *MemoryStore) UpdateStatus(_ context.Context, id uuid.UUID, status Status) error {
	if err := validStatus(status); err != nil {
		return err
	}
	return m.update(id, func(l *Lead) { l.Status = status })
}

func (m *MemoryStore) UpdateNotes(_ context.Context, id uuid.UUID, notes string) error {
	return m.update(id, func(l *Lead) { l.Notes = notes })
}

func (m *MemoryStore) Delete(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.leads[id]; !ok {
		return ErrNotFound
	}
	delete(m.leads, id)
	return nil
}

func (m *MemoryStore) Close() error { return nil }

func (m *MemoryStore) update(id uuid.UUID, fn func(*Lead)) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	lead, ok := m.leads[id]
	if !ok {
		return ErrNotFound
	}
	fn(&lead)
	m.leads[id] = lead
	return nil
}
