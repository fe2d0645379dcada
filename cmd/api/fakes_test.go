package main

import (
	"context"
	"database/sql"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/shotbook/shotbook-api/internal/domain/booking"
	"github.com/shotbook/shotbook-api/internal/domain/catalog"
	"github.com/shotbook/shotbook-api/internal/domain/delivery"
	"github.com/shotbook/shotbook-api/internal/domain/user"
	"github.com/shotbook/shotbook-api/internal/pkg/authz"
	"github.com/shotbook/shotbook-api/internal/pkg/events"
	"github.com/shotbook/shotbook-api/internal/pkg/pagination"
	"github.com/shotbook/shotbook-api/internal/pkg/storage"
)

type memoryUsers struct {
	mu    sync.Mutex
	users map[uuid.UUID]*user.User
}

func (m *memoryUsers) Create(_ context.Context, u *user.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.users {
		if existing.Email == u.Email {
			return user.ErrEmailAlreadyExists
		}
	}
	u.CreatedAt, u.UpdatedAt = time.Now(), time.Now()
	cp := *u
	m.users[u.ID] = &cp
	return nil
}

func (m *memoryUsers) GetByID(_ context.Context, id uuid.UUID) (*user.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if u, ok := m.users[id]; ok {
		cp := *u
		return &cp, nil
	}
	return nil, nil
}

func (m *memoryUsers) GetByEmail(_ context.Context, email string) (*user.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, nil
}

func (m *memoryUsers) UpdateRole(_ context.Context, id uuid.UUID, role authz.Role) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return user.ErrUserNotFound
	}
	u.Role = role
	return nil
}

type memoryTokens struct {
	mu     sync.Mutex
	tokens map[string]uuid.UUID
}

func (m *memoryTokens) Save(_ context.Context, hash string, userID uuid.UUID, _ time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tokens[hash] = userID
	return nil
}

func (m *memoryTokens) Take(_ context.Context, hash string) (uuid.UUID, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := m.tokens[hash]
	delete(m.tokens, hash)
	return id, nil
}

func (m *memoryTokens) Delete(_ context.Context, hash string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.tokens, hash)
	return nil
}

type memoryCatalog struct {
	mu       sync.Mutex
	packages map[uuid.UUID]*catalog.Package
	addOns   map[uuid.UUID]*catalog.AddOn
}

func (m *memoryCatalog) CreatePackage(_ context.Context, p *catalog.Package) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p.CreatedAt, p.UpdatedAt = time.Now(), time.Now()
	cp := *p
	m.packages[p.ID] = &cp
	return nil
}

func (m *memoryCatalog) GetPackage(_ context.Context, id uuid.UUID) (*catalog.Package, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if p, ok := m.packages[id]; ok {
		cp := *p
		return &cp, nil
	}
	return nil, nil
}

func (m *memoryCatalog) UpdatePackage(_ context.Context, p *catalog.Package) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *p
	m.packages[p.ID] = &cp
	return nil
}

func (m *memoryCatalog) DeletePackage(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.packages, id)
	return nil
}

func (m *memoryCatalog) ListPackages(_ context.Context, _ catalog.Filter, _ pagination.Pagination) ([]*catalog.Package, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	items := make([]*catalog.Package, 0, len(m.packages))
	for _, p := range m.packages {
		cp := *p
		items = append(items, &cp)
	}
	return items, len(items), nil
}

func (m *memoryCatalog) CountPackageBookings(context.Context, uuid.UUID) (int, error) {
	return 0, nil
}

func (m *memoryCatalog) CreateAddOn(_ context.Context, a *catalog.AddOn) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	a.CreatedAt, a.UpdatedAt = time.Now(), time.Now()
	cp := *a
	m.addOns[a.ID] = &cp
	return nil
}

func (m *memoryCatalog) GetAddOn(_ context.Context, id uuid.UUID) (*catalog.AddOn, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if a, ok := m.addOns[id]; ok {
		cp := *a
		return &cp, nil
	}
	return nil, nil
}

func (m *memoryCatalog) GetAddOns(_ context.Context, ids []uuid.UUID) (map[uuid.UUID]*catalog.AddOn, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	found := make(map[uuid.UUID]*catalog.AddOn, len(ids))
	for _, id := range ids {
		if a, ok := m.addOns[id]; ok {
			cp := *a
			found[id] = &cp
		}
	}
	return found, nil
}

func (m *memoryCatalog) UpdateAddOn(_ context.Context, a *catalog.AddOn) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *a
	m.addOns[a.ID] = &cp
	return nil
}

func (m *memoryCatalog) DeleteAddOn(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.addOns, id)
	return nil
}

func (m *memoryCatalog) ListAddOns(_ context.Context, _ catalog.Filter, _ pagination.Pagination) ([]*catalog.AddOn, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	items := make([]*catalog.AddOn, 0, len(m.addOns))
	for _, a := range m.addOns {
		cp := *a
		items = append(items, &cp)
	}
	return items, len(items), nil
}

func (m *memoryCatalog) CountAddOnLineItems(context.Context, uuid.UUID) (int, error) {
	return 0, nil
}

type memoryBookings struct {
	mu       sync.Mutex
	catalog  *memoryCatalog
	bookings map[uuid.UUID]*booking.Booking
}

func (m *memoryBookings) Create(_ context.Context, b *booking.Booking) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	b.CreatedAt, b.UpdatedAt = time.Now(), time.Now()
	if p, _ := m.catalog.GetPackage(context.Background(), b.PackageID); p != nil {
		b.PackageTitle, b.PackageCategory = p.Title, string(p.Category)
	}
	cp := *b
	m.bookings[b.ID] = &cp
	return nil
}

func (m *memoryBookings) GetByID(_ context.Context, id uuid.UUID) (*booking.Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if b, ok := m.bookings[id]; ok {
		cp := *b
		return &cp, nil
	}
	return nil, nil
}

func (m *memoryBookings) ListByUser(_ context.Context, userID uuid.UUID, _ pagination.Pagination) ([]*booking.Booking, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var items []*booking.Booking
	for _, b := range m.bookings {
		if b.UserID == userID {
			cp := *b
			items = append(items, &cp)
		}
	}
	return items, len(items), nil
}

func (m *memoryBookings) List(_ context.Context, status *booking.Status, _ pagination.Pagination) ([]*booking.Booking, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var items []*booking.Booking
	for _, b := range m.bookings {
		if status == nil || b.Status == *status {
			cp := *b
			items = append(items, &cp)
		}
	}
	return items, len(items), nil
}

func (m *memoryBookings) UpdateStatus(_ context.Context, id uuid.UUID, from, to booking.Status, adminNotes sql.NullString) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.bookings[id]
	if !ok {
		return booking.ErrBookingNotFound
	}
	if b.Status != from {
		return booking.ErrStatusChanged
	}
	b.Status, b.AdminNotes, b.UpdatedAt = to, adminNotes, time.Now()
	return nil
}

type memoryActivity struct {
	mu     sync.Mutex
	events []events.Event
}

func (m *memoryActivity) Record(_ context.Context, event events.Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, event)
	return nil
}

func (m *memoryActivity) ListByBooking(_ context.Context, bookingID uuid.UUID) ([]*booking.Activity, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var items []*booking.Activity
	for _, e := range m.events {
		if e.BookingID == bookingID {
			items = append(items, &booking.Activity{EventID: e.ID, BookingID: e.BookingID, EventType: string(e.Type), OccurredAt: e.OccurredAt})
		}
	}
	return items, nil
}

type memoryDeliveries struct {
	mu         sync.Mutex
	deliveries map[uuid.UUID]*delivery.Delivery
}

func (m *memoryDeliveries) Create(_ context.Context, d *delivery.Delivery) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.deliveries[d.BookingID]; ok {
		return delivery.ErrDeliveryExists
	}
	d.CreatedAt, d.UpdatedAt = time.Now(), time.Now()
	cp := *d
	m.deliveries[d.BookingID] = &cp
	return nil
}

func (m *memoryDeliveries) GetByBookingID(_ context.Context, bookingID uuid.UUID) (*delivery.Delivery, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if d, ok := m.deliveries[bookingID]; ok {
		cp := *d
		return &cp, nil
	}
	return nil, nil
}

func (m *memoryDeliveries) Update(_ context.Context, d *delivery.Delivery) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *d
	m.deliveries[d.BookingID] = &cp
	return nil
}

func (m *memoryDeliveries) AppendMedia(_ context.Context, bookingID uuid.UUID, kind storage.MediaKind, url string) (*delivery.Delivery, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.deliveries[bookingID]
	if !ok {
		return nil, delivery.ErrDeliveryNotFound
	}
	if kind == storage.MediaVideo {
		d.VideoURLs = append(d.VideoURLs, url)
	} else {
		d.PhotoURLs = append(d.PhotoURLs, url)
	}
	cp := *d
	return &cp, nil
}
