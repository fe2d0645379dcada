package catalog

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"

	"github.com/shotbook/shotbook-api/internal/pkg/apperror"
	"github.com/shotbook/shotbook-api/internal/pkg/authz"
	"github.com/shotbook/shotbook-api/internal/pkg/cache"
	"github.com/shotbook/shotbook-api/internal/pkg/pagination"
)

type fakeRepo struct {
	mu          sync.Mutex
	packages    map[uuid.UUID]*Package
	addOns      map[uuid.UUID]*AddOn
	packageRefs map[uuid.UUID]int
	addOnRefs   map[uuid.UUID]int
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		packages:    map[uuid.UUID]*Package{},
		addOns:      map[uuid.UUID]*AddOn{},
		packageRefs: map[uuid.UUID]int{},
		addOnRefs:   map[uuid.UUID]int{},
	}
}

func (f *fakeRepo) CreatePackage(_ context.Context, p *Package) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	p.CreatedAt, p.UpdatedAt = time.Now(), time.Now()
	cp := *p
	f.packages[p.ID] = &cp
	return nil
}

func (f *fakeRepo) GetPackage(_ context.Context, id uuid.UUID) (*Package, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if p, ok := f.packages[id]; ok {
		cp := *p
		return &cp, nil
	}
	return nil, nil
}

func (f *fakeRepo) UpdatePackage(_ context.Context, p *Package) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.packages[p.ID]; !ok {
		return ErrPackageNotFound
	}
	cp := *p
	f.packages[p.ID] = &cp
	return nil
}

func (f *fakeRepo) DeletePackage(_ context.Context, id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.packages, id)
	return nil
}

func (f *fakeRepo) ListPackages(_ context.Context, filter Filter, page pagination.Pagination) ([]*Package, int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var all []*Package
	for _, p := range f.packages {
		if filter.Category != "" && string(p.Category) != filter.Category {
			continue
		}
		if filter.ActiveOnly && !p.IsActive {
			continue
		}
		cp := *p
		all = append(all, &cp)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].Price.LessThan(all[j].Price) })
	return paginate(all, page), len(all), nil
}

func (f *fakeRepo) CountPackageBookings(_ context.Context, id uuid.UUID) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.packageRefs[id], nil
}

func (f *fakeRepo) CreateAddOn(_ context.Context, a *AddOn) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *a
	f.addOns[a.ID] = &cp
	return nil
}

func (f *fakeRepo) GetAddOn(_ context.Context, id uuid.UUID) (*AddOn, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if a, ok := f.addOns[id]; ok {
		cp := *a
		return &cp, nil
	}
	return nil, nil
}

func (f *fakeRepo) GetAddOns(_ context.Context, ids []uuid.UUID) (map[uuid.UUID]*AddOn, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := map[uuid.UUID]*AddOn{}
	for _, id := range ids {
		if a, ok := f.addOns[id]; ok {
			cp := *a
			out[id] = &cp
		}
	}
	return out, nil
}

func (f *fakeRepo) UpdateAddOn(_ context.Context, a *AddOn) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *a
	f.addOns[a.ID] = &cp
	return nil
}

func (f *fakeRepo) DeleteAddOn(_ context.Context, id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.addOns, id)
	return nil
}

func (f *fakeRepo) ListAddOns(_ context.Context, filter Filter, page pagination.Pagination) ([]*AddOn, int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var all []*AddOn
	for _, a := range f.addOns {
		if filter.Category != "" && string(a.Category) != filter.Category {
			continue
		}
		if filter.ActiveOnly && !a.IsActive {
			continue
		}
		cp := *a
		all = append(all, &cp)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].Name < all[j].Name })
	return paginate(all, page), len(all), nil
}

func (f *fakeRepo) CountAddOnLineItems(_ context.Context, id uuid.UUID) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.addOnRefs[id], nil
}

func paginate[T any](items []T, page pagination.Pagination) []T {
	start := page.Offset()
	if start >= len(items) {
		return []T{}
	}
	end := start + page.Limit
	if end > len(items) {
		end = len(items)
	}
	return items[start:end]
}

var (
	admin  = authz.Caller{UserID: uuid.New(), Email: "admin@example.com", Role: authz.RoleAdmin}
	client = authz.Caller{UserID: uuid.New(), Email: "ana@example.com", Role: authz.RoleClient}
)

func newTestService() (*Service, *fakeRepo) {
	repo := newFakeRepo()
	return NewService(repo, cache.New(nil, "catalog", time.Minute)), repo
}

func price(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

func createPackage(t *testing.T, svc *Service, title, p string) *Package {
	t.Helper()
	pkg, err := svc.CreatePackage(context.Background(), admin, &CreatePackageRequest{
		Title:         title,
		Category:      "photography",
		Price:         price(p),
		DurationHours: 2,
		Features:      []string{"50 edited photos"},
	})
	if err != nil {
		t.Fatalf("create package: %v", err)
	}
	return pkg
}

func TestCreatePackageRequiresAdmin(t *testing.T) {
	svc, _ := newTestService()

	_, err := svc.CreatePackage(context.Background(), client, &CreatePackageRequest{
		Title: "Wedding", Category: "photography", Price: price("100"), DurationHours: 1, Features: []string{"x"},
	})
	if !errors.Is(err, apperror.ErrForbidden) {
		t.Fatalf("expected forbidden, got %v", err)
	}

	pkg := createPackage(t, svc, "Wedding", "1500.505")
	if !pkg.IsActive {
		t.Fatalf("new packages default to active")
	}
	if !pkg.Price.Equal(decimal.RequireFromString("1500.51")) {
		t.Fatalf("price should be rounded to cents, got %s", pkg.Price)
	}
}

func TestUpdatePackageMergesFields(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()
	pkg := createPackage(t, svc, "Wedding", "1500")

	inactive := false
	updated, err := svc.UpdatePackage(ctx, admin, pkg.ID, &UpdatePackageRequest{IsActive: &inactive})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.IsActive || updated.Title != "Wedding" || !updated.Price.Equal(decimal.NewFromInt(1500)) {
		t.Fatalf("only is_active should change: %+v", updated)
	}

	if _, err := svc.UpdatePackage(ctx, admin, uuid.New(), &UpdatePackageRequest{}); !errors.Is(err, ErrPackageNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	if _, err := svc.UpdatePackage(ctx, client, pkg.ID, &UpdatePackageRequest{}); !errors.Is(err, authz.ErrAdminRequired) {
		t.Fatalf("expected admin required, got %v", err)
	}
}

func TestDeletePackageReferencedByBooking(t *testing.T) {
	svc, repo := newTestService()
	ctx := context.Background()
	used := createPackage(t, svc, "Wedding", "1500")
	unused := createPackage(t, svc, "Portrait", "200")
	repo.packageRefs[used.ID] = 1

	if err := svc.DeletePackage(ctx, admin, used.ID); !errors.Is(err, ErrPackageInUse) {
		t.Fatalf("expected conflict, got %v", err)
	}
	if !errors.Is(ErrPackageInUse, apperror.ErrConflict) {
		t.Fatalf("package in use must be a conflict")
	}
	if err := svc.DeletePackage(ctx, admin, unused.ID); err != nil {
		t.Fatalf("delete unused: %v", err)
	}
	if _, err := svc.GetPackage(ctx, unused.ID); !errors.Is(err, apperror.ErrNotFound) {
		t.Fatalf("deleted package should be gone, got %v", err)
	}
}

func TestDeleteAddOnReferencedByLineItem(t *testing.T) {
	svc, repo := newTestService()
	ctx := context.Background()
	a, err := svc.CreateAddOn(ctx, admin, &CreateAddOnRequest{Name: "Drone", Category: "equipment", Price: price("150")})
	if err != nil {
		t.Fatalf("create add-on: %v", err)
	}

	repo.addOnRefs[a.ID] = 2
	if err := svc.DeleteAddOn(ctx, admin, a.ID); !errors.Is(err, apperror.ErrConflict) {
		t.Fatalf("expected conflict, got %v", err)
	}

	repo.addOnRefs[a.ID] = 0
	if err := svc.DeleteAddOn(ctx, admin, a.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
}

func TestListPackagesFilters(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()
	createPackage(t, svc, "Wedding", "1500")
	createPackage(t, svc, "Portrait", "200")
	old := createPackage(t, svc, "Legacy", "50")
	inactive := false
	if _, err := svc.UpdatePackage(ctx, admin, old.ID, &UpdatePackageRequest{IsActive: &inactive}); err != nil {
		t.Fatalf("deactivate: %v", err)
	}

	page := pagination.Pagination{Page: 1, Limit: 20}
	active, err := svc.ListPackages(ctx, Filter{ActiveOnly: true}, page)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if active.Total != 2 {
		t.Fatalf("expected 2 active packages, got %d", active.Total)
	}

	all, err := svc.ListPackages(ctx, Filter{}, page)
	if err != nil {
		t.Fatalf("list all: %v", err)
	}
	if all.Total != 3 {
		t.Fatalf("expected 3 packages, got %d", all.Total)
	}

	videos, err := svc.ListPackages(ctx, Filter{Category: "videography"}, page)
	if err != nil {
		t.Fatalf("list videography: %v", err)
	}
	if videos.Total != 0 || len(videos.Items) != 0 {
		t.Fatalf("expected no videography packages, got %d", videos.Total)
	}
}

func TestAdminWriteInvalidatesCachedPackage(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })

	repo := newFakeRepo()
	svc := NewService(repo, cache.New(rdb, "catalog", time.Hour))
	pkg := createPackage(t, svc, "Wedding", "1000.00")

	if _, err := svc.GetPackage(ctx, pkg.ID); err != nil {
		t.Fatalf("warm cache: %v", err)
	}

	// a write that bypasses the service is hidden by the cache
	repo.mu.Lock()
	repo.packages[pkg.ID].Title = "Changed behind the cache"
	repo.mu.Unlock()
	cached, err := svc.GetPackage(ctx, pkg.ID)
	if err != nil || cached.Title != "Wedding" {
		t.Fatalf("expected cached title, got %+v err=%v", cached, err)
	}

	title := "Wedding Deluxe"
	if _, err := svc.UpdatePackage(ctx, admin, pkg.ID, &UpdatePackageRequest{Title: &title, Price: price("1500.00")}); err != nil {
		t.Fatalf("update: %v", err)
	}

	got, err := svc.GetPackage(ctx, pkg.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Title != "Wedding Deluxe" || !got.Price.Equal(decimal.RequireFromString("1500.00")) {
		t.Fatalf("expected updated package after write, got %+v", got)
	}
}
