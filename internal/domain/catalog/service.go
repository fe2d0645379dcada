package catalog

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/shotbook/shotbook-api/internal/pkg/authz"
	"github.com/shotbook/shotbook-api/internal/pkg/cache"
	"github.com/shotbook/shotbook-api/internal/pkg/pagination"
)

// Service handles catalog business logic
type Service struct {
	repo  Repository
	cache *cache.JSONCache
}

// NewService creates catalog service. cache may be built on a nil Redis client.
func NewService(repo Repository, cache *cache.JSONCache) *Service {
	return &Service{repo: repo, cache: cache}
}

// PackagePage is one page of packages
type PackagePage struct {
	Items []*Package `json:"items"`
	Total int        `json:"total"`
}

// AddOnPage is one page of add-ons
type AddOnPage struct {
	Items []*AddOn `json:"items"`
	Total int      `json:"total"`
}

// ListPackages returns packages matching filter
func (s *Service) ListPackages(ctx context.Context, filter Filter, page pagination.Pagination) (*PackagePage, error) {
	key := fmt.Sprintf("packages:list:%s:%t:%d:%d", filter.Category, filter.ActiveOnly, page.Page, page.Limit)

	var cached PackagePage
	slot, hit := s.cacheGet(ctx, key, &cached)
	if hit {
		return &cached, nil
	}

	items, total, err := s.repo.ListPackages(ctx, filter, page)
	if err != nil {
		return nil, err
	}

	result := &PackagePage{Items: items, Total: total}
	s.cacheSet(ctx, slot, result)
	return result, nil
}

// GetPackage returns a package by id
func (s *Service) GetPackage(ctx context.Context, id uuid.UUID) (*Package, error) {
	key := "packages:" + id.String()

	var cached Package
	slot, hit := s.cacheGet(ctx, key, &cached)
	if hit {
		return &cached, nil
	}

	p, err := s.repo.GetPackage(ctx, id)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, ErrPackageNotFound
	}

	s.cacheSet(ctx, slot, p)
	return p, nil
}

// CreatePackage adds a package (admin only)
func (s *Service) CreatePackage(ctx context.Context, caller authz.Caller, req *CreatePackageRequest) (*Package, error) {
	if err := authz.Require(caller, authz.RoleAdmin); err != nil {
		return nil, err
	}

	p := &Package{
		ID:            uuid.New(),
		Title:         strings.TrimSpace(req.Title),
		Description:   strings.TrimSpace(req.Description),
		Category:      PackageCategory(req.Category),
		Price:         req.Price.Round(2),
		DurationHours: req.DurationHours,
		Features:      req.Features,
		IsActive:      true,
	}
	if req.IsActive != nil {
		p.IsActive = *req.IsActive
	}

	if err := s.repo.CreatePackage(ctx, p); err != nil {
		return nil, err
	}

	s.invalidate(ctx)
	log.Info().Str("package_id", p.ID.String()).Str("admin_id", caller.UserID.String()).Msg("package created")
	return p, nil
}

// UpdatePackage merges the supplied fields into a package (admin only)
func (s *Service) UpdatePackage(ctx context.Context, caller authz.Caller, id uuid.UUID, req *UpdatePackageRequest) (*Package, error) {
	if err := authz.Require(caller, authz.RoleAdmin); err != nil {
		return nil, err
	}

	p, err := s.repo.GetPackage(ctx, id)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, ErrPackageNotFound
	}

	if req.Title != nil {
		p.Title = strings.TrimSpace(*req.Title)
	}
	if req.Description != nil {
		p.Description = strings.TrimSpace(*req.Description)
	}
	if req.Category != nil {
		p.Category = PackageCategory(*req.Category)
	}
	if req.Price != nil {
		p.Price = req.Price.Round(2)
	}
	if req.DurationHours != nil {
		p.DurationHours = *req.DurationHours
	}
	if req.Features != nil {
		p.Features = req.Features
	}
	if req.IsActive != nil {
		p.IsActive = *req.IsActive
	}

	if err := s.repo.UpdatePackage(ctx, p); err != nil {
		return nil, err
	}

	s.invalidate(ctx)
	return p, nil
}

// DeletePackage removes a package that no booking references (admin only)
func (s *Service) DeletePackage(ctx context.Context, caller authz.Caller, id uuid.UUID) error {
	if err := authz.Require(caller, authz.RoleAdmin); err != nil {
		return err
	}

	p, err := s.repo.GetPackage(ctx, id)
	if err != nil {
		return err
	}
	if p == nil {
		return ErrPackageNotFound
	}

	n, err := s.repo.CountPackageBookings(ctx, id)
	if err != nil {
		return err
	}
	if n > 0 {
		return ErrPackageInUse
	}

	if err := s.repo.DeletePackage(ctx, id); err != nil {
		return err
	}

	s.invalidate(ctx)
	log.Info().Str("package_id", id.String()).Str("admin_id", caller.UserID.String()).Msg("package deleted")
	return nil
}

// ListAddOns returns add-ons matching filter
func (s *Service) ListAddOns(ctx context.Context, filter Filter, page pagination.Pagination) (*AddOnPage, error) {
	key := fmt.Sprintf("addons:list:%s:%t:%d:%d", filter.Category, filter.ActiveOnly, page.Page, page.Limit)

	var cached AddOnPage
	slot, hit := s.cacheGet(ctx, key, &cached)
	if hit {
		return &cached, nil
	}

	items, total, err := s.repo.ListAddOns(ctx, filter, page)
	if err != nil {
		return nil, err
	}

	result := &AddOnPage{Items: items, Total: total}
	s.cacheSet(ctx, slot, result)
	return result, nil
}

// GetAddOn returns an add-on by id
func (s *Service) GetAddOn(ctx context.Context, id uuid.UUID) (*AddOn, error) {
	key := "addons:" + id.String()

	var cached AddOn
	slot, hit := s.cacheGet(ctx, key, &cached)
	if hit {
		return &cached, nil
	}

	a, err := s.repo.GetAddOn(ctx, id)
	if err != nil {
		return nil, err
	}
	if a == nil {
		return nil, ErrAddOnNotFound
	}

	s.cacheSet(ctx, slot, a)
	return a, nil
}

// CreateAddOn adds an add-on (admin only)
func (s *Service) CreateAddOn(ctx context.Context, caller authz.Caller, req *CreateAddOnRequest) (*AddOn, error) {
	if err := authz.Require(caller, authz.RoleAdmin); err != nil {
		return nil, err
	}

	a := &AddOn{
		ID:          uuid.New(),
		Name:        strings.TrimSpace(req.Name),
		Description: strings.TrimSpace(req.Description),
		Category:    AddOnCategory(req.Category),
		Price:       req.Price.Round(2),
		IsActive:    true,
	}
	if req.IsActive != nil {
		a.IsActive = *req.IsActive
	}

	if err := s.repo.CreateAddOn(ctx, a); err != nil {
		return nil, err
	}

	s.invalidate(ctx)
	return a, nil
}

// UpdateAddOn merges the supplied fields into an add-on (admin only)
func (s *Service) UpdateAddOn(ctx context.Context, caller authz.Caller, id uuid.UUID, req *UpdateAddOnRequest) (*AddOn, error) {
	if err := authz.Require(caller, authz.RoleAdmin); err != nil {
		return nil, err
	}

	a, err := s.repo.GetAddOn(ctx, id)
	if err != nil {
		return nil, err
	}
	if a == nil {
		return nil, ErrAddOnNotFound
	}

	if req.Name != nil {
		a.Name = strings.TrimSpace(*req.Name)
	}
	if req.Description != nil {
		a.Description = strings.TrimSpace(*req.Description)
	}
	if req.Category != nil {
		a.Category = AddOnCategory(*req.Category)
	}
	if req.Price != nil {
		a.Price = req.Price.Round(2)
	}
	if req.IsActive != nil {
		a.IsActive = *req.IsActive
	}

	if err := s.repo.UpdateAddOn(ctx, a); err != nil {
		return nil, err
	}

	s.invalidate(ctx)
	return a, nil
}

// DeleteAddOn removes an add-on. Like packages, an add-on still used by a
// booking line item cannot be deleted and must be deactivated instead.
func (s *Service) DeleteAddOn(ctx context.Context, caller authz.Caller, id uuid.UUID) error {
	if err := authz.Require(caller, authz.RoleAdmin); err != nil {
		return err
	}

	a, err := s.repo.GetAddOn(ctx, id)
	if err != nil {
		return err
	}
	if a == nil {
		return ErrAddOnNotFound
	}

	n, err := s.repo.CountAddOnLineItems(ctx, id)
	if err != nil {
		return err
	}
	if n > 0 {
		return ErrAddOnInUse
	}

	if err := s.repo.DeleteAddOn(ctx, id); err != nil {
		return err
	}

	s.invalidate(ctx)
	return nil
}

// LookupPackage reads a package straight from storage, bypassing the cache.
// Booking creation prices from it.
func (s *Service) LookupPackage(ctx context.Context, id uuid.UUID) (*Package, error) {
	return s.repo.GetPackage(ctx, id)
}

// LookupAddOns reads add-ons straight from storage
func (s *Service) LookupAddOns(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*AddOn, error) {
	return s.repo.GetAddOns(ctx, ids)
}

func (s *Service) cacheGet(ctx context.Context, key string, dest interface{}) (cache.Slot, bool) {
	slot, hit, err := s.cache.Get(ctx, key, dest)
	if err != nil {
		log.Warn().Err(err).Str("key", key).Msg("catalog cache read failed")
		return slot, false
	}
	return slot, hit
}

func (s *Service) cacheSet(ctx context.Context, slot cache.Slot, value interface{}) {
	if err := s.cache.Set(ctx, slot, value); err != nil {
		log.Warn().Err(err).Msg("catalog cache write failed")
	}
}

func (s *Service) invalidate(ctx context.Context) {
	if err := s.cache.Invalidate(ctx); err != nil {
		log.Warn().Err(err).Msg("catalog cache invalidation failed")
	}
}
