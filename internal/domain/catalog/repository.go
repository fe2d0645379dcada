package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/rs/zerolog/log"

	"github.com/shotbook/shotbook-api/internal/pkg/logger"
	"github.com/shotbook/shotbook-api/internal/pkg/pagination"
)

// Repository defines catalog data access interface
type Repository interface {
	CreatePackage(ctx context.Context, p *Package) error
	GetPackage(ctx context.Context, id uuid.UUID) (*Package, error)
	UpdatePackage(ctx context.Context, p *Package) error
	DeletePackage(ctx context.Context, id uuid.UUID) error
	ListPackages(ctx context.Context, filter Filter, page pagination.Pagination) ([]*Package, int, error)
	CountPackageBookings(ctx context.Context, id uuid.UUID) (int, error)

	CreateAddOn(ctx context.Context, a *AddOn) error
	GetAddOn(ctx context.Context, id uuid.UUID) (*AddOn, error)
	GetAddOns(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*AddOn, error)
	UpdateAddOn(ctx context.Context, a *AddOn) error
	DeleteAddOn(ctx context.Context, id uuid.UUID) error
	ListAddOns(ctx context.Context, filter Filter, page pagination.Pagination) ([]*AddOn, int, error)
	CountAddOnLineItems(ctx context.Context, id uuid.UUID) (int, error)
}

type repository struct {
	db *sqlx.DB
}

const (
	packageSelectColumns = `id, title, description, category, price, duration_hours, features, is_active, created_at, updated_at`
	addOnSelectColumns   = `id, name, description, category, price, is_active, created_at, updated_at`
)

// NewRepository creates new catalog repository
func NewRepository(db *sqlx.DB) Repository {
	return &repository{db: db}
}

func (r *repository) CreatePackage(ctx context.Context, p *Package) error {
	query := `
		INSERT INTO packages (id, title, description, category, price, duration_hours, features, is_active)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING created_at, updated_at
	`

	err := r.db.QueryRowxContext(ctx, query,
		p.ID, p.Title, p.Description, p.Category, p.Price, p.DurationHours, p.Features, p.IsActive,
	).Scan(&p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		logDBError(ctx, "packages.create", p.ID, err)
		return mapWriteError(err)
	}
	return nil
}

func (r *repository) GetPackage(ctx context.Context, id uuid.UUID) (*Package, error) {
	var p Package
	err := r.db.GetContext(ctx, &p, `SELECT `+packageSelectColumns+` FROM packages WHERE id = $1`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("catalog repository get package: %w", err)
	}
	return &p, nil
}

func (r *repository) UpdatePackage(ctx context.Context, p *Package) error {
	query := `
		UPDATE packages SET
			title = $2, description = $3, category = $4, price = $5,
			duration_hours = $6, features = $7, is_active = $8,
			updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at
	`

	err := r.db.QueryRowxContext(ctx, query,
		p.ID, p.Title, p.Description, p.Category, p.Price, p.DurationHours, p.Features, p.IsActive,
	).Scan(&p.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrPackageNotFound
		}
		logDBError(ctx, "packages.update", p.ID, err)
		return mapWriteError(err)
	}
	return nil
}

func (r *repository) DeletePackage(ctx context.Context, id uuid.UUID) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM packages WHERE id = $1`, id)
	if err != nil {
		logDBError(ctx, "packages.delete", id, err)
		if isForeignKeyViolation(err) {
			return fmt.Errorf("%w: %w", ErrPackageInUse, err)
		}
		return fmt.Errorf("catalog repository delete package: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrPackageNotFound
	}
	return nil
}

func (r *repository) ListPackages(ctx context.Context, filter Filter, page pagination.Pagination) ([]*Package, int, error) {
	where, args := filter.where()

	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM packages`+where, args...); err != nil {
		return nil, 0, fmt.Errorf("catalog repository count packages: %w", err)
	}

	query := fmt.Sprintf(`SELECT %s FROM packages%s ORDER BY price ASC, created_at DESC LIMIT $%d OFFSET $%d`,
		packageSelectColumns, where, len(args)+1, len(args)+2)

	packages := []*Package{}
	if err := r.db.SelectContext(ctx, &packages, query, append(args, page.Limit, page.Offset())...); err != nil {
		return nil, 0, fmt.Errorf("catalog repository list packages: %w", err)
	}
	return packages, total, nil
}

func (r *repository) CountPackageBookings(ctx context.Context, id uuid.UUID) (int, error) {
	var n int
	if err := r.db.GetContext(ctx, &n, `SELECT COUNT(*) FROM bookings WHERE package_id = $1`, id); err != nil {
		return 0, fmt.Errorf("catalog repository count package bookings: %w", err)
	}
	return n, nil
}

func (r *repository) CreateAddOn(ctx context.Context, a *AddOn) error {
	query := `
		INSERT INTO addons (id, name, description, category, price, is_active)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at, updated_at
	`

	err := r.db.QueryRowxContext(ctx, query,
		a.ID, a.Name, a.Description, a.Category, a.Price, a.IsActive,
	).Scan(&a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		logDBError(ctx, "addons.create", a.ID, err)
		return mapWriteError(err)
	}
	return nil
}

func (r *repository) GetAddOn(ctx context.Context, id uuid.UUID) (*AddOn, error) {
	var a AddOn
	err := r.db.GetContext(ctx, &a, `SELECT `+addOnSelectColumns+` FROM addons WHERE id = $1`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("catalog repository get add-on: %w", err)
	}
	return &a, nil
}

// GetAddOns loads the given add-ons in one query; missing ids are simply absent from the map
func (r *repository) GetAddOns(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*AddOn, error) {
	result := make(map[uuid.UUID]*AddOn, len(ids))
	if len(ids) == 0 {
		return result, nil
	}

	strIDs := make([]string, len(ids))
	for i, id := range ids {
		strIDs[i] = id.String()
	}

	var addOns []*AddOn
	query := `SELECT ` + addOnSelectColumns + ` FROM addons WHERE id = ANY($1::uuid[])`
	if err := r.db.SelectContext(ctx, &addOns, query, pq.StringArray(strIDs)); err != nil {
		return nil, fmt.Errorf("catalog repository get add-ons: %w", err)
	}

	for _, a := range addOns {
		result[a.ID] = a
	}
	return result, nil
}

func (r *repository) UpdateAddOn(ctx context.Context, a *AddOn) error {
	query := `
		UPDATE addons SET
			name = $2, description = $3, category = $4, price = $5, is_active = $6,
			updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at
	`

	err := r.db.QueryRowxContext(ctx, query,
		a.ID, a.Name, a.Description, a.Category, a.Price, a.IsActive,
	).Scan(&a.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrAddOnNotFound
		}
		logDBError(ctx, "addons.update", a.ID, err)
		return mapWriteError(err)
	}
	return nil
}

func (r *repository) DeleteAddOn(ctx context.Context, id uuid.UUID) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM addons WHERE id = $1`, id)
	if err != nil {
		logDBError(ctx, "addons.delete", id, err)
		if isForeignKeyViolation(err) {
			return fmt.Errorf("%w: %w", ErrAddOnInUse, err)
		}
		return fmt.Errorf("catalog repository delete add-on: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrAddOnNotFound
	}
	return nil
}

func (r *repository) ListAddOns(ctx context.Context, filter Filter, page pagination.Pagination) ([]*AddOn, int, error) {
	where, args := filter.where()

	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM addons`+where, args...); err != nil {
		return nil, 0, fmt.Errorf("catalog repository count add-ons: %w", err)
	}

	query := fmt.Sprintf(`SELECT %s FROM addons%s ORDER BY name ASC LIMIT $%d OFFSET $%d`,
		addOnSelectColumns, where, len(args)+1, len(args)+2)

	addOns := []*AddOn{}
	if err := r.db.SelectContext(ctx, &addOns, query, append(args, page.Limit, page.Offset())...); err != nil {
		return nil, 0, fmt.Errorf("catalog repository list add-ons: %w", err)
	}
	return addOns, total, nil
}

func (r *repository) CountAddOnLineItems(ctx context.Context, id uuid.UUID) (int, error) {
	var n int
	if err := r.db.GetContext(ctx, &n, `SELECT COUNT(*) FROM booking_addons WHERE addon_id = $1`, id); err != nil {
		return 0, fmt.Errorf("catalog repository count add-on line items: %w", err)
	}
	return n, nil
}

func (f Filter) where() (string, []interface{}) {
	conditions := []string{}
	args := []interface{}{}
	argIndex := 1

	if f.Category != "" {
		conditions = append(conditions, fmt.Sprintf("category = $%d", argIndex))
		args = append(args, f.Category)
		argIndex++
	}
	if f.ActiveOnly {
		conditions = append(conditions, "is_active = TRUE")
	}

	if len(conditions) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(conditions, " AND "), args
}

func logDBError(ctx context.Context, query string, id uuid.UUID, err error) {
	evt := log.Error().
		Str("request_id", logger.RequestID(ctx)).
		Str("query", query).
		Str("id", id.String()).
		Err(err)

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		evt = evt.
			Str("pg_code", string(pqErr.Code)).
			Str("pg_constraint", pqErr.Constraint)
	}

	evt.Msg("catalog write failed")
}

func mapWriteError(err error) error {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return err
	}

	switch pqErr.Code {
	case "23514":
		return fmt.Errorf("%w: %w", ErrConstraint, err)
	case "22P02":
		return fmt.Errorf("%w: %w", ErrInvalidCategory, err)
	default:
		return err
	}
}

func isForeignKeyViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23503"
}
