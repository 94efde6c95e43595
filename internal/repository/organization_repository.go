package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/service-desk/internal/domain"
	"github.com/spec-kit/service-desk/internal/tenant"
)

// OrganizationRepository reads tenants; it is the Postgres tenant.Provider.
type OrganizationRepository interface {
	tenant.Provider
	Upsert(ctx context.Context, org *domain.Organization) error
}

type organizationRepository struct {
	pool *pgxpool.Pool
}

// NewOrganizationRepository instantiates repository.
func NewOrganizationRepository(pool *pgxpool.Pool) OrganizationRepository {
	return &organizationRepository{pool: pool}
}

func (r *organizationRepository) GetOrganization(ctx context.Context, id string) (*domain.Organization, error) {
	const query = `
        SELECT id, name, status, modules, created_at, updated_at
        FROM organizations WHERE id=$1`

	var (
		org     domain.Organization
		modules []byte
	)
	if err := r.pool.QueryRow(ctx, query, id).Scan(
		&org.ID,
		&org.Name,
		&org.Status,
		&modules,
		&org.CreatedAt,
		&org.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, tenant.ErrOrganizationNotFound
		}
		return nil, err
	}
	if len(modules) > 0 {
		if err := json.Unmarshal(modules, &org.Modules); err != nil {
			return nil, fmt.Errorf("decode modules: %w", err)
		}
	}
	return &org, nil
}

func (r *organizationRepository) Upsert(ctx context.Context, org *domain.Organization) error {
	const query = `
        INSERT INTO organizations (id, name, status, modules)
        VALUES ($1,$2,$3,$4)
        ON CONFLICT (id) DO UPDATE SET name=EXCLUDED.name, status=EXCLUDED.status,
            modules=EXCLUDED.modules, updated_at=NOW()
        RETURNING created_at, updated_at`

	modules := org.Modules
	if modules == nil {
		modules = map[string]bool{}
	}
	raw, err := json.Marshal(modules)
	if err != nil {
		return fmt.Errorf("encode modules: %w", err)
	}
	return r.pool.QueryRow(ctx, query, org.ID, org.Name, org.Status, raw).Scan(&org.CreatedAt, &org.UpdatedAt)
}
