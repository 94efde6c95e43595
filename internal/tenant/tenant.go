package tenant

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/service-desk/internal/domain"
)

// ErrOrganizationNotFound is returned by providers when no organization matches.
var ErrOrganizationNotFound = errors.New("organization not found")

// DefaultCacheTTL bounds how stale a cached organization may be.
const DefaultCacheTTL = 30 * time.Second

// Provider loads organizations from their source of truth.
type Provider interface {
	// GetOrganization returns ErrOrganizationNotFound when id is unknown.
	GetOrganization(ctx context.Context, id string) (*domain.Organization, error)
}

// Gate answers the two tenant questions asked before any lifecycle change.
// A lookup error is distinct from a negative answer.
type Gate interface {
	IsModuleEnabled(ctx context.Context, organizationID, module string) (bool, error)
	IsActive(ctx context.Context, organizationID string) (bool, error)
}

// Options configures a Service.
type Options struct {
	Cache           Cache
	CacheTTL        time.Duration
	AllowedStatuses []domain.OrganizationStatus
	Logger          *zap.Logger
}

// Service is the Gate backed by a Provider and a read-through cache.
type Service struct {
	provider Provider
	cache    Cache
	ttl      time.Duration
	allowed  []domain.OrganizationStatus
	logger   *zap.Logger
}

var _ Gate = (*Service)(nil)

// NewService wires the gate. Without AllowedStatuses only TRIAL and ACTIVE tenants pass.
func NewService(provider Provider, opts Options) *Service {
	if provider == nil {
		panic("tenant: provider cannot be nil")
	}
	if opts.Cache == nil {
		opts.Cache = NewNoOpCache()
	}
	if opts.CacheTTL <= 0 {
		opts.CacheTTL = DefaultCacheTTL
	}
	if len(opts.AllowedStatuses) == 0 {
		opts.AllowedStatuses = []domain.OrganizationStatus{domain.OrganizationStatusTrial, domain.OrganizationStatusActive}
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	return &Service{
		provider: provider,
		cache:    opts.Cache,
		ttl:      opts.CacheTTL,
		allowed:  slices.Clone(opts.AllowedStatuses),
		logger:   opts.Logger,
	}
}

// Organization resolves an organization through the cache.
func (s *Service) Organization(ctx context.Context, id string) (*domain.Organization, error) {
	if org, ok := s.cache.Get(ctx, id); ok {
		return org, nil
	}
	org, err := s.provider.GetOrganization(ctx, id)
	if err != nil {
		if errors.Is(err, ErrOrganizationNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("load organization %s: %w", id, err)
	}
	s.cache.Set(ctx, id, org, s.ttl)
	return org, nil
}

// IsModuleEnabled reports the module flag. Unknown organizations have nothing enabled.
func (s *Service) IsModuleEnabled(ctx context.Context, organizationID, module string) (bool, error) {
	org, err := s.Organization(ctx, organizationID)
	if errors.Is(err, ErrOrganizationNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return org.ModuleEnabled(module), nil
}

// IsActive reports whether the organization's status is in the allowed set.
func (s *Service) IsActive(ctx context.Context, organizationID string) (bool, error) {
	org, err := s.Organization(ctx, organizationID)
	if errors.Is(err, ErrOrganizationNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	active := slices.Contains(s.allowed, org.Status)
	if !active {
		s.logger.Debug("organization not active",
			zap.String("organization_id", organizationID),
			zap.String("status", string(org.Status)))
	}
	return active, nil
}

// Invalidate drops a cached organization after its status or modules change.
func (s *Service) Invalidate(ctx context.Context, organizationID string) {
	s.cache.Delete(ctx, organizationID)
}
