package tenant

import (
	"context"
	"sync"
	"time"

	"github.com/spec-kit/service-desk/internal/domain"
)

// MemoryProvider serves organizations registered in process.
type MemoryProvider struct {
	mu   sync.RWMutex
	orgs map[string]domain.Organization
}

// NewMemoryProvider seeds the provider with orgs.
func NewMemoryProvider(orgs ...domain.Organization) *MemoryProvider {
	p := &MemoryProvider{orgs: make(map[string]domain.Organization, len(orgs))}
	for _, org := range orgs {
		p.Put(org)
	}
	return p
}

// Put registers or replaces an organization.
func (p *MemoryProvider) Put(org domain.Organization) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.orgs[org.ID] = *cloneOrganization(&org)
}

func (p *MemoryProvider) GetOrganization(_ context.Context, id string) (*domain.Organization, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	org, ok := p.orgs[id]
	if !ok {
		return nil, ErrOrganizationNotFound
	}
	return cloneOrganization(&org), nil
}

// Upsert stores org and stamps its timestamps.
func (p *MemoryProvider) Upsert(_ context.Context, org *domain.Organization) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	now := time.Now().UTC()
	if existing, ok := p.orgs[org.ID]; ok {
		org.CreatedAt = existing.CreatedAt
	} else {
		org.CreatedAt = now
	}
	org.UpdatedAt = now
	p.orgs[org.ID] = *cloneOrganization(org)
	return nil
}
