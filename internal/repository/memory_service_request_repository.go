package repository

import (
	"context"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/spec-kit/service-desk/internal/domain"
)

var _ ServiceRequestRepository = (*MemoryServiceRequestRepository)(nil)

type requestKey struct {
	organizationID string
	id             string
}

// MemoryServiceRequestRepository keeps service requests in process memory.
// Records are cloned on the way in and out.
type MemoryServiceRequestRepository struct {
	mu       sync.RWMutex
	requests map[requestKey]*domain.ServiceRequest
}

// NewMemoryServiceRequestRepository builds an empty store.
func NewMemoryServiceRequestRepository() *MemoryServiceRequestRepository {
	return &MemoryServiceRequestRepository{requests: make(map[requestKey]*domain.ServiceRequest)}
}

func (m *MemoryServiceRequestRepository) Create(_ context.Context, request *domain.ServiceRequest) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for key, existing := range m.requests {
		if key.organizationID == request.OrganizationID && existing.TicketNumber == request.TicketNumber {
			return ErrDuplicateTicketNumber
		}
	}
	m.requests[requestKey{request.OrganizationID, request.ID}] = request.Clone()
	return nil
}

func (m *MemoryServiceRequestRepository) Find(_ context.Context, organizationID, id string) (*domain.ServiceRequest, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	request, ok := m.live(organizationID, id)
	if !ok {
		return nil, ErrNotFound
	}
	return request.Clone(), nil
}

func (m *MemoryServiceRequestRepository) History(ctx context.Context, organizationID, id string) ([]domain.StateTransition, error) {
	request, err := m.Find(ctx, organizationID, id)
	if err != nil {
		return nil, err
	}
	return request.StateHistory, nil
}

func (m *MemoryServiceRequestRepository) List(_ context.Context, filter ServiceRequestFilter) ([]domain.ServiceRequest, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	search := ""
	if filter.SearchTerm != nil {
		search = strings.ToLower(strings.TrimSpace(*filter.SearchTerm))
	}

	var matched []*domain.ServiceRequest
	for key, request := range m.requests {
		if key.organizationID != filter.OrganizationID || request.IsDeleted {
			continue
		}
		if len(filter.States) > 0 && !slices.Contains(filter.States, request.State) {
			continue
		}
		if len(filter.Priorities) > 0 && !slices.Contains(filter.Priorities, request.Priority) {
			continue
		}
		if filter.AssigneeID != nil && (request.AssignedStaffID == nil || *request.AssignedStaffID != *filter.AssigneeID) {
			continue
		}
		if search != "" &&
			!strings.Contains(strings.ToLower(request.Title), search) &&
			!strings.Contains(strings.ToLower(request.Description), search) &&
			!strings.Contains(strings.ToLower(request.TicketNumber), search) {
			continue
		}
		matched = append(matched, request)
	}

	slices.SortFunc(matched, func(a, b *domain.ServiceRequest) int {
		if c := b.UpdatedAt.Compare(a.UpdatedAt); c != 0 {
			return c
		}
		return strings.Compare(a.ID, b.ID)
	})

	limit, offset := normalizePage(filter.Limit, filter.Offset)
	if offset >= len(matched) {
		return nil, nil
	}
	matched = matched[offset:min(offset+limit, len(matched))]

	result := make([]domain.ServiceRequest, 0, len(matched))
	for _, request := range matched {
		result = append(result, *request.Clone())
	}
	return result, nil
}

func (m *MemoryServiceRequestRepository) ApplyTransition(_ context.Context, write TransitionWrite) (*domain.ServiceRequest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	stored, ok := m.live(write.OrganizationID, write.ID)
	if !ok {
		return nil, ErrNotFound
	}
	if stored.State != write.ExpectedState || stored.Version != write.ExpectedVersion {
		return nil, ErrStateConflict
	}
	next := stored.Clone()
	if err := write.Patch.Apply(next, write.Entry); err != nil {
		return nil, err
	}
	m.requests[requestKey{write.OrganizationID, write.ID}] = next
	return next.Clone(), nil
}

func (m *MemoryServiceRequestRepository) UpdateVisitDetails(_ context.Context, organizationID, id, visitID string, details domain.VisitDetails, at time.Time) (*domain.ServiceRequest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	stored, ok := m.live(organizationID, id)
	if !ok {
		return nil, ErrNotFound
	}
	next := stored.Clone()
	visit := next.Visit(visitID)
	if visit == nil {
		return nil, domain.ErrVisitNotFound
	}
	if err := visit.ApplyDetails(details); err != nil {
		return nil, err
	}
	next.Version++
	next.UpdatedAt = at
	m.requests[requestKey{organizationID, id}] = next
	return next.Clone(), nil
}

func (m *MemoryServiceRequestRepository) SoftDelete(_ context.Context, organizationID, id string, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	stored, ok := m.live(organizationID, id)
	if !ok {
		return ErrNotFound
	}
	stored.IsDeleted = true
	stored.DeletedAt = &at
	stored.UpdatedAt = at
	stored.Version++
	return nil
}

func (m *MemoryServiceRequestRepository) TicketNumberExists(_ context.Context, organizationID, code string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for key, request := range m.requests {
		if key.organizationID == organizationID && request.TicketNumber == code {
			return true, nil
		}
	}
	return false, nil
}

func (m *MemoryServiceRequestRepository) live(organizationID, id string) (*domain.ServiceRequest, bool) {
	request, ok := m.requests[requestKey{organizationID, id}]
	if !ok || request.IsDeleted {
		return nil, false
	}
	return request, true
}
