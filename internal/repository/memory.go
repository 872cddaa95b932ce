package repository

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/citycare/issue-service/internal/domain"
)

// MemoryIssueRepository keeps issues in process memory with the same
// compare-and-swap contract as the Postgres repository. Every read and write
// goes through deep copies so callers never alias stored state.
type MemoryIssueRepository struct {
	mu       sync.RWMutex
	issues   map[string]*domain.Issue
	byTicket map[string]string
}

// NewMemoryIssueRepository builds an empty repository.
func NewMemoryIssueRepository() *MemoryIssueRepository {
	return &MemoryIssueRepository{
		issues:   make(map[string]*domain.Issue),
		byTicket: make(map[string]string),
	}
}

func (r *MemoryIssueRepository) Create(ctx context.Context, issue *domain.Issue) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.issues[issue.ID]; ok {
		return ErrDuplicate
	}
	if _, ok := r.byTicket[issue.TicketID]; ok {
		return ErrDuplicate
	}
	stored := issue.Clone()
	stored.History = []domain.IssueEvent{}
	r.issues[issue.ID] = stored
	r.byTicket[issue.TicketID] = issue.ID
	return nil
}

func (r *MemoryIssueRepository) Get(ctx context.Context, id string) (*domain.Issue, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	issue, ok := r.issues[id]
	if !ok {
		return nil, ErrNotFound
	}
	return issue.Clone(), nil
}

func (r *MemoryIssueRepository) GetByTicketID(ctx context.Context, ticketID string) (*domain.Issue, error) {
	r.mu.RLock()
	id, ok := r.byTicket[ticketID]
	r.mu.RUnlock()
	if !ok {
		return nil, ErrNotFound
	}
	return r.Get(ctx, id)
}

func (r *MemoryIssueRepository) CompareAndSwap(ctx context.Context, expectedRevision int64, next *domain.Issue, event domain.IssueEvent) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	current, ok := r.issues[next.ID]
	if !ok {
		return ErrNotFound
	}
	if current.Revision != expectedRevision || event.Sequence != len(current.History)+1 {
		return ErrRevisionConflict
	}
	stored := next.Clone()
	stored.History = append(current.History, event.Clone())
	r.issues[next.ID] = stored
	return nil
}

func (r *MemoryIssueRepository) List(ctx context.Context, filter IssueFilter) ([]domain.Issue, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	matched := make([]domain.Issue, 0, len(r.issues))
	for _, issue := range r.issues {
		if matchesIssueFilter(issue, filter) {
			clone := issue.Clone()
			clone.History = nil
			matched = append(matched, *clone)
		}
	}
	r.mu.RUnlock()

	sort.Slice(matched, func(i, j int) bool {
		if matched[i].PriorityScore != matched[j].PriorityScore {
			return matched[i].PriorityScore > matched[j].PriorityScore
		}
		return matched[i].UpdatedAt.After(matched[j].UpdatedAt)
	})

	limit, offset := normalizePage(filter.Limit, filter.Offset, 20)
	if offset >= len(matched) {
		return []domain.Issue{}, nil
	}
	end := offset + limit
	if end > len(matched) {
		end = len(matched)
	}
	return matched[offset:end], nil
}

func (r *MemoryIssueRepository) ListEvents(ctx context.Context, issueID string, limit, offset int) ([]domain.IssueEvent, error) {
	issue, err := r.Get(ctx, issueID)
	if err != nil {
		return nil, err
	}
	events := issue.History
	if limit <= 0 {
		return events, nil
	}
	if offset < 0 {
		offset = 0
	}
	if offset >= len(events) {
		return []domain.IssueEvent{}, nil
	}
	end := offset + limit
	if end > len(events) {
		end = len(events)
	}
	return events[offset:end], nil
}

func (r *MemoryIssueRepository) CountByStatus(ctx context.Context) (map[domain.IssueStatus]int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	counts := map[domain.IssueStatus]int{}
	for _, issue := range r.issues {
		counts[issue.Status]++
	}
	return counts, nil
}

func (r *MemoryIssueRepository) CountByCategory(ctx context.Context) (map[domain.IssueCategory]int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	counts := map[domain.IssueCategory]int{}
	for _, issue := range r.issues {
		counts[issue.Category]++
	}
	return counts, nil
}

func matchesIssueFilter(issue *domain.Issue, f IssueFilter) bool {
	if f.ReporterID != nil && !issue.IsReportedBy(*f.ReporterID) {
		return false
	}
	if f.AssignedTo != nil && !issue.IsAssignedTo(*f.AssignedTo) {
		return false
	}
	if f.WardZone != nil && issue.WardZone != *f.WardZone {
		return false
	}
	if len(f.Statuses) > 0 && !contains(f.Statuses, issue.Status) {
		return false
	}
	if len(f.Categories) > 0 && !contains(f.Categories, issue.Category) {
		return false
	}
	if len(f.Severities) > 0 && !contains(f.Severities, issue.Severity) {
		return false
	}
	if f.SearchTerm != nil {
		term := strings.ToLower(strings.TrimSpace(*f.SearchTerm))
		if term != "" &&
			!strings.Contains(strings.ToLower(issue.Title), term) &&
			!strings.Contains(strings.ToLower(issue.Description), term) &&
			!strings.Contains(strings.ToLower(issue.TicketID), term) {
			return false
		}
	}
	return true
}

func contains[T comparable](values []T, v T) bool {
	for _, candidate := range values {
		if candidate == v {
			return true
		}
	}
	return false
}

// MemoryOfficerRepository is the in-process officer directory.
type MemoryOfficerRepository struct {
	mu       sync.RWMutex
	officers map[string]domain.Officer
}

// NewMemoryOfficerRepository builds an empty repository.
func NewMemoryOfficerRepository() *MemoryOfficerRepository {
	return &MemoryOfficerRepository{officers: make(map[string]domain.Officer)}
}

func (r *MemoryOfficerRepository) Create(ctx context.Context, officer *domain.Officer) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	email := strings.ToLower(officer.Email)
	for _, existing := range r.officers {
		if existing.Email == email {
			return ErrDuplicate
		}
	}
	if officer.ID == "" {
		officer.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	officer.Email = email
	officer.CreatedAt = now
	officer.UpdatedAt = now
	r.officers[officer.ID] = *officer
	return nil
}

func (r *MemoryOfficerRepository) Update(ctx context.Context, officer *domain.Officer) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.officers[officer.ID]; !ok {
		return ErrNotFound
	}
	officer.UpdatedAt = time.Now().UTC()
	r.officers[officer.ID] = *officer
	return nil
}

func (r *MemoryOfficerRepository) GetByID(ctx context.Context, id string) (*domain.Officer, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	officer, ok := r.officers[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &officer, nil
}

func (r *MemoryOfficerRepository) GetByEmail(ctx context.Context, email string) (*domain.Officer, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	email = strings.ToLower(email)
	for _, officer := range r.officers {
		if officer.Email == email {
			found := officer
			return &found, nil
		}
	}
	return nil, ErrNotFound
}

func (r *MemoryOfficerRepository) List(ctx context.Context, filter OfficerFilter) ([]domain.Officer, error) {
	r.mu.RLock()
	result := make([]domain.Officer, 0, len(r.officers))
	for _, officer := range r.officers {
		if filter.Role != nil && officer.Role != *filter.Role {
			continue
		}
		if filter.WardZone != nil && (officer.WardZone == nil || *officer.WardZone != *filter.WardZone) {
			continue
		}
		if filter.Active != nil && officer.Active != *filter.Active {
			continue
		}
		result = append(result, officer)
	}
	r.mu.RUnlock()

	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})
	limit, offset := normalizePage(filter.Limit, filter.Offset, 50)
	if offset >= len(result) {
		return []domain.Officer{}, nil
	}
	end := offset + limit
	if end > len(result) {
		end = len(result)
	}
	return result[offset:end], nil
}

// MemoryCitizenRepository is the in-process citizen store.
type MemoryCitizenRepository struct {
	mu       sync.RWMutex
	citizens map[string]domain.Citizen
}

// NewMemoryCitizenRepository builds an empty repository.
func NewMemoryCitizenRepository() *MemoryCitizenRepository {
	return &MemoryCitizenRepository{citizens: make(map[string]domain.Citizen)}
}

func (r *MemoryCitizenRepository) Create(ctx context.Context, citizen *domain.Citizen) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	email := strings.ToLower(citizen.Email)
	for _, existing := range r.citizens {
		if existing.Email == email {
			return ErrDuplicate
		}
	}
	if citizen.ID == "" {
		citizen.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	citizen.Email = email
	citizen.CreatedAt = now
	citizen.UpdatedAt = now
	r.citizens[citizen.ID] = *citizen
	return nil
}

func (r *MemoryCitizenRepository) GetByID(ctx context.Context, id string) (*domain.Citizen, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	citizen, ok := r.citizens[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &citizen, nil
}

func (r *MemoryCitizenRepository) GetByEmail(ctx context.Context, email string) (*domain.Citizen, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	email = strings.ToLower(email)
	for _, citizen := range r.citizens {
		if citizen.Email == email {
			found := citizen
			return &found, nil
		}
	}
	return nil, ErrNotFound
}

func (r *MemoryCitizenRepository) AddPoints(ctx context.Context, id string, points int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	citizen, ok := r.citizens[id]
	if !ok {
		return ErrNotFound
	}
	citizen.Points += points
	citizen.UpdatedAt = time.Now().UTC()
	r.citizens[id] = citizen
	return nil
}

func (r *MemoryCitizenRepository) TopByPoints(ctx context.Context, limit int) ([]domain.Citizen, error) {
	r.mu.RLock()
	result := make([]domain.Citizen, 0, len(r.citizens))
	for _, citizen := range r.citizens {
		result = append(result, citizen)
	}
	r.mu.RUnlock()

	sort.Slice(result, func(i, j int) bool {
		if result[i].Points != result[j].Points {
			return result[i].Points > result[j].Points
		}
		return result[i].CreatedAt.Before(result[j].CreatedAt)
	})
	limit, _ = normalizePage(limit, 0, 10)
	if limit < len(result) {
		result = result[:limit]
	}
	return result, nil
}
