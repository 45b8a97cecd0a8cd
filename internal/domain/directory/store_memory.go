package directory

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// MemoryStore keeps documents in a map and maintains the reportsTo index as a
// manager -> reports map updated on every write.
type MemoryStore struct {
	mu      sync.RWMutex
	docs    map[string]Employee
	reports map[string]map[string]struct{}
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		docs:    map[string]Employee{},
		reports: map[string]map[string]struct{}{},
	}
}

func (s *MemoryStore) Get(_ context.Context, id string) (Employee, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	emp, ok := s.docs[id]
	if !ok {
		return Employee{}, ErrNotFound
	}
	return emp, nil
}

func (s *MemoryStore) Exists(_ context.Context, id string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.docs[id]
	return ok, nil
}

func (s *MemoryStore) Insert(_ context.Context, emp Employee) (Employee, error) {
	if emp.ID == "" {
		return Employee{}, fmt.Errorf("%w: document id is required", ErrInvalidArgument)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.docs[emp.ID]; ok {
		return Employee{}, fmt.Errorf("%w: document %s already exists", ErrStoreConflict, emp.ID)
	}
	emp.Rev = 1
	s.docs[emp.ID] = emp
	s.index(emp)
	return emp, nil
}

func (s *MemoryStore) Update(_ context.Context, emp Employee) (Employee, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	current, ok := s.docs[emp.ID]
	if !ok {
		return Employee{}, ErrNotFound
	}
	if current.Rev != emp.Rev {
		return Employee{}, fmt.Errorf("%w: document %s revision %d is stale", ErrStoreConflict, emp.ID, emp.Rev)
	}
	s.unindex(current)
	emp.Rev = current.Rev + 1
	s.docs[emp.ID] = emp
	s.index(emp)
	return emp, nil
}

func (s *MemoryStore) Delete(_ context.Context, emp Employee) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	current, ok := s.docs[emp.ID]
	if !ok {
		return ErrNotFound
	}
	if current.Rev != emp.Rev {
		return fmt.Errorf("%w: document %s revision %d is stale", ErrStoreConflict, emp.ID, emp.Rev)
	}
	s.unindex(current)
	delete(s.docs, emp.ID)
	return nil
}

func (s *MemoryStore) FindByField(_ context.Context, field, value string) ([]Employee, error) {
	if field != FieldReportsTo {
		return nil, fmt.Errorf("%w: no index on field %q", ErrInvalidArgument, field)
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Employee, 0, len(s.reports[value]))
	for id := range s.reports[value] {
		out = append(out, s.docs[id])
	}
	sortByID(out, false)
	return out, nil
}

func (s *MemoryStore) ListAll(_ context.Context) ([]Employee, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sorted(false), nil
}

func (s *MemoryStore) ListPage(_ context.Context, skip, limit int, descending bool) ([]Employee, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	all := s.sorted(descending)
	if skip < 0 {
		skip = 0
	}
	if skip >= len(all) || limit <= 0 {
		return []Employee{}, nil
	}
	end := min(skip+limit, len(all))
	return all[skip:end], nil
}

func (s *MemoryStore) Ping(context.Context) error {
	return nil
}

func (s *MemoryStore) sorted(descending bool) []Employee {
	out := make([]Employee, 0, len(s.docs))
	for _, emp := range s.docs {
		out = append(out, emp)
	}
	sortByID(out, descending)
	return out
}

func (s *MemoryStore) index(emp Employee) {
	if emp.ReportsTo == "" {
		return
	}
	set, ok := s.reports[emp.ReportsTo]
	if !ok {
		set = map[string]struct{}{}
		s.reports[emp.ReportsTo] = set
	}
	set[emp.ID] = struct{}{}
}

func (s *MemoryStore) unindex(emp Employee) {
	set, ok := s.reports[emp.ReportsTo]
	if !ok {
		return
	}
	delete(set, emp.ID)
	if len(set) == 0 {
		delete(s.reports, emp.ReportsTo)
	}
}

func sortByID(employees []Employee, descending bool) {
	sort.Slice(employees, func(i, j int) bool {
		if descending {
			return employees[i].ID > employees[j].ID
		}
		return employees[i].ID < employees[j].ID
	})
}
