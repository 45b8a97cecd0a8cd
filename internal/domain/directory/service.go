package directory

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/google/uuid"

	"empdir/internal/platform/logger"
)

const DefaultMaxHierarchyDepth = 64

type Service struct {
	store    Store
	notifier Notifier
	maxDepth int
	newID    func() string
}

type Option func(*Service)

// WithMaxHierarchyDepth caps the level accepted by GetNthLevelManager so a
// reportsTo cycle can never be walked for an unbounded number of hops.
func WithMaxHierarchyDepth(depth int) Option {
	return func(s *Service) {
		if depth > 0 {
			s.maxDepth = depth
		}
	}
}

func WithIDGenerator(fn func() string) Option {
	return func(s *Service) {
		if fn != nil {
			s.newID = fn
		}
	}
}

func NewService(store Store, notifier Notifier, opts ...Option) *Service {
	s := &Service{
		store:    store,
		notifier: notifier,
		maxDepth: DefaultMaxHierarchyDepth,
		newID:    uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// AddEmployee persists a new employee under a freshly generated id and, when
// reportsTo is set, notifies the manager. A failed manager lookup is returned
// as ErrNotFound even though the employee has already been written.
func (s *Service) AddEmployee(ctx context.Context, req EmployeeRequest) (string, error) {
	emp := Employee{ID: s.newID()}
	emp.apply(req)

	saved, err := s.store.Insert(ctx, emp)
	if err != nil {
		return "", err
	}

	if saved.ReportsTo != "" {
		if err := s.notifyManager(ctx, saved); err != nil {
			return "", err
		}
	}
	return saved.ID, nil
}

func (s *Service) GetAllEmployees(ctx context.Context) ([]EmployeeView, error) {
	employees, err := s.store.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	return views(employees), nil
}

func (s *Service) GetEmployee(ctx context.Context, id string) (EmployeeView, error) {
	emp, err := s.getEmployee(ctx, id)
	if err != nil {
		return EmployeeView{}, err
	}
	return emp.View(), nil
}

func (s *Service) DeleteEmployee(ctx context.Context, id string) error {
	emp, err := s.getEmployee(ctx, id)
	if err != nil {
		return err
	}
	return s.store.Delete(ctx, emp)
}

func (s *Service) UpdateEmployee(ctx context.Context, id string, req EmployeeRequest) (EmployeeView, error) {
	emp, err := s.getEmployee(ctx, id)
	if err != nil {
		return EmployeeView{}, err
	}
	emp.apply(req)

	updated, err := s.store.Update(ctx, emp)
	if err != nil {
		return EmployeeView{}, err
	}
	return updated.View(), nil
}

// GetNthLevelManager follows the reportsTo chain exactly level hops. It never
// clamps to the top of the chain.
func (s *Service) GetNthLevelManager(ctx context.Context, employeeID string, level int) (EmployeeView, error) {
	if level < 1 {
		return EmployeeView{}, fmt.Errorf("%w: level must be a positive integer", ErrInvalidArgument)
	}
	if level > s.maxDepth {
		return EmployeeView{}, fmt.Errorf("%w: level must not exceed %d", ErrInvalidArgument, s.maxDepth)
	}

	current, err := s.getEmployee(ctx, employeeID)
	if err != nil {
		return EmployeeView{}, err
	}

	for hop := 0; hop < level; hop++ {
		managerID := current.ReportsTo
		if managerID == "" {
			return EmployeeView{}, fmt.Errorf("%w: level %d manager does not exist for employee with id: %s", ErrNotFound, level, employeeID)
		}
		current, err = s.store.Get(ctx, managerID)
		if errors.Is(err, ErrNotFound) {
			return EmployeeView{}, fmt.Errorf("%w: manager not found with id: %s", ErrNotFound, managerID)
		}
		if err != nil {
			return EmployeeView{}, err
		}
	}
	return current.View(), nil
}

// DirectReports lists employees whose reportsTo names managerID, using the
// store's reportsTo secondary index.
func (s *Service) DirectReports(ctx context.Context, managerID string) ([]EmployeeView, error) {
	exists, err := s.store.Exists(ctx, managerID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, fmt.Errorf("%w: employee not found with id: %s", ErrNotFound, managerID)
	}
	reports, err := s.store.FindByField(ctx, FieldReportsTo, managerID)
	if err != nil {
		return nil, err
	}
	return views(reports), nil
}

// GetEmployeesWithPagination returns one page over the store's fixed id
// ordering. sortBy is accepted for API compatibility but does not change the
// ordering, and the totals are estimated from the page fill.
func (s *Service) GetEmployeesWithPagination(ctx context.Context, page, size int, sortBy, sortDirection string) (Page, error) {
	if page < 0 {
		return Page{}, fmt.Errorf("%w: page must not be negative", ErrInvalidArgument)
	}
	if size < 1 {
		return Page{}, fmt.Errorf("%w: size must be at least 1", ErrInvalidArgument)
	}
	if page > (math.MaxInt32-size)/size {
		return Page{}, fmt.Errorf("%w: page %d is out of range", ErrInvalidArgument, page)
	}

	descending := strings.EqualFold(sortDirection, "desc")
	logger.FromContext(ctx).Debug().
		Str("sortBy", sortBy).
		Bool("descending", descending).
		Msg("sortBy is not applied; listing by document id")

	employees, err := s.store.ListPage(ctx, page*size, size, descending)
	if err != nil {
		return Page{}, err
	}

	total := ApproximateTotal(page, size, len(employees))
	return Page{
		Items:                    views(employees),
		Page:                     page,
		Size:                     size,
		ApproximateTotalElements: total,
		ApproximateTotalPages:    TotalPages(total, size),
	}, nil
}

// ApproximateTotal guesses the element count from how full the current page
// is: a full page implies at least one more page may exist.
func ApproximateTotal(page, size, returned int) int {
	if returned == size {
		return (page + 2) * size
	}
	return (page + 1) * size
}

func TotalPages(total, size int) int {
	if size <= 0 {
		return 0
	}
	return (total + size - 1) / size
}

func (s *Service) getEmployee(ctx context.Context, id string) (Employee, error) {
	emp, err := s.store.Get(ctx, id)
	if errors.Is(err, ErrNotFound) {
		return Employee{}, fmt.Errorf("%w: employee not found with id: %s", ErrNotFound, id)
	}
	return emp, err
}
