package directory

import (
	"context"
	"errors"
	"fmt"

	"empdir/internal/platform/logger"
)

const NewReportSubject = "New Employee Assignment Notification"

func NewReportBody(emp Employee) string {
	return fmt.Sprintf("%s will now work under you. Mobile number is %s and email is %s",
		emp.EmployeeName, emp.PhoneNumber, emp.Email)
}

// notifyManager looks up the new employee's manager and hands the message to
// the notifier. Lookup failures are returned; delivery failures are logged.
func (s *Service) notifyManager(ctx context.Context, emp Employee) error {
	manager, err := s.store.Get(ctx, emp.ReportsTo)
	if errors.Is(err, ErrNotFound) {
		return fmt.Errorf("%w: manager not found with id: %s", ErrNotFound, emp.ReportsTo)
	}
	if err != nil {
		return err
	}

	if s.notifier == nil {
		return nil
	}
	if err := s.notifier.Notify(ctx, manager.Email, NewReportSubject, NewReportBody(emp)); err != nil {
		logger.FromContext(ctx).Warn().
			Err(err).
			Str("managerId", manager.ID).
			Str("employeeId", emp.ID).
			Msg("manager notification failed")
	}
	return nil
}
