package directory

import "context"

// FieldReportsTo is the only secondary index every Store must maintain.
const FieldReportsTo = "reportsTo"

// Store is the document-oriented persistence contract consumed by Service.
// Get returns ErrNotFound for unknown ids. Update and Delete compare the
// record's Rev against the stored revision and return ErrStoreConflict on
// mismatch. ListPage orders by document id, the store's one fixed ordering.
type Store interface {
	Get(ctx context.Context, id string) (Employee, error)
	Exists(ctx context.Context, id string) (bool, error)
	Insert(ctx context.Context, emp Employee) (Employee, error)
	Update(ctx context.Context, emp Employee) (Employee, error)
	Delete(ctx context.Context, emp Employee) error
	FindByField(ctx context.Context, field, value string) ([]Employee, error)
	ListAll(ctx context.Context) ([]Employee, error)
	ListPage(ctx context.Context, skip, limit int, descending bool) ([]Employee, error)
	Ping(ctx context.Context) error
}

// Notifier hands a message to a delivery transport. Implementations are
// best effort and must not block on delivery confirmation.
type Notifier interface {
	Notify(ctx context.Context, to, subject, body string) error
}
