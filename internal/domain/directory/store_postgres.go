package directory

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore keeps one JSONB document per employee in employee_documents.
// The id and rev columns are the store-managed identity and revision; the
// reportsTo secondary index is an expression index on doc->>'reportsTo'.
type PostgresStore struct {
	DB *pgxpool.Pool
}

func NewPostgresStore(db *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{DB: db}
}

func (s *PostgresStore) Get(ctx context.Context, id string) (Employee, error) {
	row := s.DB.QueryRow(ctx, `
    SELECT id, rev, doc
    FROM employee_documents
    WHERE id = $1
  `, id)
	emp, err := scanEmployee(row)
	if err != nil {
		return Employee{}, mapPgError(err)
	}
	return emp, nil
}

func (s *PostgresStore) Exists(ctx context.Context, id string) (bool, error) {
	var count int
	if err := s.DB.QueryRow(ctx, "SELECT COUNT(1) FROM employee_documents WHERE id = $1", id).Scan(&count); err != nil {
		return false, mapPgError(err)
	}
	return count > 0, nil
}

func (s *PostgresStore) Insert(ctx context.Context, emp Employee) (Employee, error) {
	doc, err := json.Marshal(emp)
	if err != nil {
		return Employee{}, err
	}
	if err := s.DB.QueryRow(ctx, `
    INSERT INTO employee_documents (id, rev, doc)
    VALUES ($1, 1, $2)
    RETURNING rev
  `, emp.ID, doc).Scan(&emp.Rev); err != nil {
		return Employee{}, mapPgError(err)
	}
	return emp, nil
}

func (s *PostgresStore) Update(ctx context.Context, emp Employee) (Employee, error) {
	doc, err := json.Marshal(emp)
	if err != nil {
		return Employee{}, err
	}
	var rev int64
	err = s.DB.QueryRow(ctx, `
    UPDATE employee_documents
    SET doc = $1,
        rev = rev + 1,
        updated_at = now()
    WHERE id = $2 AND rev = $3
    RETURNING rev
  `, doc, emp.ID, emp.Rev).Scan(&rev)
	if errors.Is(err, pgx.ErrNoRows) {
		return Employee{}, s.missOrConflict(ctx, emp)
	}
	if err != nil {
		return Employee{}, mapPgError(err)
	}
	emp.Rev = rev
	return emp, nil
}

func (s *PostgresStore) Delete(ctx context.Context, emp Employee) error {
	cmd, err := s.DB.Exec(ctx, "DELETE FROM employee_documents WHERE id = $1 AND rev = $2", emp.ID, emp.Rev)
	if err != nil {
		return mapPgError(err)
	}
	if cmd.RowsAffected() == 0 {
		return s.missOrConflict(ctx, emp)
	}
	return nil
}

func (s *PostgresStore) FindByField(ctx context.Context, field, value string) ([]Employee, error) {
	if field != FieldReportsTo {
		return nil, fmt.Errorf("%w: no index on field %q", ErrInvalidArgument, field)
	}
	return s.query(ctx, `
    SELECT id, rev, doc
    FROM employee_documents
    WHERE doc->>'reportsTo' = $1
    ORDER BY id
  `, value)
}

func (s *PostgresStore) ListAll(ctx context.Context) ([]Employee, error) {
	return s.query(ctx, "SELECT id, rev, doc FROM employee_documents ORDER BY id")
}

func (s *PostgresStore) ListPage(ctx context.Context, skip, limit int, descending bool) ([]Employee, error) {
	query := "SELECT id, rev, doc FROM employee_documents ORDER BY id ASC OFFSET $1 LIMIT $2"
	if descending {
		query = "SELECT id, rev, doc FROM employee_documents ORDER BY id DESC OFFSET $1 LIMIT $2"
	}
	return s.query(ctx, query, skip, limit)
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	if err := s.DB.Ping(ctx); err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return nil
}

func (s *PostgresStore) query(ctx context.Context, sql string, args ...any) ([]Employee, error) {
	rows, err := s.DB.Query(ctx, sql, args...)
	if err != nil {
		return nil, mapPgError(err)
	}
	defer rows.Close()

	out := []Employee{}
	for rows.Next() {
		emp, err := scanEmployee(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, emp)
	}
	if err := rows.Err(); err != nil {
		return nil, mapPgError(err)
	}
	return out, nil
}

func (s *PostgresStore) missOrConflict(ctx context.Context, emp Employee) error {
	exists, err := s.Exists(ctx, emp.ID)
	if err != nil {
		return err
	}
	if !exists {
		return ErrNotFound
	}
	return fmt.Errorf("%w: document %s revision %d is stale", ErrStoreConflict, emp.ID, emp.Rev)
}

func scanEmployee(row pgx.Row) (Employee, error) {
	var id string
	var rev int64
	var doc []byte
	if err := row.Scan(&id, &rev, &doc); err != nil {
		return Employee{}, err
	}
	var emp Employee
	if err := json.Unmarshal(doc, &emp); err != nil {
		return Employee{}, fmt.Errorf("decode employee %s: %w", id, err)
	}
	emp.ID = id
	emp.Rev = rev
	return emp, nil
}

func mapPgError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		if pgErr.Code == "23505" {
			return fmt.Errorf("%w: %s", ErrStoreConflict, pgErr.Message)
		}
		return err
	}
	var connErr *pgconn.ConnectError
	if errors.As(err, &connErr) || pgconn.Timeout(err) {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return err
}
