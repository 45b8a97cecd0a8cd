package directory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStoreRevisions(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	saved, err := store.Insert(ctx, Employee{ID: "e1", EmployeeName: "one"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), saved.Rev)

	_, err = store.Insert(ctx, Employee{ID: "e1"})
	require.ErrorIs(t, err, ErrStoreConflict)

	saved.EmployeeName = "one-updated"
	updated, err := store.Update(ctx, saved)
	require.NoError(t, err)
	assert.Equal(t, int64(2), updated.Rev)

	_, err = store.Update(ctx, saved)
	require.ErrorIs(t, err, ErrStoreConflict, "writing with a stale revision conflicts")

	require.ErrorIs(t, store.Delete(ctx, saved), ErrStoreConflict)
	require.NoError(t, store.Delete(ctx, updated))

	_, err = store.Update(ctx, updated)
	require.ErrorIs(t, err, ErrNotFound)
	require.ErrorIs(t, store.Delete(ctx, updated), ErrNotFound)

	exists, err := store.Exists(ctx, "e1")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestMemoryStoreReportsToIndex(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	for _, emp := range []Employee{
		{ID: "m"},
		{ID: "r2", ReportsTo: "m"},
		{ID: "r1", ReportsTo: "m"},
		{ID: "other", ReportsTo: "x"},
	} {
		_, err := store.Insert(ctx, emp)
		require.NoError(t, err)
	}

	reports, err := store.FindByField(ctx, FieldReportsTo, "m")
	require.NoError(t, err)
	require.Len(t, reports, 2)
	assert.Equal(t, "r1", reports[0].ID)
	assert.Equal(t, "r2", reports[1].ID)

	r1, err := store.Get(ctx, "r1")
	require.NoError(t, err)
	r1.ReportsTo = "x"
	_, err = store.Update(ctx, r1)
	require.NoError(t, err)

	reports, err = store.FindByField(ctx, FieldReportsTo, "x")
	require.NoError(t, err)
	assert.Len(t, reports, 2)

	_, err = store.FindByField(ctx, "email", "a@example.com")
	require.ErrorIs(t, err, ErrInvalidArgument)
}

func TestMemoryStoreListPage(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	for _, id := range []string{"c", "a", "e", "b", "d"} {
		_, err := store.Insert(ctx, Employee{ID: id})
		require.NoError(t, err)
	}

	ids := func(employees []Employee) []string {
		out := make([]string, 0, len(employees))
		for _, emp := range employees {
			out = append(out, emp.ID)
		}
		return out
	}

	page, err := store.ListPage(ctx, 0, 2, false)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, ids(page))

	page, err = store.ListPage(ctx, 2, 2, true)
	require.NoError(t, err)
	assert.Equal(t, []string{"c", "b"}, ids(page))

	page, err = store.ListPage(ctx, 4, 10, false)
	require.NoError(t, err)
	assert.Equal(t, []string{"e"}, ids(page))

	page, err = store.ListPage(ctx, 10, 10, false)
	require.NoError(t, err)
	assert.Empty(t, page)

	all, err := store.ListAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c", "d", "e"}, ids(all))
}
