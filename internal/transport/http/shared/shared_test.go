package shared

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePageRequestDefaults(t *testing.T) {
	v := NewValidator()
	req := ParsePageRequest(httptest.NewRequest(http.MethodGet, "/employees/paginated", nil), v)

	assert.False(t, v.HasIssues())
	assert.Equal(t, PageRequest{Page: 0, Size: 10, SortBy: "employeeName", SortDirection: "asc"}, req)
}

func TestParsePageRequestValues(t *testing.T) {
	v := NewValidator()
	req := ParsePageRequest(httptest.NewRequest(http.MethodGet, "/x?page=3&size=25&sortBy=email&sortDirection=DESC", nil), v)

	assert.False(t, v.HasIssues())
	assert.Equal(t, PageRequest{Page: 3, Size: 25, SortBy: "email", SortDirection: "DESC"}, req)

	req = ParsePageRequest(httptest.NewRequest(http.MethodGet, "/x?size=100000&page=-1", nil), v)
	assert.Equal(t, MaxPageSize, req.Size)
	assert.Equal(t, -1, req.Page, "range checks belong to the service")
}

func TestParsePageRequestRejectsNonNumeric(t *testing.T) {
	v := NewValidator()
	ParsePageRequest(httptest.NewRequest(http.MethodGet, "/x?page=one&size=ten", nil), v)

	require.True(t, v.HasIssues())
	assert.Equal(t, []ValidationIssue{
		{Field: "page", Reason: "must be an integer"},
		{Field: "size", Reason: "must be an integer"},
	}, v.Issues())
}

type samplePayload struct {
	Name  string `json:"employeeName" validate:"required,max=5"`
	Email string `json:"email" validate:"required"`
	Level *int   `json:"level" validate:"required"`
}

func TestValidatorStructUsesJSONNames(t *testing.T) {
	v := NewValidator()
	v.Struct(samplePayload{Name: "toolong"})

	assert.Equal(t, []ValidationIssue{
		{Field: "email", Reason: "is required"},
		{Field: "employeeName", Reason: "must be at most 5 characters"},
		{Field: "level", Reason: "is required"},
	}, v.Issues())

	rec := httptest.NewRecorder()
	require.True(t, v.Reject(rec, "req-1"))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	var env struct {
		Error struct {
			Code    string `json:"code"`
			Details struct {
				Fields []ValidationIssue `json:"fields"`
			} `json:"details"`
		} `json:"error"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&env))
	assert.Equal(t, "validation_error", env.Error.Code)
	assert.Len(t, env.Error.Details.Fields, 3)
}

func TestValidatorStructPasses(t *testing.T) {
	level := 0
	v := NewValidator()
	v.Struct(samplePayload{Name: "ok", Email: "a@example.com", Level: &level})
	assert.False(t, v.HasIssues())
	assert.False(t, v.Reject(httptest.NewRecorder(), ""))
}
