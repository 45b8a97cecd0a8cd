package shared

import (
	"net/http"
	"strconv"
	"strings"
)

const (
	DefaultPageSize      = 10
	MaxPageSize          = 500
	DefaultSortBy        = "employeeName"
	DefaultSortDirection = "asc"
)

type PageRequest struct {
	Page          int
	Size          int
	SortBy        string
	SortDirection string
}

// ParsePageRequest reads page, size, sortBy and sortDirection from the query
// string. Non-numeric page or size values are reported on v; range checks
// are left to the service. size is clamped to MaxPageSize.
func ParsePageRequest(r *http.Request, v *Validator) PageRequest {
	q := r.URL.Query()
	req := PageRequest{
		Page:          0,
		Size:          DefaultPageSize,
		SortBy:        DefaultSortBy,
		SortDirection: DefaultSortDirection,
	}
	if raw := strings.TrimSpace(q.Get("page")); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil {
			req.Page = n
		} else {
			v.Add("page", "must be an integer")
		}
	}
	if raw := strings.TrimSpace(q.Get("size")); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil {
			req.Size = n
		} else {
			v.Add("size", "must be an integer")
		}
	}
	if req.Size > MaxPageSize {
		req.Size = MaxPageSize
	}
	if raw := strings.TrimSpace(q.Get("sortBy")); raw != "" {
		req.SortBy = raw
	}
	if raw := strings.TrimSpace(q.Get("sortDirection")); raw != "" {
		req.SortDirection = raw
	}
	return req
}
