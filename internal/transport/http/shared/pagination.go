package shared

import (
	"net/http"
	"strconv"

	"peopleops/internal/transport/http/api"
)

// Page is the limit/offset window requested by a list endpoint.
type Page struct {
	Limit  int
	Offset int
}

// ParsePagination reads limit and offset from the query string. Malformed or
// out-of-range values fall back to the defaults; limit is capped at maxLimit.
func ParsePagination(r *http.Request, defaultLimit, maxLimit int) Page {
	query := r.URL.Query()
	page := Page{
		Limit:  queryInt(query.Get("limit"), defaultLimit, 1),
		Offset: queryInt(query.Get("offset"), 0, 0),
	}
	if maxLimit > 0 {
		page.Limit = min(page.Limit, maxLimit)
	}
	return page
}

// Meta describes this page of a result set with total rows.
func (p Page) Meta(total int) api.ListMeta {
	return api.ListMeta{Total: total, Limit: p.Limit, Offset: p.Offset}
}

func queryInt(raw string, fallback, floor int) int {
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < floor {
		return fallback
	}
	return n
}
