package echoapi

import (
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/trezcool/darasa/core"
)

var orderingParam = "ordering"

type Ordering struct {
	Orderings []core.DBOrdering
}

func (ord *Ordering) Bind(ctx echo.Context) {
	data := ctx.QueryParams()
	if len(data) == 0 {
		return
	}
	val, ok := data[orderingParam]
	if !ok || len(val) == 0 || val[0] == "" {
		return
	}

	for _, field := range strings.Split(val[0], ",") {
		field = strings.TrimSpace(field)
		descending := strings.HasPrefix(field, "-")
		if descending {
			field = field[1:] // drop "-"
		}
		if field == "" {
			continue
		}
		ord.Orderings = append(ord.Orderings, core.DBOrdering{Field: field, Ascending: !descending})
	}
}

// bindPagination reads the `skip` and `limit` query params; invalid values fall back to the defaults.
func bindPagination(ctx echo.Context) core.Pagination {
	q := ctx.QueryParams()
	page := core.Pagination{Skip: queryInt(q, "skip"), Limit: queryInt(q, "limit")}
	page.Clean()
	return page
}

func queryInt(q url.Values, key string) int {
	n, err := strconv.Atoi(q.Get(key))
	if err != nil {
		return 0
	}
	return n
}

func queryBool(q url.Values, key string) *bool {
	b, err := strconv.ParseBool(q.Get(key))
	if err != nil {
		return nil
	}
	return &b
}

// queryTime parses RFC3339 timestamps; invalid values are ignored.
func queryTime(q url.Values, key string) time.Time {
	t, err := time.Parse(time.RFC3339, q.Get(key))
	if err != nil {
		return time.Time{}
	}
	return t
}

// queryStrings accepts repeated keys as well as comma separated values.
func queryStrings(q url.Values, key string) []string {
	var vals []string
	for _, v := range q[key] {
		for _, s := range strings.Split(v, ",") {
			if s = strings.TrimSpace(s); s != "" {
				vals = append(vals, s)
			}
		}
	}
	return vals
}

type (
	ListResponse[T any] struct {
		Data  []T `json:"data"`
		Count int `json:"count"`
	}

	MessageResponse struct {
		Message string `json:"message"`
	}
)

func newListResponse[T any](data []T, count int) ListResponse[T] {
	if data == nil {
		data = []T{}
	}
	return ListResponse[T]{Data: data, Count: count}
}

func deletedResponse(what string) MessageResponse {
	return MessageResponse{Message: what + " deleted successfully"}
}
