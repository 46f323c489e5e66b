package core

import "context"

const (
	DefaultLimit = 100
	MaxLimit     = 1000
)

// Pagination mirrors the skip/limit query params of list endpoints.
type Pagination struct {
	Skip  int
	Limit int
}

func (p *Pagination) Clean() {
	if p.Skip < 0 {
		p.Skip = 0
	}
	if p.Limit <= 0 {
		p.Limit = DefaultLimit
	} else if p.Limit > MaxLimit {
		p.Limit = MaxLimit
	}
}

// Window returns the [lo, hi) bounds of the page inside a list of length n.
func (p Pagination) Window(n int) (int, int) {
	p.Clean()
	lo := p.Skip
	if lo > n {
		lo = n
	}
	hi := lo + p.Limit
	if hi > n {
		hi = n
	}
	return lo, hi
}

// FetchAll pages through query until every matching row has been read.
func FetchAll[T any](ctx context.Context, query func(ctx context.Context, page Pagination) ([]T, int, error)) ([]T, error) {
	all := make([]T, 0)
	page := Pagination{Limit: MaxLimit}
	for {
		items, count, err := query(ctx, page)
		if err != nil {
			return nil, err
		}
		all = append(all, items...)
		if len(items) == 0 || len(all) >= count {
			return all, nil
		}
		page.Skip += len(items)
	}
}
