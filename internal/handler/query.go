package handler

import (
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/segyhp/library-engine/internal/domain"
)

func parseFineHistoryFilter(r *http.Request) (domain.FineHistoryFilter, error) {
	var (
		filter domain.FineHistoryFilter
		err    error
	)
	q := r.URL.Query()

	if filter.UserID, err = positiveID(q, "userId"); err != nil {
		return filter, err
	}
	if filter.HasPaid, err = optionalBool(q, "hasPaid"); err != nil {
		return filter, err
	}
	filter.Offset, filter.Limit, err = page(q)
	return filter, err
}

func parseLoanFilter(r *http.Request) (domain.LoanFilter, error) {
	var (
		filter domain.LoanFilter
		err    error
	)
	q := r.URL.Query()

	if filter.UserID, err = positiveID(q, "userId"); err != nil {
		return filter, err
	}
	if filter.BookID, err = positiveID(q, "bookId"); err != nil {
		return filter, err
	}
	if filter.Open, err = optionalBool(q, "open"); err != nil {
		return filter, err
	}
	filter.Offset, filter.Limit, err = page(q)
	return filter, err
}

func positiveID(q url.Values, key string) (*int64, error) {
	v := q.Get(key)
	if v == "" {
		return nil, nil
	}
	id, err := strconv.ParseInt(v, 10, 64)
	if err != nil || id <= 0 {
		return nil, fmt.Errorf("%s must be a positive integer", key)
	}
	return &id, nil
}

func optionalBool(q url.Values, key string) (*bool, error) {
	v := q.Get(key)
	if v == "" {
		return nil, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return nil, fmt.Errorf("%s must be true or false", key)
	}
	return &b, nil
}

// page reads offset and limit; zero means "use the default"
func page(q url.Values) (offset, limit int, err error) {
	if v := q.Get("offset"); v != "" {
		offset, err = strconv.Atoi(v)
		if err != nil || offset < 0 {
			return 0, 0, fmt.Errorf("offset must be a non-negative integer")
		}
	}
	if v := q.Get("limit"); v != "" {
		limit, err = strconv.Atoi(v)
		if err != nil || limit <= 0 {
			return 0, 0, fmt.Errorf("limit must be a positive integer")
		}
	}
	return offset, limit, nil
}
