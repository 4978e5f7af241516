package engine

import (
	"context"
	"math"
	"strconv"
	"strings"

	"github.com/runnerr0/dnslens/internal/errors"
	"github.com/runnerr0/dnslens/internal/storage"
)

// ListParams are the raw, untrusted listing parameters as they arrive in a
// query string or on the command line.
type ListParams struct {
	Domain     string
	Prediction string
	Page       string
	Limit      string
	Sort       string
	Direction  string
}

// ListRequest is a normalized listing request. Limit 0 means no pagination.
type ListRequest struct {
	Filter    storage.Filter
	Sort      storage.SortColumn
	Ascending bool
	Page      int
	Limit     int
}

// ListResult is one page of events plus the total number of matches.
type ListResult struct {
	TotalCount int64                 `json:"totalCount"`
	Page       int                   `json:"page"`
	Limit      int                   `json:"limit"`
	Logs       []storage.EventRecord `json:"logs"`
}

// sortAliases accepts the wire field names plus the descriptive names.
var sortAliases = map[string]storage.SortColumn{
	"timestamp":              storage.SortTimestamp,
	"createdat":              storage.SortCreatedAt,
	"created_at":             storage.SortCreatedAt,
	"domain":                 storage.SortDomain,
	"prediction":             storage.SortPrediction,
	"verdict":                storage.SortPrediction,
	"event_type":             storage.SortEventType,
	"direction":              storage.SortEventType,
	"dns_domain_name_length": storage.SortDomainNameLength,
	"domain_length":          storage.SortDomainNameLength,
	"character_entropy":      storage.SortCharacterEntropy,
	"entropy":                storage.SortCharacterEntropy,
}

// NormalizeListParams converts raw parameters into a request. It never
// fails: anything malformed degrades to its default.
func NormalizeListParams(p ListParams) ListRequest {
	req := ListRequest{
		Sort:      storage.SortCreatedAt,
		Ascending: strings.EqualFold(strings.TrimSpace(p.Direction), "asc"),
		Page:      1,
	}

	req.Filter.Domain = strings.TrimSpace(p.Domain)
	if v, ok := storage.ParseVerdict(p.Prediction); ok {
		req.Filter.Prediction = v
	}
	if col, ok := sortAliases[strings.ToLower(strings.TrimSpace(p.Sort))]; ok {
		req.Sort = col
	}
	if n, err := strconv.Atoi(strings.TrimSpace(p.Page)); err == nil && n > 0 {
		req.Page = n
	}
	if n, err := strconv.Atoi(strings.TrimSpace(p.Limit)); err == nil && n > 0 {
		req.Limit = n
	}

	return req
}

// List returns the requested page and the count of all matching events.
func (e *Engine) List(ctx context.Context, req ListRequest) (*ListResult, error) {
	if req.Page < 1 {
		req.Page = 1
	}
	if req.Limit < 0 {
		req.Limit = 0
	}
	if !req.Sort.Valid() {
		req.Sort = storage.SortCreatedAt
	}

	q := storage.ListQuery{
		Filter:    req.Filter,
		Sort:      req.Sort,
		Ascending: req.Ascending,
		Limit:     req.Limit,
	}
	if req.Limit > 0 {
		q.Offset = pageOffset(req.Page, req.Limit)
	}

	logs, err := e.store.ListEvents(ctx, q)
	if err != nil {
		e.logger.Error("list events failed", "error", err)
		return nil, errors.Wrap(err, errors.KindUnavailable, "list events")
	}

	total, err := e.store.CountEvents(ctx, req.Filter)
	if err != nil {
		e.logger.Error("count events failed", "error", err)
		return nil, errors.Wrap(err, errors.KindUnavailable, "count events")
	}

	e.logger.Debug("listed events",
		"domain", req.Filter.Domain,
		"prediction", string(req.Filter.Prediction),
		"sort", string(req.Sort),
		"asc", req.Ascending,
		"page", req.Page,
		"limit", req.Limit,
		"returned", len(logs),
		"total", total,
	)

	return &ListResult{
		TotalCount: total,
		Page:       req.Page,
		Limit:      req.Limit,
		Logs:       logs,
	}, nil
}

// pageOffset is (page-1)*limit, saturated at math.MaxInt so a page far past
// the end stays past the end.
func pageOffset(page, limit int) int {
	if page-1 > math.MaxInt/limit {
		return math.MaxInt
	}
	return (page - 1) * limit
}
