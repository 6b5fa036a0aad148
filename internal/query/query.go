// Package query filters, sorts and paginates normalized stock items.
// All state lives in the Params value passed by the caller; Query is a
// pure function over it.
package query

import (
	"fmt"
	"sort"
	"strings"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"stockops/internal/stock"
)

// FilterAll matches every kind or state.
const FilterAll = "all"

// SortKey selects the field a result set is ordered by.
type SortKey string

const (
	SortName     SortKey = "name"
	SortCategory SortKey = "category"
	SortQuantity SortKey = "quantity"
	SortPrice    SortKey = "price"
	SortUpdated  SortKey = "lastUpdated"
	SortState    SortKey = "state"
)

// SortDir is the ordering direction.
type SortDir string

const (
	Asc  SortDir = "asc"
	Desc SortDir = "desc"
)

// Params is the full query state: search term, categorical filters,
// sort spec, and 1-based pagination.
type Params struct {
	Search   string
	Kind     string // FilterAll or a stock.Kind value
	State    string // FilterAll or a stock.State value
	Sort     SortKey
	Dir      SortDir
	Page     int
	PageSize int
}

// Result is one page of the filtered set plus its page math. Page is
// the effective page after clamping.
type Result struct {
	Items      []stock.Item `json:"items"`
	TotalCount int          `json:"totalCount"`
	TotalPages int          `json:"totalPages"`
	Page       int          `json:"page"`
}

// InvalidQueryError reports malformed filter or pagination input,
// rejected before any work is done.
type InvalidQueryError struct {
	Field  string
	Reason string
}

func (e *InvalidQueryError) Error() string {
	return fmt.Sprintf("invalid query: %s %s", e.Field, e.Reason)
}

// Collators are not safe for concurrent use, so sortItems builds one
// per call.
var collatorLang = language.Und

// Query applies search, filters, sort and pagination over items.
// If the requested page falls beyond the filtered set the result is
// clamped back to page 1 within this same call.
func Query(items []stock.Item, p Params) (Result, error) {
	if err := validate(p); err != nil {
		return Result{}, err
	}

	filtered := make([]stock.Item, 0, len(items))
	needle := strings.ToLower(strings.TrimSpace(p.Search))
	for _, it := range items {
		if p.Kind != "" && p.Kind != FilterAll && string(it.Kind) != p.Kind {
			continue
		}
		if p.State != "" && p.State != FilterAll && string(it.State()) != p.State {
			continue
		}
		if needle != "" && !matches(it, needle) {
			continue
		}
		filtered = append(filtered, it)
	}

	if p.Sort != "" {
		sortItems(filtered, p.Sort, p.Dir)
	}

	total := len(filtered)
	totalPages := (total + p.PageSize - 1) / p.PageSize
	page := p.Page
	if page > totalPages {
		page = 1
	}
	start := (page - 1) * p.PageSize
	end := start + p.PageSize
	if start > total {
		start = total
	}
	if end > total {
		end = total
	}
	return Result{
		Items:      filtered[start:end],
		TotalCount: total,
		TotalPages: totalPages,
		Page:       page,
	}, nil
}

// NextSort returns the sort spec after requesting key: repeating the
// current key flips the direction, a new key resets to ascending.
func NextSort(cur SortKey, dir SortDir, key SortKey) (SortKey, SortDir) {
	if key == cur {
		if dir == Desc {
			return key, Asc
		}
		return key, Desc
	}
	return key, Asc
}

func validate(p Params) error {
	if p.PageSize <= 0 {
		return &InvalidQueryError{Field: "pageSize", Reason: "must be positive"}
	}
	if p.Page <= 0 {
		return &InvalidQueryError{Field: "page", Reason: "must be positive"}
	}
	if p.Kind != "" && p.Kind != FilterAll {
		if !validKind(p.Kind) {
			return &InvalidQueryError{Field: "kind", Reason: fmt.Sprintf("unknown value %q", p.Kind)}
		}
	}
	if p.State != "" && p.State != FilterAll {
		if !validState(p.State) {
			return &InvalidQueryError{Field: "state", Reason: fmt.Sprintf("unknown value %q", p.State)}
		}
	}
	switch p.Sort {
	case "", SortName, SortCategory, SortQuantity, SortPrice, SortUpdated, SortState:
	default:
		return &InvalidQueryError{Field: "sort", Reason: fmt.Sprintf("unknown key %q", p.Sort)}
	}
	switch p.Dir {
	case "", Asc, Desc:
	default:
		return &InvalidQueryError{Field: "dir", Reason: fmt.Sprintf("unknown direction %q", p.Dir)}
	}
	return nil
}

func validKind(v string) bool {
	for _, k := range stock.Kinds() {
		if string(k) == v {
			return true
		}
	}
	return false
}

func validState(v string) bool {
	for _, s := range stock.States() {
		if string(s) == v {
			return true
		}
	}
	return false
}

func matches(it stock.Item, needle string) bool {
	return strings.Contains(strings.ToLower(it.Name), needle) ||
		strings.Contains(strings.ToLower(it.Category), needle) ||
		strings.Contains(strings.ToLower(it.State().Label()), needle)
}

func sortItems(items []stock.Item, key SortKey, dir SortDir) {
	coll := collate.New(collatorLang, collate.IgnoreCase)
	less := func(a, b stock.Item) int {
		switch key {
		case SortName:
			return coll.CompareString(a.Name, b.Name)
		case SortCategory:
			return coll.CompareString(a.Category, b.Category)
		case SortQuantity:
			return compareInt(a.Quantity, b.Quantity)
		case SortPrice:
			return compareInt64(priceOrZero(a), priceOrZero(b))
		case SortUpdated:
			return compareInt64(a.UpdatedAt, b.UpdatedAt)
		case SortState:
			return coll.CompareString(string(a.State()), string(b.State()))
		}
		return 0
	}
	sort.SliceStable(items, func(i, j int) bool {
		c := less(items[i], items[j])
		if dir == Desc {
			return c > 0
		}
		return c < 0
	})
}

func priceOrZero(it stock.Item) int64 {
	if it.PriceCents == nil {
		return 0
	}
	return *it.PriceCents
}

func compareInt(a, b int) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

func compareInt64(a, b int64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}
