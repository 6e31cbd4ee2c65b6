package offering

import (
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"
)

const (
	SortDefault    = ""
	SortTime       = "time"
	SortPrice      = "price"
	SortPopularity = "popularity"
)

// Query narrows a class listing. Zero-valued fields do not filter; the rest
// are combined with AND. Types matches any of its entries.
type Query struct {
	Types         []string
	Difficulty    string
	StudioID      int
	InstructorID  int
	Date          string
	MinPriceCents int64
	MaxPriceCents int64
	SearchTerm    string
	SortBy        string
}

func (q Query) matches(o *Offering) bool {
	if len(q.Types) > 0 && !contains(q.Types, o.Type) {
		return false
	}
	if q.Difficulty != "" && o.Difficulty != q.Difficulty {
		return false
	}
	if q.StudioID != 0 && o.StudioID != q.StudioID {
		return false
	}
	if q.InstructorID != 0 && (o.InstructorID == nil || *o.InstructorID != q.InstructorID) {
		return false
	}
	if q.Date != "" && o.Date != q.Date {
		return false
	}
	if q.MinPriceCents > 0 && o.PriceCents < q.MinPriceCents {
		return false
	}
	if q.MaxPriceCents > 0 && o.PriceCents > q.MaxPriceCents {
		return false
	}
	if q.SearchTerm != "" {
		term := strings.ToLower(q.SearchTerm)
		if !strings.Contains(strings.ToLower(o.Name), term) &&
			!strings.Contains(strings.ToLower(o.Description), term) &&
			!strings.Contains(strings.ToLower(o.Type), term) {
			return false
		}
	}
	return true
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}

// Apply filters and sorts list without touching it. All sorts are stable.
func Apply(list []Offering, q Query) []Offering {
	result := make([]Offering, 0, len(list))
	for i := range list {
		if q.matches(&list[i]) {
			result = append(result, list[i])
		}
	}

	var less func(a, b *Offering) bool
	switch q.SortBy {
	case SortTime:
		less = func(a, b *Offering) bool { return a.Time < b.Time }
	case SortPrice:
		less = func(a, b *Offering) bool { return a.PriceCents < b.PriceCents }
	case SortPopularity:
		less = func(a, b *Offering) bool { return a.CurrentCapacity > b.CurrentCapacity }
	default:
		less = func(a, b *Offering) bool {
			if a.Date != b.Date {
				return a.Date < b.Date
			}
			return a.Time < b.Time
		}
	}

	sort.SliceStable(result, func(i, j int) bool {
		return less(&result[i], &result[j])
	})
	return result
}

// FromValues reads a query from URL parameters. type may repeat or hold a
// comma separated list.
func FromValues(v url.Values) (Query, error) {
	q := Query{
		Difficulty: v.Get("difficulty"),
		Date:       v.Get("date"),
		SearchTerm: v.Get("search"),
		SortBy:     v.Get("sort"),
	}

	for _, raw := range v["type"] {
		for _, t := range strings.Split(raw, ",") {
			if t = strings.TrimSpace(t); t != "" {
				q.Types = append(q.Types, t)
			}
		}
	}

	var err error
	if q.StudioID, err = intParam(v, "studio_id"); err != nil {
		return q, err
	}
	if q.InstructorID, err = intParam(v, "instructor_id"); err != nil {
		return q, err
	}

	minPrice, err := intParam(v, "min_price_cents")
	if err != nil {
		return q, err
	}
	maxPrice, err := intParam(v, "max_price_cents")
	if err != nil {
		return q, err
	}
	q.MinPriceCents, q.MaxPriceCents = int64(minPrice), int64(maxPrice)

	switch q.SortBy {
	case SortDefault, SortTime, SortPrice, SortPopularity, "default":
	default:
		return q, fmt.Errorf("unknown sort %q", q.SortBy)
	}

	return q, nil
}

func intParam(v url.Values, key string) (int, error) {
	raw := v.Get(key)
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return n, nil
}

// Values is the inverse of FromValues.
func (q Query) Values() url.Values {
	v := url.Values{}
	if len(q.Types) > 0 {
		v.Set("type", strings.Join(q.Types, ","))
	}
	setIf := func(key, val string) {
		if val != "" {
			v.Set(key, val)
		}
	}
	setIf("difficulty", q.Difficulty)
	setIf("date", q.Date)
	setIf("search", q.SearchTerm)
	setIf("sort", q.SortBy)
	if q.StudioID != 0 {
		v.Set("studio_id", strconv.Itoa(q.StudioID))
	}
	if q.InstructorID != 0 {
		v.Set("instructor_id", strconv.Itoa(q.InstructorID))
	}
	if q.MinPriceCents > 0 {
		v.Set("min_price_cents", strconv.FormatInt(q.MinPriceCents, 10))
	}
	if q.MaxPriceCents > 0 {
		v.Set("max_price_cents", strconv.FormatInt(q.MaxPriceCents, 10))
	}
	return v
}
