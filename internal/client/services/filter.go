package services

import (
	"fmt"
	"math"
	"net/url"
	"strconv"
	"strings"

	"github.com/dmitrijs2005/campusmarket/internal/client/models"
)

const DefaultSort = "-created_at"

// SortOption is one ordering the backend accepts.
type SortOption struct {
	Value string
	Label string
}

var SortOptions = []SortOption{
	{Value: "-created_at", Label: "Newest"},
	{Value: "created_at", Label: "Oldest"},
	{Value: "price", Label: "Price: lowest to high"},
	{Value: "-price", Label: "Price: highest to low"},
}

// SortLabel returns the display name of an ordering value.
func SortLabel(value string) string {
	for _, o := range SortOptions {
		if o.Value == value {
			return o.Label
		}
	}
	return value
}

// Filter is the user-adjustable listing query. The zero value plus
// DefaultSort is the unfiltered query.
type Filter struct {
	Text      string
	Category  string
	Condition models.Condition
	MinPrice  string
	MaxPrice  string
	Sort      string
	Page      int
}

func DefaultFilter() Filter {
	return Filter{Sort: DefaultSort}
}

// Params renders the filter as backend query parameters. Empty values are
// omitted; ordering is always present.
func (f Filter) Params() url.Values {
	v := url.Values{}
	if t := strings.TrimSpace(f.Text); t != "" {
		v.Set("search", t)
	}
	if f.Category != "" {
		v.Set("category", f.Category)
	}
	if f.Condition != "" {
		v.Set("condition", string(f.Condition))
	}
	if f.MinPrice != "" {
		v.Set("min_price", f.MinPrice)
	}
	if f.MaxPrice != "" {
		v.Set("max_price", f.MaxPrice)
	}
	sort := f.Sort
	if sort == "" {
		sort = DefaultSort
	}
	v.Set("ordering", sort)
	if f.Page > 0 {
		v.Set("page", strconv.Itoa(f.Page))
	}
	return v
}

// Active reports whether any narrowing filter is set.
func (f Filter) Active() bool {
	return strings.TrimSpace(f.Text) != "" || f.Category != "" || f.Condition != "" ||
		f.MinPrice != "" || f.MaxPrice != ""
}

func validatePriceRange(lo, hi string) error {
	parse := func(name, s string) (float64, bool, error) {
		if s == "" {
			return 0, false, nil
		}
		p, err := strconv.ParseFloat(s, 64)
		if err != nil || p < 0 || math.IsNaN(p) || math.IsInf(p, 0) {
			return 0, false, fmt.Errorf("%s must be a non-negative number, got %q", name, s)
		}
		return p, true, nil
	}
	minV, hasMin, err := parse("min price", lo)
	if err != nil {
		return err
	}
	maxV, hasMax, err := parse("max price", hi)
	if err != nil {
		return err
	}
	if hasMin && hasMax && minV > maxV {
		return fmt.Errorf("min price %s is above max price %s", lo, hi)
	}
	return nil
}

func validSort(value string) bool {
	for _, o := range SortOptions {
		if o.Value == value {
			return true
		}
	}
	return false
}
