package pagination

import (
	"fmt"
	"math"
	"net/url"
	"strconv"
)

// Defaults applied when the query string does not specify them.
const (
	DefaultPage  = 1
	DefaultLimit = 15
	MaxLimit     = 1000
)

// Params holds pagination parameters extracted from a query string.
type Params struct {
	Page  int
	Limit int

	// PageRequested is true when the caller explicitly supplied ?page=.
	PageRequested bool
}

// Offset is the number of rows to skip. It saturates at math.MaxInt
// instead of wrapping for pages far past any real result set.
func (p Params) Offset() int {
	if p.Page <= 1 || p.Limit <= 0 {
		return 0
	}
	if p.Page-1 > math.MaxInt/p.Limit {
		return math.MaxInt
	}
	return (p.Page - 1) * p.Limit
}

// OutOfRange reports whether an explicitly requested page starts at or past
// total. Implicit first pages are never out of range.
func (p Params) OutOfRange(total int) bool {
	return p.PageRequested && p.Offset() >= total
}

// FromValues parses page and limit. Missing values fall back to the defaults;
// present but non-positive or non-numeric values are an error.
func FromValues(values url.Values) (Params, error) {
	p := Params{Page: DefaultPage, Limit: DefaultLimit}

	if raw, ok := lastValue(values, "page"); ok {
		v, err := positiveInt(raw)
		if err != nil {
			return p, fmt.Errorf("Invalid page: %s.", raw)
		}
		p.Page = v
		p.PageRequested = true
	}

	if raw, ok := lastValue(values, "limit"); ok {
		v, err := positiveInt(raw)
		if err != nil {
			return p, fmt.Errorf("Invalid limit: %s.", raw)
		}
		if v > MaxLimit {
			v = MaxLimit
		}
		p.Limit = v
	}

	return p, nil
}

func lastValue(values url.Values, key string) (string, bool) {
	vs := values[key]
	if len(vs) == 0 || vs[len(vs)-1] == "" {
		return "", false
	}
	return vs[len(vs)-1], true
}

func positiveInt(raw string) (int, error) {
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, err
	}
	if v < 1 {
		return 0, fmt.Errorf("must be positive")
	}
	return v, nil
}
