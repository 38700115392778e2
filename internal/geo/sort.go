package geo

import (
	"sort"
	"strings"
)

// SortField selects the value results are ordered by.
type SortField string

const (
	SortByDistance     SortField = "distance"
	SortByRating       SortField = "rating"
	SortByResponseTime SortField = "response_time"
)

// SortOrder is asc or desc.
type SortOrder string

const (
	Asc  SortOrder = "asc"
	Desc SortOrder = "desc"
)

// ParseSortField falls back to distance for unknown input.
func ParseSortField(s string) SortField {
	switch SortField(strings.ToLower(strings.TrimSpace(s))) {
	case SortByRating:
		return SortByRating
	case SortByResponseTime, "response-time", "responsetime":
		return SortByResponseTime
	}
	return SortByDistance
}

// ParseSortOrder falls back to ascending for unknown input.
func ParseSortOrder(s string) SortOrder {
	if strings.EqualFold(strings.TrimSpace(s), string(Desc)) {
		return Desc
	}
	return Asc
}

// Less returns the comparator for field and order.  Ties keep input order
// because Sort is stable.
func Less(field SortField, order SortOrder) func(a, b Hit) bool {
	key := func(h Hit) float64 {
		switch field {
		case SortByRating:
			return h.Rating
		case SortByResponseTime:
			return float64(h.ResponseTime)
		default:
			return h.DistanceKm
		}
	}
	if order == Desc {
		return func(a, b Hit) bool { return key(a) > key(b) }
	}
	return func(a, b Hit) bool { return key(a) < key(b) }
}

// Sort orders hits in place.
func Sort(hits []Hit, field SortField, order SortOrder) {
	less := Less(field, order)
	sort.SliceStable(hits, func(i, j int) bool { return less(hits[i], hits[j]) })
}
