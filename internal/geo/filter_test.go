package geo

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func hit(idx int, km, rating float64, available bool, response int, services ...string) Hit {
	s := map[string]bool{}
	for _, k := range services {
		s[k] = true
	}
	return Hit{
		Listing: Listing{
			Index:        idx,
			Rating:       rating,
			Available:    available,
			ResponseTime: response,
			Services:     s,
		},
		DistanceKm: km,
	}
}

func indexes(hits []Hit) []int {
	out := make([]int, 0, len(hits))
	for _, h := range hits {
		out = append(out, h.Index)
	}
	return out
}

func TestApply_Predicates(t *testing.T) {
	hits := []Hit{
		hit(0, 2, 4.8, true, 20, "towing", "tireFix"),
		hit(1, 5, 3.9, true, 15, "towing"),
		hit(2, 8, 4.5, false, 30, "towing", "tireFix"),
		hit(3, 25, 4.9, true, 50, "tireFix"),
	}

	tests := []struct {
		name string
		f    Filters
		want []int
	}{
		{"no filters", Filters{}, []int{0, 1, 2, 3}},
		{"radius", Filters{MaxDistanceKm: 10}, []int{0, 1, 2}},
		{"excludes below min rating", Filters{MinRating: 4.0}, []int{0, 2, 3}},
		{"available only", Filters{AvailableOnly: true}, []int{0, 1, 3}},
		{"max response time", Filters{MaxResponseTime: 20}, []int{0, 1}},
		{"service membership", Filters{Services: []string{"Tire Change"}}, []int{0, 2, 3}},
		{"all services required", Filters{Services: []string{"towing", "tireFix"}}, []int{0, 2}},
		{"unknown service ignored", Filters{Services: []string{"teleport"}}, []int{0, 1, 2, 3}},
		{"combined", Filters{MaxDistanceKm: 10, AvailableOnly: true, MinRating: 4}, []int{0}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, indexes(Apply(hits, tc.f.Predicates()...)))
		})
	}
}

func TestFilters_ActiveCount(t *testing.T) {
	assert.Equal(t, 0, Filters{MaxDistanceKm: 10, MaxResponseTime: 60}.ActiveCount())
	assert.Equal(t, 4, Filters{AvailableOnly: true, MinRating: 4, MaxResponseTime: 30, Services: []string{"towing"}}.ActiveCount())
}

func TestServiceKey(t *testing.T) {
	assert.Equal(t, "jumpStart", ServiceKey(" Jump Start "))
	assert.Equal(t, "lockoutService", ServiceKey("lockoutService"))
	assert.Equal(t, "", ServiceKey("car wash"))
}
