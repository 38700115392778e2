package geo

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// offset returns a point roughly km kilometres north of p.
func offset(p Point, km float64) Point {
	return Point{Lat: p.Lat + km/111.195, Lng: p.Lng}
}

func TestSearch_NearestFirst(t *testing.T) {
	lagos, _ := LookupCity("lagos")
	listings := []Listing{
		{Index: 0, Position: offset(lagos.Point, 8), Rating: 4.5, Available: true},
		{Index: 1, Position: offset(lagos.Point, 2), Rating: 4.0, Available: true},
		{Index: 2, Position: offset(lagos.Point, 30), Rating: 5.0, Available: true},
	}

	res := Search(Query{Origin: lagos.Point, Filters: Filters{MaxDistanceKm: 10}}, listings)

	require.Len(t, res.Hits, 2)
	assert.Equal(t, []int{1, 0}, indexes(res.Hits))
	assert.InDelta(t, 2, res.Hits[0].DistanceKm, 0.05)
	assert.Equal(t, 10.0, res.RadiusKm)
	assert.False(t, res.Expanded)
}

func TestSearch_ExpandsRadius(t *testing.T) {
	kano, _ := LookupCity("Kano")
	listings := []Listing{
		{Index: 0, Position: offset(kano.Point, 35), Rating: 4.2, Available: true},
		{Index: 1, Position: offset(kano.Point, 80), Rating: 4.8, Available: true},
	}

	res := Search(Query{
		Origin:    kano.Point,
		Filters:   Filters{MaxDistanceKm: 10},
		Expansion: DefaultExpansion,
	}, listings)

	require.Len(t, res.Hits, 1)
	assert.Equal(t, 0, res.Hits[0].Index)
	assert.Equal(t, 50.0, res.RadiusKm)
	assert.True(t, res.Expanded)
}

func TestSearch_ExpansionCappedByMaxRadius(t *testing.T) {
	ibadan, _ := LookupCity("Ibadan")
	listings := []Listing{{Index: 0, Position: offset(ibadan.Point, 90), Available: true}}

	res := Search(Query{
		Origin:      ibadan.Point,
		Filters:     Filters{MaxDistanceKm: 10},
		Expansion:   DefaultExpansion,
		MaxRadiusKm: 50,
	}, listings)

	assert.Empty(t, res.Hits)
	assert.Equal(t, 50.0, res.RadiusKm)
	assert.True(t, res.Expanded)
}

func TestSearch_DefaultRadiusAndInvalidPositions(t *testing.T) {
	abuja, _ := LookupCity("abuja")
	listings := []Listing{
		{Index: 0, Position: offset(abuja.Point, 15), Available: true},
		{Index: 1, Position: Point{Lat: 200, Lng: 0}, Available: true},
	}

	res := Search(Query{Origin: abuja.Point}, listings)

	assert.Equal(t, DefaultRadiusKm, res.RadiusKm)
	assert.Equal(t, []int{0}, indexes(res.Hits))
}

func TestCities(t *testing.T) {
	all := Cities()
	require.Len(t, all, 5)
	assert.Equal(t, "Abuja", all[0].Name)

	ph, ok := LookupCity("  PORT HARCOURT ")
	require.True(t, ok)
	assert.Equal(t, 4.8156, ph.Lat)

	_, ok = LookupCity("Accra")
	assert.False(t, ok)
}
