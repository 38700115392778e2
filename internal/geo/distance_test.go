package geo

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDistance_SamePointIsZero(t *testing.T) {
	assert.Equal(t, 0.0, Distance(6.5244, 3.3792, 6.5244, 3.3792))
	assert.Equal(t, 0.0, Distance(-33.9, 151.2, -33.9, 151.2))
}

func TestDistance_KnownPairs(t *testing.T) {
	lagos, _ := LookupCity("Lagos")
	abuja, _ := LookupCity("Abuja")

	d := DistanceBetween(lagos.Point, abuja.Point)
	assert.InDelta(t, 526, d, 5)

	// symmetric
	assert.InDelta(t, d, DistanceBetween(abuja.Point, lagos.Point), 1e-9)

	// one degree of latitude along a meridian
	assert.InDelta(t, 111.19, Distance(0, 0, 1, 0), 0.01)
}

func TestPointValid(t *testing.T) {
	assert.True(t, Point{Lat: 6.5, Lng: 3.3}.Valid())
	assert.False(t, Point{Lat: 91, Lng: 0}.Valid())
	assert.False(t, Point{Lat: 0, Lng: -181}.Valid())
}

func TestRound1(t *testing.T) {
	assert.Equal(t, 3.5, Round1(3.46))
	assert.Equal(t, 12.0, Round1(11.96))
}
