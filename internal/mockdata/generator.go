// Package mockdata produces synthetic mechanics scattered around a point.
// The demo search uses it so the app has something to show before real
// mechanics sign up in an area.
package mockdata

import (
	"fmt"
	"math"
	"math/rand"
	"sync"
	"time"

	"github.com/iliyamo/roadready/internal/geo"
	"github.com/iliyamo/roadready/internal/model"
)

// Mechanic is a generated mechanic as returned by the demo search.
type Mechanic struct {
	ID               string         `json:"id"`
	Name             string         `json:"name"`
	OwnerName        string         `json:"owner_name"`
	Rating           float64        `json:"rating"`
	ReviewCount      int            `json:"review_count"`
	DistanceKm       float64        `json:"distance"`
	EstimatedArrival int            `json:"estimated_arrival"`
	Phone            string         `json:"phone"`
	Address          string         `json:"address"`
	Bio              string         `json:"bio"`
	Latitude         float64        `json:"latitude"`
	Longitude        float64        `json:"longitude"`
	Available        bool           `json:"available"`
	ResponseTime     int            `json:"response_time"`
	Services         model.Services `json:"services"`
	Image            string         `json:"image"`
}

// Listing converts m for geo.Search; idx is its position in the caller's slice.
func (m Mechanic) Listing(idx int) geo.Listing {
	return geo.Listing{
		Index:        idx,
		Position:     geo.Point{Lat: m.Latitude, Lng: m.Longitude},
		Rating:       m.Rating,
		Available:    m.Available,
		ResponseTime: m.ResponseTime,
		Services:     m.Services.Map(),
	}
}

// kmPerDegree is the length of one degree of latitude on the sphere
// Distance measures on.  A degree of longitude is never longer, so an
// offset of radiusKm/kmPerDegree degrees stays inside radiusKm.
const kmPerDegree = geo.EarthRadiusKm * math.Pi / 180

// Generator draws mechanics from a random source.  It is safe for
// concurrent use.
type Generator struct {
	mu  sync.Mutex
	rnd *rand.Rand
}

// New returns a generator seeded from the clock.
func New() *Generator {
	return NewSeeded(time.Now().UnixNano())
}

// NewSeeded returns a deterministic generator.
func NewSeeded(seed int64) *Generator {
	return &Generator{rnd: rand.New(rand.NewSource(seed))}
}

// Generate returns one mechanic per business in the roster, each placed at
// a random angle and a random offset of at most radiusKm from the centre.  radiusKm <= 0 uses geo.DefaultRadiusKm.
func (g *Generator) Generate(lat, lng, radiusKm float64) []Mechanic {
	if radiusKm <= 0 {
		radiusKm = geo.DefaultRadiusKm
	}
	g.mu.Lock()
	defer g.mu.Unlock()

	out := make([]Mechanic, 0, len(businesses))
	for i, b := range businesses {
		angle := g.rnd.Float64() * 2 * math.Pi
		offset := g.rnd.Float64() * (radiusKm / kmPerDegree)
		mLat := lat + offset*math.Cos(angle)
		mLng := lng + offset*math.Sin(angle)
		dist := geo.Distance(lat, lng, mLat, mLng)

		out = append(out, Mechanic{
			ID:               fmt.Sprintf("dummy-%d", i+1),
			Name:             b.business,
			OwnerName:        b.owner,
			Rating:           geo.Round1(4.0 + g.rnd.Float64()),
			ReviewCount:      g.rnd.Intn(200) + 20,
			DistanceKm:       geo.Round1(dist),
			EstimatedArrival: model.EstimateArrival(dist),
			Phone:            phoneNumbers[i],
			Address:          g.address(),
			Bio:              g.bio(b.business),
			Latitude:         mLat,
			Longitude:        mLng,
			Available:        g.rnd.Float64() > 0.2,
			ResponseTime:     g.rnd.Intn(45) + 15,
			Services: model.Services{
				Towing:         g.rnd.Float64() > 0.2,
				JumpStart:      g.rnd.Float64() > 0.1,
				TireFix:        g.rnd.Float64() > 0.1,
				FuelDelivery:   g.rnd.Float64() > 0.3,
				LockoutService: g.rnd.Float64() > 0.4,
				BasicRepair:    g.rnd.Float64() > 0.2,
			},
			Image: profileImages[i],
		})
	}
	return out
}

func (g *Generator) pick(list []string) string {
	return list[g.rnd.Intn(len(list))]
}

func (g *Generator) address() string {
	return fmt.Sprintf("%d %s, %s, %s", g.rnd.Intn(999)+1, g.pick(streets), g.pick(areas), g.pick(states))
}

func (g *Generator) bio(business string) string {
	return fmt.Sprintf("With %s of experience, %s specializes in %s. We pride ourselves on fast response times and quality service at fair prices across Nigeria.",
		g.pick(experiences), business, g.pick(specialties))
}
