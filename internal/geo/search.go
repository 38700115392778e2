package geo

// DefaultRadiusKm is the search radius when none is given.
const DefaultRadiusKm = 20.0

// DefaultExpansion is the ladder of radii tried when a search comes back empty.
var DefaultExpansion = []float64{10, 20, 50, 100}

// Query describes one nearby search.
type Query struct {
	Origin    Point
	Filters   Filters
	SortBy    SortField
	SortOrder SortOrder
	// Expansion lists larger radii to retry with, ascending.  Steps not
	// larger than the requested radius, or above MaxRadiusKm, are skipped.
	Expansion   []float64
	MaxRadiusKm float64
}

// Result is the outcome of Search.
type Result struct {
	Hits     []Hit   `json:"-"`
	RadiusKm float64 `json:"radius_km"`
	Expanded bool    `json:"expanded"`
}

// Search measures every listing from the origin, applies the filters and
// sorts what is left.  When nothing falls within the requested radius the
// radius is widened step by step until something does or the steps run out.
// Listings with an invalid position are skipped.
func Search(q Query, listings []Listing) Result {
	hits := make([]Hit, 0, len(listings))
	for _, l := range listings {
		if !l.Position.Valid() {
			continue
		}
		hits = append(hits, Hit{Listing: l, DistanceKm: DistanceBetween(q.Origin, l.Position)})
	}

	radius := q.Filters.MaxDistanceKm
	if radius <= 0 {
		radius = DefaultRadiusKm
	}
	run := func(r float64) []Hit {
		f := q.Filters
		f.MaxDistanceKm = r
		out := Apply(hits, f.Predicates()...)
		Sort(out, q.SortBy, q.SortOrder)
		return out
	}

	res := Result{Hits: run(radius), RadiusKm: radius}
	if len(res.Hits) > 0 {
		return res
	}
	for _, step := range q.Expansion {
		if step <= radius {
			continue
		}
		if q.MaxRadiusKm > 0 && step > q.MaxRadiusKm {
			break
		}
		if out := run(step); len(out) > 0 {
			return Result{Hits: out, RadiusKm: step, Expanded: true}
		}
		res.RadiusKm = step
		res.Expanded = true
	}
	return res
}
