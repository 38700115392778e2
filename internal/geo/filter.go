package geo

import "strings"

// Listing is the part of a mechanic the search looks at.  Index points back
// into the caller's slice so results can be mapped to full records.
type Listing struct {
	Index        int
	Position     Point
	Rating       float64
	Available    bool
	ResponseTime int // minutes
	Services     map[string]bool
}

// Hit is a Listing with its distance from the search origin.
type Hit struct {
	Listing
	DistanceKm float64
}

// Filters narrow a search.  A zero value disables the corresponding predicate.
type Filters struct {
	MaxDistanceKm   float64  `json:"max_distance"`
	AvailableOnly   bool     `json:"available_only"`
	MinRating       float64  `json:"min_rating"`
	MaxResponseTime int      `json:"max_response_time"`
	Services        []string `json:"services"`
}

// Predicate decides whether a hit stays in the result set.
type Predicate func(Hit) bool

// WithinRadius keeps hits no farther than km. km <= 0 keeps everything.
func WithinRadius(km float64) Predicate {
	return func(h Hit) bool { return km <= 0 || h.DistanceKm <= km }
}

// AvailableOnly keeps available mechanics when on is true.
func AvailableOnly(on bool) Predicate {
	return func(h Hit) bool { return !on || h.Available }
}

// MinRating keeps hits rated at least min.
func MinRating(min float64) Predicate {
	return func(h Hit) bool { return min <= 0 || h.Rating >= min }
}

// MaxResponseTime keeps hits that respond within minutes. minutes <= 0 keeps everything.
func MaxResponseTime(minutes int) Predicate {
	return func(h Hit) bool { return minutes <= 0 || h.ResponseTime <= minutes }
}

// OffersAll keeps hits that offer every requested service.  Service names
// are resolved through ServiceKey so "Tire Change" and "tireFix" match alike.
func OffersAll(services []string) Predicate {
	keys := make([]string, 0, len(services))
	for _, s := range services {
		if k := ServiceKey(s); k != "" {
			keys = append(keys, k)
		}
	}
	return func(h Hit) bool {
		for _, k := range keys {
			if !h.Services[k] {
				return false
			}
		}
		return true
	}
}

// Predicates expands f into its predicate list, radius first.
func (f Filters) Predicates() []Predicate {
	return []Predicate{
		WithinRadius(f.MaxDistanceKm),
		AvailableOnly(f.AvailableOnly),
		MinRating(f.MinRating),
		MaxResponseTime(f.MaxResponseTime),
		OffersAll(f.Services),
	}
}

// Apply returns the hits that satisfy every predicate, preserving order.
func Apply(hits []Hit, preds ...Predicate) []Hit {
	out := make([]Hit, 0, len(hits))
next:
	for _, h := range hits {
		for _, p := range preds {
			if !p(h) {
				continue next
			}
		}
		out = append(out, h)
	}
	return out
}

// ActiveCount is the number of non-radius filters in effect, shown as a badge
// next to the filter panel.
func (f Filters) ActiveCount() int {
	n := 0
	if f.AvailableOnly {
		n++
	}
	if f.MinRating > 0 {
		n++
	}
	if f.MaxResponseTime > 0 && f.MaxResponseTime < 60 {
		n++
	}
	if len(f.Services) > 0 {
		n++
	}
	return n
}

var serviceAliases = map[string]string{
	"towing":          "towing",
	"jumpstart":       "jumpStart",
	"jump start":      "jumpStart",
	"jump-start":      "jumpStart",
	"tirefix":         "tireFix",
	"tire fix":        "tireFix",
	"tire change":     "tireFix",
	"flat tire":       "tireFix",
	"fueldelivery":    "fuelDelivery",
	"fuel delivery":   "fuelDelivery",
	"lockoutservice":  "lockoutService",
	"lockout service": "lockoutService",
	"lockout":         "lockoutService",
	"basicrepair":     "basicRepair",
	"basic repair":    "basicRepair",
}

// ServiceKey maps a display name or key to the canonical service key.
// Unknown names map to "".
func ServiceKey(name string) string {
	return serviceAliases[strings.ToLower(strings.TrimSpace(name))]
}
