package geo

import (
	"sort"
	"strings"
)

// City is a named search centre.
type City struct {
	Name string `json:"name"`
	Point
}

// cities holds approximate centres of the major Nigerian cities the search
// page offers as shortcuts.
var cities = map[string]City{
	"lagos":         {Name: "Lagos", Point: Point{Lat: 6.5244, Lng: 3.3792}},
	"abuja":         {Name: "Abuja", Point: Point{Lat: 9.0765, Lng: 7.3986}},
	"port harcourt": {Name: "Port Harcourt", Point: Point{Lat: 4.8156, Lng: 7.0498}},
	"kano":          {Name: "Kano", Point: Point{Lat: 12.0022, Lng: 8.5920}},
	"ibadan":        {Name: "Ibadan", Point: Point{Lat: 7.3775, Lng: 3.9470}},
}

// LookupCity finds a city by name, ignoring case and surrounding space.
func LookupCity(name string) (City, bool) {
	c, ok := cities[strings.ToLower(strings.TrimSpace(name))]
	return c, ok
}

// Cities returns every known city sorted by name.
func Cities() []City {
	out := make([]City, 0, len(cities))
	for _, c := range cities {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}
