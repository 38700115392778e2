package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/roadready/internal/config"
	"github.com/iliyamo/roadready/internal/geo"
	"github.com/iliyamo/roadready/internal/geocode"
	"github.com/iliyamo/roadready/internal/logger"
	"github.com/iliyamo/roadready/internal/mockdata"
)

// parseSearchQuery reads the shared search parameters:
//
//	city | lat,lng      search centre (city wins when both are given)
//	radius              km, defaults to the configured radius
//	available_only, min_rating, max_response_time, services (comma separated)
//	sort_by, sort_order
func parseSearchQuery(c echo.Context, cfg config.Config) (geo.Query, error) {
	var (
		lat, lng, radius, minRating float64
		available                   bool
		maxResponse                 int
		services                    []string
		city, sortBy, sortOrder     string
	)
	err := echo.QueryParamsBinder(c).
		String("city", &city).
		Float64("lat", &lat).
		Float64("lng", &lng).
		Float64("radius", &radius).
		Bool("available_only", &available).
		Float64("min_rating", &minRating).
		Int("max_response_time", &maxResponse).
		Strings("services", &services).
		String("sort_by", &sortBy).
		String("sort_order", &sortOrder).
		BindError()
	if err != nil {
		return geo.Query{}, errors.New("invalid query parameters")
	}

	var origin geo.Point
	switch {
	case strings.TrimSpace(city) != "":
		found, ok := geo.LookupCity(city)
		if !ok {
			return geo.Query{}, errors.New("unknown city")
		}
		origin = found.Point
	case c.QueryParam("lat") != "" && c.QueryParam("lng") != "":
		origin = geo.Point{Lat: lat, Lng: lng}
		if !origin.Valid() {
			return geo.Query{}, errors.New("coordinates out of range")
		}
	default:
		return geo.Query{}, errors.New("lat and lng or city required")
	}

	if radius <= 0 {
		radius = cfg.DefaultRadiusKm
	}
	if cfg.MaxRadiusKm > 0 && radius > cfg.MaxRadiusKm {
		radius = cfg.MaxRadiusKm
	}
	var wanted []string
	for _, s := range services {
		for _, part := range strings.Split(s, ",") {
			if part = strings.TrimSpace(part); part != "" {
				wanted = append(wanted, part)
			}
		}
	}

	steps := cfg.RadiusSteps
	if len(steps) == 0 {
		steps = geo.DefaultExpansion
	}
	return geo.Query{
		Origin: origin,
		Filters: geo.Filters{
			MaxDistanceKm:   radius,
			AvailableOnly:   available,
			MinRating:       minRating,
			MaxResponseTime: maxResponse,
			Services:        wanted,
		},
		SortBy:      geo.ParseSortField(sortBy),
		SortOrder:   geo.ParseSortOrder(sortOrder),
		Expansion:   steps,
		MaxRadiusKm: cfg.MaxRadiusKm,
	}, nil
}

// SearchHandler serves the public lookup endpoints that need no database.
type SearchHandler struct {
	Cfg       config.Config
	Generator *mockdata.Generator
	Geocoder  *geocode.Client
	Log       logger.ILogger
}

// Demo handles GET /v1/search/demo: generated mechanics around the centre,
// run through the same filters and sort as the real search.
func (h *SearchHandler) Demo(c echo.Context) error {
	q, err := parseSearchQuery(c, h.Cfg)
	if err != nil {
		return badRequest(c, err.Error())
	}
	mechanics := h.Generator.Generate(q.Origin.Lat, q.Origin.Lng, q.Filters.MaxDistanceKm)
	listings := make([]geo.Listing, len(mechanics))
	for i, m := range mechanics {
		listings[i] = m.Listing(i)
	}

	// Generated mechanics already sit inside the radius; no expansion.
	q.Expansion = nil
	res := geo.Search(q, listings)
	out := make([]mockdata.Mechanic, 0, len(res.Hits))
	for _, hit := range res.Hits {
		out = append(out, mechanics[hit.Index])
	}
	return c.JSON(http.StatusOK, echo.Map{
		"origin":         q.Origin,
		"radius_km":      res.RadiusKm,
		"active_filters": q.Filters.ActiveCount(),
		"mechanics":      out,
	})
}

// Cities handles GET /v1/cities.
func (h *SearchHandler) Cities(c echo.Context) error {
	return c.JSON(http.StatusOK, geo.Cities())
}

// Reverse handles GET /v1/geocode/reverse?lat=&lng=.  Lookup failures fall
// back to the formatted coordinates, so the only error is bad input.
func (h *SearchHandler) Reverse(c echo.Context) error {
	var lat, lng float64
	err := echo.QueryParamsBinder(c).
		MustFloat64("lat", &lat).
		MustFloat64("lng", &lng).
		BindError()
	if err != nil {
		return badRequest(c, "lat and lng required")
	}
	if !(geo.Point{Lat: lat, Lng: lng}).Valid() {
		return badRequest(c, "coordinates out of range")
	}
	ctx, cancel := requestContext(c)
	defer cancel()
	return c.JSON(http.StatusOK, echo.Map{
		"latitude":  lat,
		"longitude": lng,
		"address":   h.Geocoder.Reverse(ctx, lat, lng),
	})
}
