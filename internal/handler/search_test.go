package handler

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/roadready/internal/geocode"
	"github.com/iliyamo/roadready/internal/logger"
	"github.com/iliyamo/roadready/internal/mockdata"
	"github.com/iliyamo/roadready/internal/model"
	"github.com/iliyamo/roadready/internal/repository"
)

type nearbyResp struct {
	RadiusKm      float64 `json:"radius_km"`
	Expanded      bool    `json:"expanded"`
	ActiveFilters int     `json:"active_filters"`
	Mechanics     []struct {
		ID               uint64  `json:"id"`
		BusinessName     string  `json:"business_name"`
		Distance         float64 `json:"distance"`
		EstimatedArrival int     `json:"estimated_arrival"`
	} `json:"mechanics"`
}

func TestNearby_SortsByDistanceWithinRadius(t *testing.T) {
	db, mock := newMockDB(t)
	rows := sqlmock.NewRows(mechanicCols)
	mechanicRow(rows, 1, 11, 6.60, 3.35)     // ~9km from Lagos centre
	mechanicRow(rows, 2, 12, 6.5244, 3.3792) // at the centre
	mechanicRow(rows, 3, 13, 9.0765, 7.3986) // Abuja
	mock.ExpectQuery("WHERE latitude IS NOT NULL AND longitude IS NOT NULL").WillReturnRows(rows)

	h := &MechanicHandler{Cfg: testConfig(), Mechanics: repository.NewMechanicRepo(db), Log: logger.NewNop()}
	e := echo.New()
	authed(e).GET("/mechanics/nearby", h.Nearby)

	rec := do(e, http.MethodGet, "/v1/mechanics/nearby?city=lagos&services=towing", "", tokenFor(t, 9, model.RoleDriver))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var res nearbyResp
	decode(t, rec, &res)
	assert.Equal(t, 20.0, res.RadiusKm)
	assert.False(t, res.Expanded)
	assert.Equal(t, 1, res.ActiveFilters)
	require.Len(t, res.Mechanics, 2)
	assert.Equal(t, uint64(2), res.Mechanics[0].ID)
	assert.Equal(t, 0.0, res.Mechanics[0].Distance)
	assert.Equal(t, 10, res.Mechanics[0].EstimatedArrival)
	assert.Equal(t, uint64(1), res.Mechanics[1].ID)
}

func TestNearby_ExpandsWhenNothingClose(t *testing.T) {
	db, mock := newMockDB(t)
	rows := sqlmock.NewRows(mechanicCols)
	mechanicRow(rows, 1, 11, 6.90, 3.38) // ~42km north of Lagos centre
	mock.ExpectQuery("WHERE latitude IS NOT NULL").WillReturnRows(rows)

	h := &MechanicHandler{Cfg: testConfig(), Mechanics: repository.NewMechanicRepo(db), Log: logger.NewNop()}
	e := echo.New()
	authed(e).GET("/mechanics/nearby", h.Nearby)

	rec := do(e, http.MethodGet, "/v1/mechanics/nearby?lat=6.5244&lng=3.3792&radius=10", "", tokenFor(t, 9, model.RoleDriver))
	require.Equal(t, http.StatusOK, rec.Code)

	var res nearbyResp
	decode(t, rec, &res)
	assert.True(t, res.Expanded)
	assert.Equal(t, 50.0, res.RadiusKm)
	assert.Len(t, res.Mechanics, 1)
}

func TestNearby_BadInput(t *testing.T) {
	db, _ := newMockDB(t)
	h := &MechanicHandler{Cfg: testConfig(), Mechanics: repository.NewMechanicRepo(db), Log: logger.NewNop()}
	e := echo.New()
	authed(e).GET("/mechanics/nearby", h.Nearby)
	tok := tokenFor(t, 9, model.RoleDriver)

	for _, q := range []string{"", "?lat=6.5", "?city=atlantis", "?lat=95&lng=3", "?lat=abc&lng=3"} {
		rec := do(e, http.MethodGet, "/v1/mechanics/nearby"+q, "", tok)
		assert.Equal(t, http.StatusBadRequest, rec.Code, q)
	}
}

func newSearchHandler(geocoderURL string) *SearchHandler {
	return &SearchHandler{
		Cfg:       testConfig(),
		Generator: mockdata.NewSeeded(42),
		Geocoder:  geocode.New(geocoderURL, nil, time.Minute, logger.NewNop()),
		Log:       logger.NewNop(),
	}
}

func TestDemo_StaysInsideRadius(t *testing.T) {
	h := newSearchHandler("http://127.0.0.1:0")
	e := echo.New()
	e.GET("/v1/search/demo", h.Demo)

	rec := do(e, http.MethodGet, "/v1/search/demo?city=abuja&radius=15&sort_by=rating&sort_order=desc", "", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var res struct {
		RadiusKm  float64             `json:"radius_km"`
		Mechanics []mockdata.Mechanic `json:"mechanics"`
	}
	decode(t, rec, &res)
	assert.Equal(t, 15.0, res.RadiusKm)
	require.NotEmpty(t, res.Mechanics)
	for i, m := range res.Mechanics {
		assert.LessOrEqual(t, m.DistanceKm, 15.0*1.5, m.Name)
		if i > 0 {
			assert.GreaterOrEqual(t, res.Mechanics[i-1].Rating, m.Rating)
		}
	}
}

func TestCities(t *testing.T) {
	h := newSearchHandler("http://127.0.0.1:0")
	e := echo.New()
	e.GET("/v1/cities", h.Cities)

	rec := do(e, http.MethodGet, "/v1/cities", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"Lagos"`)
	assert.Contains(t, rec.Body.String(), `"Port Harcourt"`)
}

func TestReverse(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("lat") == "6.5" {
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"display_name":"Ikeja, Lagos, Nigeria"}`))
			return
		}
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer upstream.Close()

	h := newSearchHandler(upstream.URL)
	e := echo.New()
	e.GET("/v1/geocode/reverse", h.Reverse)

	rec := do(e, http.MethodGet, "/v1/geocode/reverse?lat=6.5&lng=3.35", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Ikeja, Lagos, Nigeria")

	rec = do(e, http.MethodGet, "/v1/geocode/reverse?lat=9.1&lng=7.4", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), geocode.Fallback(9.1, 7.4))

	rec = do(e, http.MethodGet, "/v1/geocode/reverse?lat=9.1", "", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
