package handler

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/roadready/internal/config"
	"github.com/iliyamo/roadready/internal/geo"
	"github.com/iliyamo/roadready/internal/logger"
	"github.com/iliyamo/roadready/internal/model"
	"github.com/iliyamo/roadready/internal/realtime"
	"github.com/iliyamo/roadready/internal/repository"
)

const maxPublicReviews = 50

// MechanicHandler serves mechanic profiles: the owner's own profile, the
// public directory and nearby search.
type MechanicHandler struct {
	Cfg        config.Config
	Mechanics  *repository.MechanicRepo
	ReviewRepo *repository.ReviewRepo
	Pub        realtime.Publisher
	Log        logger.ILogger
}

// CreateMine handles POST /v1/mechanic-profile.
func (h *MechanicHandler) CreateMine(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return unauthorized(c)
	}
	var in model.MechanicInput
	if err := c.Bind(&in); err != nil {
		return badRequest(c, "invalid body")
	}
	if err := model.ValidateCoordinates(in.Latitude, in.Longitude); err != nil {
		return badRequest(c, err.Error())
	}

	ctx, cancel := requestContext(c)
	defer cancel()
	m := model.NewMechanicProfile(uid, in)
	if err := h.Mechanics.Create(ctx, m); err != nil {
		return fail(c, h.Log, err, "create mechanic profile failed")
	}
	publish(ctx, h.Pub, h.Log, realtime.TableMechanicProfiles, realtime.EventInsert, m, nil)
	h.Log.Info("mechanic profile created", logger.Uint64("user_id", uid), logger.String("mechanic_id", m.MechanicID))
	return c.JSON(http.StatusCreated, m)
}

// GetMine handles GET /v1/mechanic-profile.
func (h *MechanicHandler) GetMine(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return unauthorized(c)
	}
	ctx, cancel := requestContext(c)
	defer cancel()

	m, err := h.Mechanics.GetByUser(ctx, uid)
	if err != nil {
		return fail(c, h.Log, err, "load mechanic profile failed")
	}
	return c.JSON(http.StatusOK, m)
}

// UpdateMine handles PATCH /v1/mechanic-profile.
func (h *MechanicHandler) UpdateMine(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return unauthorized(c)
	}
	var body model.MechanicUpdate
	if err := c.Bind(&body); err != nil {
		return badRequest(c, "invalid body")
	}
	if err := body.Validate(); err != nil {
		return badRequest(c, err.Error())
	}

	ctx, cancel := requestContext(c)
	defer cancel()
	before, err := h.Mechanics.GetByUser(ctx, uid)
	if err != nil {
		return fail(c, h.Log, err, "load mechanic profile failed")
	}
	after, err := h.Mechanics.Update(ctx, uid, body)
	if err != nil {
		return fail(c, h.Log, err, "update mechanic profile failed")
	}
	publish(ctx, h.Pub, h.Log, realtime.TableMechanicProfiles, realtime.EventUpdate, after, before)
	return c.JSON(http.StatusOK, after)
}

// List handles GET /v1/mechanics.
func (h *MechanicHandler) List(c echo.Context) error {
	limit, offset := pagination(c)
	ctx, cancel := requestContext(c)
	defer cancel()

	rows, err := h.Mechanics.ListPublic(ctx, limit, offset)
	if err != nil {
		return fail(c, h.Log, err, "list mechanics failed")
	}
	out := make([]model.PublicMechanic, 0, len(rows))
	for _, m := range rows {
		out = append(out, m.Public())
	}
	return c.JSON(http.StatusOK, out)
}

// lookup resolves :id as either the numeric key or the RR- public id.
func (h *MechanicHandler) lookup(c echo.Context) (*model.MechanicProfile, error) {
	ctx, cancel := requestContext(c)
	defer cancel()

	raw := strings.TrimSpace(c.Param("id"))
	if id, err := strconv.ParseUint(raw, 10, 64); err == nil {
		return h.Mechanics.GetByID(ctx, id)
	}
	return h.Mechanics.GetByPublicID(ctx, raw)
}

// Get handles GET /v1/mechanics/:id.
func (h *MechanicHandler) Get(c echo.Context) error {
	m, err := h.lookup(c)
	if err != nil {
		return fail(c, h.Log, err, "load mechanic failed")
	}
	return c.JSON(http.StatusOK, m.Public())
}

// Reviews handles GET /v1/mechanics/:id/reviews.
func (h *MechanicHandler) Reviews(c echo.Context) error {
	m, err := h.lookup(c)
	if err != nil {
		return fail(c, h.Log, err, "load mechanic failed")
	}
	limit, _ := pagination(c)
	if limit <= 0 || limit > maxPublicReviews {
		limit = maxPublicReviews
	}
	ctx, cancel := requestContext(c)
	defer cancel()

	reviews, err := h.ReviewRepo.ListPublicByMechanic(ctx, m.ID, limit)
	if err != nil {
		return fail(c, h.Log, err, "list reviews failed")
	}
	return c.JSON(http.StatusOK, reviews)
}

// nearbyMechanic is a search hit: the full profile plus distance and ETA.
type nearbyMechanic struct {
	*model.MechanicProfile
	DistanceKm       float64 `json:"distance"`
	EstimatedArrival int     `json:"estimated_arrival"`
}

func listingOf(idx int, m *model.MechanicProfile) geo.Listing {
	l := geo.Listing{
		Index:        idx,
		Rating:       m.Rating,
		Available:    m.IsAvailable,
		ResponseTime: m.AverageResponseTime,
		Services:     m.ServicesOffered.Map(),
	}
	if m.HasLocation() {
		l.Position = geo.Point{Lat: *m.Latitude, Lng: *m.Longitude}
	}
	return l
}

// Nearby handles GET /v1/mechanics/nearby.
func (h *MechanicHandler) Nearby(c echo.Context) error {
	q, err := parseSearchQuery(c, h.Cfg)
	if err != nil {
		return badRequest(c, err.Error())
	}

	ctx, cancel := requestContext(c)
	defer cancel()
	rows, err := h.Mechanics.ListLocated(ctx)
	if err != nil {
		return fail(c, h.Log, err, "search mechanics failed")
	}
	listings := make([]geo.Listing, 0, len(rows))
	for i, m := range rows {
		if m.HasLocation() {
			listings = append(listings, listingOf(i, m))
		}
	}

	res := geo.Search(q, listings)
	out := make([]nearbyMechanic, 0, len(res.Hits))
	for _, hit := range res.Hits {
		out = append(out, nearbyMechanic{
			MechanicProfile:  rows[hit.Index],
			DistanceKm:       geo.Round1(hit.DistanceKm),
			EstimatedArrival: model.EstimateArrival(hit.DistanceKm),
		})
	}
	h.Log.Debug("nearby search",
		logger.Float64("lat", q.Origin.Lat),
		logger.Float64("lng", q.Origin.Lng),
		logger.Float64("radius_km", res.RadiusKm),
		logger.Int("hits", len(out)))
	return c.JSON(http.StatusOK, echo.Map{
		"origin":         q.Origin,
		"radius_km":      res.RadiusKm,
		"expanded":       res.Expanded,
		"active_filters": q.Filters.ActiveCount(),
		"mechanics":      out,
	})
}
