// Package geocode turns coordinates into a readable address using a
// Nominatim-compatible reverse geocoding service.  Lookups never fail: when
// the service is unreachable or returns nothing, the coordinates themselves
// are the address.
package geocode

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/roadready/internal/logger"
)

const (
	userAgent      = "RoadReady/1.0 (roadside assistance)"
	defaultTimeout = 5 * time.Second
	cachePrefix    = "rr:geo:rev"
)

// Client reverse-geocodes coordinates.  Redis is optional; without it every
// lookup goes to the upstream service.
type Client struct {
	baseURL string
	http    *http.Client
	rdb     *redis.Client
	ttl     time.Duration
	log     logger.ILogger
}

// New returns a client for baseURL, e.g. https://nominatim.openstreetmap.org.
func New(baseURL string, rdb *redis.Client, ttl time.Duration, log logger.ILogger) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: defaultTimeout},
		rdb:     rdb,
		ttl:     ttl,
		log:     log.With(logger.String("component", "geocode")),
	}
}

// Fallback is the address used when no name is available.
func Fallback(lat, lng float64) string {
	return fmt.Sprintf("%.6f, %.6f", lat, lng)
}

// Reverse returns the display name for lat/lng, or Fallback on any failure.
func (c *Client) Reverse(ctx context.Context, lat, lng float64) string {
	key := fmt.Sprintf("%s:%.5f:%.5f", cachePrefix, lat, lng)
	if c.rdb != nil {
		if v, err := c.rdb.Get(ctx, key).Result(); err == nil && v != "" {
			return v
		} else if err != nil && !errors.Is(err, redis.Nil) {
			c.log.Warning("geocode cache read failed", logger.Error(err))
		}
	}

	name, err := c.lookup(ctx, lat, lng)
	if err != nil {
		c.log.Warning("reverse geocoding failed",
			logger.Float64("lat", lat), logger.Float64("lng", lng), logger.Error(err))
		return Fallback(lat, lng)
	}
	if c.rdb != nil && c.ttl > 0 {
		if err := c.rdb.Set(ctx, key, name, c.ttl).Err(); err != nil {
			c.log.Warning("geocode cache write failed", logger.Error(err))
		}
	}
	return name
}

type reverseResponse struct {
	DisplayName string `json:"display_name"`
	Error       string `json:"error"`
}

func (c *Client) lookup(ctx context.Context, lat, lng float64) (string, error) {
	q := url.Values{}
	q.Set("format", "jsonv2")
	q.Set("lat", strconv.FormatFloat(lat, 'f', -1, 64))
	q.Set("lon", strconv.FormatFloat(lng, 'f', -1, 64))
	q.Set("accept-language", "en")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/reverse?"+q.Encode(), nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	var body reverseResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", err
	}
	if body.Error != "" {
		return "", errors.New(body.Error)
	}
	if strings.TrimSpace(body.DisplayName) == "" {
		return "", errors.New("empty display_name")
	}
	return body.DisplayName, nil
}
