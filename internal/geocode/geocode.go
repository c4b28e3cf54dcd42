// Package geocode resolves free-text place queries to coordinates: a literal
// "lat, lng" pair is parsed locally, anything else goes to a
// Nominatim-compatible search API.
package geocode

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/tztw/projectmap/config"
	"github.com/tztw/projectmap/internal/catalog/domain"
)

const (
	SourceCoordinates = "coordinates"
	SourceRemote      = "remote"

	externalSearchURL = "https://www.amap.com/search?query="
	manualEntryHint   = "搜索服务连接失败，可输入 '纬度,经度' (如 30.67, 104.06) 直接定位，或前往外部地图查询坐标。"
)

var coordPattern = regexp.MustCompile(`^(\d+(\.\d+)?)\s*,\s*(\d+(\.\d+)?)$`)

type Result struct {
	Lat         float64 `json:"lat"`
	Lng         float64 `json:"lng"`
	DisplayName string  `json:"displayName"`
	Source      string  `json:"source"`
}

// FallbackError is returned when the remote search is unreachable. It
// matches domain.ErrNetwork and carries what the client needs to offer
// manual entry instead.
type FallbackError struct {
	Query       string
	ExternalURL string
	Hint        string
	Err         error
}

func (e *FallbackError) Error() string {
	return fmt.Sprintf("geocode %q: %v", e.Query, e.Err)
}

func (e *FallbackError) Unwrap() []error { return []error{domain.ErrNetwork, e.Err} }

// NewFallback wraps err with the external search link and manual-entry hint
// for q.
func NewFallback(q string, err error) *FallbackError {
	return &FallbackError{
		Query:       q,
		ExternalURL: externalSearchURL + url.QueryEscape(q),
		Hint:        manualEntryHint,
		Err:         err,
	}
}

// ParseCoordinates recognizes "lat, lng" with both values in range.
func ParseCoordinates(q string) (Result, bool) {
	m := coordPattern.FindStringSubmatch(strings.TrimSpace(q))
	if m == nil {
		return Result{}, false
	}
	lat, err1 := strconv.ParseFloat(m[1], 64)
	lng, err2 := strconv.ParseFloat(m[3], 64)
	if err1 != nil || err2 != nil {
		return Result{}, false
	}
	if lat < -90 || lat > 90 || lng < -180 || lng > 180 {
		return Result{}, false
	}
	return Result{
		Lat:         lat,
		Lng:         lng,
		DisplayName: fmt.Sprintf("📍 坐标定位: %s, %s", m[1], m[3]),
		Source:      SourceCoordinates,
	}, true
}

type Client struct {
	baseURL  string
	language string
	http     *http.Client
	limiter  *rate.Limiter
}

func NewClient(cfg *config.GeocoderConfig) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	rps := cfg.RatePerSecond
	if rps <= 0 {
		rps = 1
	}
	return &Client{
		baseURL:  strings.TrimRight(cfg.BaseURL, "/"),
		language: cfg.Language,
		http:     &http.Client{Timeout: timeout},
		limiter:  rate.NewLimiter(rate.Limit(rps), 1),
	}
}

type searchHit struct {
	Lat         string `json:"lat"`
	Lon         string `json:"lon"`
	DisplayName string `json:"display_name"`
}

// Resolve returns the location for q. An empty query or a search without
// hits yields domain.ErrNotFound; transport failures yield a *FallbackError.
func (c *Client) Resolve(ctx context.Context, q string) (Result, error) {
	q = strings.TrimSpace(q)
	if q == "" {
		return Result{}, domain.ErrNotFound
	}
	if res, ok := ParseCoordinates(q); ok {
		return res, nil
	}

	fallback := func(err error) error { return NewFallback(q, err) }

	if err := c.limiter.Wait(ctx); err != nil {
		return Result{}, fallback(fmt.Errorf("rate limiter: %w", err))
	}

	reqURL := c.baseURL + "/search?format=json&q=" + url.QueryEscape(q)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return Result{}, fmt.Errorf("create request: %w", err)
	}
	if c.language != "" {
		req.Header.Set("Accept-Language", c.language)
	}
	req.Header.Set("User-Agent", "tztw-projectmap")

	resp, err := c.http.Do(req)
	if err != nil {
		return Result{}, fallback(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return Result{}, fallback(fmt.Errorf("search returned status %d", resp.StatusCode))
	}

	var hits []searchHit
	if err := json.NewDecoder(resp.Body).Decode(&hits); err != nil {
		return Result{}, fallback(fmt.Errorf("decode search response: %w", err))
	}
	if len(hits) == 0 {
		return Result{}, domain.ErrNotFound
	}

	lat, err1 := strconv.ParseFloat(hits[0].Lat, 64)
	lng, err2 := strconv.ParseFloat(hits[0].Lon, 64)
	if err1 != nil || err2 != nil {
		return Result{}, fallback(fmt.Errorf("invalid coordinates in search response"))
	}
	return Result{Lat: lat, Lng: lng, DisplayName: hits[0].DisplayName, Source: SourceRemote}, nil
}
