// Package neo fetches near-Earth-object data from the NASA NeoWs feed and
// normalizes it into impact scenarios.
package neo

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"math"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/skyfall-io/impact-sim-service/internal/config"
	"github.com/skyfall-io/impact-sim-service/internal/domain"
	"github.com/skyfall-io/impact-sim-service/internal/observability"
)

// MaxWindowDays is the NeoWs feed's practical limit. Enforced locally
// regardless of what the caller requests.
const MaxWindowDays = 7

const dateLayout = "2006-01-02"

// Client implements domain.AsteroidFeed against the NASA NeoWs API.
type Client struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
	popDensity float64
	clock      clockwork.Clock
	metrics    *observability.Metrics
	logger     *slog.Logger
}

// NewClient creates a NeoWs feed client.
func NewClient(cfg *config.Config, metrics *observability.Metrics, logger *slog.Logger) *Client {
	return &Client{
		apiKey:  cfg.NASAAPIKey,
		baseURL: cfg.NASABaseURL,
		httpClient: &http.Client{
			Timeout: cfg.NEOTimeout,
		},
		popDensity: cfg.PopDensityPerKm2,
		clock:      clockwork.NewRealClock(),
		metrics:    metrics,
		logger:     logger,
	}
}

// ClampWindow bounds a requested window to [1, MaxWindowDays].
func ClampWindow(days int) int {
	if days < 1 {
		return 1
	}
	if days > MaxWindowDays {
		return MaxWindowDays
	}
	return days
}

// FetchRecent returns external-feed scenarios for a trailing window ending
// today. Entries the feed reports without a usable diameter or velocity are
// skipped rather than failing the whole fetch.
func (c *Client) FetchRecent(ctx context.Context, windowDays int) ([]domain.ImpactScenario, error) {
	days := ClampWindow(windowDays)
	end := c.clock.Now().UTC()
	start := end.AddDate(0, 0, -(days - 1))

	params := url.Values{
		"start_date": {start.Format(dateLayout)},
		"end_date":   {end.Format(dateLayout)},
		"api_key":    {c.apiKey},
	}

	body, err := c.doRequest(ctx, c.baseURL+"/feed?"+params.Encode())
	if err != nil {
		return nil, err
	}

	var feed feedResponse
	if err := json.Unmarshal(body, &feed); err != nil {
		c.metrics.NeoRequests.WithLabelValues("malformed").Inc()
		return nil, fmt.Errorf("%w: decode feed: %v", domain.ErrUpstreamMalformed, err)
	}

	scenarios := make([]domain.ImpactScenario, 0, feed.ElementCount)
	for date, objects := range feed.NearEarthObjects {
		for _, object := range objects {
			scenario, err := c.normalize(object)
			if err != nil {
				c.logger.Warn("skipping feed entry",
					"neo_id", object.ID,
					"name", object.Name,
					"date", date,
					"error", err,
				)
				continue
			}
			scenarios = append(scenarios, scenario)
		}
	}

	// The feed groups by date in a map, so impose a stable order.
	sort.Slice(scenarios, func(i, j int) bool {
		a, b := scenarios[i], scenarios[j]
		if a.Flyby != nil && b.Flyby != nil && !a.Flyby.CloseApproach.Equal(b.Flyby.CloseApproach) {
			return a.Flyby.CloseApproach.Before(b.Flyby.CloseApproach)
		}
		return a.ID < b.ID
	})

	c.metrics.NeoRequests.WithLabelValues("success").Inc()
	return scenarios, nil
}

// doRequest performs the GET with at most one retry on transport errors.
// HTTP error statuses are not retried.
func (c *Client) doRequest(ctx context.Context, fullURL string) ([]byte, error) {
	start := time.Now()
	defer func() {
		c.metrics.NeoAPIDuration.Observe(time.Since(start).Seconds())
	}()

	resp, err := c.get(ctx, fullURL)
	if err != nil {
		select {
		case <-ctx.Done():
			c.metrics.NeoRequests.WithLabelValues("unavailable").Inc()
			return nil, fmt.Errorf("%w: %v", domain.ErrUpstreamUnavailable, err)
		case <-time.After(250 * time.Millisecond):
		}
		c.logger.Warn("feed request failed, retrying once", "error", err)
		resp, err = c.get(ctx, fullURL)
	}
	if err != nil {
		c.metrics.NeoRequests.WithLabelValues("unavailable").Inc()
		return nil, fmt.Errorf("%w: %v", domain.ErrUpstreamUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		c.metrics.NeoRequests.WithLabelValues("unavailable").Inc()
		return nil, fmt.Errorf("%w: status %d: %s", domain.ErrUpstreamUnavailable, resp.StatusCode, body)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		c.metrics.NeoRequests.WithLabelValues("unavailable").Inc()
		return nil, fmt.Errorf("%w: read body: %v", domain.ErrUpstreamUnavailable, err)
	}
	return body, nil
}

func (c *Client) get(ctx context.Context, fullURL string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	return c.httpClient.Do(req)
}

// normalize maps one feed object into an external-feed scenario, delegating
// derived metrics to the estimator.
func (c *Client) normalize(object neoObject) (domain.ImpactScenario, error) {
	diameter := object.EstimatedDiameter.Meters.EstimatedDiameterMax

	// The feed reports velocity as a string inside close approach data;
	// fall back to a typical encounter velocity when absent.
	velocity := 20.0
	flyby := &domain.Flyby{Hazardous: object.Hazardous}
	if len(object.CloseApproachData) > 0 {
		approach := object.CloseApproachData[0]
		if v, err := strconv.ParseFloat(approach.RelativeVelocity.KilometersPerSecond, 64); err == nil && v > 0 {
			velocity = v
		}
		if d, err := strconv.ParseFloat(approach.MissDistance.Kilometers, 64); err == nil && d >= 0 {
			flyby.MissDistanceKm = d
		}
		if approach.EpochDateCloseApproach > 0 {
			flyby.CloseApproach = time.UnixMilli(approach.EpochDateCloseApproach).UTC()
		}
	}

	inputs := domain.ImpactInputs{
		DiameterM:        round2(diameter),
		VelocityKmS:      round2(velocity),
		PopDensityPerKm2: c.popDensity,
	}

	derived, err := domain.Estimate(inputs)
	if err != nil {
		return domain.ImpactScenario{}, err
	}

	return domain.ImpactScenario{
		ID:        "neo-" + object.ID,
		Name:      object.Name,
		Source:    domain.SourceExternal,
		Inputs:    inputs,
		Derived:   derived,
		Flyby:     flyby,
		CreatedAt: domain.Now(),
	}, nil
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// NeoWs feed response types.

type feedResponse struct {
	ElementCount     int                    `json:"element_count"`
	NearEarthObjects map[string][]neoObject `json:"near_earth_objects"`
}

type neoObject struct {
	ID                string `json:"id"`
	Name              string `json:"name"`
	Hazardous         bool   `json:"is_potentially_hazardous_asteroid"`
	EstimatedDiameter struct {
		Meters struct {
			EstimatedDiameterMax float64 `json:"estimated_diameter_max"`
		} `json:"meters"`
	} `json:"estimated_diameter"`
	CloseApproachData []closeApproach `json:"close_approach_data"`
}

type closeApproach struct {
	EpochDateCloseApproach int64 `json:"epoch_date_close_approach"`
	RelativeVelocity       struct {
		KilometersPerSecond string `json:"kilometers_per_second"`
	} `json:"relative_velocity"`
	MissDistance struct {
		Kilometers string `json:"kilometers"`
	} `json:"miss_distance"`
}
