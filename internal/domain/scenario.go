package domain

import (
	"context"
	"time"
)

// Source identifies where a scenario originated.
type Source string

const (
	SourceUser       Source = "user"
	SourceHistorical Source = "historical"
	SourceExternal   Source = "external-feed"
)

// ImpactInputs holds the raw physical parameters of an impact event.
// Latitude/Longitude are pointers because external-feed records have no
// impact point; they carry a Flyby descriptor instead.
type ImpactInputs struct {
	DiameterM        float64  `json:"diameter_m"`
	VelocityKmS      float64  `json:"velocity_km_s"`
	DensityKgM3      float64  `json:"density_kg_m3,omitempty"`
	Latitude         *float64 `json:"latitude,omitempty"`
	Longitude        *float64 `json:"longitude,omitempty"`
	PopDensityPerKm2 float64  `json:"pop_density_per_km2,omitempty"`
}

// DerivedMetrics are the estimated consequences of an impact, computed once
// at creation time by the estimator.
type DerivedMetrics struct {
	EnergyJoules        float64 `json:"energy_joules"`
	EnergyMegatons      float64 `json:"energy_megatons"`
	ImpactRadiusKm      float64 `json:"impact_radius_km"`
	PopulationAffected  int64   `json:"population_affected"`
	EarthquakeMagnitude float64 `json:"earthquake_magnitude"`
}

// Flyby describes the close approach of an external-feed asteroid.
type Flyby struct {
	MissDistanceKm float64   `json:"miss_distance_km,omitempty"`
	CloseApproach  time.Time `json:"close_approach,omitempty"`
	Hazardous      bool      `json:"hazardous"`
}

// ImpactScenario is one impact event with its inputs and derived metrics.
type ImpactScenario struct {
	ID        string         `json:"id"`
	Name      string         `json:"name,omitempty"`
	Source    Source         `json:"source"`
	Inputs    ImpactInputs   `json:"inputs"`
	Derived   DerivedMetrics `json:"derived"`
	Flyby     *Flyby         `json:"flyby,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
}

// ScenarioStore is the durable record set of persisted scenarios.
type ScenarioStore interface {
	// Create persists a fully-populated scenario atomically and returns it
	// with the store-assigned id. A scenario arriving with a non-empty id
	// (historical seeds) keeps it.
	Create(ctx context.Context, scenario ImpactScenario) (ImpactScenario, error)

	// List returns all persisted scenarios in creation order.
	List(ctx context.Context) ([]ImpactScenario, error)

	// Get returns the scenario with the given id, or ErrNotFound.
	Get(ctx context.Context, id string) (ImpactScenario, error)

	// Delete removes the scenario with the given id, or fails with
	// ErrNotFound. It never silently succeeds on an unknown id.
	Delete(ctx context.Context, id string) error

	// Ping reports whether the backing medium is reachable.
	Ping(ctx context.Context) error
}

// AsteroidFeed fetches near-Earth-object data from the upstream feed.
type AsteroidFeed interface {
	// FetchRecent returns external-feed scenarios for a trailing window of
	// windowDays days, clamped to the feed's 7-day maximum.
	FetchRecent(ctx context.Context, windowDays int) ([]ImpactScenario, error)
}
