// Package service implements the scenario lifecycle: simulation, listing,
// deletion, feed fetches, and the historical seed set.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/skyfall-io/impact-sim-service/internal/domain"
	"github.com/skyfall-io/impact-sim-service/internal/observability"
)

// EventPublisher announces scenario lifecycle changes. A nil publisher
// disables events entirely.
type EventPublisher interface {
	PublishCreated(ctx context.Context, scenario domain.ImpactScenario) error
	PublishDeleted(ctx context.Context, id string) error
}

// Service wires the estimator, store, feed, and event publisher together.
type Service struct {
	store      domain.ScenarioStore
	feed       domain.AsteroidFeed
	events     EventPublisher
	metrics    *observability.Metrics
	logger     *slog.Logger
	popDensity float64
}

// New creates a scenario service. events may be nil.
func New(store domain.ScenarioStore, feed domain.AsteroidFeed, events EventPublisher, metrics *observability.Metrics, logger *slog.Logger, popDensity float64) *Service {
	return &Service{
		store:      store,
		feed:       feed,
		events:     events,
		metrics:    metrics,
		logger:     logger,
		popDensity: popDensity,
	}
}

// Simulate estimates the consequences of a user-described impact and
// persists the resulting scenario.
func (s *Service) Simulate(ctx context.Context, inputs domain.ImpactInputs) (domain.ImpactScenario, error) {
	if inputs.Latitude == nil || inputs.Longitude == nil {
		return domain.ImpactScenario{}, fmt.Errorf("%w: latitude and longitude are required", domain.ErrInvalidInput)
	}
	if inputs.PopDensityPerKm2 == 0 {
		inputs.PopDensityPerKm2 = s.popDensity
	}

	start := time.Now()
	derived, err := domain.Estimate(inputs)
	if err != nil {
		return domain.ImpactScenario{}, err
	}
	s.metrics.EstimateDuration.Observe(time.Since(start).Seconds())

	scenario, err := s.store.Create(ctx, domain.ImpactScenario{
		Name:      fmt.Sprintf("Simulated Impact (%.2f, %.2f)", *inputs.Latitude, *inputs.Longitude),
		Source:    domain.SourceUser,
		Inputs:    inputs,
		Derived:   derived,
		CreatedAt: domain.Now(),
	})
	if err != nil {
		return domain.ImpactScenario{}, err
	}

	s.metrics.SimulationsTotal.Inc()
	s.metrics.ScenariosStored.Inc()
	s.logger.Info("scenario created",
		"id", scenario.ID,
		"diameter_m", scenario.Inputs.DiameterM,
		"velocity_km_s", scenario.Inputs.VelocityKmS,
		"energy_megatons", scenario.Derived.EnergyMegatons,
	)

	s.publishCreated(ctx, scenario)
	return scenario, nil
}

// ListImpacts returns persisted scenarios in creation order, optionally
// filtered by source.
func (s *Service) ListImpacts(ctx context.Context, source string) ([]domain.ImpactScenario, error) {
	scenarios, err := s.store.List(ctx)
	if err != nil {
		return nil, err
	}
	if source == "" {
		return scenarios, nil
	}

	switch domain.Source(source) {
	case domain.SourceUser, domain.SourceHistorical, domain.SourceExternal:
	default:
		return nil, fmt.Errorf("%w: unknown source filter %q", domain.ErrInvalidInput, source)
	}

	filtered := make([]domain.ImpactScenario, 0, len(scenarios))
	for _, scenario := range scenarios {
		if scenario.Source == domain.Source(source) {
			filtered = append(filtered, scenario)
		}
	}
	return filtered, nil
}

// DeleteImpact removes a persisted scenario by id.
func (s *Service) DeleteImpact(ctx context.Context, id string) error {
	if err := s.store.Delete(ctx, id); err != nil {
		return err
	}
	s.metrics.ScenariosStored.Dec()
	s.logger.Info("scenario deleted", "id", id)
	s.publishDeleted(ctx, id)
	return nil
}

// FetchAsteroids returns live external-feed scenarios for a trailing window
// of days. Results are never persisted.
func (s *Service) FetchAsteroids(ctx context.Context, days int) ([]domain.ImpactScenario, error) {
	return s.feed.FetchRecent(ctx, days)
}

// CheckReadiness reports whether the store is usable.
func (s *Service) CheckReadiness(ctx context.Context) error {
	return s.store.Ping(ctx)
}

// SeedHistorical inserts the well-known reference impacts if they are not
// already present, then syncs the stored-scenarios gauge. Safe to run on
// every startup.
func (s *Service) SeedHistorical(ctx context.Context) error {
	for _, seed := range historicalSeeds() {
		_, err := s.store.Get(ctx, seed.ID)
		if err == nil {
			continue
		}
		if !errors.Is(err, domain.ErrNotFound) {
			return err
		}

		derived, err := domain.Estimate(seed.Inputs)
		if err != nil {
			return err
		}
		seed.Derived = derived
		seed.CreatedAt = domain.Now()
		if _, err := s.store.Create(ctx, seed); err != nil {
			return err
		}
		s.logger.Info("seeded historical impact", "id", seed.ID, "name", seed.Name)
	}

	scenarios, err := s.store.List(ctx)
	if err != nil {
		return err
	}
	s.metrics.ScenariosStored.Set(float64(len(scenarios)))
	return nil
}

func (s *Service) publishCreated(ctx context.Context, scenario domain.ImpactScenario) {
	if s.events == nil {
		return
	}
	if err := s.events.PublishCreated(ctx, scenario); err != nil {
		s.metrics.EventPublishErrors.Inc()
		s.logger.Warn("failed to publish created event", "id", scenario.ID, "error", err)
		return
	}
	s.metrics.EventsPublished.Inc()
}

func (s *Service) publishDeleted(ctx context.Context, id string) {
	if s.events == nil {
		return
	}
	if err := s.events.PublishDeleted(ctx, id); err != nil {
		s.metrics.EventPublishErrors.Inc()
		s.logger.Warn("failed to publish deleted event", "id", id, "error", err)
		return
	}
	s.metrics.EventsPublished.Inc()
}

func ptr(v float64) *float64 { return &v }

// historicalSeeds returns the reference impacts every deployment starts
// with. Sizes are in meters, velocities in km/s.
func historicalSeeds() []domain.ImpactScenario {
	return []domain.ImpactScenario{
		{
			ID:     "chicxulub",
			Name:   "Chicxulub (66Mya)",
			Source: domain.SourceHistorical,
			Inputs: domain.ImpactInputs{
				DiameterM:   10000,
				VelocityKmS: 20,
				Latitude:    ptr(21.4),
				Longitude:   ptr(-89.0),
			},
		},
		{
			ID:     "tunguska",
			Name:   "Tunguska (1908)",
			Source: domain.SourceHistorical,
			Inputs: domain.ImpactInputs{
				DiameterM:   50,
				VelocityKmS: 16,
				Latitude:    ptr(60.9),
				Longitude:   ptr(101.9),
			},
		},
		{
			ID:     "chelyabinsk",
			Name:   "Chelyabinsk (2013)",
			Source: domain.SourceHistorical,
			Inputs: domain.ImpactInputs{
				DiameterM:   20,
				VelocityKmS: 19,
				Latitude:    ptr(54.9),
				Longitude:   ptr(61.1),
			},
		},
	}
}
