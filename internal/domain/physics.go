package domain

import (
	"fmt"
	"math"
)

// Estimation constants. See the package doc for the formulas.
const (
	// DefaultDensityKgM3 is the assumed bulk density when the caller
	// supplies none. 3000 kg/m³ is typical for a stony asteroid.
	DefaultDensityKgM3 = 3000.0

	// DefaultPopDensityPerKm2 is the assumed population density when the
	// caller supplies none.
	DefaultPopDensityPerKm2 = 1000.0

	// MaxEarthquakeMagnitude caps the Richter-style estimate so extreme
	// inputs never produce nonsensical magnitudes.
	MaxEarthquakeMagnitude = 10.0

	joulesPerMegaton = 4.184e15
	ergsPerJoule     = 1e7
)

// KineticEnergyJoules returns the kinetic energy of a spherical impactor.
func KineticEnergyJoules(diameterM, velocityKmS, densityKgM3 float64) float64 {
	radius := diameterM / 2.0
	volume := 4.0 / 3.0 * math.Pi * radius * radius * radius
	mass := densityKgM3 * volume
	velocityMS := velocityKmS * 1000.0
	return 0.5 * mass * velocityMS * velocityMS
}

// MegatonsTNT converts joules to megatons of TNT equivalent.
func MegatonsTNT(joules float64) float64 {
	return joules / joulesPerMegaton
}

// ImpactRadiusKm estimates the damage radius from the yield. Scales with the
// cube root of energy, floored at zero.
func ImpactRadiusKm(megatons float64) float64 {
	if megatons <= 0 {
		return 0
	}
	return 1.5 * math.Cbrt(megatons)
}

// PopulationAffected estimates how many people live inside the damage
// radius, assuming a uniform population density. Never negative.
func PopulationAffected(radiusKm, popDensityPerKm2 float64) int64 {
	areaKm2 := math.Pi * radiusKm * radiusKm
	affected := areaKm2 * popDensityPerKm2
	if affected <= 0 || math.IsNaN(affected) {
		return 0
	}
	if affected > math.MaxInt64 {
		return math.MaxInt64
	}
	return int64(affected)
}

// EarthquakeMagnitude converts impact energy to a Richter-style magnitude,
// clamped to [0, MaxEarthquakeMagnitude] and rounded to one decimal.
func EarthquakeMagnitude(joules float64) float64 {
	if joules <= 0 {
		return 0
	}
	// Gutenberg-Richter energy-magnitude relation; the -10.7 constant is
	// calibrated for energy in ergs.
	magnitude := 0.67*math.Log10(joules*ergsPerJoule) - 10.7
	if magnitude < 0 {
		return 0
	}
	if magnitude > MaxEarthquakeMagnitude {
		return MaxEarthquakeMagnitude
	}
	return math.Round(magnitude*10) / 10
}

// Estimate validates the inputs and computes all derived metrics in one
// pass, so a scenario is never built with partially computed fields.
// Missing density and population density fall back to the defaults.
func Estimate(inputs ImpactInputs) (DerivedMetrics, error) {
	if err := ValidateInputs(inputs); err != nil {
		return DerivedMetrics{}, err
	}

	density := inputs.DensityKgM3
	if density == 0 {
		density = DefaultDensityKgM3
	}
	popDensity := inputs.PopDensityPerKm2
	if popDensity == 0 {
		popDensity = DefaultPopDensityPerKm2
	}

	joules := KineticEnergyJoules(inputs.DiameterM, inputs.VelocityKmS, density)
	// Extreme but individually valid inputs can overflow the energy to +Inf,
	// which every downstream metric inherits. Reject rather than persist.
	if math.IsInf(joules, 0) || math.IsNaN(joules) {
		return DerivedMetrics{}, fmt.Errorf("%w: diameter, velocity, and density produce a non-finite energy", ErrInvalidInput)
	}
	megatons := MegatonsTNT(joules)
	radiusKm := ImpactRadiusKm(megatons)

	return DerivedMetrics{
		EnergyJoules:        joules,
		EnergyMegatons:      megatons,
		ImpactRadiusKm:      radiusKm,
		PopulationAffected:  PopulationAffected(radiusKm, popDensity),
		EarthquakeMagnitude: EarthquakeMagnitude(joules),
	}, nil
}

// ValidateInputs checks the physical parameters once at the service
// boundary. Size and velocity must be positive finite numbers; optional
// fields must be in range when present.
func ValidateInputs(inputs ImpactInputs) error {
	if !positiveFinite(inputs.DiameterM) {
		return fmt.Errorf("%w: diameter_m must be a positive finite number, got %v", ErrInvalidInput, inputs.DiameterM)
	}
	if !positiveFinite(inputs.VelocityKmS) {
		return fmt.Errorf("%w: velocity_km_s must be a positive finite number, got %v", ErrInvalidInput, inputs.VelocityKmS)
	}
	if inputs.DensityKgM3 != 0 && !positiveFinite(inputs.DensityKgM3) {
		return fmt.Errorf("%w: density_kg_m3 must be a positive finite number, got %v", ErrInvalidInput, inputs.DensityKgM3)
	}
	if inputs.PopDensityPerKm2 != 0 && !positiveFinite(inputs.PopDensityPerKm2) {
		return fmt.Errorf("%w: pop_density_per_km2 must be a positive finite number, got %v", ErrInvalidInput, inputs.PopDensityPerKm2)
	}
	if inputs.Latitude != nil && (math.IsNaN(*inputs.Latitude) || *inputs.Latitude < -90 || *inputs.Latitude > 90) {
		return fmt.Errorf("%w: latitude must be in [-90, 90], got %v", ErrInvalidInput, *inputs.Latitude)
	}
	if inputs.Longitude != nil && (math.IsNaN(*inputs.Longitude) || *inputs.Longitude < -180 || *inputs.Longitude > 180) {
		return fmt.Errorf("%w: longitude must be in [-180, 180], got %v", ErrInvalidInput, *inputs.Longitude)
	}
	return nil
}

func positiveFinite(v float64) bool {
	return v > 0 && !math.IsInf(v, 1)
}
