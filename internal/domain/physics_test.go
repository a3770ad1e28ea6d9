package domain

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEstimate_CityKillerExample(t *testing.T) {
	// 50m stony impactor at 19 km/s: roughly Tunguska-class.
	derived, err := Estimate(ImpactInputs{DiameterM: 50, VelocityKmS: 19})
	require.NoError(t, err)

	// Energy should land in the megaton range, not kilotons or gigatons.
	assert.Greater(t, derived.EnergyMegatons, 1.0)
	assert.Less(t, derived.EnergyMegatons, 100.0)

	// Damage radius a few kilometers at most.
	assert.Greater(t, derived.ImpactRadiusKm, 0.1)
	assert.Less(t, derived.ImpactRadiusKm, 10.0)

	assert.GreaterOrEqual(t, derived.EarthquakeMagnitude, 4.0)
	assert.LessOrEqual(t, derived.EarthquakeMagnitude, 6.0)

	assert.Positive(t, derived.PopulationAffected)
}

func TestEstimate_Deterministic(t *testing.T) {
	inputs := ImpactInputs{DiameterM: 120, VelocityKmS: 25, DensityKgM3: 2500}

	first, err := Estimate(inputs)
	require.NoError(t, err)
	second, err := Estimate(inputs)
	require.NoError(t, err)

	assert.Equal(t, first, second, "estimator must be pure")
}

func TestEstimate_NonNegativeOutputs(t *testing.T) {
	cases := []struct {
		name     string
		diameter float64
		velocity float64
	}{
		{"pebble", 0.001, 0.001},
		{"chelyabinsk", 20, 19},
		{"tunguska", 50, 16},
		{"chicxulub", 10000, 20},
		{"absurdly large", 1e6, 300},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			derived, err := Estimate(ImpactInputs{DiameterM: tc.diameter, VelocityKmS: tc.velocity})
			require.NoError(t, err)

			assert.GreaterOrEqual(t, derived.EnergyJoules, 0.0)
			assert.GreaterOrEqual(t, derived.EnergyMegatons, 0.0)
			assert.GreaterOrEqual(t, derived.ImpactRadiusKm, 0.0)
			assert.GreaterOrEqual(t, derived.PopulationAffected, int64(0))
			assert.GreaterOrEqual(t, derived.EarthquakeMagnitude, 0.0)
			assert.LessOrEqual(t, derived.EarthquakeMagnitude, MaxEarthquakeMagnitude)
		})
	}
}

func TestEstimate_MonotoneInVelocity(t *testing.T) {
	var prevEnergy, prevRadius float64
	for _, velocity := range []float64{5, 10, 20, 40, 70} {
		derived, err := Estimate(ImpactInputs{DiameterM: 50, VelocityKmS: velocity})
		require.NoError(t, err)

		assert.Greater(t, derived.EnergyJoules, prevEnergy,
			"energy must strictly increase with velocity")
		assert.GreaterOrEqual(t, derived.ImpactRadiusKm, prevRadius,
			"radius must not decrease with velocity")
		prevEnergy = derived.EnergyJoules
		prevRadius = derived.ImpactRadiusKm
	}
}

func TestEstimate_InvalidInputs(t *testing.T) {
	lat := 95.0
	lon := -200.0

	cases := []struct {
		name   string
		inputs ImpactInputs
	}{
		{"zero diameter", ImpactInputs{DiameterM: 0, VelocityKmS: 20}},
		{"negative diameter", ImpactInputs{DiameterM: -50, VelocityKmS: 20}},
		{"zero velocity", ImpactInputs{DiameterM: 50, VelocityKmS: 0}},
		{"negative velocity", ImpactInputs{DiameterM: 50, VelocityKmS: -1}},
		{"NaN diameter", ImpactInputs{DiameterM: math.NaN(), VelocityKmS: 20}},
		{"infinite velocity", ImpactInputs{DiameterM: 50, VelocityKmS: math.Inf(1)}},
		{"negative density", ImpactInputs{DiameterM: 50, VelocityKmS: 20, DensityKgM3: -3000}},
		{"negative pop density", ImpactInputs{DiameterM: 50, VelocityKmS: 20, PopDensityPerKm2: -1}},
		{"latitude out of range", ImpactInputs{DiameterM: 50, VelocityKmS: 20, Latitude: &lat}},
		{"longitude out of range", ImpactInputs{DiameterM: 50, VelocityKmS: 20, Longitude: &lon}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Estimate(tc.inputs)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrInvalidInput)
		})
	}
}

func TestEstimate_RejectsOverflowingInputs(t *testing.T) {
	cases := []struct {
		name   string
		inputs ImpactInputs
	}{
		{"huge velocity", ImpactInputs{DiameterM: 50, VelocityKmS: 1e150}},
		{"huge diameter", ImpactInputs{DiameterM: 1e150, VelocityKmS: 20}},
		{"huge density", ImpactInputs{DiameterM: 1e100, VelocityKmS: 1e60, DensityKgM3: 1e100}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			// Each field passes validation on its own; the product overflows.
			require.NoError(t, ValidateInputs(tc.inputs))

			_, err := Estimate(tc.inputs)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrInvalidInput)
		})
	}
}

func TestEstimate_LargeFiniteInputsStayFinite(t *testing.T) {
	// Just below overflow every output is still finite and clamped.
	derived, err := Estimate(ImpactInputs{DiameterM: 50, VelocityKmS: 1e147})
	require.NoError(t, err)

	assert.False(t, math.IsInf(derived.EnergyJoules, 0))
	assert.False(t, math.IsInf(derived.EnergyMegatons, 0))
	assert.False(t, math.IsInf(derived.ImpactRadiusKm, 0))
	assert.Equal(t, MaxEarthquakeMagnitude, derived.EarthquakeMagnitude)
	assert.Equal(t, int64(math.MaxInt64), derived.PopulationAffected)
}

func TestEarthquakeMagnitude_Clamped(t *testing.T) {
	assert.Equal(t, 0.0, EarthquakeMagnitude(0))
	assert.Equal(t, 0.0, EarthquakeMagnitude(-1))

	// Tiny energies would produce negative magnitudes without the floor.
	assert.Equal(t, 0.0, EarthquakeMagnitude(1))

	// Planet-scale energies hit the ceiling.
	assert.Equal(t, MaxEarthquakeMagnitude, EarthquakeMagnitude(1e40))
}

func TestImpactRadiusKm_Floor(t *testing.T) {
	assert.Equal(t, 0.0, ImpactRadiusKm(0))
	assert.Equal(t, 0.0, ImpactRadiusKm(-5))
	assert.InDelta(t, 1.5, ImpactRadiusKm(1), 1e-9)
}

func TestPopulationAffected(t *testing.T) {
	assert.Equal(t, int64(0), PopulationAffected(0, 1000))

	// Monotone in radius for fixed density.
	small := PopulationAffected(1, 1000)
	large := PopulationAffected(2, 1000)
	assert.Greater(t, large, small)

	// π·1²·1000 ≈ 3141 people.
	assert.Equal(t, int64(3141), small)
}

func TestMegatonsTNT(t *testing.T) {
	assert.InDelta(t, 1.0, MegatonsTNT(4.184e15), 1e-9)
}
