// Package domain models asteroid impact scenarios and their estimated
// physical consequences.
//
// # Units
//
// Inputs use the units the visualization client already sends:
//
//	diameter_m     impactor diameter in meters
//	velocity_km_s  entry velocity in kilometers per second
//	density_kg_m3  bulk density in kg/m³ (default 3000, typical stony asteroid)
//	latitude/longitude  WGS-84 degrees; absent for external-feed records,
//	                    which carry a close-approach descriptor instead
//
// Derived metrics are computed once at creation time and stored with the
// record; they are never recomputed implicitly.
//
// # Estimation formulas
//
// These are deliberately simplified order-of-magnitude estimates, not
// validated geophysics:
//
//	energy     E = ½mv², m from a spherical impactor at the given density.
//	           Reported in joules and in megatons TNT (1 Mt = 4.184e15 J).
//	radius     r = 1.5 · Mt^(1/3) km, floored at zero. Rough blast-damage
//	           scaling with the cube root of yield.
//	population ⌊π r² ρ⌋ people for an assumed population density ρ per km²
//	           (default 1000). Non-negative and monotone in radius.
//	magnitude  M = 0.67·log10(E in ergs) − 10.7, the Gutenberg-Richter
//	           energy-magnitude relation, clamped to [0, 10] and rounded
//	           to one decimal.
//
// All estimator functions are pure: identical inputs always yield identical
// outputs.
//
// # ID conventions
//
// User simulations get "sim-<uuid>" ids assigned by the store at creation;
// uuids are never reused, so a deleted id never reappears. Historical seed
// records keep their well-known ids (chicxulub, tunguska, chelyabinsk).
// External-feed scenarios use "neo-<reference id>" from the upstream feed
// and are never persisted.
package domain
