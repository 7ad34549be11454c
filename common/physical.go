package common

// All units are in metric unless the name says otherwise:
// - Distance is in meters (or kilometers, when suffixed Km)
// - Time is in seconds
// - Elevation is in meters

const FeetPerMeter = 3.28084
const KilometersPerMile = 1.609344

// EarthRadiusKm is the mean earth radius used for great-circle distances.
const EarthRadiusKm = 6371.01

func MetersToFeet(m float64) float64 {
	return m * FeetPerMeter
}

func KilometersToMiles(km float64) float64 {
	return km / KilometersPerMile
}
