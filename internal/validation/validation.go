package validation

import (
	"errors"
	"math"
	"strconv"
	"strings"
)

// ErrCoordinatesRequired is returned when either coordinate is absent or blank.
// Its message is the exact text the API returns with 400.
var ErrCoordinatesRequired = errors.New("Latitude and longitude are required")

// ErrInvalidLatitude is returned when lat is not a number in [-90, 90].
var ErrInvalidLatitude = errors.New("latitude must be a number between -90 and 90")

// ErrInvalidLongitude is returned when lon is not a number in [-180, 180].
var ErrInvalidLongitude = errors.New("longitude must be a number between -180 and 180")

// ValidateCoordinates trims both query values, requires both to be present, and
// checks that each parses as a finite number within its geographic range.
// Returns the trimmed strings unchanged so upstream calls see the caller's precision.
func ValidateCoordinates(lat, lon string) (string, string, error) {
	lat = strings.TrimSpace(lat)
	lon = strings.TrimSpace(lon)
	if lat == "" || lon == "" {
		return "", "", ErrCoordinatesRequired
	}
	if !inRange(lat, 90) {
		return "", "", ErrInvalidLatitude
	}
	if !inRange(lon, 180) {
		return "", "", ErrInvalidLongitude
	}
	return lat, lon, nil
}

func inRange(s string, limit float64) bool {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return false
	}
	return v >= -limit && v <= limit
}
