// Package lookup holds the static tables used to turn upstream codes into display values.
package lookup

import "math"

const (
	UnknownDescription = "Unknown"
	DefaultIcon        = "01d"
)

var weatherDescriptions = map[int]string{
	0:  "Clear sky",
	1:  "Mainly clear",
	2:  "Partly cloudy",
	3:  "Overcast",
	45: "Foggy",
	48: "Depositing rime fog",
	51: "Light drizzle",
	53: "Moderate drizzle",
	55: "Dense drizzle",
	61: "Slight rain",
	63: "Moderate rain",
	65: "Heavy rain",
	71: "Slight snow",
	73: "Moderate snow",
	75: "Heavy snow",
	77: "Snow grains",
	80: "Slight rain showers",
	81: "Moderate rain showers",
	82: "Violent rain showers",
	85: "Slight snow showers",
	86: "Heavy snow showers",
	95: "Thunderstorm",
	96: "Thunderstorm with slight hail",
	99: "Thunderstorm with heavy hail",
}

// iconBand maps an inclusive code range to an icon. Bands are evaluated in order.
type iconBand struct {
	lo, hi int
	icon   string
}

var iconBands = []iconBand{
	{0, 1, "01d"},
	{2, 2, "02d"},
	{3, 3, "03d"},
	{45, 45, "50d"},
	{48, 48, "50d"},
	{51, 55, "09d"},
	{61, 65, "10d"},
	{71, 77, "13d"},
	{80, 82, "09d"},
	{85, 86, "13d"},
	{95, math.MaxInt, "11d"},
}

var compassPoints = [16]string{
	"N", "NNE", "NE", "ENE", "E", "ESE", "SE", "SSE",
	"S", "SSW", "SW", "WSW", "W", "WNW", "NW", "NNW",
}

// WeatherDescription returns the WMO description for code, or "Unknown".
func WeatherDescription(code int) string {
	if d, ok := weatherDescriptions[code]; ok {
		return d
	}
	return UnknownDescription
}

// WeatherIcon returns the icon code for a WMO weather code. First matching band wins;
// anything outside every band gets DefaultIcon.
func WeatherIcon(code int) string {
	for _, b := range iconBands {
		if code >= b.lo && code <= b.hi {
			return b.icon
		}
	}
	return DefaultIcon
}

// Compass returns the 16-point compass label for a bearing in degrees.
func Compass(degrees float64) string {
	idx := int(RoundHalfUp(degrees/22.5)) % 16
	if idx < 0 {
		idx += 16
	}
	return compassPoints[idx]
}

// RoundHalfUp rounds to the nearest integer with .5 going toward positive infinity.
func RoundHalfUp(v float64) float64 {
	return math.Floor(v + 0.5)
}
