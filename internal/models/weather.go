package models

// WeatherReading is the normalized current-conditions view for one coordinate pair.
type WeatherReading struct {
	Temperature              int     `json:"temperature"`
	FeelsLike                int     `json:"feelsLike"`
	Description              string  `json:"description"`
	Humidity                 float64 `json:"humidity"`
	Precipitation            float64 `json:"precipitation"`
	PrecipitationProbability float64 `json:"precipitationProbability"`
	WindSpeed                int     `json:"windSpeed"`
	WindDirection            float64 `json:"windDirection"`
	WindCompass              string  `json:"windCompass"`
	CloudCover               float64 `json:"cloudCover"`
	UVIndex                  float64 `json:"uvIndex"`
	Sunrise                  string  `json:"sunrise"`
	Sunset                   string  `json:"sunset"`
	City                     string  `json:"city"`
	Icon                     string  `json:"icon"`
}
