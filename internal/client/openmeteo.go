package client

import (
	"context"
	"net/url"
)

const DefaultOpenMeteoURL = "https://api.open-meteo.com/v1/forecast"

const currentFields = "temperature_2m,apparent_temperature,relative_humidity_2m,precipitation," +
	"precipitation_probability,wind_speed_10m,wind_direction_10m,weather_code,cloud_cover,uv_index"

// Forecast is the subset of the Open-Meteo forecast response the weather page uses.
// Pointer fields are nil when the provider omits them.
type Forecast struct {
	Current *CurrentConditions `json:"current"`
	Daily   struct {
		Sunrise []string `json:"sunrise"`
		Sunset  []string `json:"sunset"`
	} `json:"daily"`
}

// CurrentConditions is the "current" block of a forecast.
type CurrentConditions struct {
	Temperature              *float64 `json:"temperature_2m"`
	ApparentTemperature      *float64 `json:"apparent_temperature"`
	RelativeHumidity         *float64 `json:"relative_humidity_2m"`
	Precipitation            *float64 `json:"precipitation"`
	PrecipitationProbability *float64 `json:"precipitation_probability"`
	WindSpeed                *float64 `json:"wind_speed_10m"`
	WindDirection            *float64 `json:"wind_direction_10m"`
	WeatherCode              *float64 `json:"weather_code"`
	CloudCover               *float64 `json:"cloud_cover"`
	UVIndex                  *float64 `json:"uv_index"`
}

// OpenMeteoClient reads current conditions from the Open-Meteo forecast API.
type OpenMeteoClient struct {
	fetcher Fetcher
	baseURL string
}

// NewOpenMeteoClient returns a new OpenMeteoClient. An empty baseURL selects DefaultOpenMeteoURL.
func NewOpenMeteoClient(fetcher Fetcher, baseURL string) *OpenMeteoClient {
	if baseURL == "" {
		baseURL = DefaultOpenMeteoURL
	}
	return &OpenMeteoClient{fetcher: fetcher, baseURL: baseURL}
}

// Forecast requests current conditions plus today's sunrise and sunset in
// Fahrenheit and mph, in the location's own timezone.
func (c *OpenMeteoClient) Forecast(ctx context.Context, lat, lon string) (Forecast, error) {
	params := url.Values{}
	params.Set("latitude", lat)
	params.Set("longitude", lon)
	params.Set("current", currentFields)
	params.Set("daily", "sunrise,sunset")
	params.Set("temperature_unit", "fahrenheit")
	params.Set("wind_speed_unit", "mph")
	params.Set("timezone", "auto")
	params.Set("forecast_days", "1")

	var f Forecast
	if err := c.fetcher.GetJSON(ctx, ProviderOpenMeteo, c.baseURL+"?"+params.Encode(), nil, &f); err != nil {
		return Forecast{}, err
	}
	return f, nil
}
