package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/kjstillabower/course-portfolio-api/internal/client"
	"github.com/kjstillabower/course-portfolio-api/internal/lookup"
	"github.com/kjstillabower/course-portfolio-api/internal/models"
	"github.com/kjstillabower/course-portfolio-api/internal/observability"
)

const UnknownLocation = "Unknown location"

// WeatherService combines a forecast with a reverse-geocoded place name.
type WeatherService struct {
	forecast ForecastClient
	geocoder GeocodeClient
}

// NewWeatherService returns a new WeatherService.
func NewWeatherService(forecast ForecastClient, geocoder GeocodeClient) *WeatherService {
	return &WeatherService{forecast: forecast, geocoder: geocoder}
}

// GetWeather returns current conditions for lat/lon. A forecast failure is returned
// to the caller; a geocoding failure only downgrades the city to UnknownLocation.
func (s *WeatherService) GetWeather(ctx context.Context, lat, lon string) (models.WeatherReading, error) {
	logger := observability.LoggerFromContext(ctx)

	f, err := s.forecast.Forecast(ctx, lat, lon)
	if err != nil {
		return models.WeatherReading{}, fmt.Errorf("fetch forecast: %w", err)
	}
	if f.Current == nil {
		return models.WeatherReading{}, fmt.Errorf("fetch forecast: %w: missing current conditions", client.ErrUpstreamMalformed)
	}
	cur := f.Current

	code := -1
	if cur.WeatherCode != nil {
		code = int(*cur.WeatherCode)
	}
	windDirection := value(cur.WindDirection)

	reading := models.WeatherReading{
		Temperature:              rounded(cur.Temperature),
		FeelsLike:                rounded(cur.ApparentTemperature),
		Description:              lookup.WeatherDescription(code),
		Humidity:                 value(cur.RelativeHumidity),
		Precipitation:            value(cur.Precipitation),
		PrecipitationProbability: value(cur.PrecipitationProbability),
		WindSpeed:                rounded(cur.WindSpeed),
		WindDirection:            windDirection,
		WindCompass:              lookup.Compass(windDirection),
		CloudCover:               value(cur.CloudCover),
		UVIndex:                  value(cur.UVIndex),
		Sunrise:                  first(f.Daily.Sunrise),
		Sunset:                   first(f.Daily.Sunset),
		Icon:                     lookup.WeatherIcon(code),
	}

	reading.City = s.resolveCity(ctx, lat, lon, logger)
	logger.Debug("weather served",
		zap.String("city", reading.City),
		zap.Int("weather_code", code))
	return reading, nil
}

func (s *WeatherService) resolveCity(ctx context.Context, lat, lon string, logger *zap.Logger) string {
	place, err := s.geocoder.Reverse(ctx, lat, lon)
	if err != nil {
		observability.GeocodeFallbacksTotal.Inc()
		logger.Warn("reverse geocode failed, using default city", zap.Error(err))
		return UnknownLocation
	}
	if a := place.Address; a != nil {
		for _, name := range []string{a.City, a.Town, a.Village, a.County} {
			if name != "" {
				return name
			}
		}
	}
	observability.GeocodeFallbacksTotal.Inc()
	return UnknownLocation
}

func value(p *float64) float64 {
	if p == nil {
		return 0
	}
	return *p
}

func rounded(p *float64) int {
	return int(lookup.RoundHalfUp(value(p)))
}

func first(s []string) string {
	if len(s) == 0 {
		return ""
	}
	return s[0]
}
