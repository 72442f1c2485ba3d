package client

import (
	"context"
	"net/http"
	"net/url"
)

const DefaultNominatimURL = "https://nominatim.openstreetmap.org/reverse"

// Place is a reverse-geocoding result. Address is nil when Nominatim finds nothing.
type Place struct {
	Address *Address `json:"address"`
}

// Address holds the place-name fields the city fallback chain reads.
type Address struct {
	City    string `json:"city"`
	Town    string `json:"town"`
	Village string `json:"village"`
	County  string `json:"county"`
}

// NominatimClient calls the OpenStreetMap reverse geocoder. Nominatim's usage
// policy rejects requests without an identifying User-Agent.
type NominatimClient struct {
	fetcher   Fetcher
	baseURL   string
	userAgent string
}

// NewNominatimClient returns a new NominatimClient sending userAgent on every request.
func NewNominatimClient(fetcher Fetcher, baseURL, userAgent string) *NominatimClient {
	if baseURL == "" {
		baseURL = DefaultNominatimURL
	}
	return &NominatimClient{fetcher: fetcher, baseURL: baseURL, userAgent: userAgent}
}

// Reverse resolves lat/lon to an address at Nominatim's default zoom.
func (c *NominatimClient) Reverse(ctx context.Context, lat, lon string) (Place, error) {
	params := url.Values{}
	params.Set("lat", lat)
	params.Set("lon", lon)
	params.Set("format", "json")

	headers := http.Header{}
	if c.userAgent != "" {
		headers.Set("User-Agent", c.userAgent)
	}

	var p Place
	if err := c.fetcher.GetJSON(ctx, ProviderNominatim, c.baseURL+"?"+params.Encode(), headers, &p); err != nil {
		return Place{}, err
	}
	return p, nil
}
