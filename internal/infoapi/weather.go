package infoapi

import (
	"context"
	"fmt"
	"net/url"
	"strings"
)

// FetchWeather returns a one-line condition and temperature for city.
func (c *Client) FetchWeather(ctx context.Context, city string) (string, error) {
	city = strings.TrimSpace(city)
	if city == "" {
		return "", fmt.Errorf("weather: empty city")
	}
	body, err := c.get(ctx, joinURL(c.cfg.WeatherEndpoint, url.PathEscape(city)), url.Values{
		"format": {"%C %t"},
		"m":      {""},
	})
	if err != nil {
		return "", fmt.Errorf("weather: %w", err)
	}
	text := strings.TrimSpace(string(body))
	if text == "" {
		return "", fmt.Errorf("weather: %w: empty body", ErrUnexpectedResponse)
	}
	return text, nil
}
