package infoapi

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	DefaultPrayerEndpoint    = "https://api.aladhan.com"
	DefaultWeatherEndpoint   = "https://wttr.in"
	DefaultNewsFeedURL       = "https://www.aljazeera.net/aljazeerarss"
	DefaultHoroscopeEndpoint = "https://horoscope-app-api.vercel.app"

	maxBodyBytes = 2 << 20
)

var ErrUnexpectedResponse = errors.New("infoapi: unexpected response")

type Config struct {
	PrayerEndpoint    string
	PrayerCountry     string
	PrayerMethod      int
	WeatherEndpoint   string
	NewsFeedURL       string
	HoroscopeEndpoint string
	UserAgent         string
	RequestTimeout    time.Duration
}

// Client fetches the small text payloads behind the informational commands.
// Each call is one request; nothing is cached.
type Client struct {
	cfg  Config
	http *http.Client
}

func New(cfg Config) *Client {
	if cfg.PrayerEndpoint == "" {
		cfg.PrayerEndpoint = DefaultPrayerEndpoint
	}
	if cfg.PrayerMethod <= 0 {
		cfg.PrayerMethod = 4
	}
	if cfg.WeatherEndpoint == "" {
		cfg.WeatherEndpoint = DefaultWeatherEndpoint
	}
	if cfg.NewsFeedURL == "" {
		cfg.NewsFeedURL = DefaultNewsFeedURL
	}
	if cfg.HoroscopeEndpoint == "" {
		cfg.HoroscopeEndpoint = DefaultHoroscopeEndpoint
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = 15 * time.Second
	}
	return &Client{cfg: cfg, http: &http.Client{Timeout: cfg.RequestTimeout}}
}

func (c *Client) get(ctx context.Context, rawURL string, query url.Values) ([]byte, error) {
	if len(query) > 0 {
		rawURL += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, err
	}
	if ua := strings.TrimSpace(c.cfg.UserAgent); ua != "" {
		req.Header.Set("User-Agent", ua)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("%w: %s http %d", ErrUnexpectedResponse, req.URL.Host, resp.StatusCode)
	}
	return body, nil
}

func joinURL(base string, segments ...string) string {
	out := strings.TrimRight(base, "/")
	for _, s := range segments {
		out += "/" + strings.TrimLeft(s, "/")
	}
	return out
}
