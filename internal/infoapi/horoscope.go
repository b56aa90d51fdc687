package infoapi

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/tidwall/gjson"
)

// FetchHoroscope returns today's English reading for a sign such as "aries".
func (c *Client) FetchHoroscope(ctx context.Context, sign string) (string, error) {
	sign = strings.ToLower(strings.TrimSpace(sign))
	if sign == "" {
		return "", fmt.Errorf("horoscope: empty sign")
	}
	body, err := c.get(ctx, joinURL(c.cfg.HoroscopeEndpoint, "api", "v1", "get-horoscope", "daily"), url.Values{
		"sign": {sign},
		"day":  {"today"},
	})
	if err != nil {
		return "", fmt.Errorf("horoscope: %w", err)
	}
	text := strings.TrimSpace(gjson.GetBytes(body, "data.horoscope_data").String())
	if text == "" {
		return "", fmt.Errorf("horoscope: %w: missing data.horoscope_data", ErrUnexpectedResponse)
	}
	return text, nil
}
