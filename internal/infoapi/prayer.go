package infoapi

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/tidwall/gjson"
)

type PrayerTimes struct {
	City    string
	Fajr    string
	Dhuhr   string
	Asr     string
	Maghrib string
	Isha    string
}

func (c *Client) FetchPrayerTimes(ctx context.Context, city string) (PrayerTimes, error) {
	city = strings.TrimSpace(city)
	q := url.Values{}
	q.Set("city", city)
	q.Set("country", c.cfg.PrayerCountry)
	q.Set("method", strconv.Itoa(c.cfg.PrayerMethod))
	body, err := c.get(ctx, joinURL(c.cfg.PrayerEndpoint, "v1", "timingsByCity"), q)
	if err != nil {
		return PrayerTimes{}, fmt.Errorf("prayer times: %w", err)
	}
	timings := gjson.GetBytes(body, "data.timings")
	if !timings.IsObject() {
		return PrayerTimes{}, fmt.Errorf("prayer times: %w: missing data.timings", ErrUnexpectedResponse)
	}
	return PrayerTimes{
		City:    city,
		Fajr:    timings.Get("Fajr").String(),
		Dhuhr:   timings.Get("Dhuhr").String(),
		Asr:     timings.Get("Asr").String(),
		Maghrib: timings.Get("Maghrib").String(),
		Isha:    timings.Get("Isha").String(),
	}, nil
}
