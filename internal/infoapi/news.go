package infoapi

import (
	"bytes"
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"strings"

	"golang.org/x/net/html"
)

type rssFeed struct {
	Channel struct {
		Items []struct {
			Title string `xml:"title"`
		} `xml:"item"`
	} `xml:"channel"`
	Entries []struct {
		Title string `xml:"title"`
	} `xml:"entry"`
}

// FetchNews returns up to limit headline titles from the configured RSS or
// Atom feed.
func (c *Client) FetchNews(ctx context.Context, limit int) ([]string, error) {
	body, err := c.get(ctx, c.cfg.NewsFeedURL, nil)
	if err != nil {
		return nil, fmt.Errorf("news: %w", err)
	}
	var feed rssFeed
	dec := xml.NewDecoder(bytes.NewReader(body))
	dec.Strict = false
	dec.CharsetReader = passthroughCharset
	if err := dec.Decode(&feed); err != nil {
		return nil, fmt.Errorf("news: %w: %v", ErrUnexpectedResponse, err)
	}

	var titles []string
	add := func(raw string) {
		if t := plainText(raw); t != "" && (limit <= 0 || len(titles) < limit) {
			titles = append(titles, t)
		}
	}
	for _, it := range feed.Channel.Items {
		add(it.Title)
	}
	for _, e := range feed.Entries {
		add(e.Title)
	}
	if len(titles) == 0 {
		return nil, fmt.Errorf("news: %w: no items", ErrUnexpectedResponse)
	}
	return titles, nil
}

// plainText drops inline markup some feeds leave inside titles.
func plainText(s string) string {
	z := html.NewTokenizer(strings.NewReader(s))
	var b strings.Builder
	for {
		switch z.Next() {
		case html.ErrorToken:
			return strings.Join(strings.Fields(b.String()), " ")
		case html.TextToken:
			b.Write(z.Text())
			b.WriteByte(' ')
		}
	}
}

func passthroughCharset(_ string, input io.Reader) (io.Reader, error) {
	return input, nil
}
