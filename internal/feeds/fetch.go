package feeds

import (
	"context"
	"encoding/xml"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/microcosm-cc/bluemonday"

	"github.com/daybook-app/daybook/internal/daybook"
)

// Literal fallbacks used when a channel omits a field.
const (
	noTitle       = "No Title"
	noDescription = "No Description"
	noLanguage    = "Unknown"
	noCopyright   = "No Copyright"
	noDate        = "No Date"
)

const userAgent = "Mozilla/5.0"

// Represents a response from an RSS feed fetch.
type rssDoc struct {
	XMLName xml.Name `xml:"rss"`
	Channel []struct {
		Title         string `xml:"title"`
		Description   string `xml:"description"`
		Language      string `xml:"language"`
		Copyright     string `xml:"copyright"`
		LastBuildDate string `xml:"lastBuildDate"`
		Items         []struct {
			Title       string `xml:"title"`
			Description string `xml:"description"`
			GUID        string `xml:"guid"`
			Enclosures  []struct {
				URL string `xml:"url,attr"`
			} `xml:"enclosure"`
		} `xml:"item"`
	} `xml:"channel"`
}

var fetchClient = &http.Client{
	Timeout: time.Second * 3,
}

// Issues the GET and decodes the channel.
func fetchDoc(ctx context.Context, url string) (rssDoc, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return rssDoc{}, fmt.Errorf("error creating feed request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := fetchClient.Do(req)
	if err != nil {
		return rssDoc{}, fmt.Errorf("error getting feed url: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return rssDoc{}, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	var doc rssDoc
	if err := xml.NewDecoder(resp.Body).Decode(&doc); err != nil {
		return rssDoc{}, fmt.Errorf("error decoding feed: %w", err)
	}
	if len(doc.Channel) == 0 {
		return rssDoc{}, fmt.Errorf("feed has no channel")
	}

	return doc, nil
}

// Fetch grabs a feed's channel metadata and shapes it into a descriptor,
// filling any missing field with its literal fallback.
func Fetch(ctx context.Context, url string) (daybook.FeedDescriptor, error) {
	doc, err := fetchDoc(ctx, url)
	if err != nil {
		return daybook.FeedDescriptor{}, err
	}

	ch := doc.Channel[0]
	return daybook.FeedDescriptor{
		Title:         orElse(sanitize(ch.Title), noTitle),
		Description:   orElse(sanitize(ch.Description), noDescription),
		Language:      orElse(strings.TrimSpace(ch.Language), noLanguage),
		Copyright:     orElse(sanitize(ch.Copyright), noCopyright),
		LastBuildDate: orElse(strings.TrimSpace(ch.LastBuildDate), noDate),
		URL:           url,
	}, nil
}

// Episodes fetches a feed and returns its playable items, dropping any
// without an enclosure to point the player at.
func Episodes(ctx context.Context, url string) ([]daybook.Episode, error) {
	doc, err := fetchDoc(ctx, url)
	if err != nil {
		return nil, err
	}

	episodes := []daybook.Episode{}
	for _, ch := range doc.Channel {
		for _, item := range ch.Items {
			if len(item.Enclosures) == 0 || item.Enclosures[0].URL == "" {
				continue
			}
			episodes = append(episodes, daybook.Episode{
				ID:          item.GUID,
				Title:       sanitize(item.Title),
				Description: sanitize(item.Description),
				AudioURL:    item.Enclosures[0].URL,
			})
		}
	}

	return episodes, nil
}

var stripPolicy = bluemonday.StrictPolicy()

// Removes all html tags from the string, usually a description.
//
// Also limits the length of the string so there's not a massive chunk of text being output.
func sanitize(s string) string {
	s = strings.TrimSpace(s)
	s = stripPolicy.Sanitize(s)
	if len(s) > 2048 {
		s = s[:2048]
	}

	return s
}

func orElse(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}
