package news

import (
	"strings"
	"time"

	"newsmap/internal/config"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-resty/resty/v2"
)

const defaultLimit = 50

func newRestClient(cfg config.ProviderConfig, defaultBase string) *resty.Client {
	base := strings.TrimRight(cfg.BaseURL, "/")
	if base == "" {
		base = defaultBase
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	c := resty.New()
	c.SetBaseURL(base)
	c.SetTimeout(timeout)
	c.SetHeader("Accept", "application/json")
	c.SetHeader("User-Agent", "newsmap/1.0")
	return c
}

func limitOr(n int) int {
	if n <= 0 || n > 100 {
		return defaultLimit
	}
	return n
}

// cleanText strips markup some upstreams leave in descriptions and collapses whitespace.
func cleanText(s string) string {
	if strings.ContainsAny(s, "<&") {
		if doc, err := goquery.NewDocumentFromReader(strings.NewReader(s)); err == nil {
			s = doc.Text()
		}
	}
	return strings.Join(strings.Fields(s), " ")
}

func parseTime(s string) time.Time {
	for _, layout := range []string{time.RFC3339, "2006-01-02T15:04:05.000000Z", "2006-01-02 15:04:05"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC()
		}
	}
	return time.Time{}
}
