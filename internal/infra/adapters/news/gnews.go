package news

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"newsmap/internal/config"
	"newsmap/internal/domain"
	"newsmap/internal/domain/model"
	"newsmap/internal/domain/ports/adapter"

	"github.com/go-resty/resty/v2"
)

var _ adapter.NewsProvider = (*GNewsClient)(nil)

// GNewsClient is the first fallback tier.
type GNewsClient struct {
	apiKey string
	client *resty.Client
}

func NewGNewsClient(cfg config.ProviderConfig) *GNewsClient {
	return &GNewsClient{apiKey: cfg.APIKey, client: newRestClient(cfg, "https://gnews.io/api/v4")}
}

func (c *GNewsClient) Name() string { return "gnews" }

func (c *GNewsClient) Fetch(ctx context.Context, crit model.Criteria) ([]model.Article, error) {
	q := map[string]string{
		"lang":   crit.Language,
		"max":    strconv.Itoa(limitOr(crit.Limit)),
		"apikey": c.apiKey,
	}
	explicit := crit.Category != "" && crit.Category != model.CategoryGlobal
	if explicit {
		q["category"] = gnewsTopic(crit.Category)
	}

	var raw gnewsResponse
	resp, err := c.client.R().
		SetContext(ctx).
		SetQueryParams(q).
		SetResult(&raw).
		SetError(&raw).
		Get("/top-headlines")
	if err != nil {
		return nil, fmt.Errorf("gnews fetch: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("gnews: status %d: %s", resp.StatusCode(), strings.Join(raw.Errors, "; "))
	}

	articles := make([]model.Article, 0, len(raw.Articles))
	for _, item := range raw.Articles {
		if item.Title == "" {
			continue
		}
		a := model.Article{
			Title:       cleanText(item.Title),
			Summary:     cleanText(item.Description),
			URL:         item.URL,
			ImageURL:    item.Image,
			Source:      item.Source.Name,
			Language:    crit.Language,
			PublishedAt: parseTime(item.PublishedAt),
		}
		if explicit {
			a.Category = crit.Category
		}
		articles = append(articles, a)
	}
	if len(articles) == 0 {
		return nil, domain.ErrEmptyResult
	}
	return articles, nil
}

// gnewsTopic maps our categories to GNews topic names.
func gnewsTopic(c string) string {
	switch c {
	case "politics":
		return "nation"
	case "business", "technology", "sports", "health", "science", "entertainment":
		return c
	default:
		return "general"
	}
}

type gnewsResponse struct {
	TotalArticles int      `json:"totalArticles"`
	Errors        []string `json:"errors"`
	Articles      []struct {
		Title       string `json:"title"`
		Description string `json:"description"`
		URL         string `json:"url"`
		Image       string `json:"image"`
		PublishedAt string `json:"publishedAt"`
		Source      struct {
			Name string `json:"name"`
		} `json:"source"`
	} `json:"articles"`
}
