package news

import (
	"context"
	"fmt"
	"strconv"

	"newsmap/internal/config"
	"newsmap/internal/domain"
	"newsmap/internal/domain/model"
	"newsmap/internal/domain/ports/adapter"

	"github.com/go-resty/resty/v2"
)

var _ adapter.NewsProvider = (*NewsAPIClient)(nil)

// NewsAPIClient talks to a NewsAPI-style top-headlines endpoint. It is the metered primary tier.
type NewsAPIClient struct {
	apiKey string
	client *resty.Client
}

func NewNewsAPIClient(cfg config.ProviderConfig) *NewsAPIClient {
	c := newRestClient(cfg, "https://newsapi.org/v2")
	c.SetHeader("X-Api-Key", cfg.APIKey)
	return &NewsAPIClient{apiKey: cfg.APIKey, client: c}
}

func (c *NewsAPIClient) Name() string { return "newsapi" }

func (c *NewsAPIClient) Fetch(ctx context.Context, crit model.Criteria) ([]model.Article, error) {
	q := map[string]string{
		"language": crit.Language,
		"pageSize": strconv.Itoa(limitOr(crit.Limit)),
	}
	if crit.Category != "" && crit.Category != model.CategoryGlobal {
		q["category"] = crit.Category
	}

	var raw newsAPIResponse
	resp, err := c.client.R().
		SetContext(ctx).
		SetQueryParams(q).
		SetResult(&raw).
		SetError(&raw).
		Get("/top-headlines")
	if err != nil {
		return nil, fmt.Errorf("newsapi fetch: %w", err)
	}
	if resp.IsError() || raw.Status == "error" {
		return nil, fmt.Errorf("newsapi: status %d %s: %s", resp.StatusCode(), raw.Code, raw.Message)
	}

	articles := make([]model.Article, 0, len(raw.Articles))
	for _, item := range raw.Articles {
		if item.Title == "" || item.Title == "[Removed]" {
			continue
		}
		a := model.Article{
			Title:       cleanText(item.Title),
			Summary:     cleanText(item.Description),
			URL:         item.URL,
			ImageURL:    item.URLToImage,
			Source:      item.Source.Name,
			Language:    crit.Language,
			PublishedAt: parseTime(item.PublishedAt),
		}
		if q["category"] != "" {
			a.Category = crit.Category
		}
		articles = append(articles, a)
	}
	if len(articles) == 0 {
		return nil, domain.ErrEmptyResult
	}
	return articles, nil
}

type newsAPIResponse struct {
	Status   string `json:"status"`
	Code     string `json:"code"`
	Message  string `json:"message"`
	Articles []struct {
		Source struct {
			Name string `json:"name"`
		} `json:"source"`
		Title       string `json:"title"`
		Description string `json:"description"`
		URL         string `json:"url"`
		URLToImage  string `json:"urlToImage"`
		PublishedAt string `json:"publishedAt"`
	} `json:"articles"`
}
