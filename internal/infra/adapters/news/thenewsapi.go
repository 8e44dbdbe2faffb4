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

var _ adapter.NewsProvider = (*TheNewsAPIClient)(nil)

// TheNewsAPIClient is the last fallback tier.
type TheNewsAPIClient struct {
	apiKey string
	client *resty.Client
}

func NewTheNewsAPIClient(cfg config.ProviderConfig) *TheNewsAPIClient {
	return &TheNewsAPIClient{apiKey: cfg.APIKey, client: newRestClient(cfg, "https://api.thenewsapi.com/v1")}
}

func (c *TheNewsAPIClient) Name() string { return "thenewsapi" }

func (c *TheNewsAPIClient) Fetch(ctx context.Context, crit model.Criteria) ([]model.Article, error) {
	q := map[string]string{
		"api_token": c.apiKey,
		"language":  crit.Language,
		"limit":     strconv.Itoa(limitOr(crit.Limit)),
	}
	if crit.Category != "" && crit.Category != model.CategoryGlobal {
		q["categories"] = crit.Category
	}

	var raw theNewsAPIResponse
	resp, err := c.client.R().
		SetContext(ctx).
		SetQueryParams(q).
		SetResult(&raw).
		SetError(&raw).
		Get("/news/top")
	if err != nil {
		return nil, fmt.Errorf("thenewsapi fetch: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("thenewsapi: status %d %s: %s", resp.StatusCode(), raw.Error.Code, raw.Error.Message)
	}

	articles := make([]model.Article, 0, len(raw.Data))
	for _, item := range raw.Data {
		if item.Title == "" {
			continue
		}
		summary := item.Description
		if summary == "" {
			summary = item.Snippet
		}
		a := model.Article{
			Title:       cleanText(item.Title),
			Summary:     cleanText(summary),
			URL:         item.URL,
			ImageURL:    item.ImageURL,
			Source:      item.Source,
			Language:    item.Language,
			PublishedAt: parseTime(item.PublishedAt),
		}
		if a.Language == "" {
			a.Language = crit.Language
		}
		for _, cat := range item.Categories {
			if model.IsCategory(cat) && cat != model.CategoryGlobal {
				a.Category = cat
				break
			}
		}
		articles = append(articles, a)
	}
	if len(articles) == 0 {
		return nil, domain.ErrEmptyResult
	}
	return articles, nil
}

type theNewsAPIResponse struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
	Data []struct {
		UUID        string   `json:"uuid"`
		Title       string   `json:"title"`
		Description string   `json:"description"`
		Snippet     string   `json:"snippet"`
		URL         string   `json:"url"`
		ImageURL    string   `json:"image_url"`
		Language    string   `json:"language"`
		PublishedAt string   `json:"published_at"`
		Source      string   `json:"source"`
		Categories  []string `json:"categories"`
	} `json:"data"`
}
