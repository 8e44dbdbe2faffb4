package model

import "time"

const CategoryGlobal = "global"

// Categories lists the inferable categories in tie-break order.
var Categories = []string{
	"politics",
	"business",
	"technology",
	"sports",
	"health",
	"science",
	"entertainment",
}

// IsCategory reports whether c is a known category, including "global".
func IsCategory(c string) bool {
	if c == CategoryGlobal {
		return true
	}
	for _, k := range Categories {
		if k == c {
			return true
		}
	}
	return false
}

type Article struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Summary     string    `json:"summary"`
	URL         string    `json:"url"`
	ImageURL    string    `json:"imageUrl,omitempty"`
	Source      string    `json:"source"`
	Category    string    `json:"category"`
	Country     string    `json:"country,omitempty"`
	Language    string    `json:"language"`
	PublishedAt time.Time `json:"publishedAt"`
}

// NewsSet is one aggregated, deduplicated, categorized batch.
type NewsSet struct {
	Language  string    `json:"language"`
	Category  string    `json:"category,omitempty"`
	Articles  []Article `json:"articles"`
	Provider  string    `json:"provider"`
	CreatedAt time.Time `json:"createdAt"`
	Cached    bool      `json:"cached"`
}

// Fresh reports whether the set is younger than maxAge at now.
func (s *NewsSet) Fresh(now time.Time, maxAge time.Duration) bool {
	return !s.CreatedAt.IsZero() && now.Sub(s.CreatedAt) < maxAge
}

// Criteria narrows a provider fetch.
type Criteria struct {
	Language string
	Category string
	Limit    int
}
