package news

import (
	"context"
	"fmt"
	"time"

	"newsmap/internal/domain/model"
	"newsmap/internal/domain/ports/adapter"
)

var _ adapter.NewsProvider = (*MockProvider)(nil)

// MockProvider serves a fixed offline set of headlines. It stands in for any
// tier whose API key is not configured.
type MockProvider struct {
	name string
	now  func() time.Time
}

func NewMockProvider(name string) *MockProvider {
	return &MockProvider{name: "mock-" + name, now: time.Now}
}

func (m *MockProvider) Name() string { return m.name }

var mockHeadlines = []struct {
	title, summary, source, country string
}{
	{"Parliament debates new election reform bill", "Lawmakers from both parties clashed over the proposed voting rules.", "Capital Wire", "GB"},
	{"Central bank holds interest rates steady", "Markets reacted calmly as the bank signalled patience on inflation.", "Market Daily", "US"},
	{"Startup unveils open-source AI chip design", "The new processor targets low-power machine learning at the edge.", "Tech Ledger", "US"},
	{"National team clinches championship in overtime", "A late goal sealed the title in front of a sold-out stadium.", "Sports Desk", "BR"},
	{"Health ministry expands vaccine program", "Clinics will offer the updated shots to adults over 50 this winter.", "Health Today", "DE"},
	{"Astronomers detect water vapor on distant exoplanet", "The telescope data points to a temperate atmosphere.", "Science Weekly", "CL"},
	{"Film festival opens with record attendance", "Critics praised the opening drama starring a first-time director.", "Culture Beat", "FR"},
	{"Coastal towns prepare for seasonal storms", "Officials urged residents to review evacuation routes.", "Regional Post", "JP"},
	{"Senate committee questions trade minister", "The hearing focused on tariffs and the pending export deal.", "Capital Wire", "AU"},
	{"Retail earnings beat expectations", "Strong holiday sales lifted quarterly profit across the sector.", "Market Daily", "CA"},
	{"Researchers map genome of ancient wheat", "The study could help breed drought-resistant crops.", "Science Weekly", "IN"},
	{"Smartphone maker recalls overheating batteries", "Owners are asked to stop charging affected devices.", "Tech Ledger", "KR"},
}

func (m *MockProvider) Fetch(ctx context.Context, crit model.Criteria) ([]model.Article, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	base := m.now().UTC().Truncate(time.Hour)
	limit := limitOr(crit.Limit)
	out := make([]model.Article, 0, len(mockHeadlines))
	for i, h := range mockHeadlines {
		if len(out) >= limit {
			break
		}
		out = append(out, model.Article{
			Title:       h.title,
			Summary:     h.summary,
			URL:         fmt.Sprintf("https://example.org/%s/%s/%d", m.name, crit.Language, i+1),
			Source:      h.source,
			Country:     h.country,
			Language:    crit.Language,
			PublishedAt: base.Add(-time.Duration(i) * 10 * time.Minute),
		})
	}
	return out, nil
}
