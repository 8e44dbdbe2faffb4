package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"newsmap/internal/config"
	"newsmap/internal/domain"
	"newsmap/internal/domain/model"
	"newsmap/internal/domain/ports/adapter"
	"newsmap/internal/infra/logging"
	"newsmap/internal/infra/metrics"
	red "newsmap/internal/infra/redis"
)

// NewsAggregator serves aggregated news sets through the cache and the
// ranked provider chain.
type NewsAggregator interface {
	FetchDiverse(ctx context.Context, language string) *model.NewsSet
	FetchByCategory(ctx context.Context, category, language string) (*model.NewsSet, error)
	Invalidate(ctx context.Context, language string)
}

type newsAggregator struct {
	cache     adapter.Cache
	quota     QuotaArbiter
	primary   adapter.NewsProvider
	fallbacks []adapter.NewsProvider
	cfg       config.NewsConfig
	now       func() time.Time
	log       *zerolog.Logger
}

// NewNewsAggregator wires the chain. primary is the metered provider and is
// only called after quota grants a reservation; it may be nil.
func NewNewsAggregator(
	cache adapter.Cache,
	quota QuotaArbiter,
	primary adapter.NewsProvider,
	fallbacks []adapter.NewsProvider,
	cfg config.NewsConfig,
	logger *zerolog.Logger,
) NewsAggregator {
	l := logger.With().Str("component", "NewsAggregator").Logger()
	return &newsAggregator{
		cache:     cache,
		quota:     quota,
		primary:   primary,
		fallbacks: fallbacks,
		cfg:       cfg,
		now:       time.Now,
		log:       &l,
	}
}

func (a *newsAggregator) language(lang string) string {
	lang = strings.ToLower(strings.TrimSpace(lang))
	if lang == "" {
		lang = a.cfg.DefaultLanguage
	}
	if lang == "" {
		lang = "en"
	}
	return lang
}

func (a *newsAggregator) FetchDiverse(ctx context.Context, language string) *model.NewsSet {
	defer logging.TraceDuration(a.log, "NewsAggregator.FetchDiverse")()
	lang := a.language(language)
	key := red.Keys.NewsByLanguage(lang)

	if set, ok := a.cached(ctx, key, "news_diverse"); ok {
		return set
	}

	crit := model.Criteria{Language: lang, Limit: a.cfg.FetchLimit}
	if a.primary != nil {
		if a.quota.Reserve(ctx) {
			// the reservation is spent even if the call fails
			if set := a.try(ctx, a.primary, crit); set != nil {
				a.store(ctx, key, set)
				return set
			}
		} else {
			a.log.Info().Str("provider", a.primary.Name()).Msg("quota unavailable, skipping metered provider")
		}
	}
	for _, p := range a.fallbacks {
		if ctx.Err() != nil {
			break
		}
		if set := a.try(ctx, p, crit); set != nil {
			a.store(ctx, key, set)
			return set
		}
	}

	metrics.IncNewsChainExhausted()
	a.log.Warn().Str("language", lang).Msg("all news providers failed, serving empty set")
	return &model.NewsSet{Language: lang, Articles: []model.Article{}, Provider: "none", CreatedAt: a.now()}
}

func (a *newsAggregator) FetchByCategory(ctx context.Context, category, language string) (*model.NewsSet, error) {
	cat := strings.ToLower(strings.TrimSpace(category))
	if !model.IsCategory(cat) {
		return nil, fmt.Errorf("%w: unknown category %q", domain.ErrInvalidArgument, category)
	}
	lang := a.language(language)
	key := red.Keys.NewsByCategory(cat, lang)
	if set, ok := a.cached(ctx, key, "news_category"); ok {
		return set, nil
	}

	diverse := a.FetchDiverse(ctx, lang)
	limit := a.cfg.CategoryLimit
	if limit <= 0 {
		limit = 20
	}
	matched := make([]model.Article, 0, limit)
	for _, art := range diverse.Articles {
		if art.Category == cat {
			matched = append(matched, art)
			if len(matched) == limit {
				break
			}
		}
	}
	if len(matched) == 0 {
		n := limit
		if n > len(diverse.Articles) {
			n = len(diverse.Articles)
		}
		matched = append(matched, diverse.Articles[:n]...)
	}

	set := &model.NewsSet{
		Language:  lang,
		Category:  cat,
		Articles:  matched,
		Provider:  diverse.Provider,
		CreatedAt: diverse.CreatedAt,
	}
	if len(matched) > 0 {
		a.store(ctx, key, set)
	}
	return set, nil
}

// Invalidate drops the diverse and per-category sets for language.
func (a *newsAggregator) Invalidate(ctx context.Context, language string) {
	lang := a.language(language)
	keys := []string{red.Keys.NewsByLanguage(lang), red.Keys.NewsByCategory(model.CategoryGlobal, lang)}
	for _, c := range model.Categories {
		keys = append(keys, red.Keys.NewsByCategory(c, lang))
	}
	a.cache.Delete(ctx, keys...)
	a.log.Info().Str("language", lang).Int("keys", len(keys)).Msg("news cache invalidated")
}

// try calls one provider and returns nil when it failed or produced nothing.
func (a *newsAggregator) try(ctx context.Context, p adapter.NewsProvider, crit model.Criteria) *model.NewsSet {
	arts, err := p.Fetch(ctx, crit)
	if err == nil && len(arts) == 0 {
		err = domain.ErrEmptyResult
	}
	if err != nil {
		result := "error"
		if errors.Is(err, domain.ErrEmptyResult) {
			result = "empty"
		}
		metrics.IncNewsFetch(p.Name(), result)
		a.log.Warn().Err(err).Str("provider", p.Name()).Msg("provider failed, trying next tier")
		return nil
	}
	processed := ProcessArticles(arts)
	metrics.IncNewsFetch(p.Name(), "ok")
	return &model.NewsSet{
		Language:  crit.Language,
		Articles:  processed,
		Provider:  p.Name(),
		CreatedAt: a.now(),
	}
}

func (a *newsAggregator) cached(ctx context.Context, key, namespace string) (*model.NewsSet, bool) {
	raw, ok := a.cache.Get(ctx, key)
	if !ok {
		metrics.IncCacheRequest(namespace, "miss")
		return nil, false
	}
	var set model.NewsSet
	if err := json.Unmarshal([]byte(raw), &set); err != nil {
		a.log.Warn().Err(err).Str("key", key).Msg("discarding unreadable cache entry")
		metrics.IncCacheRequest(namespace, "miss")
		return nil, false
	}
	if !set.Fresh(a.now(), a.cfg.FreshFor) {
		metrics.IncCacheRequest(namespace, "stale")
		return nil, false
	}
	metrics.IncCacheRequest(namespace, "hit")
	set.Cached = true
	return &set, true
}

func (a *newsAggregator) store(ctx context.Context, key string, set *model.NewsSet) {
	b, err := json.Marshal(set)
	if err != nil {
		a.log.Warn().Err(err).Msg("news set not cacheable")
		return
	}
	a.cache.Set(ctx, key, b, a.cfg.FreshFor)
}
