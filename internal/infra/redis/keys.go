package redis

import (
	"strings"
	"time"

	"newsmap/internal/domain/model"
)

// Key namespaces for the tiered cache.
const (
	nsNewsDiverse  = "news:diverse"
	nsNewsCategory = "news:category"
	nsQuota        = "quota"
	nsSummary      = "ai_summary"
	nsRateLimit    = "rate_limit"
	nsLock         = "lock"
)

// KeyBuilder derives namespaced cache keys. Prefix isolates deployments sharing one Redis.
type KeyBuilder struct {
	Prefix string
}

func (k KeyBuilder) join(parts ...string) string {
	if k.Prefix != "" {
		parts = append([]string{k.Prefix}, parts...)
	}
	return strings.Join(parts, ":")
}

func (k KeyBuilder) NewsByLanguage(lang string) string {
	return k.join(nsNewsDiverse, normLang(lang))
}

func (k KeyBuilder) NewsByCategory(category, lang string) string {
	return k.join(nsNewsCategory, strings.ToLower(category), normLang(lang))
}

func (k KeyBuilder) QuotaByDate(provider string, t time.Time) string {
	return k.join(nsQuota, provider, model.UTCDay(t))
}

func (k KeyBuilder) Summary(contentKey string) string {
	return k.join(nsSummary, contentKey)
}

func (k KeyBuilder) RateLimit(client, action string) string {
	return k.join(nsRateLimit, client, action)
}

func (k KeyBuilder) ContentLock(contentKey string) string {
	return k.join(nsLock, "classify", contentKey)
}

func normLang(lang string) string {
	lang = strings.ToLower(strings.TrimSpace(lang))
	if lang == "" {
		return "en"
	}
	return lang
}

// Keys is the default builder used across the service.
var Keys = KeyBuilder{}
