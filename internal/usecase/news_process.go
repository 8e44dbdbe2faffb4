package usecase

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"unicode"

	"newsmap/internal/domain/model"
)

// categoryKeywords drives category inference. Iteration follows
// model.Categories so ties go to the earlier category.
var categoryKeywords = map[string][]string{
	"politics":      {"election", "president", "parliament", "senate", "congress", "minister", "government", "vote", "policy", "campaign", "law", "diplomat"},
	"business":      {"market", "stock", "economy", "company", "trade", "bank", "inflation", "earnings", "investor", "shares", "merger", "revenue"},
	"technology":    {"tech", "software", "ai", "artificial intelligence", "app", "google", "apple", "microsoft", "startup", "cyber", "chip", "robot"},
	"sports":        {"match", "game", "team", "player", "league", "cup", "tournament", "championship", "coach", "goal", "olympic", "score"},
	"health":        {"health", "hospital", "doctor", "disease", "vaccine", "virus", "medical", "patient", "covid", "cancer", "drug", "outbreak"},
	"science":       {"science", "research", "study", "space", "nasa", "climate", "scientist", "discovery", "planet", "species", "physics", "experiment"},
	"entertainment": {"film", "movie", "music", "celebrity", "actor", "actress", "album", "festival", "tv", "series", "concert", "award"},
}

// normalizeTitle lowercases, trims and collapses internal whitespace.
func normalizeTitle(title string) string {
	return strings.Join(strings.Fields(strings.ToLower(title)), " ")
}

func dedupeKey(a model.Article) string {
	sum := sha256.Sum256([]byte(normalizeTitle(a.Title) + "\x00" + strings.ToLower(strings.TrimSpace(a.Source))))
	return hex.EncodeToString(sum[:])
}

// DedupeArticles keeps the first article of every (title, source) pair,
// preserving input order.
func DedupeArticles(in []model.Article) []model.Article {
	seen := make(map[string]struct{}, len(in))
	out := make([]model.Article, 0, len(in))
	for _, a := range in {
		k := dedupeKey(a)
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, a)
	}
	return out
}

// InferCategory returns the explicit category when it is known, otherwise
// the best keyword match over title and summary, or "global".
func InferCategory(a model.Article) string {
	if c := strings.ToLower(strings.TrimSpace(a.Category)); c != "" && model.IsCategory(c) {
		return c
	}
	tokens := tokenize(a.Title + " " + a.Summary)
	words := make(map[string]struct{}, len(tokens))
	for _, w := range tokens {
		words[w] = struct{}{}
	}
	text := " " + strings.Join(tokens, " ") + " "

	best, bestScore := model.CategoryGlobal, 0
	for _, c := range model.Categories {
		score := 0
		for _, kw := range categoryKeywords[c] {
			if strings.Contains(kw, " ") {
				if strings.Contains(text, " "+kw+" ") {
					score++
				}
				continue
			}
			if _, ok := words[kw]; ok {
				score++
			}
		}
		if score > bestScore {
			best, bestScore = c, score
		}
	}
	return best
}

func tokenize(s string) []string {
	return strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

// ProcessArticles dedupes and categorizes a provider batch.
func ProcessArticles(in []model.Article) []model.Article {
	out := DedupeArticles(in)
	for i := range out {
		out[i].Category = InferCategory(out[i])
	}
	return out
}
