package classifier

import (
	"context"
	"math"
	"strings"
	"unicode"

	"newsmap/internal/domain"
	"newsmap/internal/domain/model"
	"newsmap/internal/domain/ports/adapter"
)

var _ adapter.Classifier = (*HeuristicClassifier)(nil)

// HeuristicClassifier scores text against small left/right lexicons.
// It is the offline stand-in used when no model endpoint is configured.
type HeuristicClassifier struct {
	left, right map[string]float64
}

func NewHeuristicClassifier() *HeuristicClassifier {
	return &HeuristicClassifier{left: leftLexicon, right: rightLexicon}
}

func (h *HeuristicClassifier) Name() string { return "heuristic" }

var leftLexicon = map[string]float64{
	"progressive": 1, "inequality": 1, "climate": 0.6, "union": 0.6, "unions": 0.6,
	"welfare": 0.8, "diversity": 0.8, "regulation": 0.6, "workers": 0.5, "renewable": 0.6,
	"healthcare": 0.6, "equity": 0.8, "activists": 0.5, "minimum": 0.4, "wage": 0.4,
	"refugees": 0.5, "marginalized": 1, "corporate": 0.5, "billionaires": 1, "justice": 0.5,
}

var rightLexicon = map[string]float64{
	"conservative": 1, "taxpayers": 0.8, "border": 0.6, "illegal": 0.6, "deregulation": 1,
	"freedom": 0.5, "patriots": 1, "traditional": 0.6, "tax": 0.4, "cuts": 0.4,
	"military": 0.5, "police": 0.4, "crime": 0.5, "liberty": 0.6, "sovereignty": 0.8,
	"entrepreneurs": 0.5, "family": 0.3, "faith": 0.5, "woke": 1, "gun": 0.6,
}

func (h *HeuristicClassifier) Classify(ctx context.Context, text string) (model.BiasResult, error) {
	if err := ctx.Err(); err != nil {
		return model.BiasResult{}, err
	}
	words := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && r != '-'
	})
	if len(words) == 0 {
		return model.BiasResult{}, domain.ErrInvalidArgument
	}

	var l, r float64
	for _, w := range words {
		l += h.left[w]
		r += h.right[w]
	}

	res := model.BiasResult{Summary: ExtractiveSummary(text, 280)}
	total := l + r
	if total == 0 {
		res.Prediction = model.PredictionCenter
		res.Confidence = 0.5
		return res, nil
	}
	lean := (r - l) / total // -1 fully left .. +1 fully right
	switch {
	case lean <= -0.2:
		res.Prediction = model.PredictionLeft
	case lean >= 0.2:
		res.Prediction = model.PredictionRight
	default:
		res.Prediction = model.PredictionCenter
	}
	// more evidence and a clearer lean both raise confidence
	evidence := 1 - math.Exp(-total/3)
	if res.Prediction == model.PredictionCenter {
		res.Confidence = round2(0.5 + 0.3*evidence*(1-math.Abs(lean)/0.2))
	} else {
		res.Confidence = round2(math.Min(0.95, 0.5+0.45*evidence*math.Abs(lean)))
	}
	return res, nil
}

func round2(f float64) float64 { return math.Round(f*100) / 100 }

// ExtractiveSummary returns the leading sentences of text that fit in maxRunes.
func ExtractiveSummary(text string, maxRunes int) string {
	text = strings.Join(strings.Fields(text), " ")
	if text == "" {
		return ""
	}
	var b strings.Builder
	start := 0
	runes := []rune(text)
	for i, c := range runes {
		if c != '.' && c != '!' && c != '?' {
			continue
		}
		if i+1 < len(runes) && runes[i+1] != ' ' {
			continue
		}
		sentence := strings.TrimSpace(string(runes[start : i+1]))
		if b.Len() > 0 && len([]rune(b.String()))+1+len([]rune(sentence)) > maxRunes {
			break
		}
		if b.Len() > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(sentence)
		start = i + 1
		if len([]rune(b.String())) >= maxRunes/2 {
			break
		}
	}
	out := b.String()
	if out == "" {
		out = text
	}
	if r := []rune(out); len(r) > maxRunes {
		out = strings.TrimSpace(string(r[:maxRunes-1])) + "…"
	}
	return out
}
