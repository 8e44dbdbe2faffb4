package classifier

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"newsmap/internal/domain/model"
	"newsmap/internal/domain/ports/adapter"
	"newsmap/internal/infra/metrics"
)

var _ adapter.Classifier = (*Chain)(nil)

// Chain tries each classifier in order and returns the first valid verdict.
// Results without a summary get an extractive one.
type Chain struct {
	members []adapter.Classifier
	logger  *zerolog.Logger
	now     func() time.Time
}

func NewChain(logger *zerolog.Logger, members ...adapter.Classifier) *Chain {
	l := logger.With().Str("component", "ClassifierChain").Logger()
	out := make([]adapter.Classifier, 0, len(members))
	for _, m := range members {
		if m != nil {
			out = append(out, m)
		}
	}
	return &Chain{members: out, logger: &l, now: time.Now}
}

func (c *Chain) Name() string {
	names := make([]string, len(c.members))
	for i, m := range c.members {
		names[i] = m.Name()
	}
	return strings.Join(names, ">")
}

func (c *Chain) Classify(ctx context.Context, text string) (model.BiasResult, error) {
	if len(c.members) == 0 {
		return model.BiasResult{}, errors.New("no classifier configured")
	}
	var errs []error
	for _, m := range c.members {
		start := c.now()
		res, err := m.Classify(ctx, text)
		metrics.ObserveClassifierCall(m.Name(), c.now().Sub(start).Milliseconds(), err == nil)
		if err == nil && !res.Prediction.Valid() {
			err = errors.New(m.Name() + ": invalid prediction " + string(res.Prediction))
		}
		if err != nil {
			errs = append(errs, err)
			if ctx.Err() != nil {
				break
			}
			c.logger.Warn().Err(err).Str("classifier", m.Name()).Msg("classifier failed, trying next")
			continue
		}
		if res.Summary == "" {
			res.Summary = ExtractiveSummary(text, 280)
		}
		return res, nil
	}
	return model.BiasResult{}, errors.Join(errs...)
}
