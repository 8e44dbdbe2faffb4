package usecase

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"newsmap/internal/domain/model"
	"newsmap/internal/domain/ports/repository"
	"newsmap/internal/infra/metrics"
	red "newsmap/internal/infra/redis"
)

// QuotaArbiter hands out the metered provider's daily call budget.
type QuotaArbiter interface {
	// Reserve spends one call from today's budget. It returns false when the
	// budget is used up or the counter cannot be reached.
	Reserve(ctx context.Context) bool
	Status(ctx context.Context) model.QuotaStatus
}

type quotaArbiter struct {
	counter  repository.QuotaCounter
	provider string
	limit    int
	now      func() time.Time
	log      *zerolog.Logger
}

func NewQuotaArbiter(counter repository.QuotaCounter, provider string, limit int, logger *zerolog.Logger) QuotaArbiter {
	l := logger.With().Str("component", "QuotaArbiter").Str("provider", provider).Logger()
	return &quotaArbiter{
		counter:  counter,
		provider: provider,
		limit:    limit,
		now:      time.Now,
		log:      &l,
	}
}

func (q *quotaArbiter) Reserve(ctx context.Context) bool {
	if q.limit <= 0 {
		metrics.IncQuotaReservation("denied")
		return false
	}
	now := q.now()
	ok, err := q.counter.Reserve(ctx, red.Keys.QuotaByDate(q.provider, now), q.limit, model.NextUTCMidnight(now))
	if err != nil {
		// fail closed: an unknown count must not spend the metered budget
		metrics.IncQuotaReservation("error")
		q.log.Error().Err(err).Msg("quota counter unavailable, denying reservation")
		return false
	}
	if !ok {
		metrics.IncQuotaReservation("denied")
		q.log.Debug().Int("limit", q.limit).Msg("daily quota exhausted")
		return false
	}
	metrics.IncQuotaReservation("granted")
	return true
}

func (q *quotaArbiter) Status(ctx context.Context) model.QuotaStatus {
	now := q.now()
	st := model.QuotaStatus{Limit: q.limit, ResetsIn: model.NextUTCMidnight(now).Sub(now)}
	used, err := q.counter.Used(ctx, red.Keys.QuotaByDate(q.provider, now))
	if err != nil {
		q.log.Warn().Err(err).Msg("quota status unavailable")
		return st
	}
	st.Used = used
	if avail := q.limit - used; avail > 0 {
		st.Available = avail
	}
	return st
}
