package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"newsmap/internal/domain"
	"newsmap/internal/domain/model"
	"newsmap/internal/domain/ports/repository"
	"newsmap/internal/infra/metrics"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
)

var _ repository.BiasResultRepository = (*biasResultRepo)(nil)

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

type biasResultRepo struct {
	pool *pgxpool.Pool
}

func NewBiasResultRepo(pool *pgxpool.Pool) *biasResultRepo {
	return &biasResultRepo{pool: pool}
}

func (r *biasResultRepo) GetByContentKey(ctx context.Context, tx repository.Tx, key string) (*repository.StoredResult, error) {
	q, args, err := psql.
		Select("content_key", "prediction", "confidence", "summary", "classifier", "created_at").
		From("bias_results").
		Where(sq.Eq{"content_key": key}).
		ToSql()
	if err != nil {
		return nil, err
	}
	row, err := pickRow(ctx, r.pool, tx, q, args...)
	if err != nil {
		return nil, err
	}

	var (
		out  repository.StoredResult
		pred string
	)
	err = row.Scan(&out.ContentKey, &pred, &out.Result.Confidence, &out.Result.Summary, &out.Classifier, &out.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			metrics.IncResultStoreOp("postgres", "get", "miss")
			return nil, domain.ErrNotFound
		}
		metrics.IncResultStoreOp("postgres", "get", "error")
		return nil, fmt.Errorf("%w: %v", domain.ErrReadDatabaseRow, err)
	}
	out.Result.Prediction = model.Prediction(pred)
	metrics.IncResultStoreOp("postgres", "get", "hit")
	return &out, nil
}

// Save keeps the first stored result for a key; later writes are ignored.
func (r *biasResultRepo) Save(ctx context.Context, tx repository.Tx, res *repository.StoredResult) error {
	if res == nil || res.ContentKey == "" || !res.Result.Prediction.Valid() {
		return domain.ErrInvalidArgument
	}
	if res.CreatedAt.IsZero() {
		res.CreatedAt = time.Now()
	}
	q, args, err := psql.
		Insert("bias_results").
		Columns("content_key", "prediction", "confidence", "summary", "classifier", "created_at").
		Values(res.ContentKey, string(res.Result.Prediction), res.Result.Confidence, res.Result.Summary, res.Classifier, res.CreatedAt).
		Suffix("ON CONFLICT (content_key) DO NOTHING").
		ToSql()
	if err != nil {
		return err
	}
	if _, err := execSQL(ctx, r.pool, tx, q, args...); err != nil {
		metrics.IncResultStoreOp("postgres", "save", "error")
		return err
	}
	metrics.IncResultStoreOp("postgres", "save", "ok")
	return nil
}
