//go:build !integration

package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"newsmap/internal/domain"
	"newsmap/internal/domain/model"
)

type fakeDispatcher struct {
	mode     model.DispatchMode
	submitFn func(req model.SubmitRequest) (*model.Job, error)
	views    map[string]model.JobView
	stats    model.QueueStats
}

func (f *fakeDispatcher) Mode() model.DispatchMode { return f.mode }
func (f *fakeDispatcher) Submit(_ context.Context, req model.SubmitRequest) (*model.Job, error) {
	return f.submitFn(req)
}
func (f *fakeDispatcher) Status(_ context.Context, id string) model.JobView {
	if v, ok := f.views[id]; ok {
		return v
	}
	return model.NotFoundView(id)
}
func (f *fakeDispatcher) Stats(context.Context) model.QueueStats { return f.stats }

type fakeNews struct {
	lastLang     string
	invalidated  []string
	categoryErr  error
	categoryHits int
}

func (f *fakeNews) FetchDiverse(_ context.Context, lang string) *model.NewsSet {
	f.lastLang = lang
	return &model.NewsSet{Language: lang, Provider: "mock", Articles: []model.Article{{Title: "a"}}}
}
func (f *fakeNews) FetchByCategory(_ context.Context, cat, lang string) (*model.NewsSet, error) {
	f.categoryHits++
	if f.categoryErr != nil {
		return nil, f.categoryErr
	}
	return &model.NewsSet{Language: lang, Category: cat, Provider: "mock"}, nil
}
func (f *fakeNews) Invalidate(_ context.Context, lang string) {
	f.invalidated = append(f.invalidated, lang)
}

type fakeQuota struct{ st model.QuotaStatus }

func (f fakeQuota) Reserve(context.Context) bool             { return true }
func (f fakeQuota) Status(context.Context) model.QuotaStatus { return f.st }

type fakeLimiter struct {
	allow bool
	err   error
	keys  []string
}

func (f *fakeLimiter) Allow(_ context.Context, key string, _ int, _ time.Duration) (bool, error) {
	f.keys = append(f.keys, key)
	return f.allow, f.err
}

func newLogger() *zerolog.Logger { l := zerolog.Nop(); return &l }

type fixture struct {
	jobs    *fakeDispatcher
	news    *fakeNews
	auth    *AuthManager
	limiter *fakeLimiter
	handler http.Handler
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		jobs: &fakeDispatcher{
			mode:  model.ModeDurable,
			views: map[string]model.JobView{},
			submitFn: func(req model.SubmitRequest) (*model.Job, error) {
				return &model.Job{ID: "01JOB", Status: model.JobStatusQueued, Text: req.Text}, nil
			},
		},
		news:    &fakeNews{},
		auth:    NewAuthManager("s3cret", time.Minute),
		limiter: &fakeLimiter{allow: true},
	}
	quota := fakeQuota{st: model.QuotaStatus{Used: 10, Limit: 50, Available: 40, ResetsIn: 90 * time.Second}}
	srv := NewServer(f.jobs, f.news, quota, f.auth, f.limiter, nil,
		Options{RequestTimeout: time.Second, SubmitPerMinute: 5}, newLogger())
	f.handler = srv.Routes()
	return f
}

func (f *fixture) do(method, path, body string, hdr map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	for k, v := range hdr {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.NewDecoder(rec.Body).Decode(v); err != nil {
		t.Fatalf("decode: %v", err)
	}
}

func TestSubmit(t *testing.T) {
	t.Run("queued job answers 202 with a status url", func(t *testing.T) {
		f := newFixture(t)
		rec := f.do(http.MethodPost, "/api/bias/jobs", `{"text":"The senate passed the bill"}`, nil)
		if rec.Code != http.StatusAccepted {
			t.Fatalf("want 202, got %d, body=%s", rec.Code, rec.Body.String())
		}
		var body submitResponse
		decode(t, rec, &body)
		if body.JobID != "01JOB" || body.Status != model.JobStatusQueued || body.StatusURL != "/api/bias/jobs/01JOB" {
			t.Fatalf("unexpected body: %+v", body)
		}
	})

	t.Run("synchronous completion answers 200 with the result", func(t *testing.T) {
		f := newFixture(t)
		f.jobs.submitFn = func(req model.SubmitRequest) (*model.Job, error) {
			res := model.BiasResult{Prediction: model.PredictionCenter, Confidence: 0.7}
			return &model.Job{ID: "j1", Status: model.JobStatusCompleted, Result: &res}, nil
		}
		rec := f.do(http.MethodPost, "/api/bias/jobs", `{"text":"x","articleId":42}`, nil)
		if rec.Code != http.StatusOK {
			t.Fatalf("want 200, got %d", rec.Code)
		}
		var body submitResponse
		decode(t, rec, &body)
		if body.Result == nil || body.Result.Prediction != model.PredictionCenter {
			t.Fatalf("missing result: %+v", body)
		}
	})

	errCases := []struct {
		name string
		err  error
		want int
	}{
		{"validation maps to 400", fmt.Errorf("%w: text is required", domain.ErrInvalidArgument), http.StatusBadRequest},
		{"reused id maps to 409", fmt.Errorf("%w: job j1", domain.ErrAlreadyExists), http.StatusConflict},
		{"broker down maps to 503", fmt.Errorf("%w: dial tcp", domain.ErrQueueUnavailable), http.StatusServiceUnavailable},
		{"anything else maps to 500", errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tc := range errCases {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture(t)
			f.jobs.submitFn = func(model.SubmitRequest) (*model.Job, error) { return nil, tc.err }
			rec := f.do(http.MethodPost, "/api/bias/jobs", `{"text":""}`, nil)
			if rec.Code != tc.want {
				t.Fatalf("want %d, got %d", tc.want, rec.Code)
			}
		})
	}

	t.Run("validation message is passed through", func(t *testing.T) {
		f := newFixture(t)
		f.jobs.submitFn = func(model.SubmitRequest) (*model.Job, error) {
			return nil, fmt.Errorf("%w: text is required", domain.ErrInvalidArgument)
		}
		rec := f.do(http.MethodPost, "/api/bias/jobs", `{}`, nil)
		var body map[string]string
		decode(t, rec, &body)
		if body["error"] != "text is required" {
			t.Fatalf("unexpected error message %q", body["error"])
		}
	})

	t.Run("malformed json is rejected before dispatch", func(t *testing.T) {
		f := newFixture(t)
		called := false
		f.jobs.submitFn = func(model.SubmitRequest) (*model.Job, error) { called = true; return nil, nil }
		rec := f.do(http.MethodPost, "/api/bias/jobs", `{"text":`, nil)
		if rec.Code != http.StatusBadRequest || called {
			t.Fatalf("want 400 without dispatch, got %d (called=%v)", rec.Code, called)
		}
	})
}

func TestSubmitRateLimit(t *testing.T) {
	t.Run("denied requests answer 429", func(t *testing.T) {
		f := newFixture(t)
		f.limiter.allow = false
		rec := f.do(http.MethodPost, "/api/bias/jobs", `{"text":"x"}`, map[string]string{"X-Forwarded-For": "203.0.113.9, 10.0.0.1"})
		if rec.Code != http.StatusTooManyRequests {
			t.Fatalf("want 429, got %d", rec.Code)
		}
		if len(f.limiter.keys) != 1 || !strings.Contains(f.limiter.keys[0], "203.0.113.9") {
			t.Fatalf("limiter keyed on wrong client: %v", f.limiter.keys)
		}
	})

	t.Run("limiter errors let the request through", func(t *testing.T) {
		f := newFixture(t)
		f.limiter.err = errors.New("redis down")
		rec := f.do(http.MethodPost, "/api/bias/jobs", `{"text":"x"}`, nil)
		if rec.Code != http.StatusAccepted {
			t.Fatalf("want 202, got %d", rec.Code)
		}
	})

	t.Run("polling is not limited", func(t *testing.T) {
		f := newFixture(t)
		f.limiter.allow = false
		rec := f.do(http.MethodGet, "/api/bias/jobs/abc", "", nil)
		if rec.Code != http.StatusOK || len(f.limiter.keys) != 0 {
			t.Fatalf("want unlimited 200, got %d (keys=%v)", rec.Code, f.limiter.keys)
		}
	})
}

func TestStatusAndStats(t *testing.T) {
	f := newFixture(t)
	f.jobs.views["done"] = model.JobView{ID: "done", Status: model.JobStatusFailed, Error: "classifier down"}
	f.jobs.stats = model.QueueStats{Waiting: 3, Active: 1, Completed: 7, Failed: 2}

	t.Run("unknown id answers 200 not_found", func(t *testing.T) {
		rec := f.do(http.MethodGet, "/api/bias/jobs/missing", "", nil)
		if rec.Code != http.StatusOK {
			t.Fatalf("want 200, got %d", rec.Code)
		}
		var v model.JobView
		decode(t, rec, &v)
		if v.Status != model.JobStatusNotFound || v.ID != "missing" {
			t.Fatalf("unexpected view: %+v", v)
		}
	})

	t.Run("failed job is a successful poll", func(t *testing.T) {
		rec := f.do(http.MethodGet, "/api/bias/jobs/done", "", nil)
		var v model.JobView
		decode(t, rec, &v)
		if rec.Code != http.StatusOK || v.Status != model.JobStatusFailed || v.Error != "classifier down" {
			t.Fatalf("unexpected %d %+v", rec.Code, v)
		}
	})

	t.Run("stats", func(t *testing.T) {
		rec := f.do(http.MethodGet, "/api/bias/queue/stats", "", nil)
		var st model.QueueStats
		decode(t, rec, &st)
		if st != f.jobs.stats {
			t.Fatalf("want %+v, got %+v", f.jobs.stats, st)
		}
	})
}

func TestNewsRoutes(t *testing.T) {
	t.Run("language query is forwarded", func(t *testing.T) {
		f := newFixture(t)
		rec := f.do(http.MethodGet, "/api/news?language=de", "", nil)
		if rec.Code != http.StatusOK || f.news.lastLang != "de" {
			t.Fatalf("got %d lang=%q", rec.Code, f.news.lastLang)
		}
	})

	t.Run("unknown category answers 400", func(t *testing.T) {
		f := newFixture(t)
		f.news.categoryErr = fmt.Errorf("%w: unknown category", domain.ErrInvalidArgument)
		rec := f.do(http.MethodGet, "/api/news/category/astrology", "", nil)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("want 400, got %d", rec.Code)
		}
	})

	t.Run("category set", func(t *testing.T) {
		f := newFixture(t)
		rec := f.do(http.MethodGet, "/api/news/category/technology?language=en", "", nil)
		var set model.NewsSet
		decode(t, rec, &set)
		if set.Category != "technology" || set.Language != "en" {
			t.Fatalf("unexpected set %+v", set)
		}
	})

	t.Run("quota reports seconds until reset", func(t *testing.T) {
		f := newFixture(t)
		rec := f.do(http.MethodGet, "/api/news/quota", "", nil)
		var q quotaResponse
		decode(t, rec, &q)
		if q != (quotaResponse{Used: 10, Limit: 50, Available: 40, ResetsIn: 90}) {
			t.Fatalf("unexpected quota %+v", q)
		}
	})
}

func TestAdminInvalidate(t *testing.T) {
	t.Run("missing token is 401", func(t *testing.T) {
		f := newFixture(t)
		rec := f.do(http.MethodPost, "/api/admin/news/invalidate?language=en", "", nil)
		if rec.Code != http.StatusUnauthorized || len(f.news.invalidated) != 0 {
			t.Fatalf("want 401 without invalidation, got %d", rec.Code)
		}
	})

	t.Run("token signed with another secret is 401", func(t *testing.T) {
		f := newFixture(t)
		tok, err := NewAuthManager("other", time.Minute).Mint("ops")
		if err != nil {
			t.Fatal(err)
		}
		rec := f.do(http.MethodPost, "/api/admin/news/invalidate", "", map[string]string{"Authorization": "Bearer " + tok})
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("want 401, got %d", rec.Code)
		}
	})

	t.Run("valid token invalidates the language", func(t *testing.T) {
		f := newFixture(t)
		tok, err := f.auth.Mint("ops")
		if err != nil {
			t.Fatal(err)
		}
		rec := f.do(http.MethodPost, "/api/admin/news/invalidate?language=fr", "", map[string]string{"Authorization": "Bearer " + tok})
		if rec.Code != http.StatusNoContent {
			t.Fatalf("want 204, got %d", rec.Code)
		}
		if len(f.news.invalidated) != 1 || f.news.invalidated[0] != "fr" {
			t.Fatalf("unexpected invalidations %v", f.news.invalidated)
		}
	})

	t.Run("no secret disables the admin api", func(t *testing.T) {
		f := newFixture(t)
		srv := NewServer(f.jobs, f.news, fakeQuota{}, NewAuthManager("", 0), nil, nil, Options{}, newLogger())
		req := httptest.NewRequest(http.MethodPost, "/api/admin/news/invalidate", nil)
		req.Header.Set("Authorization", "Bearer anything")
		rec := httptest.NewRecorder()
		srv.Routes().ServeHTTP(rec, req)
		if rec.Code != http.StatusForbidden {
			t.Fatalf("want 403, got %d", rec.Code)
		}
	})
}

func TestHealthAndTrace(t *testing.T) {
	f := newFixture(t)

	rec := f.do(http.MethodGet, "/health", "", map[string]string{traceHeader: "trace-123"})
	if rec.Code != http.StatusOK {
		t.Fatalf("want 200, got %d", rec.Code)
	}
	if got := rec.Header().Get(traceHeader); got != "trace-123" {
		t.Fatalf("inbound request id not echoed, got %q", got)
	}
	var body map[string]any
	decode(t, rec, &body)
	if body["mode"] != string(model.ModeDurable) {
		t.Fatalf("unexpected health body %v", body)
	}

	rec = f.do(http.MethodGet, "/health", "", nil)
	if rec.Header().Get(traceHeader) == "" {
		t.Fatal("expected a generated request id")
	}
}

func TestRecover(t *testing.T) {
	h := Chain(http.HandlerFunc(func(http.ResponseWriter, *http.Request) { panic("boom") }), Recover(newLogger()))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("want 500, got %d", rec.Code)
	}
}

func TestClientIP(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "198.51.100.7:5123"
	if got := ClientIP(req); got != "198.51.100.7" {
		t.Fatalf("want remote host, got %q", got)
	}
	req.Header.Set("X-Forwarded-For", " 203.0.113.1 ,10.0.0.2")
	if got := ClientIP(req); got != "203.0.113.1" {
		t.Fatalf("want first forwarded hop, got %q", got)
	}
}
