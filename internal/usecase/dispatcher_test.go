//go:build !integration

package usecase

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"newsmap/internal/domain"
	"newsmap/internal/domain/model"
	"newsmap/internal/infra/db/memory"
)

func int64p(v int64) *int64 { return &v }

func TestImmediateDispatcher_ArticleResubmission(t *testing.T) {
	ctx := context.Background()
	clf := &fakeClassifier{result: leftResult}
	events := &recordingBroadcaster{}
	d := NewImmediateDispatcher(memory.NewJobStore(), NewAnalyzer(memory.NewResultStore(), clf, nil, 0, &nopLogger), events, false, &nopLogger)

	first, err := d.Submit(ctx, model.SubmitRequest{Text: "Senate passes the budget bill.", ArticleID: int64p(42)})
	if err != nil {
		t.Fatal(err)
	}
	if first.Status != model.JobStatusCompleted || first.Result == nil {
		t.Fatalf("expected completed job, got %+v", first)
	}

	second, err := d.Submit(ctx, model.SubmitRequest{Text: "Senate passes the budget bill.", ArticleID: int64p(42)})
	if err != nil {
		t.Fatal(err)
	}
	if second.ID == first.ID {
		t.Error("each submission gets its own job id")
	}
	if *second.Result != *first.Result {
		t.Errorf("resubmission result differs: %+v vs %+v", second.Result, first.Result)
	}
	if clf.Calls() != 1 {
		t.Errorf("expected one classifier call, got %d", clf.Calls())
	}

	for _, j := range []*model.Job{first, second} {
		got := events.forJob(j.ID)
		if len(got) != 2 || got[0] != model.EventJobQueued || got[1] != model.EventJobCompleted {
			t.Errorf("job %s events %v", j.ID, got)
		}
		if v := d.Status(ctx, j.ID); v.Status != model.JobStatusCompleted || v.Result == nil {
			t.Errorf("status poll %+v", v)
		}
	}
	if st := d.Stats(ctx); st.Completed != 2 || st.Failed != 0 || st.Active != 0 || st.Waiting != 0 {
		t.Errorf("unexpected stats %+v", st)
	}
}

func TestImmediateDispatcher_FailureIsFinal(t *testing.T) {
	ctx := context.Background()
	clf := &fakeClassifier{err: errors.New("model offline")}
	events := &recordingBroadcaster{}
	d := NewImmediateDispatcher(memory.NewJobStore(), NewAnalyzer(memory.NewResultStore(), clf, nil, 0, &nopLogger), events, false, &nopLogger)

	job, err := d.Submit(ctx, model.SubmitRequest{Text: "some text", JobID: "mine-1"})
	if err != nil {
		t.Fatalf("a failed job is still a successful submit: %v", err)
	}
	if job.ID != "mine-1" || job.Status != model.JobStatusFailed || job.Error != "model offline" || job.Attempts != 1 {
		t.Fatalf("unexpected job %+v", job)
	}
	if got := events.forJob("mine-1"); len(got) != 2 || got[1] != model.EventJobFailed {
		t.Errorf("events %v", got)
	}
	if clf.Calls() != 1 {
		t.Errorf("immediate mode must not retry, got %d calls", clf.Calls())
	}

	if _, err := d.Submit(ctx, model.SubmitRequest{Text: "again", JobID: "mine-1"}); !errors.Is(err, domain.ErrAlreadyExists) {
		t.Errorf("reused job id should be rejected, got %v", err)
	}
}

func TestDispatcher_RejectsBadInput(t *testing.T) {
	ctx := context.Background()
	events := &recordingBroadcaster{}
	queue := newFakeQueue()
	analyzer := NewAnalyzer(memory.NewResultStore(), &fakeClassifier{result: leftResult}, nil, 0, &nopLogger)
	dispatchers := []Dispatcher{
		NewImmediateDispatcher(memory.NewJobStore(), analyzer, events, false, &nopLogger),
		NewDurableDispatcher(memory.NewJobStore(), queue, analyzer, events, 3, time.Second, false, &nopLogger),
	}
	bad := []model.SubmitRequest{
		{Text: "   "},
		{Text: strings.Repeat("a", model.MaxSubmitTextRunes+1)},
		{Text: "ok", ArticleID: int64p(0)},
	}
	for _, d := range dispatchers {
		for _, req := range bad {
			if _, err := d.Submit(ctx, req); !errors.Is(err, domain.ErrInvalidArgument) {
				t.Errorf("%s: expected ErrInvalidArgument, got %v", d.Mode(), err)
			}
		}
	}
	if len(events.events) != 0 || len(queue.enqueued) != 0 {
		t.Errorf("rejected input must not emit or enqueue: %v %v", events.events, queue.enqueued)
	}
}

func TestDurableDispatcher_RetriesThenFails(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 2, 2, 10, 0, 0, 0, time.UTC)
	jobs := memory.NewJobStore()
	queue := newFakeQueue()
	events := &recordingBroadcaster{}
	clf := &fakeClassifier{err: errors.New("timeout")}
	d := NewDurableDispatcher(jobs, queue, NewAnalyzer(memory.NewResultStore(), clf, nil, 0, &nopLogger), events, 3, time.Second, false, &nopLogger)
	d.now = func() time.Time { return now }

	job, err := d.Submit(ctx, model.SubmitRequest{Text: "text"})
	if err != nil {
		t.Fatal(err)
	}
	if job.Status != model.JobStatusQueued || len(queue.enqueued) != 1 {
		t.Fatalf("expected queued job on the broker, got %+v %v", job, queue.enqueued)
	}

	for attempt, wantDelay := range []time.Duration{time.Second, 2 * time.Second} {
		if err := d.Process(ctx, job.ID); err != nil {
			t.Fatal(err)
		}
		if at := queue.retries[job.ID]; at.Sub(now) != wantDelay {
			t.Errorf("attempt %d: expected retry in %s, got %s", attempt+1, wantDelay, at.Sub(now))
		}
		if v := d.Status(ctx, job.ID); v.Status != model.JobStatusActive {
			t.Errorf("attempt %d: job should stay active during backoff, got %s", attempt+1, v.Status)
		}
	}

	if err := d.Process(ctx, job.ID); err != nil {
		t.Fatal(err)
	}
	v := d.Status(ctx, job.ID)
	if v.Status != model.JobStatusFailed || v.Error != "timeout" {
		t.Fatalf("expected failed after 3 attempts, got %+v", v)
	}
	if failed, ok := queue.finished[job.ID]; !ok || !failed {
		t.Error("broker should count the job as failed")
	}
	if clf.Calls() != 3 {
		t.Errorf("expected 3 attempts, got %d", clf.Calls())
	}
	if got := events.forJob(job.ID); len(got) != 2 || got[0] != model.EventJobQueued || got[1] != model.EventJobFailed {
		t.Errorf("expected exactly queued then failed, got %v", got)
	}

	// a duplicate delivery of a finished job changes nothing
	if err := d.Process(ctx, job.ID); err != nil {
		t.Fatal(err)
	}
	if clf.Calls() != 3 || len(events.forJob(job.ID)) != 2 {
		t.Error("duplicate delivery must not classify or emit again")
	}
	if queue.finishes != 1 || len(queue.released) != 1 || queue.released[0] != job.ID {
		t.Errorf("duplicate delivery should only be released, got %d finishes, released %v", queue.finishes, queue.released)
	}
}

func TestDurableDispatcher_RecoversOnSecondAttempt(t *testing.T) {
	ctx := context.Background()
	queue := newFakeQueue()
	events := &recordingBroadcaster{}
	clf := &fakeClassifier{err: errors.New("flaky"), failFor: 1, result: leftResult}
	d := NewDurableDispatcher(memory.NewJobStore(), queue, NewAnalyzer(memory.NewResultStore(), clf, nil, 0, &nopLogger), events, 3, time.Second, false, &nopLogger)

	job, _ := d.Submit(ctx, model.SubmitRequest{Text: "text", ArticleID: int64p(7)})
	_ = d.Process(ctx, job.ID)
	_ = d.Process(ctx, job.ID)

	v := d.Status(ctx, job.ID)
	if v.Status != model.JobStatusCompleted || v.Result == nil || *v.Result != leftResult || v.Error != "" {
		t.Fatalf("unexpected view %+v", v)
	}
	if got := events.forJob(job.ID); len(got) != 2 || got[1] != model.EventJobCompleted {
		t.Errorf("events %v", got)
	}
}

func TestDurableDispatcher_EnqueueFailure(t *testing.T) {
	queue := newFakeQueue()
	queue.enqueueErr = errors.New("broker gone")
	events := &recordingBroadcaster{}
	jobs := memory.NewJobStore()
	d := NewDurableDispatcher(jobs, queue, nil, events, 3, time.Second, false, &nopLogger)

	_, err := d.Submit(context.Background(), model.SubmitRequest{Text: "text", JobID: "j-1"})
	if !errors.Is(err, domain.ErrQueueUnavailable) {
		t.Fatalf("expected ErrQueueUnavailable, got %v", err)
	}
	if got := events.forJob("j-1"); len(got) != 2 || got[1] != model.EventJobFailed {
		t.Errorf("expected queued then failed, got %v", got)
	}
}

func TestDurableDispatcher_StatusAndStats(t *testing.T) {
	queue := newFakeQueue()
	queue.statsFn = func() (model.QueueStats, error) { return model.QueueStats{Waiting: 3, Active: 1}, nil }
	d := NewDurableDispatcher(memory.NewJobStore(), queue, nil, &recordingBroadcaster{}, 3, time.Second, false, &nopLogger)

	if v := d.Status(context.Background(), "nope"); v.Status != model.JobStatusNotFound || v.ID != "nope" {
		t.Errorf("unknown id should be not_found, got %+v", v)
	}
	if st := d.Stats(context.Background()); st.Waiting != 3 || st.Active != 1 {
		t.Errorf("unexpected stats %+v", st)
	}
	queue.statsFn = func() (model.QueueStats, error) { return model.QueueStats{}, errors.New("down") }
	if st := d.Stats(context.Background()); st != (model.QueueStats{}) {
		t.Errorf("broker failure should read as zero stats, got %+v", st)
	}
	if d.Backoff(3) != 4*time.Second {
		t.Errorf("expected 4s backoff after the third attempt, got %s", d.Backoff(3))
	}
}

func TestDispatcher_ConcurrentSubmitsWithSameJobID(t *testing.T) {
	ctx := context.Background()
	analyzer := NewAnalyzer(memory.NewResultStore(), &fakeClassifier{result: leftResult}, nil, 0, &nopLogger)

	for _, mk := range []func(*recordingBroadcaster, *fakeQueue) Dispatcher{
		func(ev *recordingBroadcaster, _ *fakeQueue) Dispatcher {
			return NewImmediateDispatcher(memory.NewJobStore(), analyzer, ev, false, &nopLogger)
		},
		func(ev *recordingBroadcaster, q *fakeQueue) Dispatcher {
			return NewDurableDispatcher(memory.NewJobStore(), q, analyzer, ev, 3, time.Second, false, &nopLogger)
		},
	} {
		events := &recordingBroadcaster{}
		queue := newFakeQueue()
		d := mk(events, queue)

		const n = 8
		var (
			wg       sync.WaitGroup
			accepted atomic.Int32
			dupes    atomic.Int32
		)
		start := make(chan struct{})
		for i := 0; i < n; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				<-start
				_, err := d.Submit(ctx, model.SubmitRequest{Text: "same id", JobID: "shared-1"})
				switch {
				case err == nil:
					accepted.Add(1)
				case errors.Is(err, domain.ErrAlreadyExists):
					dupes.Add(1)
				default:
					t.Errorf("%s: unexpected error %v", d.Mode(), err)
				}
			}()
		}
		close(start)
		wg.Wait()

		if accepted.Load() != 1 || dupes.Load() != n-1 {
			t.Errorf("%s: expected 1 accepted and %d duplicates, got %d and %d", d.Mode(), n-1, accepted.Load(), dupes.Load())
		}
		got := events.forJob("shared-1")
		if len(got) == 0 || got[0] != model.EventJobQueued {
			t.Fatalf("%s: events %v", d.Mode(), got)
		}
		queued := 0
		for _, e := range got {
			if e == model.EventJobQueued {
				queued++
			}
		}
		if queued != 1 {
			t.Errorf("%s: expected one job_queued, got %v", d.Mode(), got)
		}
		if d.Mode() == model.ModeDurable && len(queue.enqueued) != 1 {
			t.Errorf("expected one enqueue, got %v", queue.enqueued)
		}
	}
}

func TestImmediateDispatcher_StatsDuringSubmit(t *testing.T) {
	ctx := context.Background()
	clf := &fakeClassifier{result: leftResult, gate: make(chan struct{})}
	d := NewImmediateDispatcher(memory.NewJobStore(), NewAnalyzer(memory.NewResultStore(), clf, nil, 0, &nopLogger), &recordingBroadcaster{}, false, &nopLogger)

	done := make(chan error, 1)
	go func() {
		_, err := d.Submit(ctx, model.SubmitRequest{Text: "slow article"})
		done <- err
	}()
	deadline := time.Now().Add(2 * time.Second)
	for clf.Calls() == 0 && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	if clf.Calls() != 1 {
		t.Fatal("classifier never started")
	}

	if st := d.Stats(ctx); st != (model.QueueStats{}) {
		t.Errorf("in-flight synchronous work is not queue state, got %+v", st)
	}
	close(clf.gate)
	if err := <-done; err != nil {
		t.Fatal(err)
	}
	if st := d.Stats(ctx); st.Completed != 1 || st.Active != 0 {
		t.Errorf("unexpected stats after submit %+v", st)
	}
}
