package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"newsmap/internal/domain"
	"newsmap/internal/domain/model"
	"newsmap/internal/domain/ports/repository"
)

var _ repository.PrunableJobRepository = (*JobStore)(nil)

// JobStore holds job records in process. Terminal jobs are dropped by
// PruneTerminal once they age out or exceed the retained count.
type JobStore struct {
	mu   sync.RWMutex
	jobs map[string]model.Job
}

func NewJobStore() *JobStore {
	return &JobStore{jobs: make(map[string]model.Job)}
}

func (s *JobStore) Create(ctx context.Context, job *model.Job) error {
	if job == nil || job.ID == "" {
		return domain.ErrInvalidArgument
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.jobs[job.ID]; ok {
		return fmt.Errorf("%w: job %s", domain.ErrAlreadyExists, job.ID)
	}
	s.jobs[job.ID] = cloneJob(job)
	return nil
}

func (s *JobStore) Save(ctx context.Context, job *model.Job) error {
	if job == nil || job.ID == "" {
		return domain.ErrInvalidArgument
	}
	s.mu.Lock()
	s.jobs[job.ID] = cloneJob(job)
	s.mu.Unlock()
	return nil
}

func (s *JobStore) FindByID(ctx context.Context, id string) (*model.Job, error) {
	s.mu.RLock()
	j, ok := s.jobs[id]
	s.mu.RUnlock()
	if !ok {
		return nil, domain.ErrNotFound
	}
	out := cloneJob(&j)
	return &out, nil
}

// cloneJob copies job including the values behind its pointer fields.
func cloneJob(job *model.Job) model.Job {
	c := *job
	if job.ArticleID != nil {
		id := *job.ArticleID
		c.ArticleID = &id
	}
	if job.Result != nil {
		r := *job.Result
		c.Result = &r
	}
	if job.FinishedAt != nil {
		at := *job.FinishedAt
		c.FinishedAt = &at
	}
	return c
}

// PruneTerminal removes terminal jobs finished before olderThan, then the
// oldest remaining terminal jobs beyond keep. In-flight jobs are never pruned.
func (s *JobStore) PruneTerminal(ctx context.Context, olderThan time.Time, keep int) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	type entry struct {
		id string
		at time.Time
	}
	var terminal []entry
	for id, j := range s.jobs {
		if !j.Status.Terminal() {
			continue
		}
		at := j.UpdatedAt
		if j.FinishedAt != nil {
			at = *j.FinishedAt
		}
		if at.Before(olderThan) {
			delete(s.jobs, id)
			removed++
			continue
		}
		terminal = append(terminal, entry{id: id, at: at})
	}

	if keep >= 0 && len(terminal) > keep {
		sort.Slice(terminal, func(i, k int) bool { return terminal[i].at.Before(terminal[k].at) })
		for _, e := range terminal[:len(terminal)-keep] {
			delete(s.jobs, e.id)
			removed++
		}
	}
	return removed, nil
}

// Len is the number of stored jobs.
func (s *JobStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.jobs)
}
