package model

import (
	"crypto/sha256"
	"encoding/hex"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"newsmap/internal/domain"
)

type JobStatus string

const (
	JobStatusQueued    JobStatus = "queued"
	JobStatusActive    JobStatus = "active"
	JobStatusCompleted JobStatus = "completed"
	JobStatusFailed    JobStatus = "failed"

	// JobStatusNotFound is only ever a lookup answer; no job is stored with it.
	JobStatusNotFound JobStatus = "not_found"
)

// Terminal reports whether no further transition is allowed.
func (s JobStatus) Terminal() bool {
	return s == JobStatusCompleted || s == JobStatusFailed
}

func (s JobStatus) rank() int {
	switch s {
	case JobStatusQueued:
		return 1
	case JobStatusActive:
		return 2
	case JobStatusCompleted, JobStatusFailed:
		return 3
	default:
		return 0
	}
}

// CanTransition reports whether from -> to is a legal forward move.
// active -> active is allowed so a retried attempt can be re-marked.
func CanTransition(from, to JobStatus) bool {
	if from.Terminal() || to.rank() == 0 {
		return false
	}
	if from == JobStatusActive && to == JobStatusActive {
		return true
	}
	return to.rank() > from.rank()
}

type Prediction string

const (
	PredictionLeft   Prediction = "left"
	PredictionCenter Prediction = "center"
	PredictionRight  Prediction = "right"
)

func (p Prediction) Valid() bool {
	return p == PredictionLeft || p == PredictionCenter || p == PredictionRight
}

// BiasResult is the outcome of one classification.
type BiasResult struct {
	Prediction Prediction `json:"prediction"`
	Confidence float64    `json:"confidence"`
	Summary    string     `json:"summary"`
}

type Job struct {
	ID         string      `json:"id"`
	Text       string      `json:"text"`
	ArticleID  *int64      `json:"articleId,omitempty"`
	Status     JobStatus   `json:"status"`
	Result     *BiasResult `json:"result,omitempty"`
	Error      string      `json:"error,omitempty"`
	Attempts   int         `json:"attempts"`
	CreatedAt  time.Time   `json:"createdAt"`
	UpdatedAt  time.Time   `json:"updatedAt"`
	FinishedAt *time.Time  `json:"finishedAt,omitempty"`
}

// Transition moves the job forward, rejecting anything non-monotonic.
func (j *Job) Transition(to JobStatus, now time.Time) error {
	if !CanTransition(j.Status, to) {
		return &TransitionError{ID: j.ID, From: j.Status, To: to}
	}
	j.Status = to
	j.UpdatedAt = now
	if to.Terminal() {
		t := now
		j.FinishedAt = &t
	}
	return nil
}

// Complete records the single successful outcome.
func (j *Job) Complete(res BiasResult, now time.Time) error {
	if err := j.Transition(JobStatusCompleted, now); err != nil {
		return err
	}
	j.Result = &res
	j.Error = ""
	return nil
}

// Fail records the single failed outcome.
func (j *Job) Fail(msg string, now time.Time) error {
	if err := j.Transition(JobStatusFailed, now); err != nil {
		return err
	}
	j.Result = nil
	j.Error = msg
	return nil
}

// ContentKey identifies the analyzed content for result caching.
func (j *Job) ContentKey() string {
	return ContentKey(j.ArticleID, j.Text)
}

// View is the polling projection of the job.
func (j *Job) View() JobView {
	return JobView{ID: j.ID, Status: j.Status, Result: j.Result, Error: j.Error}
}

// ContentKey returns "article-<id>" when an article id is known and a
// digest of the text otherwise.
func ContentKey(articleID *int64, text string) string {
	if articleID != nil {
		return "article-" + strconv.FormatInt(*articleID, 10)
	}
	sum := sha256.Sum256([]byte(strings.TrimSpace(text)))
	return "text-" + hex.EncodeToString(sum[:16])
}

type JobView struct {
	ID     string      `json:"jobId"`
	Status JobStatus   `json:"status"`
	Result *BiasResult `json:"result,omitempty"`
	Error  string      `json:"error,omitempty"`
}

// NotFoundView answers polls for unknown ids.
func NotFoundView(id string) JobView {
	return JobView{ID: id, Status: JobStatusNotFound}
}

type QueueStats struct {
	Waiting   int64 `json:"waiting"`
	Active    int64 `json:"active"`
	Completed int64 `json:"completed"`
	Failed    int64 `json:"failed"`
}

type DispatchMode string

const (
	ModeDurable   DispatchMode = "durable"
	ModeImmediate DispatchMode = "immediate"
)

const MaxSubmitTextRunes = 20000

type SubmitRequest struct {
	Text      string `json:"text"`
	ArticleID *int64 `json:"articleId,omitempty"`
	JobID     string `json:"jobId,omitempty"`
}

// Validate returns a message describing the first problem, or "" when the request is acceptable.
func (r SubmitRequest) Validate() string {
	if strings.TrimSpace(r.Text) == "" {
		return "text is required"
	}
	if utf8.RuneCountInString(r.Text) > MaxSubmitTextRunes {
		return "text is too long"
	}
	if r.ArticleID != nil && *r.ArticleID <= 0 {
		return "articleId must be positive"
	}
	if len(r.JobID) > 64 {
		return "jobId is too long"
	}
	return ""
}

type TransitionError struct {
	ID       string
	From, To JobStatus
}

func (e *TransitionError) Error() string {
	return "job " + e.ID + ": cannot move from " + string(e.From) + " to " + string(e.To)
}

func (e *TransitionError) Unwrap() error { return domain.ErrInvalidTransition }
