package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"newsmap/internal/domain"
	"newsmap/internal/domain/model"
	"newsmap/internal/infra/logging"
)

const maxBodyBytes = 256 << 10

type submitResponse struct {
	JobID     string             `json:"jobId"`
	Status    model.JobStatus    `json:"status"`
	StatusURL string             `json:"statusUrl"`
	Result    *model.BiasResult  `json:"result,omitempty"`
	Error     string             `json:"error,omitempty"`
	Mode      model.DispatchMode `json:"mode"`
}

type quotaResponse struct {
	Used      int   `json:"used"`
	Limit     int   `json:"limit"`
	Available int   `json:"available"`
	ResetsIn  int64 `json:"resetsIn"`
}

func (s *Server) handleSubmit(w http.ResponseWriter, r *http.Request) {
	var req model.SubmitRequest
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	if err := dec.Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json body")
		return
	}

	job, err := s.jobs.Submit(r.Context(), req)
	switch {
	case errors.Is(err, domain.ErrInvalidArgument):
		writeError(w, http.StatusBadRequest, strings.TrimPrefix(err.Error(), domain.ErrInvalidArgument.Error()+": "))
		return
	case errors.Is(err, domain.ErrAlreadyExists):
		writeError(w, http.StatusConflict, "job id already in use")
		return
	case errors.Is(err, domain.ErrQueueUnavailable):
		writeError(w, http.StatusServiceUnavailable, "job queue unavailable")
		return
	case err != nil:
		l := logging.With(r.Context(), s.log)
		l.Error().Err(err).Msg("submit failed")
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	code := http.StatusAccepted
	if job.Status.Terminal() {
		code = http.StatusOK
	}
	writeJSON(w, code, submitResponse{
		JobID:     job.ID,
		Status:    job.Status,
		StatusURL: "/api/bias/jobs/" + job.ID,
		Result:    job.Result,
		Error:     job.Error,
		Mode:      s.jobs.Mode(),
	})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimSpace(chi.URLParam(r, "jobId"))
	if id == "" {
		writeError(w, http.StatusBadRequest, "job id is required")
		return
	}
	writeJSON(w, http.StatusOK, s.jobs.Status(r.Context(), id))
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.jobs.Stats(r.Context()))
}

func (s *Server) handleNews(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.news.FetchDiverse(r.Context(), r.URL.Query().Get("language")))
}

func (s *Server) handleNewsByCategory(w http.ResponseWriter, r *http.Request) {
	set, err := s.news.FetchByCategory(r.Context(), chi.URLParam(r, "category"), r.URL.Query().Get("language"))
	if errors.Is(err, domain.ErrInvalidArgument) {
		writeError(w, http.StatusBadRequest, "unknown category")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, set)
}

func (s *Server) handleQuota(w http.ResponseWriter, r *http.Request) {
	st := s.quota.Status(r.Context())
	writeJSON(w, http.StatusOK, quotaResponse{
		Used:      st.Used,
		Limit:     st.Limit,
		Available: st.Available,
		ResetsIn:  st.ResetsInSeconds(),
	})
}

func (s *Server) handleInvalidate(w http.ResponseWriter, r *http.Request) {
	lang := r.URL.Query().Get("language")
	s.news.Invalidate(r.Context(), lang)
	w.WriteHeader(http.StatusNoContent)
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]string{"error": msg})
}
