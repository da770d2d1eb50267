package web

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"batch-transcriber/internal/domain"
	"batch-transcriber/internal/domain/model"
	"batch-transcriber/internal/domain/ports/repository"
	ucport "batch-transcriber/internal/domain/ports/usecase"
)

type batchCreateRequest struct {
	Name         string   `json:"name"`
	Description  string   `json:"description"`
	SourcePath   string   `json:"source_path"`
	FilePattern  string   `json:"file_pattern"`
	Priority     string   `json:"priority"`
	NotifyEmails []string `json:"notify_emails"`
}

func (s *Server) handleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req batchCreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	b, err := s.batches.Create(ctx, ucport.CreateBatchParams{
		Name:         req.Name,
		Description:  req.Description,
		SourcePath:   req.SourcePath,
		FilePattern:  req.FilePattern,
		Priority:     req.Priority,
		CreatedBy:    r.Header.Get("X-Operator"),
		NotifyEmails: req.NotifyEmails,
	})
	if err != nil {
		s.writeError(w, err)
		return
	}

	dispatched, err := s.dispatch.Run(ctx, b.ID)
	if err != nil {
		// The batch exists but stays pending; the operator retries the
		// dispatch once the queue is reachable again.
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusServiceUnavailable)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"batch": b,
			"error": err.Error(),
		})
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"batch":      b,
		"dispatched": dispatched,
	})
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	q := r.URL.Query()

	var f repository.BatchFilter
	if v := q.Get("status"); v != "" {
		st, err := model.ParseBatchStatus(v)
		if err != nil {
			s.writeError(w, err)
			return
		}
		f.Status = &st
	}
	if v := q.Get("priority"); v != "" {
		prio, err := model.ParseBatchPriority(v)
		if err != nil {
			s.writeError(w, err)
			return
		}
		f.Priority = &prio
	}
	f.NameContains = q.Get("name")
	f.SortBy = q.Get("sort")
	f.SortDesc = q.Get("order") == "desc"
	f.Offset, _ = strconv.Atoi(q.Get("offset"))
	f.Limit, _ = strconv.Atoi(q.Get("limit"))
	if f.Limit <= 0 {
		f.Limit = 50 // default page size
	}
	if f.Offset < 0 {
		f.Offset = 0
	}

	batches, total, err := s.batches.List(ctx, f)
	if err != nil {
		s.writeError(w, err)
		return
	}

	response := struct {
		Data   []*model.Batch `json:"data"`
		Total  int            `json:"total"`
		Limit  int            `json:"limit"`
		Offset int            `json:"offset"`
	}{
		Data:   batches,
		Total:  total,
		Limit:  f.Limit,
		Offset: f.Offset,
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(response)
}

func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	b, err := s.batches.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(b)
}

func (s *Server) handleProgress(w http.ResponseWriter, r *http.Request) {
	p, err := s.progress.Progress(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(p)
}

func (s *Server) handlePause(w http.ResponseWriter, r *http.Request) {
	b, err := s.batches.Pause(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(b)
}

func (s *Server) handleResume(w http.ResponseWriter, r *http.Request) {
	b, err := s.batches.Resume(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(b)
}

func (s *Server) handleCancel(w http.ResponseWriter, r *http.Request) {
	n, err := s.progress.Cancel(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]int{"cancelled": n})
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	if err := s.batches.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	status := map[string]bool{
		"store":   s.health.Store == nil || s.health.Store(ctx) == nil,
		"queue":   s.health.Queue == nil || s.health.Queue(ctx) == nil,
		"service": s.health.Service == nil || s.health.Service(ctx),
	}
	code := http.StatusOK
	for _, ok := range status {
		if !ok {
			code = http.StatusServiceUnavailable
			break
		}
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(status)
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, domain.ErrInvalidArgument), errors.Is(err, domain.ErrPathRejected):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, domain.ErrInvalidTransition):
		http.Error(w, err.Error(), http.StatusConflict)
	case errors.Is(err, domain.ErrQueueUnavailable):
		http.Error(w, err.Error(), http.StatusServiceUnavailable)
	default:
		s.log.Error().Err(err).Msg("request failed")
		http.Error(w, "Internal server error", http.StatusInternalServerError)
	}
}
