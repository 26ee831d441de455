// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/poiesic/linkmind/core"
	"github.com/poiesic/linkmind/recommend"
	"github.com/poiesic/linkmind/storage"
)

type submitRequest struct {
	URL string `json:"url"`
}

type submitResponse struct {
	ID uint64 `json:"id"`
}

type statusResponse struct {
	ID           uint64   `json:"id"`
	Status       string   `json:"status"`
	Summary      string   `json:"summary,omitempty"`
	Tags         []string `json:"tags,omitempty"`
	FailedReason string   `json:"failed_reason,omitempty"`
	AttemptCount int      `json:"attempt_count"`
}

type recommendationResponse struct {
	LinkID   uint64  `json:"link_id"`
	Distance float32 `json:"distance"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// handleSubmit accepts a URL for asynchronous archiving.
// Responds 202 with the link ID; the caller polls for completion.
func (s *Server) handleSubmit(w http.ResponseWriter, r *http.Request) {
	var req submitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	id, err := s.pipeline.Submit(r.Context(), req.URL)
	if err != nil {
		if errors.Is(err, core.ErrInvalidURL) || errors.Is(err, core.ErrEmptyURL) {
			s.writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		s.logger.Error("error submitting link", "err", err)
		s.writeError(w, http.StatusInternalServerError, "submission failed")
		return
	}

	s.writeJSON(w, http.StatusAccepted, submitResponse{ID: uint64(id)})
}

// handleStatus reports the processing state of one link.
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := s.linkID(w, r)
	if !ok {
		return
	}

	state, err := s.pipeline.GetStatus(r.Context(), id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			s.writeError(w, http.StatusNotFound, "link not found")
			return
		}
		s.logger.Error("error loading link status", "id", id, "err", err)
		s.writeError(w, http.StatusInternalServerError, "status lookup failed")
		return
	}

	s.writeJSON(w, http.StatusOK, statusResponse{
		ID:           uint64(state.Id),
		Status:       state.Status.String(),
		Summary:      state.Summary,
		Tags:         state.Tags,
		FailedReason: state.FailedReason,
		AttemptCount: state.AttemptCount,
	})
}

// handleRecommend returns links similar to one completed link.
func (s *Server) handleRecommend(w http.ResponseWriter, r *http.Request) {
	id, ok := s.linkID(w, r)
	if !ok {
		return
	}

	results, err := s.engine.Recommend(r.Context(), id, s.limit(r))
	if err != nil {
		switch {
		case errors.Is(err, storage.ErrNotFound):
			s.writeError(w, http.StatusNotFound, "link not found")
		case errors.Is(err, recommend.ErrNotReady):
			s.writeError(w, http.StatusConflict, "link not ready for recommendations")
		default:
			s.logger.Error("error computing recommendations", "id", id, "err", err)
			s.writeError(w, http.StatusInternalServerError, "recommendation failed")
		}
		return
	}

	s.writeJSON(w, http.StatusOK, toRecommendationResponses(results))
}

// handleInterestRecommend returns links matching the reader's recent
// interests.
func (s *Server) handleInterestRecommend(w http.ResponseWriter, r *http.Request) {
	results, err := s.engine.RecommendForInterest(r.Context(), s.limit(r))
	if err != nil {
		if errors.Is(err, recommend.ErrNoCompletedLinks) {
			s.writeJSON(w, http.StatusOK, []recommendationResponse{})
			return
		}
		s.logger.Error("error computing interest recommendations", "err", err)
		s.writeError(w, http.StatusInternalServerError, "recommendation failed")
		return
	}

	s.writeJSON(w, http.StatusOK, toRecommendationResponses(results))
}

func toRecommendationResponses(results []core.Recommendation) []recommendationResponse {
	out := make([]recommendationResponse, len(results))
	for i, r := range results {
		out[i] = recommendationResponse{
			LinkID:   uint64(r.LinkID),
			Distance: r.Distance,
		}
	}
	return out
}

// linkID parses the {id} path parameter, responding 400 on garbage.
func (s *Server) linkID(w http.ResponseWriter, r *http.Request) (core.ID, bool) {
	raw := chi.URLParam(r, "id")
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid link id")
		return 0, false
	}
	return core.ID(id), true
}

// limit parses the optional k query parameter. Zero means "use default".
func (s *Server) limit(r *http.Request) int {
	raw := r.URL.Query().Get("k")
	if raw == "" {
		return 0
	}
	k, err := strconv.Atoi(raw)
	if err != nil || k < 0 {
		return 0
	}
	return k
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.Error("error encoding response", "err", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, errorResponse{Error: message})
}
