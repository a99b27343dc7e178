package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/milldesk/milldesk/internal/pipeline"
)

func (s *Server) handleStores(w http.ResponseWriter, r *http.Request) {
	jsonResponse(w, http.StatusOK, StoresResponse{Stores: s.cfg.StoreNames()})
}

func (s *Server) handleSchema(w http.ResponseWriter, r *http.Request) {
	store := r.URL.Query().Get("store")
	if store == "" {
		errorResponse(w, http.StatusBadRequest, "missing store parameter")
		return
	}

	sch, err := s.runner.Describe(r.Context(), store)
	if err != nil {
		if errors.Is(err, pipeline.ErrUnknownStore) {
			errorResponse(w, http.StatusBadRequest, err.Error())
			return
		}
		s.logger.Error("schema introspection failed", "store", store, "error", err)
		errorResponse(w, http.StatusInternalServerError, "schema introspection failed")
		return
	}

	jsonResponse(w, http.StatusOK, sch)
}

func (s *Server) handleQuery(w http.ResponseWriter, r *http.Request) {
	var req QueryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errorResponse(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(req.Question) == "" {
		errorResponse(w, http.StatusBadRequest, "missing question")
		return
	}
	if strings.TrimSpace(req.Store) == "" {
		errorResponse(w, http.StatusBadRequest, "missing store")
		return
	}

	out, err := s.runner.Run(r.Context(), req.Question, req.Store)
	if err != nil {
		// The only error the pipeline returns: a store name outside the
		// configured set.
		errorResponse(w, http.StatusBadRequest, err.Error())
		return
	}

	switch out.Kind {
	case pipeline.OutcomeExecuted:
		jsonResponse(w, http.StatusOK, ExecutedResponse{
			Status: "executed",
			SQL:    out.SQL,
			Params: out.Params,
			Rows:   out.RowCount,
			Data:   out.Rows,
		})
	case pipeline.OutcomeBlocked:
		jsonResponse(w, http.StatusOK, GeneratedResponse{
			Status:  "generated",
			SQL:     out.SQL,
			Params:  out.Params,
			Message: out.Message,
			Reason:  out.Reason,
		})
	default:
		jsonResponse(w, http.StatusOK, UnsupportedResponse{
			Unsupported: true,
			Message:     out.Message,
		})
	}
}
