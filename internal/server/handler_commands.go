package server

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/me/herd/internal/command"
	"github.com/me/herd/pkg/model"
)

func (s *Server) handleListGroups(w http.ResponseWriter, r *http.Request) {
	reqID := RequestIDFromContext(r.Context())
	respondOK(w, reqID, map[string]any{"groups": s.registry.ListGroups()})
}

func (s *Server) handleListCommands(w http.ResponseWriter, r *http.Request) {
	reqID := RequestIDFromContext(r.Context())
	group := chi.URLParam(r, "group")

	names, err := s.registry.ListCommands(group)
	if err != nil {
		respondCommandError(w, reqID, err)
		return
	}
	respondOK(w, reqID, map[string]any{"group": group, "commands": names})
}

func (s *Server) handleDispatch(w http.ResponseWriter, r *http.Request) {
	reqID := RequestIDFromContext(r.Context())
	group := chi.URLParam(r, "group")
	name := chi.URLParam(r, "name")

	var req model.DispatchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, reqID, http.StatusBadRequest, &model.APIError{
			Code:    model.ErrValidation,
			Message: "Invalid JSON body: " + err.Error(),
		})
		return
	}
	if req.Synchronous == "" {
		req.Synchronous = "true"
	}

	status, err := command.ServerDispatch(r.Context(), s.registry, s.runtime,
		group, name, command.Args(req.Args), req.Synchronous)
	if err != nil {
		respondCommandError(w, reqID, err)
		return
	}
	respondOK(w, reqID, model.DispatchResponse{Group: group, Name: name, Status: status})
}
