package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/me/herd/pkg/model"
)

func (s *Server) handleGetProcedure(w http.ResponseWriter, r *http.Request) {
	reqID := RequestIDFromContext(r.Context())

	id, err := uuid.Parse(chi.URLParam(r, "uuid"))
	if err != nil {
		respondError(w, reqID, http.StatusBadRequest, &model.APIError{
			Code:    model.ErrValidation,
			Message: "Invalid procedure uuid: " + err.Error(),
		})
		return
	}

	p, ok := s.runtime.Executor.Get(id)
	if !ok {
		respondCommandError(w, reqID, model.NewNotFoundError("procedure", id.String()))
		return
	}

	status := model.Status{UUID: p.UUID().String(), Steps: p.Status()}
	// The result is only safe to read once the procedure is terminal.
	if status.Complete() {
		status.Result = p.Result()
	}
	respondOK(w, reqID, status)
}
