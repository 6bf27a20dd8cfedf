package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"moviegen/internal/domain"
	"moviegen/internal/movie"
)

const msgIdeaRequired = "Please enter an idea for your movie."

type generateRequest struct {
	Idea string `json:"idea"`
}

type generateResponse struct {
	RunID  string `json:"run_id"`
	Status string `json:"status"`
}

// GenerateMovie validates the idea, snapshots the session into an immutable
// request, and starts the run in the background. Progress streams over the
// event socket; the run snapshot is at /v1/runs/current.
func (a *App) GenerateMovie(w http.ResponseWriter, r *http.Request) {
	var req generateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid payload")
		return
	}

	image, _ := a.Session.Image()
	movieReq, err := movie.NewRequest(req.Idea, image)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidIdea) {
			a.error(w, http.StatusBadRequest, "validation", msgIdeaRequired)
			return
		}
		a.error(w, http.StatusBadRequest, "bad_request", err.Error())
		return
	}

	// The run must outlive this request; it is cancelled only by process
	// shutdown.
	runID, err := a.Orchestrator.Start(context.Background(), movieReq)
	if err != nil {
		if errors.Is(err, domain.ErrRunInProgress) {
			a.error(w, http.StatusConflict, "conflict", "a movie is already being generated")
			return
		}
		a.Logger.Error().Err(err).Msg("handlers: failed to start run")
		a.error(w, http.StatusInternalServerError, "internal", "failed to start generation")
		return
	}

	a.json(w, http.StatusAccepted, generateResponse{RunID: runID, Status: string(movie.StateRunning)})
}

// CurrentRun returns the snapshot of the active or most recent run.
func (a *App) CurrentRun(w http.ResponseWriter, r *http.Request) {
	a.json(w, http.StatusOK, a.Orchestrator.Run())
}
