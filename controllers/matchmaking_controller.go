package controllers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"talkone_server/models"
	"talkone_server/services"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/mux"
)

// MatchmakingController handles HTTP requests for the matching engine
type MatchmakingController struct {
	Matchmaking *services.MatchmakingService
	Queue       *services.QueueService
	validate    *validator.Validate
}

// NewMatchmakingController creates a new MatchmakingController instance
func NewMatchmakingController(matchmaking *services.MatchmakingService, queue *services.QueueService) *MatchmakingController {
	return &MatchmakingController{
		Matchmaking: matchmaking,
		Queue:       queue,
		validate:    validator.New(),
	}
}

// SubmitMatchRequest accepts a new match request, returning the request
// id plus an advisory queue position and wait estimate
func (mc *MatchmakingController) SubmitMatchRequest(w http.ResponseWriter, r *http.Request) {
	var payload models.SubmitMatchPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		http.Error(w, "Invalid request payload", http.StatusBadRequest)
		return
	}
	if err := mc.validate.Struct(&payload); err != nil {
		http.Error(w, fmt.Sprintf("Invalid request payload: %v", err), http.StatusBadRequest)
		return
	}

	// Estimate before recording so the caller's own request is not
	// counted into their position. Advisory; a failed estimate must not
	// block the submission.
	stats, err := mc.Queue.Estimate(r.Context())
	if err != nil {
		stats = &models.QueueStats{Position: 1}
	}

	request, err := mc.Matchmaking.SubmitRequest(r.Context(), &payload)
	if err != nil {
		http.Error(w, fmt.Sprintf("Failed to submit match request: %v", err), http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"success":           true,
		"requestId":         request.RequestID,
		"queuePosition":     stats.Position,
		"estimatedWaitTime": stats.EstimatedWaitSeconds,
	})
}

// ProcessMatchRequest runs one engine invocation. The work dispatcher
// posts here; callers can also hit it to manually retry a failed match.
func (mc *MatchmakingController) ProcessMatchRequest(w http.ResponseWriter, r *http.Request) {
	var task models.ProcessTask
	if err := json.NewDecoder(r.Body).Decode(&task); err != nil {
		http.Error(w, "Invalid request payload", http.StatusBadRequest)
		return
	}
	if err := mc.validate.Struct(&task); err != nil {
		http.Error(w, fmt.Sprintf("Invalid request payload: %v", err), http.StatusBadRequest)
		return
	}

	outcome, err := mc.Matchmaking.ProcessRequest(r.Context(), task.RequestID)
	if err != nil {
		if errors.Is(err, services.ErrRequestNotFound) {
			http.Error(w, "Match request not found", http.StatusNotFound)
			return
		}
		// Transient fault; the dispatcher redelivers on non-2xx
		http.Error(w, fmt.Sprintf("Failed to process match request: %v", err), http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"success": true,
		"outcome": outcome,
	})
}

// CancelMatchRequest cancels a searching request on behalf of its owner
func (mc *MatchmakingController) CancelMatchRequest(w http.ResponseWriter, r *http.Request) {
	var payload models.CancelMatchPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		http.Error(w, "Invalid request payload", http.StatusBadRequest)
		return
	}
	if err := mc.validate.Struct(&payload); err != nil {
		http.Error(w, fmt.Sprintf("Invalid request payload: %v", err), http.StatusBadRequest)
		return
	}

	err := mc.Matchmaking.Cancel(r.Context(), payload.RequestID, payload.UserID)
	switch {
	case errors.Is(err, services.ErrRequestNotFound):
		http.Error(w, "Match request not found", http.StatusNotFound)
	case errors.Is(err, services.ErrUnauthorized):
		http.Error(w, "Request does not belong to caller", http.StatusForbidden)
	case errors.Is(err, services.ErrNotSearching):
		http.Error(w, "Match request is no longer searching", http.StatusConflict)
	case err != nil:
		http.Error(w, fmt.Sprintf("Failed to cancel match request: %v", err), http.StatusInternalServerError)
	default:
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(map[string]interface{}{"success": true})
	}
}

// GetMatchStatus returns a request snapshot for polling clients
func (mc *MatchmakingController) GetMatchStatus(w http.ResponseWriter, r *http.Request) {
	requestID := mux.Vars(r)["requestId"]
	if requestID == "" {
		http.Error(w, "requestId is required", http.StatusBadRequest)
		return
	}

	request, err := mc.Matchmaking.GetRequest(r.Context(), requestID)
	if err != nil {
		if errors.Is(err, services.ErrRequestNotFound) {
			http.Error(w, "Match request not found", http.StatusNotFound)
			return
		}
		http.Error(w, fmt.Sprintf("Failed to fetch match request: %v", err), http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"request": request,
	})
}

// GetQueueStats returns the advisory queue estimate
func (mc *MatchmakingController) GetQueueStats(w http.ResponseWriter, r *http.Request) {
	stats, err := mc.Queue.Estimate(r.Context())
	if err != nil {
		http.Error(w, fmt.Sprintf("Failed to estimate queue: %v", err), http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(stats)
}
