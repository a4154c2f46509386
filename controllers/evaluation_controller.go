package controllers

import (
	"encoding/json"
	"fmt"
	"net/http"

	"talkone_server/models"
	"talkone_server/services"

	"github.com/go-playground/validator/v10"
)

// EvaluationController handles post-session peer evaluations
type EvaluationController struct {
	Evaluations *services.EvaluationService
	validate    *validator.Validate
}

// NewEvaluationController creates a new EvaluationController instance
func NewEvaluationController(evaluations *services.EvaluationService) *EvaluationController {
	return &EvaluationController{
		Evaluations: evaluations,
		validate:    validator.New(),
	}
}

// SubmitEvaluation records a 1-5 peer rating for a user
func (ec *EvaluationController) SubmitEvaluation(w http.ResponseWriter, r *http.Request) {
	var payload models.EvaluationPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		http.Error(w, "Invalid request payload", http.StatusBadRequest)
		return
	}
	if err := ec.validate.Struct(&payload); err != nil {
		http.Error(w, fmt.Sprintf("Invalid request payload: %v", err), http.StatusBadRequest)
		return
	}

	evaluation, err := ec.Evaluations.RecordEvaluation(r.Context(), &payload)
	if err != nil {
		http.Error(w, fmt.Sprintf("Failed to record evaluation: %v", err), http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"success":      true,
		"evaluationId": evaluation.EvaluationID,
	})
}
