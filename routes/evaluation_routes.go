package routes

import (
	"talkone_server/controllers"
	"talkone_server/services"

	"github.com/gorilla/mux"
)

// RegisterEvaluationRoutes sets up routes for peer evaluations under /api/evaluations
func RegisterEvaluationRoutes(r *mux.Router, evaluations *services.EvaluationService) {
	controller := controllers.NewEvaluationController(evaluations)

	evaluationRouter := r.PathPrefix("/api/evaluations").Subrouter()

	evaluationRouter.HandleFunc("", controller.SubmitEvaluation).Methods("POST")
}
