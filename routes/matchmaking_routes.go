package routes

import (
	"talkone_server/controllers"
	"talkone_server/services"

	"github.com/gorilla/mux"
)

// RegisterMatchmakingRoutes sets up routes for the matching engine under /api/match
func RegisterMatchmakingRoutes(r *mux.Router, matchmaking *services.MatchmakingService, queue *services.QueueService) {
	controller := controllers.NewMatchmakingController(matchmaking, queue)

	matchRouter := r.PathPrefix("/api/match").Subrouter()

	matchRouter.HandleFunc("/request", controller.SubmitMatchRequest).Methods("POST")
	matchRouter.HandleFunc("/process", controller.ProcessMatchRequest).Methods("POST")
	matchRouter.HandleFunc("/cancel", controller.CancelMatchRequest).Methods("POST")
	matchRouter.HandleFunc("/status/{requestId}", controller.GetMatchStatus).Methods("GET")
	matchRouter.HandleFunc("/queue", controller.GetQueueStats).Methods("GET")
}
