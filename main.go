package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"

	"talkone_server/config"
	"talkone_server/models"
	"talkone_server/routes"
	"talkone_server/services"
	"talkone_server/socket"

	"github.com/gorilla/mux"
	"github.com/rs/cors"
)

func main() {
	logger := config.GetLogger()

	// Initialize DynamoDB client and service
	log.Println("Initializing DynamoDB client...")
	dynamoClient := services.InitializeDynamoDBClient()
	dynamoService := &services.DynamoService{Client: dynamoClient}
	log.Println("DynamoDB client initialized.")

	// Initialize the SQS-backed work dispatcher
	queueURL := os.Getenv("MATCH_QUEUE_URL")
	if queueURL == "" {
		log.Fatal("MATCH_QUEUE_URL is required")
	}
	dispatcher := &services.SQSDispatcher{
		Client:   services.InitializeSQSClient(),
		QueueURL: queueURL,
		Logger:   logger,
	}

	// Initialize the socket server for match notifications
	socketServer := socket.NewSocketServer(logger)

	// Initialize Services
	requestStore := &services.MatchRequestStore{Dynamo: dynamoService}
	matchmakingService := &services.MatchmakingService{
		Store:       requestStore,
		Dispatcher:  dispatcher,
		Recommender: &services.EvaluationRecommender{Evaluations: requestStore},
		Notifier:    &socket.Notifier{Server: socketServer},
		Logger:      logger,
	}
	queueService := &services.QueueService{Store: requestStore}
	evaluationService := &services.EvaluationService{Dynamo: dynamoService}

	// Set up the server port
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	log.Printf("Using server port: %s\n", port)

	// Initialize the router
	r := mux.NewRouter()

	// Register a welcome route
	r.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintln(w, "Welcome to TalkOne")
	}).Methods("GET")

	// Register a health check endpoint
	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		response := map[string]string{"status": "healthy"}
		json.NewEncoder(w).Encode(response)
	}).Methods("GET")

	// Register routes
	routes.RegisterMatchmakingRoutes(r, matchmakingService, queueService)
	routes.RegisterEvaluationRoutes(r, evaluationService)
	r.Handle("/socket.io/", socketServer)

	go func() {
		if err := socketServer.Serve(); err != nil {
			log.Fatalf("Socket server error: %v", err)
		}
	}()
	defer socketServer.Close()

	// Start the match worker
	go dispatcher.Run(context.Background(), func(ctx context.Context, task models.ProcessTask) error {
		_, err := matchmakingService.ProcessRequest(ctx, task.RequestID)
		if errors.Is(err, services.ErrRequestNotFound) {
			// The request record is gone; redelivery cannot help
			return nil
		}
		return err
	})

	// Add CORS middleware
	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   []string{"*"}, // Adjust for specific domains if needed
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		AllowCredentials: true,
	}).Handler(r)

	// Start the HTTP server
	log.Printf("Starting server on port %s...\n", port)
	log.Fatal(http.ListenAndServe(":"+port, corsHandler))
}
