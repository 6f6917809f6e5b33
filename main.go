package main

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"

	"eventure_server/routes"
	"eventure_server/services"
	"eventure_server/socket"

	"github.com/gorilla/mux"
	"github.com/rs/cors"
)

func main() {
	// Initialize DynamoDB client and service
	log.Println("Initializing DynamoDB client...")
	dynamoClient := services.InitializeDynamoDBClient()
	dynamoService := &services.DynamoService{Client: dynamoClient}
	log.Println("DynamoDB client initialized.")

	// Initialize Services
	userService := &services.UserService{Dynamo: dynamoService}
	inviteService := &services.InviteService{Dynamo: dynamoService}
	eventService := &services.EventService{Dynamo: dynamoService, Invites: inviteService, Users: userService}
	chatService := &services.ChatService{Dynamo: dynamoService, Users: userService}

	// The room registry lives for the lifetime of the process and is handed
	// to the chat endpoint explicitly.
	registry := socket.NewRoomRegistry()
	chatHandler := socket.NewChatHandler(userService, eventService, inviteService, chatService, registry)

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
		fmt.Fprintln(w, "Welcome to Eventure")
	}).Methods("GET")

	// Register a health check endpoint
	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		response := map[string]string{"status": "healthy"}
		json.NewEncoder(w).Encode(response)
	}).Methods("GET")

	// Register routes
	routes.RegisterEventRoutes(r, eventService, inviteService, userService)
	routes.RegisterInviteRoutes(r, inviteService, userService)
	routes.RegisterChatSocket(r, chatHandler)

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
