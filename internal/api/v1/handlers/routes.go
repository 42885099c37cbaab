package handlers

import (
	"net/http"

	"github.com/gorilla/mux"

	v1mware "github.com/foliolabs/folio/internal/api/v1/middleware"
	"github.com/foliolabs/folio/internal/services"
)

func RegisterV1Routes(router *mux.Router, services *services.Services) {
	router.HandleFunc("/healthz", HandleHealth).Methods("GET")

	// v1 routes
	v1 := router.PathPrefix("/v1").Subrouter()

	// Public v1 routes (no auth required)
	v1publicRouter := v1.NewRoute().Subrouter()
	v1publicRouter.HandleFunc("/auth/token", HandleToken).Methods("POST")
	v1publicRouter.HandleFunc("/providers", HandleListProviders).Methods("GET")
	v1publicRouter.HandleFunc("/blog", func(w http.ResponseWriter, r *http.Request) {
		HandleListPosts(services.GetBlogService(), w, r)
	}).Methods("GET")
	v1publicRouter.HandleFunc("/blog/{slug}", func(w http.ResponseWriter, r *http.Request) {
		HandleGetPost(services.GetBlogService(), w, r)
	}).Methods("GET")
	v1publicRouter.HandleFunc("/visit", func(w http.ResponseWriter, r *http.Request) {
		HandleGetVisits(services.GetVisitsService(), w, r)
	}).Methods("GET")
	v1publicRouter.HandleFunc("/visit", func(w http.ResponseWriter, r *http.Request) {
		HandleRecordVisit(services.GetVisitsService(), w, r)
	}).Methods("POST")

	// The websocket transport authenticates via query token rather than
	// headers; browsers cannot set headers on websocket upgrades.
	v1publicRouter.HandleFunc("/ws/chat", func(w http.ResponseWriter, r *http.Request) {
		HandleChatWS(services.GetChatService(), services.GetSpeechService(), services.GetHistoryStore(), w, r)
	})

	// Protected v1 routes (require auth)
	v1protectedRouter := v1.NewRoute().Subrouter()
	v1protectedRouter.Use(v1mware.RequireAuth)

	v1chatRouter := v1protectedRouter.PathPrefix("/chat").Subrouter()
	v1chatRouter.HandleFunc("/stream", func(w http.ResponseWriter, r *http.Request) {
		HandleChatStream(services.GetChatService(), w, r)
	}).Methods("POST")
	v1chatRouter.HandleFunc("/image", func(w http.ResponseWriter, r *http.Request) {
		HandleChatImage(services.GetChatService(), w, r)
	}).Methods("POST")
	v1chatRouter.HandleFunc("/video", func(w http.ResponseWriter, r *http.Request) {
		HandleChatVideo(services.GetChatService(), w, r)
	}).Methods("POST")

	v1protectedRouter.HandleFunc("/tts", func(w http.ResponseWriter, r *http.Request) {
		HandleTTS(services.GetSpeechService(), w, r)
	}).Methods("POST")
}
