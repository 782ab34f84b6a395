package handlers

import (
	"net/http"

	"github.com/gorilla/mux"

	v1chat "github.com/translatex/relay/internal/api/v1/handlers/chat"
	v1downloads "github.com/translatex/relay/internal/api/v1/handlers/downloads"
	v1proxy "github.com/translatex/relay/internal/api/v1/handlers/proxy"
	v1websocket "github.com/translatex/relay/internal/api/v1/handlers/websocket"
	v1mware "github.com/translatex/relay/internal/api/v1/middleware"
	"github.com/translatex/relay/internal/config"
	"github.com/translatex/relay/internal/services"
	"github.com/translatex/relay/pkg/httpext"
)

// RegisterRoutes mounts the proxy, conversation and download routes on router.
// Serve the router through v1mware.RewriteTranslatePaths so the root translate
// routes reach the proxy.
func RegisterRoutes(router *mux.Router, services *services.Services) {
	maxUploadBytes := config.GetMaxUploadBytes()

	router.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		httpext.JsonResponse(w, http.StatusOK, map[string]string{"status": "ok"})
	}).Methods("GET")

	// Proxy routes, any method and any backend path
	proxyRouter := router.PathPrefix(v1mware.ProxyPrefix).Subrouter()
	proxyRouter.Handle("/{path:.+}", v1mware.RateLimit("proxy")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		v1proxy.HandleRelay(services.GetRelayService(), maxUploadBytes, w, r)
	})))

	// Session reset, outside the session middleware so it never creates one
	router.HandleFunc("/api/session", func(w http.ResponseWriter, r *http.Request) {
		v1chat.HandleResetSession(services.GetSessionService(), services.GetRegistry(), w, r)
	}).Methods("DELETE")

	// Conversation routes, bound to the session cookie
	chatRouter := router.PathPrefix("/api/chat").Subrouter()
	chatRouter.Use(v1mware.RequireSession(services.GetSessionService(), services.GetRegistry()))

	chatRouter.HandleFunc("", v1chat.HandleGetConversation).Methods("GET")
	chatRouter.HandleFunc("/input", v1chat.HandleSetInput).Methods("PUT")
	chatRouter.HandleFunc("/language", v1chat.HandleSetLanguage).Methods("PUT")
	chatRouter.Handle("/file", v1mware.RateLimit("chat_upload")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		v1chat.HandleSelectFile(maxUploadBytes, w, r)
	}))).Methods("POST")
	chatRouter.HandleFunc("/file", v1chat.HandleClearFile).Methods("DELETE")
	chatRouter.Handle("/submit", v1mware.RateLimit("chat_submit")(http.HandlerFunc(v1chat.HandleSubmit))).Methods("POST")
	chatRouter.HandleFunc("/error", v1chat.HandleDismissError).Methods("DELETE")
	chatRouter.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		v1websocket.HandleChatWebSocket(services.GetConnections(), w, r)
	}).Methods("GET")

	router.HandleFunc("/api/downloads/{id}", func(w http.ResponseWriter, r *http.Request) {
		v1downloads.HandleDownload(services.GetDownloadService(), w, r)
	}).Methods("GET")
}
