package api

import (
	"github.com/gorilla/mux"

	"github.com/acelee0621/memenote/internal/api/recovery"
	"github.com/acelee0621/memenote/internal/gateway/sse"
	"github.com/acelee0621/memenote/internal/gateway/ws"
	"github.com/acelee0621/memenote/internal/health"
	"github.com/acelee0621/memenote/internal/service"
)

// NewRouter creates the HTTP router with all routes: reminder CRUD, health,
// and the two notification gateways. monitor may be nil; health checks then
// ping the store per request.
func NewRouter(svc *service.ReminderService, hub *ws.Hub, stream *sse.Handler, db health.HealthPinger, monitor *health.ServiceHealthChecker) *mux.Router {
	router := mux.NewRouter()

	// Global middlewares
	router.Use(recovery.Middleware)

	reminderHandler := NewReminderHandler(svc)
	healthHandler := NewHealthHandler(db, monitor)

	// Health endpoints
	router.HandleFunc("/api/health", healthHandler.CheckHealth).Methods("GET")
	router.HandleFunc("/api/health/db", healthHandler.CheckStorageHealth).Methods("GET")

	// Reminder endpoints
	router.HandleFunc("/api/reminders", reminderHandler.CreateReminder).Methods("POST")
	router.HandleFunc("/api/reminders", reminderHandler.ListReminders).Methods("GET")
	router.HandleFunc("/api/reminders/{id:[0-9]+}", reminderHandler.GetReminder).Methods("GET")
	router.HandleFunc("/api/reminders/{id:[0-9]+}", reminderHandler.UpdateReminder).Methods("PATCH")
	router.HandleFunc("/api/reminders/{id:[0-9]+}", reminderHandler.DeleteReminder).Methods("DELETE")
	router.HandleFunc("/api/reminders/{id:[0-9]+}/acknowledge", reminderHandler.AcknowledgeReminder).Methods("POST")

	// Notification gateways
	router.HandleFunc("/ws", hub.HandleWebSocket).Methods("GET")
	router.HandleFunc("/notifications/stream", stream.Stream).Methods("GET")

	return router
}
