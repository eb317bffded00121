package server

import (
	"github.com/go-chi/chi/v5"

	"github.com/gosuda/taskboard/internal/api/ws"
)

func registerWSRoutes(r chi.Router, hub *ws.Hub) {
	r.Get("/ws/toasts", hub.ServeToasts)
}
