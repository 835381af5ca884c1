package http

import (
	"net/http"

	"casa/internal/session"
	"casa/internal/views"
)

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request, h *session.Household) {
	writeJSON(w, http.StatusOK, views.Dashboard(h.Snapshot(r.Context())))
}

func (s *Server) handleUsers(w http.ResponseWriter, r *http.Request, h *session.Household) {
	writeJSON(w, http.StatusOK, h.Store.Users(r.Context()))
}
