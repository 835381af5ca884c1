package http

import (
	"net/http"

	"casa/internal/commands"
	"casa/internal/core"
	"casa/internal/session"
	"casa/internal/views"
)

type choresResponse struct {
	Active  []core.Chore `json:"active"`
	History []core.Chore `json:"history"`
}

type choreRequest struct {
	Title      string `json:"title"`
	AssignedTo string `json:"assignedTo"`
	DueDate    string `json:"dueDate"`
	Frequency  string `json:"frequency"`
}

func (s *Server) handleListChores(w http.ResponseWriter, r *http.Request, h *session.Household) {
	active, history := views.PartitionChores(h.Snapshot(r.Context()).Chores)
	writeJSON(w, http.StatusOK, choresResponse{Active: active, History: history})
}

func (s *Server) handleCreateChore(w http.ResponseWriter, r *http.Request, h *session.Household) {
	var req choreRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	due, err := parseDate(req.DueDate, s.now().Location())
	if err != nil {
		respondError(w, r, err)
		return
	}
	s.dispatch(w, r, h, commands.AddChore{
		Title:      sanitizeInput(req.Title),
		AssignedTo: req.AssignedTo,
		DueDate:    due,
		Frequency:  core.ChoreFrequency(req.Frequency),
	})
}

func (s *Server) handleToggleChore(w http.ResponseWriter, r *http.Request, h *session.Household) {
	s.dispatch(w, r, h, commands.ToggleChore{ID: r.PathValue("id")})
}

func (s *Server) handleAutoAssign(w http.ResponseWriter, r *http.Request, h *session.Household) {
	res, err := h.AutoAssignChores(r.Context())
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

type shoppingResponse struct {
	Shelves  [][]core.ShoppingItem `json:"shelves"`
	Pending  int                   `json:"pending"`
	Complete []core.ShoppingItem   `json:"complete"`
}

type shoppingRequest struct {
	Name    string `json:"name"`
	AddedBy string `json:"addedBy"`
}

// handleListShopping lays pending items out on shelves sized for the
// caller's viewport width.
func (s *Server) handleListShopping(w http.ResponseWriter, r *http.Request, h *session.Household) {
	pending, done := views.PartitionShopping(h.Snapshot(r.Context()).Shopping)
	writeJSON(w, http.StatusOK, shoppingResponse{
		Shelves:  views.Shelves(pending, views.ShelfCapacity(ParseWidth(r.URL.Query()))),
		Pending:  len(pending),
		Complete: done,
	})
}

// handleCreateShoppingItem categorises the item with the assistant before
// adding it.
func (s *Server) handleCreateShoppingItem(w http.ResponseWriter, r *http.Request, h *session.Household) {
	var req shoppingRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	res, err := h.AddShoppingItem(r.Context(), sanitizeInput(req.Name), req.AddedBy)
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, res)
}

func (s *Server) handleToggleShoppingItem(w http.ResponseWriter, r *http.Request, h *session.Household) {
	s.dispatch(w, r, h, commands.ToggleShoppingItem{ID: r.PathValue("id")})
}

func (s *Server) handleDeleteShoppingItem(w http.ResponseWriter, r *http.Request, h *session.Household) {
	s.dispatch(w, r, h, commands.DeleteShoppingItem{ID: r.PathValue("id")})
}

type eventRequest struct {
	Title       string `json:"title"`
	Date        string `json:"date"`
	Time        string `json:"time"`
	Type        string `json:"type"`
	CreatedBy   string `json:"createdBy"`
	Description string `json:"description"`
	Reminder    bool   `json:"reminder"`
}

type calendarResponse struct {
	Day    string               `json:"day"`
	Events []core.CalendarEvent `json:"events"`
}

func (s *Server) handleListEvents(w http.ResponseWriter, r *http.Request, h *session.Household) {
	day, err := ParseDay(r.URL.Query(), s.now())
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, calendarResponse{
		Day:    day.Format(dateLayout),
		Events: views.EventsForDay(h.Snapshot(r.Context()).Events, day),
	})
}

func (s *Server) handleCreateEvent(w http.ResponseWriter, r *http.Request, h *session.Household) {
	var req eventRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	date, err := dateOr(req.Date, s.now())
	if err != nil {
		respondError(w, r, err)
		return
	}
	s.dispatch(w, r, h, commands.AddEvent{
		Title:       sanitizeInput(req.Title),
		Date:        date,
		Time:        req.Time,
		Type:        core.EventType(req.Type),
		CreatedBy:   req.CreatedBy,
		Description: sanitizeInput(req.Description),
		Reminder:    req.Reminder,
	})
}
