package http

import (
	"net/http"

	"github.com/shopspring/decimal"

	"casa/internal/commands"
	"casa/internal/core"
	"casa/internal/session"
	"casa/internal/views"
)

type expenseRequest struct {
	Description string   `json:"description"`
	Amount      string   `json:"amount"`
	PaidBy      string   `json:"paidBy"`
	Category    string   `json:"category"`
	SplitAmong  []string `json:"splitAmong"`
	Date        string   `json:"date"`
	Recurring   bool     `json:"recurring"`
	Frequency   string   `json:"frequency"`
}

type ledgerResponse struct {
	Rows  []views.LedgerRow `json:"rows"`
	Total decimal.Decimal   `json:"total"`
	Sort  views.SortState   `json:"sort"`
}

func (s *Server) handleListExpenses(w http.ResponseWriter, r *http.Request, h *session.Household) {
	q, err := ParseExpenseQuery(r.URL.Query(), s.now().Location())
	if err != nil {
		respondError(w, r, err)
		return
	}

	snap := h.Snapshot(r.Context())
	filtered := views.FilterExpenses(snap.Expenses, q.Filter)
	sorted := views.SortExpenses(filtered, q.Sort.Field, q.Sort.Direction)

	writeJSON(w, http.StatusOK, ledgerResponse{
		Rows:  views.LedgerRows(sorted, snap.Users),
		Total: views.TotalAmount(filtered),
		Sort:  q.Sort,
	})
}

// handleCreateExpense adds a one-off expense, or a recurring definition
// with its generated batch when recurring is set.
func (s *Server) handleCreateExpense(w http.ResponseWriter, r *http.Request, h *session.Household) {
	var req expenseRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, r, err)
		return
	}

	date, err := dateOr(req.Date, s.now())
	if err != nil {
		respondError(w, r, err)
		return
	}

	var cmd commands.Command
	if req.Recurring {
		cmd = commands.AddRecurringExpense{
			Description: sanitizeInput(req.Description),
			Amount:      req.Amount,
			PaidBy:      req.PaidBy,
			Category:    core.Category(req.Category),
			SplitAmong:  sanitizeAll(req.SplitAmong),
			Frequency:   core.Frequency(req.Frequency),
			StartDate:   date,
		}
	} else {
		cmd = commands.AddExpense{
			Description: sanitizeInput(req.Description),
			Amount:      req.Amount,
			PaidBy:      req.PaidBy,
			Category:    core.Category(req.Category),
			SplitAmong:  sanitizeAll(req.SplitAmong),
			Date:        date,
		}
	}
	s.dispatch(w, r, h, cmd)
}

func (s *Server) handleListRecurring(w http.ResponseWriter, r *http.Request, h *session.Household) {
	writeJSON(w, http.StatusOK, h.Snapshot(r.Context()).Recurring)
}

type analysisResponse struct {
	Summary string `json:"summary"`
}

// handleAnalyzeExpenses summarises the ledger under the same filter the
// listing uses.
func (s *Server) handleAnalyzeExpenses(w http.ResponseWriter, r *http.Request, h *session.Household) {
	q, err := ParseExpenseQuery(r.URL.Query(), s.now().Location())
	if err != nil {
		respondError(w, r, err)
		return
	}
	summary, err := h.AnalyzeExpenses(r.Context(), q.Filter)
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, analysisResponse{Summary: summary})
}

// dispatch applies cmd and answers 201 with the result, or maps the error.
func (s *Server) dispatch(w http.ResponseWriter, r *http.Request, h *session.Household, cmd commands.Command) {
	res, err := h.Dispatcher.Dispatch(r.Context(), cmd)
	if err != nil {
		respondError(w, r, err)
		return
	}
	status := http.StatusOK
	switch cmd.(type) {
	case commands.AddExpense, commands.AddRecurringExpense, commands.AddChore,
		commands.AddShoppingItem, commands.AddAnnouncement, commands.AddPoll, commands.AddEvent:
		status = http.StatusCreated
	}
	writeJSON(w, status, res)
}
