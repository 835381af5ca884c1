package http

import (
	"net/http"

	"github.com/shopspring/decimal"

	"casa/internal/board"
	"casa/internal/commands"
	"casa/internal/core"
	"casa/internal/session"
	"casa/internal/views"
)

type (
	boardItem struct {
		board.ItemState
		Poll  *pollView          `json:"poll,omitempty"`
		Note  *core.Announcement `json:"note,omitempty"`
		Total *decimal.Decimal   `json:"total,omitempty"`
	}

	pollView struct {
		core.Poll
		Tally views.Tally `json:"tally"`
	}

	boardResponse struct {
		Items []boardItem `json:"items"`
	}

	noteRequest struct {
		AuthorID string         `json:"authorId"`
		Title    string         `json:"title"`
		Content  string         `json:"content"`
		Type     string         `json:"type"`
		Position *core.Position `json:"position"`
	}

	pollRequest struct {
		Question  string         `json:"question"`
		CreatedBy string         `json:"createdBy"`
		Position  *core.Position `json:"position"`
	}

	voteRequest struct {
		UserID string `json:"userId"`
		Vote   string `json:"vote"`
	}

	frontResponse struct {
		Ref   core.ItemRef `json:"ref"`
		Order int          `json:"order"`
	}

	beginDragRequest struct {
		Kind       string        `json:"kind"`
		ID         string        `json:"id"`
		Button     int           `json:"button"`
		Pointer    core.Position `json:"pointer"`
		ItemOrigin core.Position `json:"itemOrigin"`
		OnHandle   bool          `json:"onHandle"`
	}

	dragResponse struct {
		DragID       string        `json:"dragId"`
		Ref          core.ItemRef  `json:"ref"`
		Offset       core.Position `json:"offset"`
		Position     core.Position `json:"position"`
		DisplayOrder int           `json:"displayOrder"`
	}

	// moveRequest carries the board container's viewport origin. A missing
	// container means the client could not resolve it.
	moveRequest struct {
		DragID    string         `json:"dragId"`
		Pointer   core.Position  `json:"pointer"`
		Container *core.Position `json:"container"`
	}

	dragIDRequest struct {
		DragID string `json:"dragId"`
	}

	positionResponse struct {
		Ref      core.ItemRef  `json:"ref"`
		Position core.Position `json:"position"`
	}

	draftNoteRequest struct {
		Topic string `json:"topic"`
		Tone  string `json:"tone"`
	}

	draftPollRequest struct {
		Draft string `json:"draft"`
	}

	draftResponse struct {
		Text string `json:"text"`
	}
)

// handleBoard returns every corkboard item in its layout state together with
// the entity it renders.
func (s *Server) handleBoard(w http.ResponseWriter, r *http.Request, h *session.Household) {
	h.SyncBoard(r.Context())
	snap := h.Snapshot(r.Context())

	polls := make(map[string]core.Poll, len(snap.Polls))
	for _, p := range snap.Polls {
		polls[p.ID] = p
	}
	notes := make(map[string]core.Announcement, len(snap.Announcements))
	for _, a := range snap.Announcements {
		notes[a.ID] = a
	}

	layout := h.Board.Layout()
	items := make([]boardItem, 0, len(layout))
	for _, st := range layout {
		item := boardItem{ItemState: st}
		switch st.Ref.Kind {
		case core.KindPoll:
			p, ok := polls[st.Ref.ID]
			if !ok {
				continue
			}
			item.Poll = &pollView{Poll: p, Tally: views.PollTally(p)}
		case core.KindAnnouncement:
			a, ok := notes[st.Ref.ID]
			if !ok {
				continue
			}
			item.Note = &a
		case core.KindLedger:
			total := views.TotalAmount(snap.Expenses)
			item.Total = &total
		}
		items = append(items, item)
	}
	writeJSON(w, http.StatusOK, boardResponse{Items: items})
}

func (s *Server) handleCreateNote(w http.ResponseWriter, r *http.Request, h *session.Household) {
	var req noteRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	s.dispatch(w, r, h, commands.AddAnnouncement{
		AuthorID: req.AuthorID,
		Title:    sanitizeInput(req.Title),
		Content:  sanitizeInput(req.Content),
		Type:     core.AnnouncementType(req.Type),
		Position: req.Position,
	})
}

func (s *Server) handleCreatePoll(w http.ResponseWriter, r *http.Request, h *session.Household) {
	var req pollRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	s.dispatch(w, r, h, commands.AddPoll{
		Question:  sanitizeInput(req.Question),
		CreatedBy: req.CreatedBy,
		Position:  req.Position,
	})
}

func (s *Server) handleVote(w http.ResponseWriter, r *http.Request, h *session.Household) {
	var req voteRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	s.dispatch(w, r, h, commands.Vote{
		PollID: r.PathValue("id"),
		UserID: req.UserID,
		Vote:   core.Vote(req.Vote),
	})
}

func (s *Server) handleBringToFront(w http.ResponseWriter, r *http.Request, h *session.Household) {
	ref, err := ParseItemRef(r)
	if err != nil {
		respondError(w, r, err)
		return
	}
	order, err := h.Board.BringToFront(r.Context(), ref)
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, frontResponse{Ref: ref, Order: order})
}

func (s *Server) handleBeginDrag(w http.ResponseWriter, r *http.Request, h *session.Household) {
	var req beginDragRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	ref := core.ItemRef{Kind: core.ItemKind(req.Kind), ID: req.ID}
	if !ref.Kind.IsValid() || ref.ID == "" {
		respondError(w, r, badRequest("invalid board item %q", ref.String()))
		return
	}

	d, err := h.Board.BeginDrag(r.Context(), ref, board.Press{
		Button:     req.Button,
		Pointer:    req.Pointer,
		ItemOrigin: req.ItemOrigin,
		OnHandle:   req.OnHandle,
	})
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, dragResponse{
		DragID:       d.ID(),
		Ref:          ref,
		Offset:       d.Offset(),
		Position:     d.Position(),
		DisplayOrder: h.Board.DisplayOrder(ref),
	})
}

func (s *Server) handleDragMove(w http.ResponseWriter, r *http.Request, h *session.Household) {
	var req moveRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	d, err := activeDrag(h, req.DragID)
	if err != nil {
		respondError(w, r, err)
		return
	}

	var container board.ContainerLocator
	if req.Container != nil {
		container = board.FixedContainer(*req.Container)
	}
	pos, err := d.Move(req.Pointer, container)
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, positionResponse{Ref: d.Ref(), Position: pos})
}

func (s *Server) handleDragEnd(w http.ResponseWriter, r *http.Request, h *session.Household) {
	var req dragIDRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	d, err := activeDrag(h, req.DragID)
	if err != nil {
		respondError(w, r, err)
		return
	}
	pos, err := d.End(r.Context())
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, positionResponse{Ref: d.Ref(), Position: pos})
}

func (s *Server) handleDragAbort(w http.ResponseWriter, r *http.Request, h *session.Household) {
	var req dragIDRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	d, err := activeDrag(h, req.DragID)
	if err != nil {
		respondError(w, r, err)
		return
	}
	d.Abort()
	pos, _ := h.Board.Position(d.Ref())
	writeJSON(w, http.StatusOK, positionResponse{Ref: d.Ref(), Position: pos})
}

// activeDrag returns the household's drag in progress when its id matches.
func activeDrag(h *session.Household, id string) (*board.Drag, error) {
	d, ok := h.Board.Active()
	if !ok || d.ID() != id {
		return nil, board.ErrNoActiveDrag
	}
	return d, nil
}

func (s *Server) handleDraftAnnouncement(w http.ResponseWriter, r *http.Request, h *session.Household) {
	var req draftNoteRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	topic := sanitizeInput(req.Topic)
	if topic == "" {
		respondError(w, r, core.ErrEmptyTitle)
		return
	}
	text, err := h.DraftAnnouncement(r.Context(), topic, sanitizeInput(req.Tone))
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, draftResponse{Text: text})
}

func (s *Server) handleRewritePoll(w http.ResponseWriter, r *http.Request, h *session.Household) {
	var req draftPollRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	draft := sanitizeInput(req.Draft)
	if draft == "" {
		respondError(w, r, core.ErrEmptyQuestion)
		return
	}
	text, err := h.RewritePoll(r.Context(), draft)
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, draftResponse{Text: text})
}
