package commands

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/google/uuid"

	"casa/internal/amqp"
	"casa/internal/core"
	"casa/internal/metrics"
	"casa/internal/recurrence"
	"casa/internal/store"
)

// Default values taken when the form leaves a field empty.
const (
	DefaultEventTime = "12:00"
	DefaultChoreDue  = 7 * 24 * time.Hour
)

// EventPublisher receives a notice after every applied command.
type EventPublisher interface {
	PublishCommandApplied(ctx context.Context, msg *amqp.CommandApplied) error
}

// Board is the slice of the layout controller the dispatcher needs to
// place newly created corkboard items.
type Board interface {
	NextOrder() int
	Add(p core.Placement)
}

type Dispatcher struct {
	household string
	store     store.Store
	publisher EventPublisher
	board     Board
	metrics   *metrics.Metrics
	now       func() time.Time
	randFloat func() float64
}

type Option func(*Dispatcher)

// WithPublisher publishes CommandApplied events after each mutation.
func WithPublisher(p EventPublisher) Option {
	return func(d *Dispatcher) { d.publisher = p }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(d *Dispatcher) { d.metrics = m }
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(d *Dispatcher) { d.now = now }
}

// WithRand overrides the source used for random board positions. f must
// return values in [0, 1).
func WithRand(f func() float64) Option {
	return func(d *Dispatcher) { d.randFloat = f }
}

func NewDispatcher(household string, s store.Store, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		household: household,
		store:     s,
		now:       time.Now,
		randFloat: rand.Float64,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// AttachBoard connects the layout controller once it exists. The controller
// itself commits through the dispatcher, so it is built after it.
func (d *Dispatcher) AttachBoard(b Board) {
	d.board = b
}

// Dispatch applies cmd to the household store. Commands lacking required
// input return an error wrapping core.ErrValidationSkip and change nothing.
func (d *Dispatcher) Dispatch(ctx context.Context, cmd Command) (Result, error) {
	res, err := d.apply(ctx, cmd)
	kind := string(cmd.Kind())
	switch {
	case errors.Is(err, core.ErrValidationSkip):
		d.metrics.CommandDispatched(kind, metrics.OutcomeSkipped)
		slog.DebugContext(ctx, "Command skipped", "kind", kind, "reason", err)
		return Result{Kind: cmd.Kind()}, err
	case err != nil:
		d.metrics.CommandDispatched(kind, metrics.OutcomeError)
		return Result{Kind: cmd.Kind()}, fmt.Errorf("dispatch %s: %w", kind, err)
	}
	d.metrics.CommandDispatched(kind, metrics.OutcomeOK)
	res.Kind = cmd.Kind()
	d.publish(ctx, res)
	return res, nil
}

func (d *Dispatcher) apply(ctx context.Context, cmd Command) (Result, error) {
	switch c := cmd.(type) {
	case AddExpense:
		return d.addExpense(ctx, c)
	case AddRecurringExpense:
		return d.addRecurring(ctx, c)
	case AddChore:
		return d.addChore(ctx, c)
	case ToggleChore:
		chore, err := d.store.ToggleChore(ctx, c.ID)
		return Result{EntityID: c.ID, Entity: chore}, err
	case AddShoppingItem:
		return d.addItem(ctx, c)
	case ToggleShoppingItem:
		it, err := d.store.ToggleItem(ctx, c.ID)
		return Result{EntityID: c.ID, Entity: it}, err
	case DeleteShoppingItem:
		return Result{EntityID: c.ID}, d.store.DeleteItem(ctx, c.ID)
	case AddAnnouncement:
		return d.addAnnouncement(ctx, c)
	case AddPoll:
		return d.addPoll(ctx, c)
	case Vote:
		if !c.Vote.IsValid() {
			return Result{}, core.ErrInvalidVote
		}
		p, err := d.store.Vote(ctx, c.PollID, c.UserID, c.Vote)
		return Result{EntityID: c.PollID, Entity: p}, err
	case UpdatePosition:
		return Result{EntityID: c.Ref.ID}, d.store.SetPosition(ctx, c.Ref, c.Position)
	case UpdateOrder:
		return Result{EntityID: c.Ref.ID}, d.store.SetOrder(ctx, c.Ref, c.Order)
	case AddEvent:
		return d.addEvent(ctx, c)
	default:
		return Result{}, fmt.Errorf("unknown command %T", cmd)
	}
}

func (d *Dispatcher) addExpense(ctx context.Context, c AddExpense) (Result, error) {
	tmpl, err := d.template(ctx, c.Description, c.Amount, c.PaidBy, c.Category, c.SplitAmong)
	if err != nil {
		return Result{}, err
	}
	e := core.Expense{
		ID:          newID("exp"),
		Description: tmpl.Description,
		Amount:      tmpl.Amount,
		PaidBy:      tmpl.PaidBy,
		Date:        c.Date,
		Category:    tmpl.Category,
		SplitAmong:  tmpl.SplitAmong,
	}
	if e.Date.IsZero() {
		e.Date = d.now()
	}
	if err := d.store.AddExpense(ctx, e); err != nil {
		return Result{}, err
	}
	return Result{EntityID: e.ID, Entity: e}, nil
}

func (d *Dispatcher) addRecurring(ctx context.Context, c AddRecurringExpense) (Result, error) {
	if !c.Frequency.IsValid() {
		return Result{}, core.ErrInvalidFrequency
	}
	tmpl, err := d.template(ctx, c.Description, c.Amount, c.PaidBy, c.Category, c.SplitAmong)
	if err != nil {
		return Result{}, err
	}
	start := c.StartDate
	if start.IsZero() {
		start = d.now()
	}
	def, instances := recurrence.Expand(tmpl, c.Frequency, start)
	if err := d.store.AddRecurring(ctx, def, instances); err != nil {
		return Result{}, err
	}
	ids := make([]string, len(instances))
	for i, e := range instances {
		ids[i] = e.ID
	}
	return Result{EntityID: def.ID, Entity: def, Generated: ids}, nil
}

// template validates the shared expense fields and fills in the payer and
// participant defaults.
func (d *Dispatcher) template(ctx context.Context, desc, amount, paidBy string, cat core.Category, split []string) (core.ExpenseTemplate, error) {
	if strings.TrimSpace(desc) == "" {
		return core.ExpenseTemplate{}, core.ErrEmptyDescription
	}
	amt, err := core.ParseAmount(amount)
	if err != nil {
		return core.ExpenseTemplate{}, err
	}
	if !cat.IsValid() {
		cat = core.CategoryOther
	}
	users := d.store.Users(ctx)
	if paidBy == "" && len(users) > 0 {
		paidBy = users[0].ID
	}
	if len(split) == 0 {
		split = make([]string, len(users))
		for i, u := range users {
			split[i] = u.ID
		}
	}
	tmpl := core.ExpenseTemplate{
		Description: strings.TrimSpace(desc),
		Amount:      amt,
		PaidBy:      paidBy,
		Category:    cat,
		SplitAmong:  append([]string(nil), split...),
	}
	return tmpl, tmpl.Validate()
}

func (d *Dispatcher) addChore(ctx context.Context, c AddChore) (Result, error) {
	ch := core.Chore{
		ID:         newID("chore"),
		Title:      strings.TrimSpace(c.Title),
		AssignedTo: c.AssignedTo,
		DueDate:    c.DueDate,
		Frequency:  c.Frequency,
	}
	if err := ch.Validate(); err != nil {
		return Result{}, err
	}
	if ch.AssignedTo == "" {
		ch.AssignedTo = d.firstUser(ctx)
	}
	if ch.DueDate.IsZero() {
		ch.DueDate = d.now().Add(DefaultChoreDue)
	}
	if !ch.Frequency.IsValid() {
		ch.Frequency = core.ChoreOnce
	}
	if err := d.store.AddChore(ctx, ch); err != nil {
		return Result{}, err
	}
	return Result{EntityID: ch.ID, Entity: ch}, nil
}

func (d *Dispatcher) addItem(ctx context.Context, c AddShoppingItem) (Result, error) {
	it := core.ShoppingItem{
		ID:       newID("item"),
		Name:     strings.TrimSpace(c.Name),
		AddedBy:  c.AddedBy,
		Category: c.Category,
	}
	if err := it.Validate(); err != nil {
		return Result{}, err
	}
	if it.AddedBy == "" {
		it.AddedBy = d.firstUser(ctx)
	}
	if err := d.store.AddItem(ctx, it); err != nil {
		return Result{}, err
	}
	return Result{EntityID: it.ID, Entity: it}, nil
}

func (d *Dispatcher) addAnnouncement(ctx context.Context, c AddAnnouncement) (Result, error) {
	a := core.Announcement{
		ID:       newID("note"),
		AuthorID: c.AuthorID,
		Title:    strings.TrimSpace(c.Title),
		Content:  c.Content,
		Date:     d.now(),
		Type:     c.Type,
	}
	if err := a.Validate(); err != nil {
		return Result{}, err
	}
	if a.AuthorID == "" {
		a.AuthorID = d.firstUser(ctx)
	}
	if !a.Type.IsValid() {
		a.Type = core.AnnouncementGeneral
	}
	pos, order := d.placeNew(c.Position)
	a.Position, a.ZIndex = &pos, &order
	if err := d.store.AddAnnouncement(ctx, a); err != nil {
		return Result{}, err
	}
	d.register(core.ItemRef{Kind: core.KindAnnouncement, ID: a.ID}, pos, order)
	return Result{EntityID: a.ID, Entity: a}, nil
}

func (d *Dispatcher) addPoll(ctx context.Context, c AddPoll) (Result, error) {
	p := core.Poll{
		ID:        newID("poll"),
		Question:  strings.TrimSpace(c.Question),
		CreatedBy: c.CreatedBy,
		CreatedAt: d.now(),
		Votes:     map[string]core.Vote{},
		Status:    core.PollOpen,
	}
	if err := p.Validate(); err != nil {
		return Result{}, err
	}
	if p.CreatedBy == "" {
		p.CreatedBy = d.firstUser(ctx)
	}
	pos, order := d.placeNew(c.Position)
	p.Position, p.ZIndex = &pos, &order
	if err := d.store.AddPoll(ctx, p); err != nil {
		return Result{}, err
	}
	d.register(core.ItemRef{Kind: core.KindPoll, ID: p.ID}, pos, order)
	return Result{EntityID: p.ID, Entity: p}, nil
}

func (d *Dispatcher) addEvent(ctx context.Context, c AddEvent) (Result, error) {
	e := core.CalendarEvent{
		ID:          newID("evt"),
		Title:       strings.TrimSpace(c.Title),
		Date:        c.Date,
		Time:        c.Time,
		Type:        c.Type,
		CreatedBy:   c.CreatedBy,
		Description: c.Description,
		Reminder:    c.Reminder,
	}
	if err := e.Validate(); err != nil {
		return Result{}, err
	}
	if e.Date.IsZero() {
		e.Date = d.now()
	}
	if e.Time == "" {
		e.Time = DefaultEventTime
	}
	if !e.Type.IsValid() {
		e.Type = core.EventHousehold
	}
	if e.CreatedBy == "" {
		e.CreatedBy = d.firstUser(ctx)
	}
	if err := d.store.AddEvent(ctx, e); err != nil {
		return Result{}, err
	}
	return Result{EntityID: e.ID, Entity: e}, nil
}

// placeNew picks the position and stacking order of a new corkboard item:
// the requested position or a random one in x∈[50,250), y∈[50,150), on top
// of everything else.
func (d *Dispatcher) placeNew(requested *core.Position) (core.Position, int) {
	pos := core.Position{X: d.randFloat()*200 + 50, Y: d.randFloat()*100 + 50}
	if requested != nil {
		pos = *requested
	}
	order := core.DefaultBaseOrder + 1
	if d.board != nil {
		order = d.board.NextOrder()
	}
	return pos, order
}

func (d *Dispatcher) register(ref core.ItemRef, pos core.Position, order int) {
	if d.board != nil {
		d.board.Add(core.Placement{Ref: ref, Position: pos, ZIndex: order})
	}
}

func (d *Dispatcher) firstUser(ctx context.Context) string {
	users := d.store.Users(ctx)
	if len(users) == 0 {
		return ""
	}
	return users[0].ID
}

// publish sends the event feed notice. Failures are logged only; the
// mutation already happened.
func (d *Dispatcher) publish(ctx context.Context, res Result) {
	if d.publisher == nil {
		return
	}
	msg := amqp.NewCommandApplied(d.household, string(res.Kind), res.EntityID)
	if err := d.publisher.PublishCommandApplied(ctx, msg); err != nil {
		d.metrics.EventPublished(metrics.OutcomeError)
		slog.ErrorContext(ctx, "Failed to publish command event",
			"household", d.household,
			"kind", res.Kind,
			"entity_id", res.EntityID,
			"error", err)
		return
	}
	d.metrics.EventPublished(metrics.OutcomeOK)
}

func newID(prefix string) string {
	return prefix + "-" + uuid.NewString()
}
