package assistant

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"casa/internal/core"
	"casa/internal/metrics"
)

const DefaultTimeout = 15 * time.Second

// Fallback values returned when the service fails.
const (
	SummaryUnavailable = "AI service temporarily unavailable."
	SummaryEmpty       = "Unable to analyze expenses at this time."
)

// Shopping shelf categories.
const (
	CategorySnacks       = "Snacks"
	CategoryCannedGoods  = "Canned Goods"
	CategoryFreshProduce = "Fresh Produce"
	CategoryMeatAndFish  = "Meat and Fish"
	CategoryHousehold    = "Household Items"
)

// Call names used in logs and metrics.
const (
	CallChores     = "suggest_chores"
	CallSummary    = "summarize_expenses"
	CallAnnounce   = "draft_announcement"
	CallPoll       = "rewrite_poll"
	CallCategorize = "categorize_item"
)

// ChoreSuggestion is one assignment proposed by the service.
type ChoreSuggestion struct {
	Title          string `json:"title"`
	AssignedToName string `json:"assignedToName"`
	Frequency      string `json:"frequency"`
}

// Advisor implements the household assistant calls with fallbacks.
type Advisor struct {
	completer Completer
	timeout   time.Duration
	metrics   *metrics.Metrics
}

// NewAdvisor wraps c. A nil completer makes every call return its fallback.
func NewAdvisor(c Completer, timeout time.Duration, m *metrics.Metrics) *Advisor {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Advisor{completer: c, timeout: timeout, metrics: m}
}

// SuggestChoreAssignments asks for a fair split of tasks among users. It
// returns an empty list on any failure.
func (a *Advisor) SuggestChoreAssignments(ctx context.Context, users []core.User, tasks []string) []ChoreSuggestion {
	names := make([]string, len(users))
	for i, u := range users {
		names[i] = u.Name
	}
	prompt := fmt.Sprintf("Assign the following household tasks fairly among these roommates: %s.\n"+
		"Tasks: %s.\n"+
		"Return a JSON array where each object has 'title', 'assignedToName', and 'frequency' (Weekly).",
		strings.Join(names, ", "), strings.Join(tasks, ", "))

	text, err := a.complete(ctx, CallChores, Prompt{Text: prompt, JSON: true})
	if err != nil {
		return []ChoreSuggestion{}
	}

	var out []ChoreSuggestion
	if err := json.Unmarshal([]byte(stripFence(text)), &out); err != nil {
		slog.WarnContext(ctx, "Discarding malformed chore suggestions", "error", err)
		a.metrics.AssistantCall(CallChores, metrics.OutcomeFallback, 0)
		return []ChoreSuggestion{}
	}
	if out == nil {
		out = []ChoreSuggestion{}
	}
	return out
}

// SummarizeExpenses returns a short friendly summary of the given expenses.
func (a *Advisor) SummarizeExpenses(ctx context.Context, expenses []core.Expense, users []core.User) string {
	byID := make(map[string]string, len(users))
	for _, u := range users {
		byID[u.ID] = u.Name
	}
	lines := make([]string, len(expenses))
	for i, e := range expenses {
		lines[i] = fmt.Sprintf("%s: %s (Category: %s, Paid by: %s)",
			e.Description, core.FormatAmount(e.Amount), e.Category, byID[e.PaidBy])
	}
	prompt := "Analyze these household expenses and provide a brief, friendly summary (max 3 sentences).\n" +
		"Identify who has paid the most and if there are any spending trends.\n" +
		"Expenses:\n" + strings.Join(lines, "\n")

	text, err := a.complete(ctx, CallSummary, Prompt{Text: prompt})
	switch {
	case errors.Is(err, ErrEmptyReply):
		return SummaryEmpty
	case err != nil:
		return SummaryUnavailable
	}
	return text
}

// DraftAnnouncement writes a short notice about topic. Empty on failure.
func (a *Advisor) DraftAnnouncement(ctx context.Context, topic, tone string) string {
	prompt := fmt.Sprintf("Write a short house announcement about %q. The tone should be %s. Keep it under 50 words.", topic, tone)
	text, err := a.complete(ctx, CallAnnounce, Prompt{Text: prompt})
	if err != nil {
		return ""
	}
	return text
}

// RewritePollProposal rephrases a proposal for a vote. The draft comes back
// unchanged on failure.
func (a *Advisor) RewritePollProposal(ctx context.Context, draft string) string {
	prompt := fmt.Sprintf("Rewrite this household proposal to be neutral, clear, and persuasive for a vote: %q. Keep it under 20 words.", draft)
	text, err := a.complete(ctx, CallPoll, Prompt{Text: prompt})
	if err != nil {
		return draft
	}
	return text
}

// CategorizeItem picks a shelf category for a shopping item.
func (a *Advisor) CategorizeItem(ctx context.Context, name string) string {
	prompt := fmt.Sprintf("Categorize the shopping item %q into exactly one of these categories:\n"+
		"- Snacks\n- Canned Goods\n- Fresh Produce\n- Meat and Fish\n- Household Items\n\n"+
		"Return ONLY the category name.", name)
	text, err := a.complete(ctx, CallCategorize, Prompt{Text: prompt})
	if err != nil {
		return CategoryHousehold
	}
	return CategoryFromText(text)
}

// CategoryFromText maps free text to a shelf category. Matching is
// case-sensitive and ordered: Snack, Canned, Produce, Meat or Fish,
// Household.
func CategoryFromText(text string) string {
	switch {
	case strings.Contains(text, "Snack"):
		return CategorySnacks
	case strings.Contains(text, "Canned"):
		return CategoryCannedGoods
	case strings.Contains(text, "Produce"):
		return CategoryFreshProduce
	case strings.Contains(text, "Meat"), strings.Contains(text, "Fish"):
		return CategoryMeatAndFish
	default:
		return CategoryHousehold
	}
}

// complete runs one call under the advisor timeout. The returned error is
// ErrUnavailable or ErrEmptyReply (wrapped).
func (a *Advisor) complete(ctx context.Context, call string, p Prompt) (string, error) {
	if a == nil {
		return "", ErrUnavailable
	}
	if a.completer == nil {
		a.metrics.AssistantCall(call, metrics.OutcomeFallback, 0)
		return "", ErrUnavailable
	}
	start := time.Now()

	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	text, err := a.completer.Complete(ctx, p)
	elapsed := time.Since(start)
	if err != nil {
		a.metrics.AssistantCall(call, metrics.OutcomeError, elapsed)
		slog.WarnContext(ctx, "Assistant call failed", "call", call, "duration_ms", elapsed.Milliseconds(), "error", err)
		return "", fmt.Errorf("%w: %s: %v", ErrUnavailable, call, err)
	}
	text = strings.TrimSpace(text)
	if text == "" {
		a.metrics.AssistantCall(call, metrics.OutcomeFallback, elapsed)
		return "", fmt.Errorf("%w: %s", ErrEmptyReply, call)
	}
	a.metrics.AssistantCall(call, metrics.OutcomeOK, elapsed)
	slog.DebugContext(ctx, "Assistant call completed", "call", call, "duration_ms", elapsed.Milliseconds())
	return text, nil
}

// stripFence removes a markdown code fence around a JSON reply.
func stripFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}
