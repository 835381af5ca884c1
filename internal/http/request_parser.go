package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"casa/internal/core"
	"casa/internal/views"
)

const dateLayout = "2006-01-02"

// errBadRequest marks malformed input that is not a validation skip.
var errBadRequest = errors.New("bad request")

func badRequest(format string, args ...any) error {
	return fmt.Errorf("%w: %s", errBadRequest, fmt.Sprintf(format, args...))
}

// decodeBody decodes a JSON request body into v. An empty body leaves v at
// its zero value.
func decodeBody(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		var maxBytes *http.MaxBytesError
		if errors.As(err, &maxBytes) {
			return err
		}
		return badRequest("invalid JSON body: %v", err)
	}
	if dec.More() {
		return badRequest("unexpected data after JSON body")
	}
	return nil
}

// parseDate parses a YYYY-MM-DD date in loc. Empty input yields the zero
// time.
func parseDate(s string, loc *time.Location) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, nil
	}
	t, err := time.ParseInLocation(dateLayout, s, loc)
	if err != nil {
		return time.Time{}, badRequest("invalid date %q", s)
	}
	return t, nil
}

// ExpenseQuery holds the ledger's filter and sort parameters.
type ExpenseQuery struct {
	Filter views.ExpenseFilter
	Sort   views.SortState
}

// ParseExpenseQuery reads category, payer, from, to, sort and dir. Unknown
// sort values fall back to the default ordering; malformed dates are
// rejected.
func ParseExpenseQuery(q url.Values, loc *time.Location) (ExpenseQuery, error) {
	out := ExpenseQuery{Sort: views.DefaultSort()}

	if c := strings.TrimSpace(q.Get("category")); c != "" {
		cat := core.Category(c)
		if !cat.IsValid() {
			return out, badRequest("unknown category %q", c)
		}
		out.Filter.Category = cat
	}
	out.Filter.PayerID = strings.TrimSpace(q.Get("payer"))

	var err error
	if out.Filter.DateFrom, err = parseDate(q.Get("from"), loc); err != nil {
		return out, err
	}
	if out.Filter.DateTo, err = parseDate(q.Get("to"), loc); err != nil {
		return out, err
	}

	if f, ok := views.ParseSortField(q.Get("sort")); ok {
		out.Sort.Field = f
	}
	if d, ok := views.ParseSortDirection(q.Get("dir")); ok {
		out.Sort.Direction = d
	}
	return out, nil
}

// ParseDay reads the calendar day, defaulting to today in now's location.
func ParseDay(q url.Values, now time.Time) (time.Time, error) {
	v := strings.TrimSpace(q.Get("day"))
	if v == "" {
		y, m, d := now.Date()
		return time.Date(y, m, d, 0, 0, 0, 0, now.Location()), nil
	}
	return parseDate(v, now.Location())
}

// ParseWidth reads the viewport width used for shelf layout; missing or
// invalid values count as a wide screen.
func ParseWidth(q url.Values) int {
	if v := strings.TrimSpace(q.Get("width")); v != "" {
		if w, err := strconv.Atoi(v); err == nil && w > 0 {
			return w
		}
	}
	return 1280
}

// ParseItemRef reads the {kind}/{id} path values.
func ParseItemRef(r *http.Request) (core.ItemRef, error) {
	ref := core.ItemRef{Kind: core.ItemKind(r.PathValue("kind")), ID: r.PathValue("id")}
	if !ref.Kind.IsValid() || ref.ID == "" {
		return ref, badRequest("invalid board item %q", ref.String())
	}
	return ref, nil
}
