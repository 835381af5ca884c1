package memory

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"casa/internal/core"
)

// roster is the on-disk shape of a household file.
type roster struct {
	Users []struct {
		ID     string `yaml:"id"`
		Name   string `yaml:"name"`
		Avatar string `yaml:"avatar"`
		Color  string `yaml:"color"`
	} `yaml:"users"`
}

// DefaultUsers is the roster used when no household file is configured.
func DefaultUsers() []core.User {
	return []core.User{
		{ID: "u1", Name: "Alex", Avatar: "https://picsum.photos/seed/alex/200", Color: "blue"},
		{ID: "u2", Name: "Jordan", Avatar: "https://picsum.photos/seed/jordan/200", Color: "green"},
		{ID: "u3", Name: "Casey", Avatar: "https://picsum.photos/seed/casey/200", Color: "purple"},
	}
}

// LoadRoster reads household users from a YAML file. An empty path or a
// missing file yields the default roster.
func LoadRoster(path string) ([]core.User, error) {
	if strings.TrimSpace(path) == "" {
		return DefaultUsers(), nil
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return DefaultUsers(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("read household file: %w", err)
	}

	var r roster
	if err := yaml.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("parse household file: %w", err)
	}

	seen := make(map[string]struct{}, len(r.Users))
	users := make([]core.User, 0, len(r.Users))
	for _, u := range r.Users {
		id := strings.TrimSpace(u.ID)
		name := strings.TrimSpace(u.Name)
		if id == "" || name == "" {
			return nil, fmt.Errorf("household file: user needs id and name")
		}
		if _, ok := seen[id]; ok {
			return nil, fmt.Errorf("household file: duplicate user id %q", id)
		}
		seen[id] = struct{}{}
		users = append(users, core.User{ID: id, Name: name, Avatar: u.Avatar, Color: u.Color})
	}
	if len(users) == 0 {
		return DefaultUsers(), nil
	}
	return users, nil
}

// Showcase builds the demo household every new session starts with.
// Entities reference users by roster position, wrapping around for short
// rosters.
func Showcase(users []core.User, now time.Time) core.Snapshot {
	if len(users) == 0 {
		users = DefaultUsers()
	}
	pick := func(i int) string { return users[i%len(users)].ID }
	everyone := make([]string, 0, len(users))
	for _, u := range users {
		everyone = append(everyone, u.ID)
	}
	z := func(v int) *int { return &v }

	return core.Snapshot{
		Users: users,
		Expenses: []core.Expense{
			{ID: "ex1", Description: "Monthly Rent", Amount: decimal.NewFromInt(1500), PaidBy: pick(0),
				Date: now, Category: core.CategoryRent, SplitAmong: everyone},
			{ID: "ex2", Description: "Grocery Run", Amount: decimal.RequireFromString("124.50"), PaidBy: pick(1),
				Date: now.Add(-24 * time.Hour), Category: core.CategoryFood, SplitAmong: everyone},
			{ID: "ex3", Description: "Internet Bill", Amount: decimal.NewFromInt(80), PaidBy: pick(2),
				Date: now.Add(-48 * time.Hour), Category: core.CategoryUtilities, SplitAmong: everyone},
		},
		Announcements: []core.Announcement{
			{ID: "1", AuthorID: pick(0), Title: "Wifi Changed", Content: `New pass: "CleanHouse2024!"`,
				Date: now, Type: core.AnnouncementGeneral, Position: &core.Position{X: 50, Y: 50}, ZIndex: z(1)},
			{ID: "2", AuthorID: pick(2), Title: "Mom Visiting", Content: "My mom is coming this weekend, please hide the party supplies!",
				Date: now, Type: core.AnnouncementUrgent, Position: &core.Position{X: 350, Y: 400}, ZIndex: z(2)},
		},
		Events: []core.CalendarEvent{
			{ID: "e1", Title: "House Cleaning", Date: now, Time: "10:00", Type: core.EventHousehold,
				CreatedBy: pick(0), Reminder: true},
		},
		Polls: []core.Poll{
			{ID: "p1", Question: "Pizza tonight?", CreatedBy: pick(1), CreatedAt: now,
				Votes:  map[string]core.Vote{pick(0): core.VoteYes, pick(1): core.VoteYes},
				Status: core.PollOpen, Position: &core.Position{X: 50, Y: 350}, ZIndex: z(3)},
		},
		Ledger: core.LedgerPlacement{Position: core.Position{X: 650, Y: 50}, ZIndex: core.DefaultBaseOrder},
	}
}
