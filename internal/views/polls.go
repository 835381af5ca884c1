package views

import "casa/internal/core"

// Tally is the vote count of a poll.
type Tally struct {
	Yes        int     `json:"yes"`
	No         int     `json:"no"`
	Total      int     `json:"total"`
	YesPercent float64 `json:"yesPercent"`
	NoPercent  float64 `json:"noPercent"`
}

// PollTally counts votes. Percentages are zero when nobody voted.
func PollTally(p core.Poll) Tally {
	var t Tally
	for _, v := range p.Votes {
		switch v {
		case core.VoteYes:
			t.Yes++
		case core.VoteNo:
			t.No++
		}
	}
	t.Total = t.Yes + t.No
	if t.Total > 0 {
		t.YesPercent = float64(t.Yes) / float64(t.Total) * 100
		t.NoPercent = float64(t.No) / float64(t.Total) * 100
	}
	return t
}
