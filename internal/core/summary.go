package core

import "github.com/shopspring/decimal"

// CategoryAmount represents an amount aggregated by expense category.
type CategoryAmount struct {
	Category Category        `json:"category"`
	Amount   decimal.Decimal `json:"amount"`
}

// Announcement shown on the dashboard when the board is empty.
const NoNewsTitle = "No news is good news"
