package core

import (
	"time"

	"github.com/google/uuid"
)

// Settings holds user presentation preferences. The engine never reads
// them; they travel with the snapshot so import/export round-trips.
type Settings struct {
	NumberFormat string `json:"numberFormat"`
	Theme        string `json:"theme"`
}

// Snapshot is the full entity store handed to the engine: a consistent
// view of all collections taken at the same logical instant. The engine
// only reads it and retains nothing between calls.
type Snapshot struct {
	Accounts     []Account     `json:"accounts"`
	Categories   []Category    `json:"categories"`
	Transactions []Transaction `json:"transactions"`
	Rates        RateTable     `json:"rates"`
	Settings     Settings      `json:"settings"`
}

// AccountByID returns the account with the given id, or false when the
// snapshot does not contain it.
func (s *Snapshot) AccountByID(id string) (Account, bool) {
	for _, a := range s.Accounts {
		if a.ID == id {
			return a, true
		}
	}
	return Account{}, false
}

// CategoryByID returns the category with the given id, or false.
func (s *Snapshot) CategoryByID(id string) (Category, bool) {
	for _, c := range s.Categories {
		if c.ID == id {
			return c, true
		}
	}
	return Category{}, false
}

// NewID generates an identifier for a freshly created entity.
func NewID() string {
	return uuid.NewString()
}

// MonthKey formats a point in time as the "YYYY-MM" key used to index
// time-versioned budgets. Zero-padded, so lexicographic comparison of
// keys is chronological comparison.
func MonthKey(t time.Time) string {
	return t.Format("2006-01")
}
