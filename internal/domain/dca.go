package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// DCAPlan is a recurring fixed-amount purchase of one ticker.
// A plan is due once per month on its configured day and time of day;
// execution records a normal buy trade.
type DCAPlan struct {
	ID          int32           `json:"id"`
	WorkspaceID int32           `json:"workspaceId"`
	AccountID   int32           `json:"accountId"`
	Ticker      string          `json:"ticker"`
	Amount      decimal.Decimal `json:"amount"`
	DayOfMonth  int             `json:"dayOfMonth"`
	Hour        int             `json:"hour"`
	Minute      int             `json:"minute"`
	Enabled     bool            `json:"enabled"`
	LastRunAt   *time.Time      `json:"lastRunAt,omitempty"`
	CreatedAt   time.Time       `json:"createdAt"`
	UpdatedAt   time.Time       `json:"updatedAt"`
	DeletedAt   *time.Time      `json:"deletedAt,omitempty"`
}

// IsDue reports whether the plan should execute at the given time.
// A plan is due when now has passed its scheduled moment for the current
// month (clamped for short months) and it has not already run this month.
func (p *DCAPlan) IsDue(now time.Time) bool {
	if !p.Enabled {
		return false
	}

	day := p.DayOfMonth
	lastDay := time.Date(now.Year(), now.Month()+1, 0, 0, 0, 0, 0, now.Location()).Day()
	if day > lastDay {
		day = lastDay
	}

	scheduled := time.Date(now.Year(), now.Month(), day, p.Hour, p.Minute, 0, 0, now.Location())
	if now.Before(scheduled) {
		return false
	}

	if p.LastRunAt != nil {
		last := p.LastRunAt.In(now.Location())
		if last.Year() == now.Year() && last.Month() == now.Month() {
			return false
		}
	}
	return true
}

// UpdateDCAPlanData holds the mutable fields of a plan
type UpdateDCAPlanData struct {
	Amount     decimal.Decimal
	DayOfMonth int
	Hour       int
	Minute     int
	Enabled    bool
}

// DCAPlanRepository defines the interface for DCA plan persistence
type DCAPlanRepository interface {
	Create(plan *DCAPlan) (*DCAPlan, error)
	GetByID(workspaceID int32, id int32) (*DCAPlan, error)
	GetAllByWorkspace(workspaceID int32) ([]*DCAPlan, error)
	GetEnabled() ([]*DCAPlan, error)
	Update(workspaceID int32, id int32, data *UpdateDCAPlanData) (*DCAPlan, error)
	MarkRun(workspaceID int32, id int32, ranAt time.Time) error
	SoftDelete(workspaceID int32, id int32) error
}
