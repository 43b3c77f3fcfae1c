package funds

import (
	"time"

	"github.com/aristath/conviction/internal/domain"
)

// Activity classifies a manager's quarter-over-quarter change in one ticker.
type Activity string

const (
	// ActivityBuy - position absent last quarter, present this quarter
	ActivityBuy Activity = "BUY"
	// ActivityAdd - position grew by at least 50% in shares
	ActivityAdd Activity = "ADD"
	// ActivityNone - no reportable accumulation
	ActivityNone Activity = ""
)

// addThreshold is the minimum quarter-over-quarter share growth that counts
// as a deliberate accumulation rather than rebalancing noise.
const addThreshold = 0.50

// maxQuarterGap is the longest span between adjacent period end dates that
// still counts as consecutive quarters. A skipped collection quarter would
// otherwise let an "ADD" silently cover half a year of accumulation.
const maxQuarterGap = 98 * 24 * time.Hour

// Change is one classified quarter-over-quarter position change.
type Change struct {
	ManagerID   string   `json:"manager_id"`
	ManagerName string   `json:"manager_name"`
	Ticker      string   `json:"ticker"`
	Activity    Activity `json:"activity"`
	Shares      float64  `json:"shares"`
	PrevShares  float64  `json:"prev_shares"`
	Value       float64  `json:"value"`
	Quarter     string   `json:"quarter"`
}

// ConsecutiveQuarters reports whether two period end dates are close enough
// to be treated as adjacent quarters.
func ConsecutiveQuarters(older, newer time.Time) bool {
	if !newer.After(older) {
		return false
	}
	return newer.Sub(older) <= maxQuarterGap
}

// ClassifyQuarter compares a manager's current-quarter holdings against the
// previous quarter and returns every BUY and ADD. Positions that shrank or
// stayed flat produce no change. Both slices must belong to the same manager.
func ClassifyQuarter(current, previous []domain.FundHolding) []Change {
	prevByTicker := make(map[string]domain.FundHolding, len(previous))
	for _, h := range previous {
		prevByTicker[h.Ticker] = h
	}

	var changes []Change
	for _, h := range current {
		prev, held := prevByTicker[h.Ticker]

		activity := ActivityNone
		prevShares := 0.0
		switch {
		case !held:
			activity = ActivityBuy
		case prev.Shares > 0 && h.Shares >= prev.Shares*(1+addThreshold):
			activity = ActivityAdd
			prevShares = prev.Shares
		default:
			continue
		}

		changes = append(changes, Change{
			ManagerID:   h.ManagerID,
			ManagerName: h.ManagerName,
			Ticker:      h.Ticker,
			Activity:    activity,
			Shares:      h.Shares,
			PrevShares:  prevShares,
			Value:       h.Value,
			Quarter:     h.Quarter,
		})
	}

	return changes
}
