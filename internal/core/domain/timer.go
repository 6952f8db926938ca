package domain

import "time"

// DecisionWindow is how long a wishlist item waits before the buy decision.
const DecisionWindow = 48 * time.Hour

// DecisionTimer is the realtime channel value, in epoch milliseconds.
type DecisionTimer struct {
	StartTime int64 `json:"startTime"`
	EndTime   int64 `json:"endTime"`
}

func NewDecisionTimer(start time.Time) DecisionTimer {
	return DecisionTimer{
		StartTime: start.UnixMilli(),
		EndTime:   start.Add(DecisionWindow).UnixMilli(),
	}
}

func (t DecisionTimer) StartedAt() time.Time { return time.UnixMilli(t.StartTime).UTC() }

func (t DecisionTimer) EndsAt() time.Time { return time.UnixMilli(t.EndTime).UTC() }

func (t DecisionTimer) Remaining(now time.Time) time.Duration {
	left := t.EndsAt().Sub(now)
	if left < 0 {
		return 0
	}
	return left
}

func (t DecisionTimer) Expired(now time.Time) bool {
	return !now.Before(t.EndsAt())
}

type TimerStatus struct {
	ItemID      string    `json:"itemId"`
	StartedAt   time.Time `json:"startedAt"`
	EndsAt      time.Time `json:"endsAt"`
	RemainingMS int64     `json:"remainingMs"`
	Expired     bool      `json:"expired"`
}

func (t DecisionTimer) Status(itemID string, now time.Time) TimerStatus {
	return TimerStatus{
		ItemID:      itemID,
		StartedAt:   t.StartedAt(),
		EndsAt:      t.EndsAt(),
		RemainingMS: t.Remaining(now).Milliseconds(),
		Expired:     t.Expired(now),
	}
}
