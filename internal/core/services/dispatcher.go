package services

import (
	"strings"
	"time"

	"tablestakes/internal/core/domain"
	"tablestakes/internal/core/reducer"
)

// ActionDispatcher is the only path from user intent to the reducer. It
// normalizes input, re-checks every guard against the current local state and
// only then applies the action.
type ActionDispatcher struct {
	now func() time.Time
}

// NewActionDispatcher creates a new dispatcher stamping actions with now
func NewActionDispatcher(now func() time.Time) *ActionDispatcher {
	if now == nil {
		now = time.Now
	}
	return &ActionDispatcher{now: now}
}

// Dispatch returns the state after a, or s unchanged and a
// *domain.DeclinedError when a guard fails.
func (d *ActionDispatcher) Dispatch(s domain.Session, a domain.Action) (domain.Session, error) {
	a = Normalize(a)
	if err := reducer.Check(s, a); err != nil {
		return s, err
	}
	return reducer.Apply(s, a, d.now())
}

// Normalize trims user-entered text and upper-cases session codes
func Normalize(a domain.Action) domain.Action {
	switch v := a.(type) {
	case domain.CreateSession:
		v.Code = strings.ToUpper(strings.TrimSpace(v.Code))
		v.Host = strings.TrimSpace(v.Host)
		return v
	case domain.JoinSession:
		v.PlayerID = strings.TrimSpace(v.PlayerID)
		v.Name = strings.TrimSpace(v.Name)
		return v
	case domain.RequestLoan:
		v.LoanID = strings.TrimSpace(v.LoanID)
		v.InterestType = domain.InterestType(strings.ToLower(strings.TrimSpace(string(v.InterestType))))
		return v
	case domain.PayLoan:
		v.LoanID = strings.TrimSpace(v.LoanID)
		return v
	}
	return a
}
