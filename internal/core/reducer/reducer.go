// Package reducer holds the pure session state machine. Nothing in this
// package performs I/O or reads the clock; callers pass the time in.
package reducer

import (
	"time"

	"tablestakes/internal/core/domain"
)

// Apply returns the session produced by applying a to s at now.
// If a fails its guards the input session is returned unchanged together
// with the DeclinedError from Check. The input session is never mutated.
func Apply(s domain.Session, a domain.Action, now time.Time) (domain.Session, error) {
	if err := Check(s, a); err != nil {
		return s, err
	}

	if create, ok := a.(domain.CreateSession); ok {
		next := newSession(create, now)
		next.ActionLog = append(next.ActionLog, domain.NewLogEntry(a, now))
		return next, nil
	}

	next := s.Clone()
	switch v := a.(type) {
	case domain.JoinSession:
		join(&next, v, now)
	case domain.KickPlayer:
		kick(&next, v)
	case domain.AddSpectator:
		next.Spectators = append(next.Spectators, v.SpectatorID)
	case domain.RemoveSpectator:
		next.Spectators = removeString(next.Spectators, v.SpectatorID)
	case domain.PlaceBet:
		placeBet(&next, v)
	case domain.Fold:
		fold(&next, v)
	case domain.EndBetting:
		endBetting(&next, v)
	case domain.SelectWinner:
		selectWinner(&next, v)
	case domain.StartNewRound:
		startNewRound(&next)
	case domain.StartNewEpoch:
		next.MoneyPool = 0
		startNewEpoch(&next)
	case domain.RequestLoan:
		requestLoan(&next, v, now)
	case domain.ApproveLoan:
		approveLoan(&next, v)
	case domain.RejectLoan:
		next.LoanRequests[next.FindLoanRequest(v.RequestID)].Status = domain.LoanRejected
	case domain.PayLoan:
		payLoan(&next, v)
	case domain.ToggleBankLoans:
		next.BankLoansEnabled = !next.BankLoansEnabled
	case domain.SetInitialMoney:
		next.InitialMoney = v.Amount
		if v.UpdateExisting {
			for i := range next.Players {
				next.Players[i].Money = v.Amount
			}
		}
	case domain.CancelSession:
		next.Status = domain.StatusCancelled
	case domain.SetPlayerActive:
		setActive(&next, v.PlayerID, true, now)
	case domain.SetPlayerInactive:
		setActive(&next, v.PlayerID, false, now)
	case domain.HostHeartbeat:
		next.HostLastActive = now
		if next.Status == domain.StatusHostReconnecting {
			next.Status = domain.StatusActive
		}
	case domain.MarkHostReconnecting:
		next.Status = domain.StatusHostReconnecting
	default:
		return s, domain.Decline(a, domain.ReasonUnsupportedAction)
	}

	if !domain.IsLiveness(a) {
		next.ActionLog = append(next.ActionLog, domain.NewLogEntry(a, now))
	}
	next.LastUpdate = stamp(s.LastUpdate, now)
	return next, nil
}

// stamp keeps the watermark strictly increasing even when the local clock
// lags behind the writer of the snapshot we started from.
func stamp(prev, now time.Time) time.Time {
	if now.After(prev) {
		return now
	}
	return prev.Add(time.Nanosecond)
}

func newSession(a domain.CreateSession, now time.Time) domain.Session {
	initial := a.InitialMoney
	if initial <= 0 {
		initial = domain.DefaultInitialMoney
	}
	return domain.Session{
		Code:             a.Code,
		Host:             a.Host,
		HostLastActive:   now,
		Status:           domain.StatusWaiting,
		InitialMoney:     initial,
		BankLoansEnabled: a.BankLoansEnabled,
		Players:          []domain.Player{},
		Spectators:       []string{},
		LoanRequests:     []domain.LoanRequest{},
		ActionLog:        []domain.LogEntry{},
		LastUpdate:       now,
	}
}

func join(s *domain.Session, a domain.JoinSession, now time.Time) {
	s.Players = append(s.Players, domain.Player{
		ID:         a.PlayerID,
		Name:       a.Name,
		Money:      s.InitialMoney,
		IsActive:   true,
		LastActive: now,
		Loans:      []domain.Loan{},
	})
	if s.Status == domain.StatusWaiting {
		s.Status = domain.StatusActive
	}
}

func kick(s *domain.Session, a domain.KickPlayer) {
	idx := s.FindPlayer(a.PlayerID)
	s.Players = append(s.Players[:idx], s.Players[idx+1:]...)
	for i := range s.LoanRequests {
		lr := &s.LoanRequests[i]
		if lr.Status == domain.LoanPending && (lr.FromPlayerID == a.PlayerID || lr.ToPlayerID == a.PlayerID) {
			lr.Status = domain.LoanRejected
		}
	}
	recomputeBets(s)
	resolveFinalRound(s)
}

func setActive(s *domain.Session, id string, active bool, now time.Time) {
	p := &s.Players[s.FindPlayer(id)]
	p.IsActive = active
	p.LastActive = now
}

func removeString(list []string, v string) []string {
	out := list[:0]
	for _, item := range list {
		if item != v {
			out = append(out, item)
		}
	}
	return out
}
