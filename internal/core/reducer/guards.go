package reducer

import (
	"strings"

	"tablestakes/internal/core/domain"
)

// Check reports whether a may be applied to s. It returns nil or a
// *domain.DeclinedError carrying the reason code.
func Check(s domain.Session, a domain.Action) error {
	if create, ok := a.(domain.CreateSession); ok {
		if !domain.ValidCode(create.Code) {
			return domain.Decline(a, domain.ReasonInvalidCode)
		}
		if strings.TrimSpace(create.Host) == "" {
			return domain.Decline(a, domain.ReasonEmptyName)
		}
		return nil
	}

	if !domain.ValidCode(s.Code) {
		return domain.Decline(a, domain.ReasonInvalidCode)
	}
	if s.Status == domain.StatusCancelled {
		return domain.Decline(a, domain.ReasonSessionCancelled)
	}

	if r, ok := guard(&s, a); !ok {
		return domain.Decline(a, r)
	}
	return nil
}

func guard(s *domain.Session, a domain.Action) (domain.Reason, bool) {
	switch v := a.(type) {
	case domain.JoinSession:
		switch {
		case strings.TrimSpace(v.Name) == "":
			return domain.ReasonEmptyName, false
		case v.PlayerID == "":
			return domain.ReasonPlayerNotFound, false
		case s.FindPlayer(v.PlayerID) >= 0:
			return domain.ReasonAlreadyJoined, false
		case s.FindPlayerByName(v.Name) >= 0:
			return domain.ReasonNameTaken, false
		}

	case domain.KickPlayer:
		return playerExists(s, v.PlayerID)

	case domain.AddSpectator:
		switch {
		case v.SpectatorID == "":
			return domain.ReasonSpectatorNotFound, false
		case s.HasSpectator(v.SpectatorID):
			return domain.ReasonAlreadyJoined, false
		}

	case domain.RemoveSpectator:
		if !s.HasSpectator(v.SpectatorID) {
			return domain.ReasonSpectatorNotFound, false
		}

	case domain.PlaceBet:
		idx := s.FindPlayer(v.PlayerID)
		switch {
		case idx < 0:
			return domain.ReasonPlayerNotFound, false
		case s.Players[idx].IsFolded:
			return domain.ReasonPlayerFolded, false
		case v.Amount <= 0:
			return domain.ReasonInvalidAmount, false
		case v.Amount > s.Players[idx].Money:
			return domain.ReasonInsufficientFunds, false
		}

	case domain.Fold:
		idx := s.FindPlayer(v.PlayerID)
		switch {
		case idx < 0:
			return domain.ReasonPlayerNotFound, false
		case s.Players[idx].IsFolded:
			return domain.ReasonPlayerFolded, false
		}

	case domain.EndBetting:
		idx := s.FindPlayer(v.PlayerID)
		switch {
		case idx < 0:
			return domain.ReasonPlayerNotFound, false
		case !s.IsFinalRound():
			return domain.ReasonNotFinalRound, false
		case s.Players[idx].IsFolded:
			return domain.ReasonPlayerFolded, false
		case s.Players[idx].HasEndedBetting:
			return domain.ReasonAlreadyEnded, false
		}

	case domain.SelectWinner:
		if !s.ShowWinnerSelection {
			return domain.ReasonWinnerSelectionClosed, false
		}
		return playerExists(s, v.PlayerID)

	case domain.StartNewRound:
		switch {
		case len(s.Players) == 0:
			return domain.ReasonNoPlayers, false
		case len(s.NonFolded()) > 1 && s.IsFinalRound():
			return domain.ReasonAwaitingEndBetting, false
		}

	case domain.RequestLoan:
		return loanRequestGuard(s, v)

	case domain.ApproveLoan:
		li := s.FindLoanRequest(v.RequestID)
		if li < 0 {
			return domain.ReasonLoanRequestNotFound, false
		}
		lr := s.LoanRequests[li]
		lender, borrower := s.FindPlayer(lr.FromPlayerID), s.FindPlayer(lr.ToPlayerID)
		switch {
		case lr.Status != domain.LoanPending:
			return domain.ReasonLoanRequestResolved, false
		case lender < 0 || borrower < 0:
			return domain.ReasonPlayerNotFound, false
		case s.Players[lender].Money < lr.Amount:
			return domain.ReasonInsufficientFunds, false
		}

	case domain.RejectLoan:
		li := s.FindLoanRequest(v.RequestID)
		switch {
		case li < 0:
			return domain.ReasonLoanRequestNotFound, false
		case s.LoanRequests[li].Status != domain.LoanPending:
			return domain.ReasonLoanRequestResolved, false
		}

	case domain.PayLoan:
		idx := s.FindPlayer(v.PlayerID)
		if idx < 0 {
			return domain.ReasonPlayerNotFound, false
		}
		p := &s.Players[idx]
		li := findLoan(p, v.LoanID)
		switch {
		case li < 0:
			return domain.ReasonLoanNotFound, false
		case p.Loans[li].IsPaid:
			return domain.ReasonLoanAlreadyPaid, false
		case p.Money < p.Loans[li].Payoff():
			return domain.ReasonInsufficientFunds, false
		}

	case domain.SetInitialMoney:
		if v.Amount <= 0 {
			return domain.ReasonInvalidAmount, false
		}

	case domain.SetPlayerActive:
		return playerExists(s, v.PlayerID)

	case domain.SetPlayerInactive:
		return playerExists(s, v.PlayerID)

	case domain.MarkHostReconnecting:
		if s.Status != domain.StatusActive {
			return domain.ReasonInvalidStatus, false
		}

	case domain.StartNewEpoch, domain.ToggleBankLoans, domain.CancelSession, domain.HostHeartbeat:

	default:
		return domain.ReasonUnsupportedAction, false
	}
	return "", true
}

func loanRequestGuard(s *domain.Session, a domain.RequestLoan) (domain.Reason, bool) {
	borrower := s.FindPlayer(a.BorrowerID)
	switch {
	case borrower < 0:
		return domain.ReasonPlayerNotFound, false
	case a.LoanID == "":
		return domain.ReasonLoanNotFound, false
	case a.Amount <= 0:
		return domain.ReasonInvalidAmount, false
	case !a.InterestType.Valid() || a.InterestAmount < 0:
		return domain.ReasonInvalidInterest, false
	}

	if a.IsBank() {
		p := &s.Players[borrower]
		switch {
		case !s.BankLoansEnabled:
			return domain.ReasonBankLoansDisabled, false
		case p.Money != 0:
			return domain.ReasonBorrowerHasMoney, false
		case findLoan(p, a.LoanID) >= 0:
			return domain.ReasonDuplicateID, false
		}
		return "", true
	}

	switch {
	case a.LenderID == a.BorrowerID:
		return domain.ReasonSelfLoan, false
	case s.FindPlayer(a.LenderID) < 0:
		return domain.ReasonPlayerNotFound, false
	case s.FindLoanRequest(a.LoanID) >= 0:
		return domain.ReasonDuplicateID, false
	}
	return "", true
}

func playerExists(s *domain.Session, id string) (domain.Reason, bool) {
	if s.FindPlayer(id) < 0 {
		return domain.ReasonPlayerNotFound, false
	}
	return "", true
}
