package reducer

import (
	"time"

	"tablestakes/internal/core/domain"
)

func requestLoan(s *domain.Session, a domain.RequestLoan, now time.Time) {
	owed := domain.InitialTotalOwed(a.Amount, a.InterestAmount, a.InterestType)

	if a.IsBank() {
		p := &s.Players[s.FindPlayer(a.BorrowerID)]
		p.Money += a.Amount
		p.Loans = append(p.Loans, domain.Loan{
			ID:             a.LoanID,
			From:           domain.BankLender,
			Amount:         a.Amount,
			InterestType:   a.InterestType,
			InterestAmount: a.InterestAmount,
			TotalOwed:      owed,
		})
		return
	}

	s.LoanRequests = append(s.LoanRequests, domain.LoanRequest{
		ID:             a.LoanID,
		FromPlayerID:   a.LenderID,
		ToPlayerID:     a.BorrowerID,
		Amount:         a.Amount,
		InterestType:   a.InterestType,
		InterestAmount: a.InterestAmount,
		TotalOwed:      owed,
		Status:         domain.LoanPending,
		Timestamp:      now,
	})
}

// approveLoan moves the principal and records the loan on the borrower. The
// loan takes its terms from the request and reuses the request id.
func approveLoan(s *domain.Session, a domain.ApproveLoan) {
	lr := &s.LoanRequests[s.FindLoanRequest(a.RequestID)]
	lender := &s.Players[s.FindPlayer(lr.FromPlayerID)]
	lender.Money -= lr.Amount

	borrower := &s.Players[s.FindPlayer(lr.ToPlayerID)]
	borrower.Money += lr.Amount
	borrower.Loans = append(borrower.Loans, domain.Loan{
		ID:             lr.ID,
		From:           lr.FromPlayerID,
		Amount:         lr.Amount,
		InterestType:   lr.InterestType,
		InterestAmount: lr.InterestAmount,
		TotalOwed:      lr.TotalOwed,
	})
	lr.Status = domain.LoanApproved
}

// payLoan settles a loan in full. Repayments to the bank, or to a lender who
// has since left the table, leave circulation.
func payLoan(s *domain.Session, a domain.PayLoan) {
	borrower := &s.Players[s.FindPlayer(a.PlayerID)]
	li := findLoan(borrower, a.LoanID)
	loan := &borrower.Loans[li]
	payoff := loan.Payoff()

	borrower.Money -= payoff
	if !loan.IsBank() {
		if lender := s.FindPlayer(loan.From); lender >= 0 {
			s.Players[lender].Money += payoff
		}
	}
	loan.IsPaid = true
	loan.TotalOwed = 0
}

func accrueInterest(p *domain.Player) {
	for i := range p.Loans {
		l := &p.Loans[i]
		if !l.IsPaid && l.InterestType == domain.InterestPerRound {
			l.TotalOwed += l.InterestAmount
		}
	}
}

func findLoan(p *domain.Player, id string) int {
	for i := range p.Loans {
		if p.Loans[i].ID == id {
			return i
		}
	}
	return -1
}
