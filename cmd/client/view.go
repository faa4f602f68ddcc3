package main

import (
	"strconv"
	"strings"

	"tablestakes/internal/core/domain"
	"tablestakes/internal/core/services"

	"github.com/pterm/pterm"
)

// render prints the table as this client sees it
func render(s domain.Session, self services.Identity) {
	pterm.DefaultSection.Printfln("Table %s  |  epoch %d  round %d/%d  |  pool %d  |  highest bet %d",
		s.Code, s.Epoch, s.Round, domain.RoundsPerEpoch, s.MoneyPool, s.HighestBet)

	switch s.Status {
	case domain.StatusHostReconnecting:
		pterm.Warning.Printfln("Waiting for host %s to reconnect ...", s.Host)
	case domain.StatusCancelled:
		pterm.Error.Println("This session has been cancelled")
	}
	if s.ShowWinnerSelection {
		pterm.Info.Printfln("Betting is over, %s picks the winner", pterm.LightCyan(s.Host))
	}

	data := [][]string{{"Player", "Money", "Bet", "State", "Debt"}}
	for _, p := range s.Players {
		name := p.Name
		if p.ID == self.PlayerID {
			name = pterm.LightCyan(p.Name + " (you)")
		}
		data = append(data, []string{
			name,
			strconv.FormatInt(p.Money, 10),
			strconv.FormatInt(p.CurrentBet, 10),
			playerState(p),
			strconv.FormatInt(outstanding(p), 10),
		})
	}
	if len(s.Players) == 0 {
		pterm.Info.Println("No players yet, share the code " + pterm.LightYellow(s.Code))
	} else if err := pterm.DefaultTable.WithHasHeader().WithBoxed().WithData(data).Render(); err != nil {
		pterm.Error.Println(err)
	}

	if idx := s.FindPlayer(self.PlayerID); idx >= 0 {
		renderLoans(s, s.Players[idx])
	}
	if len(s.Spectators) > 0 {
		pterm.Info.Printfln("%d watching", len(s.Spectators))
	}
}

func renderLoans(s domain.Session, me domain.Player) {
	n := 0
	for _, l := range me.Loans {
		if l.IsPaid {
			continue
		}
		n++
		lender := "the bank"
		if !l.IsBank() {
			lender = nameOf(s, l.From)
		}
		pterm.Printfln("  loan #%d: %d from %s, payoff %d (%s)", n, l.Amount, lender, l.Payoff(), l.InterestType)
	}
	for _, lr := range s.LoanRequests {
		if lr.Status == domain.LoanPending && lr.FromPlayerID == me.ID {
			pterm.Info.Printfln("%s asks you for %d (%d %s interest), approve or reject",
				nameOf(s, lr.ToPlayerID), lr.Amount, lr.InterestAmount, lr.InterestType)
		}
	}
}

func playerState(p domain.Player) string {
	var tags []string
	switch {
	case p.IsFolded:
		tags = append(tags, pterm.LightRed("folded"))
	case p.IsAllIn:
		tags = append(tags, pterm.LightMagenta("all-in"))
	case p.HasEndedBetting:
		tags = append(tags, pterm.LightBlue("done"))
	case p.NeedsAction:
		tags = append(tags, pterm.LightYellow("to call"))
	default:
		tags = append(tags, pterm.LightGreen("in"))
	}
	if !p.IsActive {
		tags = append(tags, pterm.Gray("away"))
	}
	return strings.Join(tags, " ")
}

func outstanding(p domain.Player) int64 {
	var total int64
	for _, l := range p.Loans {
		if !l.IsPaid {
			total += l.Payoff()
		}
	}
	return total
}

func nameOf(s domain.Session, id string) string {
	if idx := s.FindPlayer(id); idx >= 0 {
		return s.Players[idx].Name
	}
	return "someone who left"
}
