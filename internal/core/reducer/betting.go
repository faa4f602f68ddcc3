package reducer

import "tablestakes/internal/core/domain"

func placeBet(s *domain.Session, a domain.PlaceBet) {
	idx := s.FindPlayer(a.PlayerID)
	p := &s.Players[idx]

	p.IsAllIn = a.Amount == p.Money
	p.Money -= a.Amount
	p.CurrentBet += a.Amount
	p.LastBetAmount = a.Amount
	p.NeedsAction = false

	s.HighestBet = max(s.HighestBet, p.CurrentBet)
	s.MoneyPool += a.Amount

	for i := range s.Players {
		if i == idx {
			continue
		}
		other := &s.Players[i]
		other.NeedsAction = !other.IsFolded && other.CurrentBet < s.HighestBet
	}
}

func fold(s *domain.Session, a domain.Fold) {
	p := &s.Players[s.FindPlayer(a.PlayerID)]
	p.IsFolded = true
	p.NeedsAction = false
	recomputeBets(s)
	resolveFinalRound(s)
}

// recomputeBets restores highestBet = max(currentBet) over non-folded
// players after the contender set shrinks.
func recomputeBets(s *domain.Session) {
	var highest int64
	for _, p := range s.Players {
		if !p.IsFolded {
			highest = max(highest, p.CurrentBet)
		}
	}
	s.HighestBet = highest
	for i := range s.Players {
		p := &s.Players[i]
		p.NeedsAction = p.NeedsAction && !p.IsFolded && p.CurrentBet < highest
	}
}

func endBetting(s *domain.Session, a domain.EndBetting) {
	s.Players[s.FindPlayer(a.PlayerID)].HasEndedBetting = true
	resolveFinalRound(s)
}

// resolveFinalRound closes the final round once every contender has ended
// betting. It runs after anything that shrinks the contender set too, so a
// late fold or kick cannot strand the pool.
func resolveFinalRound(s *domain.Session) {
	if !s.IsFinalRound() {
		return
	}
	contenders := s.NonFolded()
	for _, i := range contenders {
		if !s.Players[i].HasEndedBetting {
			return
		}
	}
	switch {
	case len(contenders) == 1:
		closeEpoch(s, contenders[0])
	case len(contenders) > 1:
		s.ShowWinnerSelection = true
	}
}

// selectWinner pays the pool as it stood before the epoch reset.
func selectWinner(s *domain.Session, a domain.SelectWinner) {
	closeEpoch(s, s.FindPlayer(a.PlayerID))
}

func startNewRound(s *domain.Session) {
	contenders := s.NonFolded()
	if len(contenders) <= 1 {
		winner := -1
		if len(contenders) == 1 {
			winner = contenders[0]
		}
		closeEpoch(s, winner)
		return
	}

	s.Round++
	s.HighestBet = 0
	for i := range s.Players {
		p := &s.Players[i]
		p.CurrentBet = 0
		p.NeedsAction = false
		p.HasEndedBetting = false
		accrueInterest(p)
	}
}

// closeEpoch awards the pool to the player at winner, if any, and opens the
// next epoch. With no winner the pool carries over into the next epoch.
func closeEpoch(s *domain.Session, winner int) {
	if winner >= 0 {
		pool := s.MoneyPool
		s.Players[winner].Money += pool
		s.MoneyPool = 0
	}
	startNewEpoch(s)
}

func startNewEpoch(s *domain.Session) {
	s.Epoch++
	s.Round = 0
	s.HighestBet = 0
	s.ShowWinnerSelection = false
	for i := range s.Players {
		p := &s.Players[i]
		p.IsFolded = false
		p.IsAllIn = false
		p.CurrentBet = 0
		p.NeedsAction = false
		p.HasEndedBetting = false
	}
}
