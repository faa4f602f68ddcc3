package main

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"tablestakes/internal/core/domain"
	"tablestakes/internal/core/services"
)

var (
	errQuit    = errors.New("quit")
	errHelp    = errors.New("help")
	errUsage   = errors.New("usage")
	errNotHost = errors.New("only the host can do that")
	errNoSeat  = errors.New("spectators cannot act")
)

const usage = `player:    bet N | fold | end | loan NAME AMOUNT overall|per_round INTEREST
           bank [AMOUNT] | approve | reject | pay LOAN#
host:      round | epoch | winner NAME | kick NAME | toggle-bank
           initial N [all] | cancel
anyone:    help | quit`

// commandEnv is what a command needs to turn into an action
type commandEnv struct {
	self       services.Identity
	state      domain.Session
	newID      func() string
	bankAmount int64
}

// parseCommand turns one line of input into an action for the local
// session. errQuit and errHelp are returned for the client-side commands.
func parseCommand(line string, env commandEnv) (domain.Action, error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return nil, errUsage
	}
	verb, args := strings.ToLower(fields[0]), fields[1:]

	switch verb {
	case "quit", "exit":
		return nil, errQuit
	case "help", "?":
		return nil, errHelp
	}

	if env.self.Role == services.RoleSpectator {
		return nil, errNoSeat
	}

	switch verb {
	case "round":
		return hostOnly(env, domain.StartNewRound{})
	case "epoch":
		return hostOnly(env, domain.StartNewEpoch{})
	case "toggle-bank":
		return hostOnly(env, domain.ToggleBankLoans{})
	case "cancel":
		return hostOnly(env, domain.CancelSession{})
	case "winner":
		id, err := playerArg(env.state, args)
		if err != nil {
			return nil, err
		}
		return hostOnly(env, domain.SelectWinner{PlayerID: id})
	case "kick":
		id, err := playerArg(env.state, args)
		if err != nil {
			return nil, err
		}
		return hostOnly(env, domain.KickPlayer{PlayerID: id})
	case "initial":
		if len(args) < 1 || len(args) > 2 {
			return nil, errUsage
		}
		amount, err := amountArg(args[0])
		if err != nil {
			return nil, err
		}
		all := len(args) == 2 && strings.EqualFold(args[1], "all")
		if len(args) == 2 && !all {
			return nil, errUsage
		}
		return hostOnly(env, domain.SetInitialMoney{Amount: amount, UpdateExisting: all})
	}

	if env.self.Role != services.RolePlayer {
		return nil, fmt.Errorf("%q is a player command", verb)
	}
	me := env.self.PlayerID

	switch verb {
	case "bet":
		if len(args) != 1 {
			return nil, errUsage
		}
		amount, err := amountArg(args[0])
		if err != nil {
			return nil, err
		}
		return domain.PlaceBet{PlayerID: me, Amount: amount}, nil

	case "fold":
		return domain.Fold{PlayerID: me}, nil

	case "end":
		return domain.EndBetting{PlayerID: me}, nil

	case "loan":
		if len(args) != 4 {
			return nil, errUsage
		}
		lender, err := playerArg(env.state, args[:1])
		if err != nil {
			return nil, err
		}
		amount, err := amountArg(args[1])
		if err != nil {
			return nil, err
		}
		interest, err := strconv.ParseInt(args[3], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("bad interest %q", args[3])
		}
		return domain.RequestLoan{
			LoanID:         env.newID(),
			BorrowerID:     me,
			LenderID:       lender,
			Amount:         amount,
			InterestType:   domain.InterestType(args[2]),
			InterestAmount: interest,
		}, nil

	case "bank":
		amount := env.bankAmount
		if len(args) > 1 {
			return nil, errUsage
		}
		if len(args) == 1 {
			var err error
			if amount, err = amountArg(args[0]); err != nil {
				return nil, err
			}
		}
		return domain.RequestLoan{
			LoanID:       env.newID(),
			BorrowerID:   me,
			LenderID:     domain.BankLender,
			Amount:       amount,
			InterestType: domain.InterestPerRound,
		}, nil

	case "approve", "reject":
		lr, ok := pendingFor(env.state, me)
		if !ok {
			return nil, errors.New("no loan request is waiting on you")
		}
		if verb == "approve" {
			return domain.ApproveLoan{RequestID: lr.ID}, nil
		}
		return domain.RejectLoan{RequestID: lr.ID}, nil

	case "pay":
		if len(args) != 1 {
			return nil, errUsage
		}
		n, err := strconv.Atoi(args[0])
		if err != nil {
			return nil, fmt.Errorf("bad loan number %q", args[0])
		}
		loan, ok := unpaidLoan(env.state, me, n)
		if !ok {
			return nil, fmt.Errorf("no unpaid loan #%d", n)
		}
		return domain.PayLoan{PlayerID: me, LoanID: loan.ID}, nil
	}

	return nil, fmt.Errorf("unknown command %q", verb)
}

func hostOnly(env commandEnv, a domain.Action) (domain.Action, error) {
	if env.self.Role != services.RoleHost {
		return nil, errNotHost
	}
	return a, nil
}

func playerArg(s domain.Session, args []string) (string, error) {
	if len(args) != 1 {
		return "", errUsage
	}
	idx := s.FindPlayerByName(args[0])
	if idx < 0 {
		return "", fmt.Errorf("no player named %q", args[0])
	}
	return s.Players[idx].ID, nil
}

func amountArg(raw string) (int64, error) {
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("bad amount %q", raw)
	}
	return n, nil
}

// pendingFor returns the oldest pending request where id is the lender
func pendingFor(s domain.Session, id string) (domain.LoanRequest, bool) {
	for _, lr := range s.LoanRequests {
		if lr.Status == domain.LoanPending && lr.FromPlayerID == id {
			return lr, true
		}
	}
	return domain.LoanRequest{}, false
}

// unpaidLoan returns the n-th (1-based) unpaid loan of player id
func unpaidLoan(s domain.Session, id string, n int) (domain.Loan, bool) {
	idx := s.FindPlayer(id)
	if idx < 0 || n < 1 {
		return domain.Loan{}, false
	}
	for _, l := range s.Players[idx].Loans {
		if l.IsPaid {
			continue
		}
		if n--; n == 0 {
			return l, true
		}
	}
	return domain.Loan{}, false
}
