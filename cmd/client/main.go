package main

import (
	"bufio"
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"tablestakes/internal/adapters/http/client"
	"tablestakes/internal/config"
	"tablestakes/internal/core/domain"
	"tablestakes/internal/core/services"

	"github.com/pterm/pterm"
)

const (
	optHost     = "Host a new table"
	optJoin     = "Join a table"
	optSpectate = "Watch a table"
)

func main() {
	// Create a new slog logger on top of the default PTerm logger
	logger := slog.New(pterm.NewSlogHandler(&pterm.DefaultLogger))

	if err := run(logger); err != nil {
		pterm.Error.Println(err)
		os.Exit(1)
	}
	pterm.Println("Thanks for playing ...")
}

func run(logger *slog.Logger) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store := client.NewSnapshotClient(cfg.Client.StoreURL, cfg.Client.RequestTimeout)
	session := services.NewSessionService(store, services.SessionConfig{TTL: cfg.Store.SnapshotTTL}, logger)

	if err := bootstrap(ctx, session); err != nil {
		return err
	}
	self := session.Identity()
	pterm.Success.Printfln("Connected to table %s as %s", pterm.LightYellow(self.Code), self.Role)
	if self.Role == services.RoleHost {
		pterm.Info.Printfln("Share the code %s with the other players", pterm.LightYellow(self.Code))
	}
	pterm.Println(usage)

	agent := services.NewSyncAgent(session, services.SyncConfig{
		PollInterval:       cfg.Client.PollInterval,
		HostReconnectAfter: cfg.Client.HostReconnectAfter,
		HostTimeout:        cfg.Client.HostTimeout,
	}, logger)

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- agent.Run(runCtx) }()

	render(session.Snapshot(), self)
	lines := readLines(os.Stdin)
	for {
		select {
		case s := <-agent.Updates():
			render(s, self)

		case err := <-done:
			return farewell(err)

		case line, ok := <-lines:
			if !ok {
				cancel()
				return farewell(<-done)
			}
			if strings.TrimSpace(line) == "" {
				continue
			}
			a, err := parseCommand(line, commandEnv{
				self:       self,
				state:      session.Snapshot(),
				newID:      session.NewID,
				bankAmount: cfg.Client.BankLoanAmount,
			})
			switch {
			case errors.Is(err, errQuit):
				cancel()
				return farewell(<-done)
			case errors.Is(err, errHelp), errors.Is(err, errUsage):
				pterm.Println(usage)
				continue
			case err != nil:
				pterm.Warning.Println(err)
				continue
			}

			next, err := session.Dispatch(a)
			if err != nil {
				pterm.Warning.Println(describe(err))
				continue
			}
			render(next, self)
		}
	}
}

// bootstrap asks how to take part and seats this client at a table
func bootstrap(ctx context.Context, session *services.SessionService) error {
	choice, err := pterm.DefaultInteractiveSelect.
		WithDefaultText("What would you like to do?").
		WithOptions([]string{optHost, optJoin, optSpectate}).
		Show()
	if err != nil {
		return err
	}

	switch choice {
	case optHost:
		name, _ := pterm.DefaultInteractiveTextInput.WithDefaultText("Your name").Show()
		raw, _ := pterm.DefaultInteractiveTextInput.
			WithDefaultText("Starting money").
			WithDefaultValue(strconv.FormatInt(domain.DefaultInitialMoney, 10)).
			Show()
		money, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
		if err != nil {
			return errors.New("starting money must be a whole number")
		}
		bank, _ := pterm.DefaultInteractiveConfirm.
			WithDefaultText("Allow bank loans?").
			WithDefaultValue(true).
			Show()
		_, err = session.CreateSession(ctx, name, money, bank)
		return describeErr(err)

	case optJoin:
		code, _ := pterm.DefaultInteractiveTextInput.WithDefaultText("Table code").Show()
		name, _ := pterm.DefaultInteractiveTextInput.WithDefaultText("Your name").Show()
		_, err := session.JoinSession(ctx, code, name)
		return describeErr(err)

	default:
		code, _ := pterm.DefaultInteractiveTextInput.WithDefaultText("Table code").Show()
		_, err := session.Spectate(ctx, code)
		return describeErr(err)
	}
}

func readLines(r io.Reader) <-chan string {
	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(r)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
	}()
	return lines
}

func farewell(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, domain.ErrKicked):
		pterm.Error.Println("You have been removed from the table")
		return nil
	case errors.Is(err, domain.ErrSessionCancelled):
		pterm.Error.Println("The session has been cancelled")
		return nil
	default:
		return err
	}
}

func describeErr(err error) error {
	if err == nil {
		return nil
	}
	return errors.New(describe(err))
}

// describe turns an error into something a player can act on
func describe(err error) string {
	if reason, ok := domain.ReasonOf(err); ok {
		if msg, ok := reasonText[reason]; ok {
			return msg
		}
	}
	switch {
	case errors.Is(err, domain.ErrSessionNotFound):
		return "No table with that code"
	case errors.Is(err, domain.ErrSyncFailure):
		return "Cannot reach the table server, try again"
	}
	return err.Error()
}

var reasonText = map[domain.Reason]string{
	domain.ReasonInvalidCode:         "Table codes are 6 letters or digits",
	domain.ReasonEmptyName:           "Please enter a name",
	domain.ReasonNameTaken:           "That name is already taken",
	domain.ReasonSessionCancelled:    "The session has been cancelled",
	domain.ReasonInsufficientFunds:   "Not enough money",
	domain.ReasonPlayerFolded:        "You have folded this round",
	domain.ReasonNotFinalRound:       "You can only end betting in the final round",
	domain.ReasonAlreadyEnded:        "You already ended betting",
	domain.ReasonAwaitingEndBetting:  "Waiting for everyone to end betting",
	domain.ReasonBankLoansDisabled:   "Bank loans are disabled",
	domain.ReasonBorrowerHasMoney:    "Bank loans are only for players with no money",
	domain.ReasonSelfLoan:            "You cannot borrow from yourself",
	domain.ReasonInvalidInterest:     "Interest must be overall or per_round with a non-negative amount",
	domain.ReasonLoanRequestResolved: "That request was already answered",
}
