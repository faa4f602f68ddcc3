package domain

import (
	"errors"
	"fmt"
)

// Common domain errors
var (
	ErrValidation       = errors.New("validation failed")
	ErrSessionNotFound  = errors.New("session not found")
	ErrNameTaken        = errors.New("name already taken")
	ErrSnapshotNotFound = errors.New("snapshot not found")
	ErrSerialization    = errors.New("snapshot cannot be parsed")
	ErrSyncFailure      = errors.New("snapshot store unreachable")
)

// Terminal client states
var (
	ErrKicked           = errors.New("removed from session")
	ErrSessionCancelled = errors.New("session cancelled")
)

// Reason is the code attached to a declined action
type Reason string

const (
	ReasonInvalidCode           Reason = "invalid_code"
	ReasonEmptyName             Reason = "empty_name"
	ReasonNameTaken             Reason = "name_taken"
	ReasonAlreadyJoined         Reason = "already_joined"
	ReasonDuplicateID           Reason = "duplicate_id"
	ReasonSessionCancelled      Reason = "session_cancelled"
	ReasonPlayerNotFound        Reason = "player_not_found"
	ReasonSpectatorNotFound     Reason = "spectator_not_found"
	ReasonInvalidAmount         Reason = "invalid_amount"
	ReasonInsufficientFunds     Reason = "insufficient_funds"
	ReasonPlayerFolded          Reason = "player_folded"
	ReasonNotFinalRound         Reason = "not_final_round"
	ReasonAlreadyEnded          Reason = "already_ended_betting"
	ReasonAwaitingEndBetting    Reason = "awaiting_end_betting"
	ReasonNoPlayers             Reason = "no_players"
	ReasonWinnerSelectionClosed Reason = "winner_selection_closed"
	ReasonSelfLoan              Reason = "self_loan"
	ReasonInvalidInterest       Reason = "invalid_interest"
	ReasonBankLoansDisabled     Reason = "bank_loans_disabled"
	ReasonBorrowerHasMoney      Reason = "borrower_has_money"
	ReasonLoanRequestNotFound   Reason = "loan_request_not_found"
	ReasonLoanRequestResolved   Reason = "loan_request_resolved"
	ReasonLoanNotFound          Reason = "loan_not_found"
	ReasonLoanAlreadyPaid       Reason = "loan_already_paid"
	ReasonInvalidStatus         Reason = "invalid_status"
	ReasonUnsupportedAction     Reason = "unsupported_action"
)

// DeclinedError is returned when an action fails its preconditions.
// Local state is unchanged when this error is returned.
type DeclinedError struct {
	Action ActionKind
	Reason Reason
}

func (e *DeclinedError) Error() string {
	return fmt.Sprintf("%s declined: %s", e.Action, e.Reason)
}

// Unwrap maps the reason onto the error taxonomy
func (e *DeclinedError) Unwrap() error {
	switch e.Reason {
	case ReasonNameTaken:
		return ErrNameTaken
	case ReasonSessionCancelled:
		return ErrSessionCancelled
	default:
		return ErrValidation
	}
}

// Decline builds a DeclinedError for action a
func Decline(a Action, r Reason) error {
	kind := ActionKind("unknown")
	if a != nil {
		kind = a.Kind()
	}
	return &DeclinedError{Action: kind, Reason: r}
}

// ReasonOf extracts the reason code from err, if any
func ReasonOf(err error) (Reason, bool) {
	var de *DeclinedError
	if errors.As(err, &de) {
		return de.Reason, true
	}
	return "", false
}
