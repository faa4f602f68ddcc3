package domain

import "time"

// ActionKind names an action variant
type ActionKind string

const (
	KindCreateSession        ActionKind = "CreateSession"
	KindJoinSession          ActionKind = "JoinSession"
	KindKickPlayer           ActionKind = "KickPlayer"
	KindAddSpectator         ActionKind = "AddSpectator"
	KindRemoveSpectator      ActionKind = "RemoveSpectator"
	KindPlaceBet             ActionKind = "PlaceBet"
	KindFold                 ActionKind = "Fold"
	KindEndBetting           ActionKind = "EndBetting"
	KindSelectWinner         ActionKind = "SelectWinner"
	KindStartNewRound        ActionKind = "StartNewRound"
	KindStartNewEpoch        ActionKind = "StartNewEpoch"
	KindRequestLoan          ActionKind = "RequestLoan"
	KindApproveLoan          ActionKind = "ApproveLoan"
	KindRejectLoan           ActionKind = "RejectLoan"
	KindPayLoan              ActionKind = "PayLoan"
	KindToggleBankLoans      ActionKind = "ToggleBankLoans"
	KindSetInitialMoney      ActionKind = "SetInitialMoney"
	KindCancelSession        ActionKind = "CancelSession"
	KindSetPlayerActive      ActionKind = "SetPlayerActive"
	KindSetPlayerInactive    ActionKind = "SetPlayerInactive"
	KindHostHeartbeat        ActionKind = "HostHeartbeat"
	KindMarkHostReconnecting ActionKind = "MarkHostReconnecting"
)

// Action is the closed set of session transitions.
// Only types in this package implement it.
type Action interface {
	Kind() ActionKind
	isAction()
}

// CreateSession opens a new session hosted by Host
type CreateSession struct {
	Code             string
	Host             string
	InitialMoney     int64
	BankLoansEnabled bool
}

// JoinSession seats a new player at the table
type JoinSession struct {
	PlayerID string
	Name     string
}

// KickPlayer removes a player from the table
type KickPlayer struct {
	PlayerID string
}

// AddSpectator lets a client watch without a seat
type AddSpectator struct {
	SpectatorID string
}

// RemoveSpectator drops a watching client
type RemoveSpectator struct {
	SpectatorID string
}

// PlaceBet moves Amount from a player into the pool
type PlaceBet struct {
	PlayerID string
	Amount   int64
}

// Fold takes a player out of contention for the pool
type Fold struct {
	PlayerID string
}

// EndBetting marks a player done in the final round
type EndBetting struct {
	PlayerID string
}

// SelectWinner awards the pool to the chosen player
type SelectWinner struct {
	PlayerID string
}

// StartNewRound advances to the next betting round
type StartNewRound struct{}

// StartNewEpoch opens a new epoch and forfeits the pool
type StartNewEpoch struct{}

// RequestLoan asks LenderID for money. With LenderID == BankLender the
// loan is granted immediately under LoanID; otherwise a pending request
// is recorded under LoanID.
type RequestLoan struct {
	LoanID         string
	BorrowerID     string
	LenderID       string
	Amount         int64
	InterestType   InterestType
	InterestAmount int64
}

// IsBank reports whether the request targets the house
func (a RequestLoan) IsBank() bool {
	return a.LenderID == BankLender
}

// ApproveLoan accepts a pending loan request
type ApproveLoan struct {
	RequestID string
}

// RejectLoan declines a pending loan request
type RejectLoan struct {
	RequestID string
}

// PayLoan settles one of a player's loans in full
type PayLoan struct {
	PlayerID string
	LoanID   string
}

// ToggleBankLoans flips whether the house lends
type ToggleBankLoans struct{}

// SetInitialMoney changes the starting money, optionally for everyone seated
type SetInitialMoney struct {
	Amount         int64
	UpdateExisting bool
}

// CancelSession ends the session for every client
type CancelSession struct{}

// SetPlayerActive stamps a player's liveness
type SetPlayerActive struct {
	PlayerID string
}

// SetPlayerInactive marks a player as away
type SetPlayerInactive struct {
	PlayerID string
}

// HostHeartbeat stamps the host's liveness
type HostHeartbeat struct{}

// MarkHostReconnecting flags a host that stopped heartbeating
type MarkHostReconnecting struct{}

func (CreateSession) Kind() ActionKind        { return KindCreateSession }
func (JoinSession) Kind() ActionKind          { return KindJoinSession }
func (KickPlayer) Kind() ActionKind           { return KindKickPlayer }
func (AddSpectator) Kind() ActionKind         { return KindAddSpectator }
func (RemoveSpectator) Kind() ActionKind      { return KindRemoveSpectator }
func (PlaceBet) Kind() ActionKind             { return KindPlaceBet }
func (Fold) Kind() ActionKind                 { return KindFold }
func (EndBetting) Kind() ActionKind           { return KindEndBetting }
func (SelectWinner) Kind() ActionKind         { return KindSelectWinner }
func (StartNewRound) Kind() ActionKind        { return KindStartNewRound }
func (StartNewEpoch) Kind() ActionKind        { return KindStartNewEpoch }
func (RequestLoan) Kind() ActionKind          { return KindRequestLoan }
func (ApproveLoan) Kind() ActionKind          { return KindApproveLoan }
func (RejectLoan) Kind() ActionKind           { return KindRejectLoan }
func (PayLoan) Kind() ActionKind              { return KindPayLoan }
func (ToggleBankLoans) Kind() ActionKind      { return KindToggleBankLoans }
func (SetInitialMoney) Kind() ActionKind      { return KindSetInitialMoney }
func (CancelSession) Kind() ActionKind        { return KindCancelSession }
func (SetPlayerActive) Kind() ActionKind      { return KindSetPlayerActive }
func (SetPlayerInactive) Kind() ActionKind    { return KindSetPlayerInactive }
func (HostHeartbeat) Kind() ActionKind        { return KindHostHeartbeat }
func (MarkHostReconnecting) Kind() ActionKind { return KindMarkHostReconnecting }

func (CreateSession) isAction()        {}
func (JoinSession) isAction()          {}
func (KickPlayer) isAction()           {}
func (AddSpectator) isAction()         {}
func (RemoveSpectator) isAction()      {}
func (PlaceBet) isAction()             {}
func (Fold) isAction()                 {}
func (EndBetting) isAction()           {}
func (SelectWinner) isAction()         {}
func (StartNewRound) isAction()        {}
func (StartNewEpoch) isAction()        {}
func (RequestLoan) isAction()          {}
func (ApproveLoan) isAction()          {}
func (RejectLoan) isAction()           {}
func (PayLoan) isAction()              {}
func (ToggleBankLoans) isAction()      {}
func (SetInitialMoney) isAction()      {}
func (CancelSession) isAction()        {}
func (SetPlayerActive) isAction()      {}
func (SetPlayerInactive) isAction()    {}
func (HostHeartbeat) isAction()        {}
func (MarkHostReconnecting) isAction() {}

// IsLiveness reports whether a is a heartbeat-style action that is kept
// out of the action log
func IsLiveness(a Action) bool {
	switch a.(type) {
	case SetPlayerActive, SetPlayerInactive, HostHeartbeat:
		return true
	}
	return false
}

// NewLogEntry describes an accepted action for the audit trail
func NewLogEntry(a Action, at time.Time) LogEntry {
	e := LogEntry{Type: a.Kind(), At: at}
	switch v := a.(type) {
	case JoinSession:
		e.PlayerID = v.PlayerID
	case KickPlayer:
		e.PlayerID = v.PlayerID
	case PlaceBet:
		e.PlayerID, e.Amount = v.PlayerID, v.Amount
	case Fold:
		e.PlayerID = v.PlayerID
	case EndBetting:
		e.PlayerID = v.PlayerID
	case SelectWinner:
		e.PlayerID = v.PlayerID
	case RequestLoan:
		e.PlayerID, e.Amount = v.BorrowerID, v.Amount
	case PayLoan:
		e.PlayerID = v.PlayerID
	case SetInitialMoney:
		e.Amount = v.Amount
	}
	return e
}
