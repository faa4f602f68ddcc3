package domain

import (
	"slices"
	"strings"
	"time"
)

// RoundsPerEpoch is the index of the final betting round; rounds count up
// from 0 and the epoch closes once the final round has been resolved.
const RoundsPerEpoch = 3

// Defaults applied to a freshly created session
const (
	DefaultInitialMoney   int64 = 1000
	DefaultBankLoanAmount int64 = 300
	CodeLength                  = 6
	BankLender                  = "bank"
	sessionKeyPrefix            = "session:"
)

// SessionStatus represents the lifecycle state of a session
type SessionStatus string

const (
	StatusWaiting          SessionStatus = "waiting"
	StatusActive           SessionStatus = "active"
	StatusHostReconnecting SessionStatus = "host_reconnecting"
	StatusCancelled        SessionStatus = "cancelled"
)

// InterestType represents how a loan accrues interest
type InterestType string

const (
	InterestOverall  InterestType = "overall"
	InterestPerRound InterestType = "per_round"
)

// Valid reports whether t is a known interest type
func (t InterestType) Valid() bool {
	return t == InterestOverall || t == InterestPerRound
}

// LoanRequestStatus represents the negotiation state of a loan request
type LoanRequestStatus string

const (
	LoanPending  LoanRequestStatus = "pending"
	LoanApproved LoanRequestStatus = "approved"
	LoanRejected LoanRequestStatus = "rejected"
)

// Session is the root aggregate shared by every client of one game code
type Session struct {
	Code                string        `json:"code"`
	Host                string        `json:"host"`
	HostLastActive      time.Time     `json:"hostLastActive"`
	Status              SessionStatus `json:"status"`
	Epoch               int           `json:"epoch"`
	Round               int           `json:"round"`
	HighestBet          int64         `json:"highestBet"`
	MoneyPool           int64         `json:"moneyPool"`
	InitialMoney        int64         `json:"initialMoney"`
	BankLoansEnabled    bool          `json:"bankLoansEnabled"`
	ShowWinnerSelection bool          `json:"showWinnerSelection"`
	Players             []Player      `json:"players"`
	Spectators          []string      `json:"spectators"`
	LoanRequests        []LoanRequest `json:"loanRequests"`
	ActionLog           []LogEntry    `json:"actionLog"`
	LastUpdate          time.Time     `json:"lastUpdate"`
}

// Player is a participant seated at the table
type Player struct {
	ID              string    `json:"id"`
	Name            string    `json:"name"`
	Money           int64     `json:"money"`
	IsFolded        bool      `json:"isFolded"`
	IsActive        bool      `json:"isActive"`
	IsAllIn         bool      `json:"isAllIn"`
	NeedsAction     bool      `json:"needsAction"`
	HasEndedBetting bool      `json:"hasEndedBetting"`
	CurrentBet      int64     `json:"currentBet"`
	LastBetAmount   int64     `json:"lastBetAmount"`
	LastActive      time.Time `json:"lastActive"`
	Loans           []Loan    `json:"loans"`
}

// Loan is money a player owes to another player or to the bank
type Loan struct {
	ID             string       `json:"id"`
	From           string       `json:"from"`
	Amount         int64        `json:"amount"`
	InterestType   InterestType `json:"interestType"`
	InterestAmount int64        `json:"interestAmount"`
	TotalOwed      int64        `json:"totalOwed"`
	IsPaid         bool         `json:"isPaid"`
}

// IsBank reports whether the loan was granted by the house
func (l Loan) IsBank() bool {
	return l.From == BankLender
}

// Payoff returns the amount needed to settle the loan now
func (l Loan) Payoff() int64 {
	if l.InterestType == InterestOverall {
		return l.Amount + l.InterestAmount
	}
	return l.TotalOwed
}

// LoanRequest is a pending negotiation between a borrower and a lender
type LoanRequest struct {
	ID             string            `json:"id"`
	FromPlayerID   string            `json:"fromPlayerId"`
	ToPlayerID     string            `json:"toPlayerId"`
	Amount         int64             `json:"amount"`
	InterestType   InterestType      `json:"interestType"`
	InterestAmount int64             `json:"interestAmount"`
	TotalOwed      int64             `json:"totalOwed"`
	Status         LoanRequestStatus `json:"status"`
	Timestamp      time.Time         `json:"timestamp"`
}

// LogEntry is one accepted action in the audit trail
type LogEntry struct {
	Type     ActionKind `json:"type"`
	PlayerID string     `json:"playerId,omitempty"`
	Amount   int64      `json:"amount,omitempty"`
	At       time.Time  `json:"at"`
}

// InitialTotalOwed returns the starting balance for a new loan
func InitialTotalOwed(amount, interest int64, t InterestType) int64 {
	if t == InterestOverall {
		return amount + interest
	}
	return amount
}

// SessionKey returns the store key for a session code
func SessionKey(code string) string {
	return sessionKeyPrefix + strings.ToUpper(code)
}

// CodeFromKey extracts the session code from a store key
func CodeFromKey(key string) (string, bool) {
	code, ok := strings.CutPrefix(key, sessionKeyPrefix)
	if !ok || !ValidCode(code) {
		return "", false
	}
	return code, true
}

// ValidCode reports whether code is 6 uppercase alphanumeric characters
func ValidCode(code string) bool {
	if len(code) != CodeLength {
		return false
	}
	for _, r := range code {
		if (r < 'A' || r > 'Z') && (r < '0' || r > '9') {
			return false
		}
	}
	return true
}

// FindPlayer returns the index of the player with id, or -1
func (s Session) FindPlayer(id string) int {
	for i := range s.Players {
		if s.Players[i].ID == id {
			return i
		}
	}
	return -1
}

// FindPlayerByName returns the index of the player whose name matches case-insensitively, or -1
func (s Session) FindPlayerByName(name string) int {
	name = strings.TrimSpace(name)
	for i := range s.Players {
		if strings.EqualFold(s.Players[i].Name, name) {
			return i
		}
	}
	return -1
}

// FindLoanRequest returns the index of the loan request with id, or -1
func (s Session) FindLoanRequest(id string) int {
	for i := range s.LoanRequests {
		if s.LoanRequests[i].ID == id {
			return i
		}
	}
	return -1
}

// HasSpectator reports whether id is watching the session
func (s Session) HasSpectator(id string) bool {
	for _, sp := range s.Spectators {
		if sp == id {
			return true
		}
	}
	return false
}

// NonFolded returns the indexes of players still contending for the pool
func (s Session) NonFolded() []int {
	var idx []int
	for i := range s.Players {
		if !s.Players[i].IsFolded {
			idx = append(idx, i)
		}
	}
	return idx
}

// IsFinalRound reports whether the epoch is in its last betting round
func (s Session) IsFinalRound() bool {
	return s.Round == RoundsPerEpoch
}

// Clone returns a deep copy so reducers never alias the caller's slices
func (s Session) Clone() Session {
	out := s
	out.Players = slices.Clone(s.Players)
	for i := range out.Players {
		out.Players[i].Loans = slices.Clone(out.Players[i].Loans)
	}
	out.Spectators = slices.Clone(s.Spectators)
	out.LoanRequests = slices.Clone(s.LoanRequests)
	out.ActionLog = slices.Clone(s.ActionLog)
	return out
}
