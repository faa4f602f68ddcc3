package main

import (
	"errors"
	"reflect"
	"testing"

	"tablestakes/internal/core/domain"
	"tablestakes/internal/core/services"
)

func testEnv(role services.Role) commandEnv {
	self := services.Identity{Code: "ABC123", Role: role}
	if role == services.RolePlayer {
		self.PlayerID = "p1"
	}
	return commandEnv{
		self: self,
		state: domain.Session{
			Code: "ABC123",
			Host: "Hank",
			Players: []domain.Player{
				{ID: "p1", Name: "Alice", Loans: []domain.Loan{
					{ID: "l1", From: "p2", Amount: 50, IsPaid: true},
					{ID: "l2", From: domain.BankLender, Amount: 300},
				}},
				{ID: "p2", Name: "Bob"},
			},
			LoanRequests: []domain.LoanRequest{
				{ID: "r0", FromPlayerID: "p1", ToPlayerID: "p2", Status: domain.LoanRejected},
				{ID: "r1", FromPlayerID: "p1", ToPlayerID: "p2", Status: domain.LoanPending},
			},
		},
		newID:      func() string { return "new-id" },
		bankAmount: 300,
	}
}

func TestParsePlayerCommands(t *testing.T) {
	cases := []struct {
		line string
		want domain.Action
	}{
		{"bet 100", domain.PlaceBet{PlayerID: "p1", Amount: 100}},
		{"BET 5", domain.PlaceBet{PlayerID: "p1", Amount: 5}},
		{"fold", domain.Fold{PlayerID: "p1"}},
		{"end", domain.EndBetting{PlayerID: "p1"}},
		{"loan bob 200 per_round 10", domain.RequestLoan{
			LoanID: "new-id", BorrowerID: "p1", LenderID: "p2", Amount: 200,
			InterestType: domain.InterestPerRound, InterestAmount: 10,
		}},
		{"bank", domain.RequestLoan{
			LoanID: "new-id", BorrowerID: "p1", LenderID: domain.BankLender, Amount: 300,
			InterestType: domain.InterestPerRound,
		}},
		{"bank 150", domain.RequestLoan{
			LoanID: "new-id", BorrowerID: "p1", LenderID: domain.BankLender, Amount: 150,
			InterestType: domain.InterestPerRound,
		}},
		{"approve", domain.ApproveLoan{RequestID: "r1"}},
		{"reject", domain.RejectLoan{RequestID: "r1"}},
		{"pay 1", domain.PayLoan{PlayerID: "p1", LoanID: "l2"}},
	}

	for _, tc := range cases {
		t.Run(tc.line, func(t *testing.T) {
			got, err := parseCommand(tc.line, testEnv(services.RolePlayer))
			if err != nil {
				t.Fatalf("parse: %v", err)
			}
			if !reflect.DeepEqual(got, tc.want) {
				t.Errorf("expected %#v, got %#v", tc.want, got)
			}
		})
	}
}

func TestParseHostCommands(t *testing.T) {
	cases := []struct {
		line string
		want domain.Action
	}{
		{"round", domain.StartNewRound{}},
		{"epoch", domain.StartNewEpoch{}},
		{"winner alice", domain.SelectWinner{PlayerID: "p1"}},
		{"kick Bob", domain.KickPlayer{PlayerID: "p2"}},
		{"toggle-bank", domain.ToggleBankLoans{}},
		{"initial 500", domain.SetInitialMoney{Amount: 500}},
		{"initial 500 all", domain.SetInitialMoney{Amount: 500, UpdateExisting: true}},
		{"cancel", domain.CancelSession{}},
	}

	for _, tc := range cases {
		t.Run(tc.line, func(t *testing.T) {
			got, err := parseCommand(tc.line, testEnv(services.RoleHost))
			if err != nil {
				t.Fatalf("parse: %v", err)
			}
			if !reflect.DeepEqual(got, tc.want) {
				t.Errorf("expected %#v, got %#v", tc.want, got)
			}
		})
	}
}

func TestParseRejects(t *testing.T) {
	cases := []struct {
		name string
		role services.Role
		line string
		want error
	}{
		{"player cannot start round", services.RolePlayer, "round", errNotHost},
		{"spectator cannot bet", services.RoleSpectator, "bet 10", errNoSeat},
		{"missing amount", services.RolePlayer, "bet", errUsage},
		{"initial bad flag", services.RoleHost, "initial 10 some", errUsage},
		{"blank", services.RolePlayer, "   ", errUsage},
		{"quit", services.RoleSpectator, "quit", errQuit},
		{"help", services.RolePlayer, "help", errHelp},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := parseCommand(tc.line, testEnv(tc.role)); !errors.Is(err, tc.want) {
				t.Errorf("expected %v, got %v", tc.want, err)
			}
		})
	}

	for _, line := range []string{"bet -5", "bet ten", "winner Zed", "pay 2", "loan Bob 10 overall x", "host bet 10", "dance"} {
		if _, err := parseCommand(line, testEnv(services.RolePlayer)); err == nil {
			t.Errorf("expected %q to be rejected", line)
		}
	}
	if _, err := parseCommand("bet 10", testEnv(services.RoleHost)); err == nil {
		t.Errorf("host has no seat to bet from")
	}
}
