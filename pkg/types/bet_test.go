package types

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestBet_Net(t *testing.T) {
	bet := Bet{Stake: decimal.NewFromInt(10), Multiplier: 3.25}

	tests := []struct {
		status BetStatus
		want   string
	}{
		{BetOpen, "0"},
		{BetWon, "22.5"}, // 10*3.25 - 10
		{BetLost, "-10"},
	}

	for _, tt := range tests {
		t.Run(string(tt.status), func(t *testing.T) {
			bet.Status = tt.status
			if got := bet.Net(); got.String() != tt.want {
				t.Errorf("Net() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestBet_Resolved(t *testing.T) {
	bet := Bet{Status: BetOpen}
	if bet.Resolved() {
		t.Error("open bet reported resolved")
	}
	bet.Status = BetWon
	if !bet.Resolved() {
		t.Error("won bet not resolved")
	}
	bet.Status = BetLost
	if !bet.Resolved() {
		t.Error("lost bet not resolved")
	}
}
