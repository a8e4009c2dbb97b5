package ledger

import (
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"github.com/tapline/touchbet/pkg/types"
	"go.uber.org/zap"
)

func journalTestBet() types.Bet {
	placed := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	return types.Bet{
		ID:               "7f3e9c2a-1111-2222-3333-444455556666",
		PlacedAt:         placed,
		Timeframe:        30 * time.Second,
		StartsAt:         placed,
		ExpiresAt:        placed.Add(30 * time.Second),
		Direction:        types.Long,
		TargetPrice:      104500,
		PriceAtPlacement: 104000,
		SigmaAtPlacement: 0.0004,
		Multiplier:       3.25,
		Stake:            decimal.NewFromInt(10),
		Status:           types.BetOpen,
	}
}

func TestConsoleJournal_CloseIsNoop(t *testing.T) {
	j := NewConsoleJournal(zap.NewNop())
	if err := j.Close(); err != nil {
		t.Errorf("Close: %v", err)
	}
}

func TestPostgresJournal_RecordPlaced(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	j := &PostgresJournal{db: db, logger: zap.NewNop()}
	bet := journalTestBet()

	mock.ExpectExec("INSERT INTO bets").
		WithArgs(
			bet.ID,
			string(bet.Direction),
			bet.TargetPrice,
			bet.PriceAtPlacement,
			bet.Multiplier,
			bet.Stake.String(),
			string(types.BetOpen),
			bet.PlacedAt,
			bet.StartsAt,
			bet.ExpiresAt,
		).
		WillReturnResult(sqlmock.NewResult(1, 1))

	j.RecordPlaced(bet)

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}

func TestPostgresJournal_RecordResolved(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	j := &PostgresJournal{db: db, logger: zap.NewNop()}
	bet := journalTestBet()
	resolved := bet.ExpiresAt
	bet.Status = types.BetWon
	bet.ResolvedAt = &resolved

	mock.ExpectExec("UPDATE bets").
		WithArgs(
			bet.ID,
			string(types.BetWon),
			resolved,
			bet.Net().String(),
		).
		WillReturnResult(sqlmock.NewResult(0, 1))

	j.RecordResolved(bet)

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}

func TestPostgresJournal_InsertFailureIsSwallowed(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	j := &PostgresJournal{db: db, logger: zap.NewNop()}

	mock.ExpectExec("INSERT INTO bets").
		WillReturnError(errors.New("connection reset"))

	// Must not panic or propagate: journal writes are best-effort.
	j.RecordPlaced(journalTestBet())

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}

func TestPostgresJournal_Close(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	j := &PostgresJournal{db: db, logger: zap.NewNop()}

	mock.ExpectClose()
	if err := j.Close(); err != nil {
		t.Errorf("Close: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}

func TestJournal_Interface(t *testing.T) {
	var _ Journal = NewConsoleJournal(zap.NewNop())

	db, _, _ := sqlmock.New()
	defer db.Close()
	var _ Journal = &PostgresJournal{db: db, logger: zap.NewNop()}
}
