package ledger

import (
	"database/sql"
	"fmt"

	_ "github.com/lib/pq"
	"github.com/tapline/touchbet/pkg/types"
	"go.uber.org/zap"
)

// PostgresJournal persists bet lifecycle events to PostgreSQL. Inserts are
// best-effort: a failed write is logged and counted, never surfaced to the
// settlement path.
type PostgresJournal struct {
	db     *sql.DB
	logger *zap.Logger
}

// PostgresConfig holds PostgreSQL connection settings.
type PostgresConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	Database string
	SSLMode  string
	Logger   *zap.Logger
}

// NewPostgresJournal connects to PostgreSQL and verifies the connection.
func NewPostgresJournal(cfg *PostgresConfig) (*PostgresJournal, error) {
	connStr := fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.Database, cfg.SSLMode,
	)

	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	err = db.Ping()
	if err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}

	cfg.Logger.Info("postgres-journal-connected",
		zap.String("host", cfg.Host),
		zap.String("database", cfg.Database))

	return &PostgresJournal{db: db, logger: cfg.Logger}, nil
}

// RecordPlaced inserts the bet in its OPEN state.
func (p *PostgresJournal) RecordPlaced(bet types.Bet) {
	query := `
		INSERT INTO bets (
			id, direction, target_price, price_at_placement, multiplier,
			stake, status, placed_at, starts_at, expires_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	_, err := p.db.Exec(query,
		bet.ID,
		string(bet.Direction),
		bet.TargetPrice,
		bet.PriceAtPlacement,
		bet.Multiplier,
		bet.Stake.String(),
		string(bet.Status),
		bet.PlacedAt,
		bet.StartsAt,
		bet.ExpiresAt,
	)
	if err != nil {
		JournalErrorsTotal.Inc()
		p.logger.Error("journal-insert-failed",
			zap.String("bet-id", bet.ID),
			zap.Error(err))
		return
	}

	p.logger.Debug("journal-bet-placed", zap.String("bet-id", bet.ID))
}

// RecordResolved writes the terminal status and realized PnL.
func (p *PostgresJournal) RecordResolved(bet types.Bet) {
	query := `
		UPDATE bets
		SET status = $2, resolved_at = $3, pnl = $4
		WHERE id = $1
	`

	_, err := p.db.Exec(query,
		bet.ID,
		string(bet.Status),
		bet.ResolvedAt,
		bet.Net().String(),
	)
	if err != nil {
		JournalErrorsTotal.Inc()
		p.logger.Error("journal-update-failed",
			zap.String("bet-id", bet.ID),
			zap.Error(err))
		return
	}

	p.logger.Debug("journal-bet-resolved",
		zap.String("bet-id", bet.ID),
		zap.String("status", string(bet.Status)))
}

// Close closes the database connection.
func (p *PostgresJournal) Close() error {
	p.logger.Info("closing-postgres-journal")
	return p.db.Close()
}
