// Package storage persists trades, portfolio snapshots and backtest results
// in PostgreSQL. It is a thin collaborator around the engine: nothing here
// is consulted during a backtest run.
package storage

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "github.com/lib/pq"

	"tradesim/internal/model"
	"tradesim/internal/strategy"
)

// DB represents a database connection.
type DB struct {
	*sql.DB
}

// ConnectionParams holds PostgreSQL connection parameters.
type ConnectionParams struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

// New creates a new database connection and bootstraps the schema.
func New(params ConnectionParams) (*DB, error) {
	connStr := fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		params.Host, params.Port, params.User, params.Password, params.DBName, params.SSLMode,
	)

	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, err
	}

	if err := db.Ping(); err != nil {
		return nil, err
	}

	if err := createTables(db); err != nil {
		return nil, err
	}

	return &DB{db}, nil
}

// createTables creates the necessary tables if they don't exist.
func createTables(db *sql.DB) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS trades (
			id SERIAL PRIMARY KEY,
			strategy TEXT NOT NULL,
			symbol TEXT NOT NULL,
			trade_type TEXT NOT NULL,
			price DOUBLE PRECISION NOT NULL,
			shares INTEGER NOT NULL,
			value DOUBLE PRECISION NOT NULL,
			profit DOUBLE PRECISION,
			created_at TIMESTAMP NOT NULL DEFAULT NOW()
		)`,
		`CREATE TABLE IF NOT EXISTS portfolio (
			id SERIAL PRIMARY KEY,
			cash DOUBLE PRECISION NOT NULL,
			total_value DOUBLE PRECISION NOT NULL,
			pnl DOUBLE PRECISION NOT NULL,
			strategy TEXT NOT NULL,
			created_at TIMESTAMP NOT NULL DEFAULT NOW()
		)`,
		`CREATE TABLE IF NOT EXISTS backtest_results (
			id SERIAL PRIMARY KEY,
			strategy TEXT NOT NULL,
			symbol TEXT NOT NULL,
			initial_capital DOUBLE PRECISION NOT NULL,
			final_value DOUBLE PRECISION NOT NULL,
			total_return DOUBLE PRECISION NOT NULL,
			total_trades INTEGER NOT NULL,
			win_rate DOUBLE PRECISION,
			max_drawdown DOUBLE PRECISION,
			sharpe_ratio DOUBLE PRECISION,
			parameters TEXT,
			created_at TIMESTAMP NOT NULL DEFAULT NOW()
		)`,
	}

	for _, stmt := range statements {
		if _, err := db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// TradeRecord is a persisted trade row.
type TradeRecord struct {
	ID        int64           `json:"id"`
	Strategy  string          `json:"strategy"`
	Symbol    string          `json:"symbol"`
	TradeType model.TradeSide `json:"trade_type"`
	Price     float64         `json:"price"`
	Shares    int             `json:"shares"`
	Value     float64         `json:"value"`
	Profit    float64         `json:"profit,omitempty"`
	CreatedAt time.Time       `json:"timestamp"`
}

// SaveTrade inserts a trade row and returns its id.
func (db *DB) SaveTrade(rec TradeRecord) (int64, error) {
	var id int64
	err := db.QueryRow(`
		INSERT INTO trades (strategy, symbol, trade_type, price, shares, value, profit)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id
	`, rec.Strategy, rec.Symbol, rec.TradeType, rec.Price, rec.Shares, rec.Value, rec.Profit).Scan(&id)
	if err != nil {
		return 0, err
	}
	return id, nil
}

// ListTrades returns the most recent trades, optionally filtered by
// strategy.
func (db *DB) ListTrades(strategyID string, limit int) ([]TradeRecord, error) {
	var rows *sql.Rows
	var err error

	if strategyID != "" {
		rows, err = db.Query(`
			SELECT id, strategy, symbol, trade_type, price, shares, value, COALESCE(profit, 0), created_at
			FROM trades
			WHERE strategy = $1
			ORDER BY created_at DESC
			LIMIT $2
		`, strategyID, limit)
	} else {
		rows, err = db.Query(`
			SELECT id, strategy, symbol, trade_type, price, shares, value, COALESCE(profit, 0), created_at
			FROM trades
			ORDER BY created_at DESC
			LIMIT $1
		`, limit)
	}
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var trades []TradeRecord
	for rows.Next() {
		var rec TradeRecord
		if err := rows.Scan(
			&rec.ID, &rec.Strategy, &rec.Symbol, &rec.TradeType,
			&rec.Price, &rec.Shares, &rec.Value, &rec.Profit, &rec.CreatedAt,
		); err != nil {
			return nil, err
		}
		trades = append(trades, rec)
	}
	return trades, rows.Err()
}

// PortfolioSnapshot is one persisted portfolio state.
type PortfolioSnapshot struct {
	Cash       float64   `json:"cash"`
	TotalValue float64   `json:"total_value"`
	PnL        float64   `json:"pnl"`
	Strategy   string    `json:"strategy"`
	CreatedAt  time.Time `json:"timestamp"`
}

// SavePortfolio appends a new portfolio snapshot.
func (db *DB) SavePortfolio(snap PortfolioSnapshot) error {
	_, err := db.Exec(`
		INSERT INTO portfolio (cash, total_value, pnl, strategy)
		VALUES ($1, $2, $3, $4)
	`, snap.Cash, snap.TotalValue, snap.PnL, snap.Strategy)
	return err
}

// LatestPortfolio returns the most recent snapshot, or nil when none exists.
func (db *DB) LatestPortfolio() (*PortfolioSnapshot, error) {
	var snap PortfolioSnapshot
	err := db.QueryRow(`
		SELECT cash, total_value, pnl, strategy, created_at
		FROM portfolio
		ORDER BY created_at DESC
		LIMIT 1
	`).Scan(&snap.Cash, &snap.TotalValue, &snap.PnL, &snap.Strategy, &snap.CreatedAt)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &snap, nil
}

// ResultRecord is a persisted backtest result row.
type ResultRecord struct {
	ID             int64           `json:"id"`
	Strategy       string          `json:"strategy"`
	Symbol         string          `json:"symbol"`
	InitialCapital float64         `json:"initial_capital"`
	FinalValue     float64         `json:"final_value"`
	TotalReturn    float64         `json:"total_return"`
	TotalTrades    int             `json:"total_trades"`
	WinRate        float64         `json:"win_rate"`
	MaxDrawdown    float64         `json:"max_drawdown"`
	SharpeRatio    float64         `json:"sharpe_ratio"`
	Parameters     strategy.Params `json:"parameters,omitempty"`
	CreatedAt      time.Time       `json:"timestamp"`
}

// SaveBacktestResult persists a result summary with its strategy parameters.
func (db *DB) SaveBacktestResult(strategyID, symbol string, params strategy.Params, result *model.BacktestResult) (int64, error) {
	var paramsJSON sql.NullString
	if len(params) > 0 {
		raw, err := json.Marshal(params)
		if err != nil {
			return 0, fmt.Errorf("marshalling parameters: %w", err)
		}
		paramsJSON = sql.NullString{String: string(raw), Valid: true}
	}

	var id int64
	err := db.QueryRow(`
		INSERT INTO backtest_results
			(strategy, symbol, initial_capital, final_value, total_return,
			 total_trades, win_rate, max_drawdown, sharpe_ratio, parameters)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id
	`,
		strategyID, symbol, result.InitialCapital, result.FinalValue, result.TotalReturn,
		result.TotalTrades, result.WinRate, result.MaxDrawdown, result.SharpeRatio, paramsJSON,
	).Scan(&id)
	if err != nil {
		return 0, err
	}
	return id, nil
}

// ListBacktestResults returns the most recent backtest results.
func (db *DB) ListBacktestResults(limit int) ([]ResultRecord, error) {
	rows, err := db.Query(`
		SELECT id, strategy, symbol, initial_capital, final_value, total_return,
		       total_trades, win_rate, max_drawdown, sharpe_ratio, parameters, created_at
		FROM backtest_results
		ORDER BY created_at DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []ResultRecord
	for rows.Next() {
		var rec ResultRecord
		var paramsJSON sql.NullString
		if err := rows.Scan(
			&rec.ID, &rec.Strategy, &rec.Symbol, &rec.InitialCapital, &rec.FinalValue,
			&rec.TotalReturn, &rec.TotalTrades, &rec.WinRate, &rec.MaxDrawdown,
			&rec.SharpeRatio, &paramsJSON, &rec.CreatedAt,
		); err != nil {
			return nil, err
		}
		if paramsJSON.Valid {
			if err := json.Unmarshal([]byte(paramsJSON.String), &rec.Parameters); err != nil {
				return nil, fmt.Errorf("unmarshalling parameters: %w", err)
			}
		}
		results = append(results, rec)
	}
	return results, rows.Err()
}
