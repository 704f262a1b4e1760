// Package store persists finished backtest results in DuckDB and exports
// them as JSON, YAML, and Parquet artifacts.
package store

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/Masterminds/squirrel"
	_ "github.com/marcboeker/go-duckdb"
	"go.uber.org/zap"

	"github.com/stratlab/backtest-go/internal/logger"
	"github.com/stratlab/backtest-go/internal/types"
	"github.com/stratlab/backtest-go/pkg/errors"
)

// ResultStore records finished runs in a DuckDB database. One store can hold
// any number of runs, keyed by run ID, so a comparison session can rank them
// afterwards.
type ResultStore struct {
	db     *sql.DB
	logger *logger.Logger
	sq     squirrel.StatementBuilderType

	results map[string]*types.BacktestResult
}

// NewResultStore opens an in-memory DuckDB database for run results.
func NewResultStore(log *logger.Logger) (*ResultStore, error) {
	db, err := sql.Open("duckdb", ":memory:")
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeStoreFailed, "failed to open result database", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, errors.Wrap(errors.ErrCodeStoreFailed, "failed to connect to result database", err)
	}

	s := &ResultStore{
		db:      db,
		logger:  log,
		sq:      squirrel.StatementBuilder.PlaceholderFormat(squirrel.Question),
		results: make(map[string]*types.BacktestResult),
	}

	if err := s.initialize(); err != nil {
		db.Close()
		return nil, err
	}

	return s, nil
}

func (s *ResultStore) initialize() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS runs (
			id TEXT PRIMARY KEY,
			strategy TEXT,
			symbols TEXT,
			start_date TIMESTAMP,
			end_date TIMESTAMP,
			initial_capital DOUBLE,
			final_equity DOUBLE,
			total_return DOUBLE,
			annualized_return DOUBLE,
			sharpe_ratio DOUBLE,
			max_drawdown DOUBLE,
			win_rate DOUBLE
		)
	`)
	if err != nil {
		return errors.Wrap(errors.ErrCodeStoreFailed, "failed to create runs table", err)
	}

	_, err = s.db.Exec(`
		CREATE TABLE IF NOT EXISTS trades (
			run_id TEXT,
			date TIMESTAMP,
			symbol TEXT,
			action TEXT,
			price DOUBLE,
			shares BIGINT,
			value DOUBLE,
			pnl DOUBLE,
			reason TEXT
		)
	`)
	if err != nil {
		return errors.Wrap(errors.ErrCodeStoreFailed, "failed to create trades table", err)
	}

	_, err = s.db.Exec(`
		CREATE TABLE IF NOT EXISTS equity (
			run_id TEXT,
			date TIMESTAMP,
			equity DOUBLE
		)
	`)
	if err != nil {
		return errors.Wrap(errors.ErrCodeStoreFailed, "failed to create equity table", err)
	}

	return nil
}

// Save records a finished run. The result is stored as-is and never mutated.
func (s *ResultStore) Save(result *types.BacktestResult) error {
	symbols := ""
	for i, symbol := range result.Symbols {
		if i > 0 {
			symbols += ","
		}
		symbols += symbol
	}

	insertRun := s.sq.
		Insert("runs").
		Columns(
			"id", "strategy", "symbols", "start_date", "end_date",
			"initial_capital", "final_equity", "total_return",
			"annualized_return", "sharpe_ratio", "max_drawdown", "win_rate",
		).
		Values(
			result.ID, result.Strategy, symbols,
			result.DateRange.Start, result.DateRange.End,
			result.InitialCapital, result.FinalEquity, result.TotalReturn,
			result.AnnualizedReturn, result.SharpeRatio, result.MaxDrawdown, result.WinRate,
		).
		RunWith(s.db)

	if _, err := insertRun.Exec(); err != nil {
		return errors.Wrapf(errors.ErrCodeStoreFailed, err, "failed to insert run %s", result.ID)
	}

	for _, record := range result.TradeLog {
		var pnl sql.NullFloat64
		if v, err := record.PnL.Take(); err == nil {
			pnl = sql.NullFloat64{Float64: v, Valid: true}
		}

		insertTrade := s.sq.
			Insert("trades").
			Columns("run_id", "date", "symbol", "action", "price", "shares", "value", "pnl", "reason").
			Values(
				result.ID, record.Date, record.Symbol, string(record.Action),
				record.Price, record.Shares, record.Value, pnl, string(record.Reason),
			).
			RunWith(s.db)

		if _, err := insertTrade.Exec(); err != nil {
			return errors.Wrapf(errors.ErrCodeStoreFailed, err, "failed to insert trade for run %s", result.ID)
		}
	}

	for _, point := range result.EquityCurve {
		insertEquity := s.sq.
			Insert("equity").
			Columns("run_id", "date", "equity").
			Values(result.ID, point.Date, point.Equity).
			RunWith(s.db)

		if _, err := insertEquity.Exec(); err != nil {
			return errors.Wrapf(errors.ErrCodeStoreFailed, err, "failed to insert equity point for run %s", result.ID)
		}
	}

	s.results[result.ID] = result

	s.logger.Info("saved run",
		zap.String("run_id", result.ID),
		zap.String("strategy", result.Strategy),
		zap.Int("trades", len(result.TradeLog)))

	return nil
}

// Result returns a saved run by ID.
func (s *ResultStore) Result(runID string) (*types.BacktestResult, error) {
	result, ok := s.results[runID]
	if !ok {
		return nil, errors.Newf(errors.ErrCodeStoreFailed, "no saved run with id %s", runID)
	}

	return result, nil
}

// RunSummary is one row of the ranked run comparison.
type RunSummary struct {
	ID          string
	Strategy    string
	TotalReturn float64
	SharpeRatio float64
	MaxDrawdown float64
	WinRate     float64
}

// RankedRuns returns all saved runs ordered by total return, best first.
func (s *ResultStore) RankedRuns() ([]RunSummary, error) {
	selectRuns := s.sq.
		Select("id", "strategy", "total_return", "sharpe_ratio", "max_drawdown", "win_rate").
		From("runs").
		OrderBy("total_return DESC").
		RunWith(s.db)

	rows, err := selectRuns.Query()
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeStoreFailed, "failed to query runs", err)
	}
	defer rows.Close()

	var summaries []RunSummary
	for rows.Next() {
		var rs RunSummary
		if err := rows.Scan(&rs.ID, &rs.Strategy, &rs.TotalReturn, &rs.SharpeRatio, &rs.MaxDrawdown, &rs.WinRate); err != nil {
			return nil, errors.Wrap(errors.ErrCodeStoreFailed, "failed to scan run row", err)
		}

		summaries = append(summaries, rs)
	}

	return summaries, rows.Err()
}

// TradeDates returns the distinct trade dates of a run in order. Mostly a
// debugging aid for inspecting saved runs.
func (s *ResultStore) TradeDates(runID string) ([]time.Time, error) {
	selectDates := s.sq.
		Select("DISTINCT date").
		From("trades").
		Where(squirrel.Eq{"run_id": runID}).
		OrderBy("date ASC").
		RunWith(s.db)

	rows, err := selectDates.Query()
	if err != nil {
		return nil, errors.Wrapf(errors.ErrCodeStoreFailed, err, "failed to query trade dates for run %s", runID)
	}
	defer rows.Close()

	var dates []time.Time
	for rows.Next() {
		var date time.Time
		if err := rows.Scan(&date); err != nil {
			return nil, errors.Wrap(errors.ErrCodeStoreFailed, "failed to scan trade date", err)
		}

		dates = append(dates, date)
	}

	return dates, rows.Err()
}

// Export writes a run's artifacts to the given directory: the full result as
// JSON, a condensed YAML summary, and the trade log and equity curve as
// Parquet files.
func (s *ResultStore) Export(runID, dir string) error {
	result, err := s.Result(runID)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return errors.Wrapf(errors.ErrCodeExportFailed, err, "failed to create output directory %s", dir)
	}

	data, err := result.Marshal()
	if err != nil {
		return errors.Wrap(errors.ErrCodeExportFailed, "failed to marshal result", err)
	}

	resultPath := filepath.Join(dir, "result.json")
	if err := os.WriteFile(resultPath, data, 0644); err != nil {
		return errors.Wrapf(errors.ErrCodeExportFailed, err, "failed to write %s", resultPath)
	}

	summaryPath := filepath.Join(dir, "summary.yaml")
	if err := types.WriteSummary(summaryPath, result.Summarize()); err != nil {
		return errors.Wrap(errors.ErrCodeExportFailed, "failed to write summary", err)
	}

	tradesPath := filepath.Join(dir, "trades.parquet")
	_, err = s.db.Exec(fmt.Sprintf(`COPY (SELECT * FROM trades WHERE run_id = '%s') TO '%s' (FORMAT PARQUET)`, runID, tradesPath))
	if err != nil {
		return errors.Wrap(errors.ErrCodeExportFailed, "failed to export trades to Parquet", err)
	}

	equityPath := filepath.Join(dir, "equity.parquet")
	_, err = s.db.Exec(fmt.Sprintf(`COPY (SELECT * FROM equity WHERE run_id = '%s') TO '%s' (FORMAT PARQUET)`, runID, equityPath))
	if err != nil {
		return errors.Wrap(errors.ErrCodeExportFailed, "failed to export equity curve to Parquet", err)
	}

	s.logger.Info("exported run artifacts",
		zap.String("run_id", runID),
		zap.String("result", resultPath),
		zap.String("trades", tradesPath),
		zap.String("equity", equityPath))

	return nil
}

// Close closes the underlying database connection.
func (s *ResultStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}

	return s.db.Close()
}
