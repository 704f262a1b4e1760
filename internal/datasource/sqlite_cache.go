package datasource

import (
	"database/sql"
	"time"

	"go.uber.org/zap"
	_ "modernc.org/sqlite" // Pure-Go SQLite driver.

	"github.com/stratlab/backtest-go/internal/logger"
	"github.com/stratlab/backtest-go/internal/types"
	"github.com/stratlab/backtest-go/pkg/errors"
)

var _ BarProvider = (*SQLiteCache)(nil)

const createBarsTable = `
CREATE TABLE IF NOT EXISTS bars (
	symbol TEXT NOT NULL,
	time   TEXT NOT NULL,
	open   REAL NOT NULL,
	high   REAL NOT NULL,
	low    REAL NOT NULL,
	close  REAL NOT NULL,
	volume REAL NOT NULL,
	PRIMARY KEY (symbol, time)
)`

const createRangesTable = `
CREATE TABLE IF NOT EXISTS bar_ranges (
	symbol     TEXT NOT NULL,
	start_time TEXT NOT NULL,
	end_time   TEXT NOT NULL,
	PRIMARY KEY (symbol, start_time, end_time)
)`

// SQLiteCache is a read-through bar cache backed by a SQLite database. Every
// fill records the requested range alongside the bars, and a request is
// served from the database only when a previously filled range covers it.
// Anything wider falls through to the source, so a narrow first request
// never truncates later ones. Filled ranges survive process restarts.
type SQLiteCache struct {
	db     *sql.DB
	source BarProvider
	logger *logger.Logger
}

// NewSQLiteCache opens (or creates) the cache database at dbPath in front of
// the given source provider.
func NewSQLiteCache(dbPath string, source BarProvider, log *logger.Logger) (*SQLiteCache, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, errors.Wrapf(errors.ErrCodeStoreFailed, err, "failed to open bar cache at %s", dbPath)
	}

	for _, ddl := range []string{createBarsTable, createRangesTable} {
		if _, err := db.Exec(ddl); err != nil {
			db.Close()
			return nil, errors.Wrap(errors.ErrCodeStoreFailed, "failed to create bar cache schema", err)
		}
	}

	return &SQLiteCache{
		db:     db,
		source: source,
		logger: log,
	}, nil
}

// Close closes the underlying database connection.
func (c *SQLiteCache) Close() error {
	return c.db.Close()
}

// GetBars serves the symbol's bars from the cache when a filled range covers
// the request, falling through to the source provider otherwise.
func (c *SQLiteCache) GetBars(symbol string, start, end time.Time) ([]types.Bar, error) {
	covered, err := c.covered(symbol, start, end)
	if err != nil {
		return nil, err
	}
	if covered {
		cached, err := c.query(symbol, start, end)
		if err != nil {
			return nil, err
		}

		c.logger.Debug("bar cache hit",
			zap.String("symbol", symbol),
			zap.Int("bars", len(cached)))
		return cached, nil
	}

	bars, err := c.source.GetBars(symbol, start, end)
	if err != nil {
		return nil, err
	}
	if len(bars) == 0 {
		return nil, nil
	}

	if err := c.store(symbol, start, end, bars); err != nil {
		return nil, err
	}

	return bars, nil
}

// covered reports whether some previously filled range contains the
// requested one. RFC3339 UTC timestamps compare chronologically as text.
func (c *SQLiteCache) covered(symbol string, start, end time.Time) (bool, error) {
	var count int
	err := c.db.QueryRow(
		`SELECT COUNT(1) FROM bar_ranges
		 WHERE symbol = ? AND start_time <= ? AND end_time >= ?`,
		symbol, cacheTime(start), cacheTime(end)).Scan(&count)
	if err != nil {
		return false, errors.Wrapf(errors.ErrCodeStoreFailed, err, "failed to check cached ranges for %s", symbol)
	}

	return count > 0, nil
}

func (c *SQLiteCache) query(symbol string, start, end time.Time) ([]types.Bar, error) {
	rows, err := c.db.Query(
		`SELECT symbol, time, open, high, low, close, volume
		 FROM bars
		 WHERE symbol = ? AND time >= ? AND time <= ?
		 ORDER BY time`,
		symbol, cacheTime(start), cacheTime(end))
	if err != nil {
		return nil, errors.Wrapf(errors.ErrCodeStoreFailed, err, "failed to query cached bars for %s", symbol)
	}
	defer rows.Close()

	var bars []types.Bar
	for rows.Next() {
		var bar types.Bar
		var ts string
		if err := rows.Scan(&bar.Symbol, &ts, &bar.Open, &bar.High, &bar.Low, &bar.Close, &bar.Volume); err != nil {
			return nil, errors.Wrap(errors.ErrCodeStoreFailed, "failed to scan cached bar", err)
		}

		bar.Time, err = time.Parse(time.RFC3339, ts)
		if err != nil {
			return nil, errors.Wrapf(errors.ErrCodeDataParseFailed, err, "corrupt timestamp %q in bar cache", ts)
		}

		bars = append(bars, bar)
	}

	return bars, rows.Err()
}

// store persists the bars and the range they fill in one transaction, so a
// recorded range never outlives a failed bar insert.
func (c *SQLiteCache) store(symbol string, start, end time.Time, bars []types.Bar) error {
	tx, err := c.db.Begin()
	if err != nil {
		return errors.Wrap(errors.ErrCodeStoreFailed, "failed to begin cache transaction", err)
	}

	stmt, err := tx.Prepare(
		`INSERT OR REPLACE INTO bars (symbol, time, open, high, low, close, volume)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		tx.Rollback()
		return errors.Wrap(errors.ErrCodeStoreFailed, "failed to prepare cache insert", err)
	}
	defer stmt.Close()

	for _, bar := range bars {
		if _, err := stmt.Exec(
			bar.Symbol, cacheTime(bar.Time),
			bar.Open, bar.High, bar.Low, bar.Close, bar.Volume,
		); err != nil {
			tx.Rollback()
			return errors.Wrapf(errors.ErrCodeStoreFailed, err, "failed to cache bar for %s", bar.Symbol)
		}
	}

	if _, err := tx.Exec(
		`INSERT OR REPLACE INTO bar_ranges (symbol, start_time, end_time)
		 VALUES (?, ?, ?)`,
		symbol, cacheTime(start), cacheTime(end),
	); err != nil {
		tx.Rollback()
		return errors.Wrapf(errors.ErrCodeStoreFailed, err, "failed to record cached range for %s", symbol)
	}

	if err := tx.Commit(); err != nil {
		return errors.Wrap(errors.ErrCodeStoreFailed, "failed to commit cache transaction", err)
	}

	c.logger.Debug("bar cache fill",
		zap.String("symbol", symbol),
		zap.Int("bars", len(bars)))

	return nil
}

func cacheTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}
