package datasource

import (
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/gocarina/gocsv"
	"go.uber.org/zap"

	"github.com/stratlab/backtest-go/internal/logger"
	"github.com/stratlab/backtest-go/internal/types"
	"github.com/stratlab/backtest-go/pkg/errors"
)

var _ BarProvider = (*CSVProvider)(nil)

// CSVProvider reads bar history from per-symbol CSV files laid out as
// <dir>/<SYMBOL>.csv with a header row matching the Bar csv tags. Files are
// parsed once and cached for the lifetime of the provider.
type CSVProvider struct {
	dir    string
	logger *logger.Logger

	cache map[string][]types.Bar
}

// NewCSVProvider creates a provider rooted at the given data directory.
func NewCSVProvider(dir string, log *logger.Logger) *CSVProvider {
	return &CSVProvider{
		dir:    dir,
		logger: log,
		cache:  make(map[string][]types.Bar),
	}
}

// GetBars returns the symbol's bars inside [start, end]. A missing file is a
// data-unavailable error so the caller can decide whether to skip the symbol
// or abort the run.
func (p *CSVProvider) GetBars(symbol string, start, end time.Time) ([]types.Bar, error) {
	bars, ok := p.cache[symbol]
	if !ok {
		loaded, err := p.load(symbol)
		if err != nil {
			return nil, err
		}

		p.cache[symbol] = loaded
		bars = loaded
	}

	var filtered []types.Bar
	for _, bar := range bars {
		if bar.Time.Before(start) || bar.Time.After(end) {
			continue
		}

		filtered = append(filtered, bar)
	}

	return filtered, nil
}

func (p *CSVProvider) load(symbol string) ([]types.Bar, error) {
	path := filepath.Join(p.dir, symbol+".csv")

	file, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(errors.ErrCodeDataUnavailable, err, "no data file for symbol %s at %s", symbol, path)
	}
	defer file.Close()

	var bars []types.Bar
	if err := gocsv.UnmarshalFile(file, &bars); err != nil {
		return nil, errors.Wrapf(errors.ErrCodeDataParseFailed, err, "failed to parse %s", path)
	}

	for i := range bars {
		if bars[i].Symbol == "" {
			bars[i].Symbol = symbol
		}

		if err := bars[i].Validate(); err != nil {
			return nil, errors.Wrapf(errors.ErrCodeInvalidBar, err, "row %d of %s", i+1, path)
		}
	}

	sort.Slice(bars, func(i, j int) bool {
		return bars[i].Time.Before(bars[j].Time)
	})

	p.logger.Debug("loaded bar history",
		zap.String("symbol", symbol),
		zap.Int("bars", len(bars)))

	return bars, nil
}
