package datasource

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/stratlab/backtest-go/internal/logger"
	"github.com/stratlab/backtest-go/pkg/errors"
)

const aaplCSV = `symbol,time,open,high,low,close,volume
AAPL,2024-01-02T00:00:00Z,185.0,186.5,184.0,186.0,1000000
AAPL,2024-01-03T00:00:00Z,186.0,187.0,185.5,186.5,900000
AAPL,2024-01-04T00:00:00Z,186.5,188.0,186.0,187.5,1100000
`

// Rows deliberately out of order; the provider must sort them.
const unorderedCSV = `symbol,time,open,high,low,close,volume
MSFT,2024-01-03T00:00:00Z,402.0,404.0,401.0,403.0,500000
MSFT,2024-01-02T00:00:00Z,400.0,402.0,399.0,401.0,600000
`

const badBarCSV = `symbol,time,open,high,low,close,volume
BAD,2024-01-02T00:00:00Z,100.0,99.0,98.0,100.5,1000
`

type CSVProviderTestSuite struct {
	suite.Suite
	dir      string
	provider *CSVProvider
}

func TestCSVProviderSuite(t *testing.T) {
	suite.Run(t, new(CSVProviderTestSuite))
}

func (suite *CSVProviderTestSuite) SetupTest() {
	suite.dir = suite.T().TempDir()
	suite.provider = NewCSVProvider(suite.dir, logger.NewNopLogger())

	suite.writeFile("AAPL.csv", aaplCSV)
	suite.writeFile("MSFT.csv", unorderedCSV)
	suite.writeFile("BAD.csv", badBarCSV)
}

func (suite *CSVProviderTestSuite) writeFile(name, content string) {
	err := os.WriteFile(filepath.Join(suite.dir, name), []byte(content), 0644)
	suite.Require().NoError(err)
}

func (suite *CSVProviderTestSuite) TestGetBars() {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC)

	bars, err := suite.provider.GetBars("AAPL", start, end)
	suite.Require().NoError(err)
	suite.Require().Len(bars, 3)
	suite.Equal("AAPL", bars[0].Symbol)
	suite.InDelta(186.0, bars[0].Close, 1e-9)
}

func (suite *CSVProviderTestSuite) TestRangeIsInclusive() {
	start := time.Date(2024, 1, 3, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, 1, 4, 0, 0, 0, 0, time.UTC)

	bars, err := suite.provider.GetBars("AAPL", start, end)
	suite.Require().NoError(err)
	suite.Len(bars, 2)
}

func (suite *CSVProviderTestSuite) TestEmptyRangeYieldsNoBarsNoError() {
	start := time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2030, 12, 31, 0, 0, 0, 0, time.UTC)

	bars, err := suite.provider.GetBars("AAPL", start, end)
	suite.Require().NoError(err)
	suite.Empty(bars)
}

func (suite *CSVProviderTestSuite) TestUnorderedRowsAreSorted() {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC)

	bars, err := suite.provider.GetBars("MSFT", start, end)
	suite.Require().NoError(err)
	suite.Require().Len(bars, 2)
	suite.True(bars[0].Time.Before(bars[1].Time))
}

func (suite *CSVProviderTestSuite) TestMissingFileIsDataUnavailable() {
	_, err := suite.provider.GetBars("NOPE", time.Now().AddDate(-1, 0, 0), time.Now())
	suite.Require().Error(err)
	suite.Equal(errors.ErrCodeDataUnavailable, errors.GetCode(err))
}

func (suite *CSVProviderTestSuite) TestInvalidBarIsRejected() {
	_, err := suite.provider.GetBars("BAD", time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), time.Date(2024, 12, 31, 0, 0, 0, 0, time.UTC))
	suite.Require().Error(err)
	suite.Equal(errors.ErrCodeInvalidBar, errors.GetCode(err))
}
