package mocks

//go:generate mockgen -destination=./mock_datasource.go -package=mocks github.com/stratlab/backtest-go/internal/datasource BarProvider
