// Package config loads and validates backtest run configuration from YAML.
package config

import (
	"encoding/json"
	"os"
	"reflect"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/invopop/jsonschema"
	"github.com/moznion/go-optional"
	"go.uber.org/zap"
	"gopkg.in/yaml.v2"

	"github.com/stratlab/backtest-go/internal/logger"
	"github.com/stratlab/backtest-go/pkg/errors"
)

// DefaultPath is where Load looks when no explicit path is given.
const DefaultPath = "backtest.yaml"

// Config is the full configuration of a backtest run.
type Config struct {
	InitialCapital  float64                    `yaml:"initial_capital" json:"initial_capital" validate:"gt=0" jsonschema:"title=Initial Capital,description=Starting cash for the run in USD,minimum=0"`
	PositionSizePct float64                    `yaml:"position_size_pct" json:"position_size_pct" validate:"gt=0,lte=1" jsonschema:"title=Position Size,description=Fraction of current cash committed per entry,minimum=0,maximum=1"`
	CommissionPct   float64                    `yaml:"commission_pct" json:"commission_pct" validate:"gte=0" jsonschema:"title=Commission,description=Commission charged per trade as a fraction of notional,minimum=0"`
	MaxPositions    int                        `yaml:"max_positions" json:"max_positions" validate:"gte=0" jsonschema:"title=Max Positions,description=Maximum simultaneous open positions; zero means unlimited,minimum=0"`
	StopLossPct     optional.Option[float64]   `yaml:"stop_loss_pct" json:"stop_loss_pct" jsonschema:"title=Stop Loss,description=Optional stop-loss distance from entry as a fraction"`
	TakeProfitPct   optional.Option[float64]   `yaml:"take_profit_pct" json:"take_profit_pct" jsonschema:"title=Take Profit,description=Optional take-profit distance from entry as a fraction"`
	Symbols         []string                   `yaml:"symbols" json:"symbols" validate:"min=1" jsonschema:"title=Symbols,description=Symbols to simulate"`
	StartDate       optional.Option[time.Time] `yaml:"start_date" json:"start_date" jsonschema:"title=Start Date,description=Optional start of the simulated period"`
	EndDate         optional.Option[time.Time] `yaml:"end_date" json:"end_date" jsonschema:"title=End Date,description=Optional end of the simulated period"`
	Strategy        string                     `yaml:"strategy" json:"strategy" validate:"required" jsonschema:"title=Strategy,description=Name of the strategy to run"`
	StrategyParams  map[string]any             `yaml:"strategy_params" json:"strategy_params" jsonschema:"title=Strategy Parameters,description=Strategy-specific parameters"`
	OutputDir       string                     `yaml:"output_dir" json:"output_dir" jsonschema:"title=Output Directory,description=Directory for run artifacts"`
}

// UnmarshalYAML implements custom unmarshaling so optional fields absent from
// the document decode to None instead of zero values.
func (c *Config) UnmarshalYAML(unmarshal func(interface{}) error) error {
	type raw struct {
		InitialCapital  float64        `yaml:"initial_capital"`
		PositionSizePct float64        `yaml:"position_size_pct"`
		CommissionPct   float64        `yaml:"commission_pct"`
		MaxPositions    int            `yaml:"max_positions"`
		StopLossPct     *float64       `yaml:"stop_loss_pct"`
		TakeProfitPct   *float64       `yaml:"take_profit_pct"`
		Symbols         []string       `yaml:"symbols"`
		StartDate       *time.Time     `yaml:"start_date"`
		EndDate         *time.Time     `yaml:"end_date"`
		Strategy        string         `yaml:"strategy"`
		StrategyParams  map[string]any `yaml:"strategy_params"`
		OutputDir       string         `yaml:"output_dir"`
	}

	var decoded raw
	if err := unmarshal(&decoded); err != nil {
		return err
	}

	c.InitialCapital = decoded.InitialCapital
	c.PositionSizePct = decoded.PositionSizePct
	c.CommissionPct = decoded.CommissionPct
	c.MaxPositions = decoded.MaxPositions
	c.Symbols = decoded.Symbols
	c.Strategy = decoded.Strategy
	c.StrategyParams = decoded.StrategyParams
	c.OutputDir = decoded.OutputDir

	if decoded.StopLossPct != nil {
		c.StopLossPct = optional.Some(*decoded.StopLossPct)
	}
	if decoded.TakeProfitPct != nil {
		c.TakeProfitPct = optional.Some(*decoded.TakeProfitPct)
	}
	if decoded.StartDate != nil {
		c.StartDate = optional.Some(*decoded.StartDate)
	}
	if decoded.EndDate != nil {
		c.EndDate = optional.Some(*decoded.EndDate)
	}

	return nil
}

// DefaultConfig returns the configuration used when no file is present.
func DefaultConfig() Config {
	return Config{
		InitialCapital:  100000,
		PositionSizePct: 0.2,
		CommissionPct:   0.001,
		MaxPositions:    0,
		StopLossPct:     optional.None[float64](),
		TakeProfitPct:   optional.None[float64](),
		Symbols:         []string{"AAPL"},
		StartDate:       optional.None[time.Time](),
		EndDate:         optional.None[time.Time](),
		Strategy:        "ma_crossover",
		StrategyParams:  nil,
		OutputDir:       "output",
	}
}

// Load reads and validates a configuration file. When path is empty the
// default path is tried, and a default file that is missing or cannot be
// parsed falls back to DefaultConfig with a warning. An explicit path that
// fails to load is an error, as is a default file that parses but fails
// validation.
func Load(path string, log *logger.Logger) (Config, error) {
	explicit := path != ""
	if !explicit {
		path = DefaultPath
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if explicit {
			return Config{}, errors.Wrapf(errors.ErrCodeConfigLoad, err, "failed to read config file %s", path)
		}

		log.Warn("config file not readable, using defaults",
			zap.String("path", path),
			zap.Error(err))
		return DefaultConfig(), nil
	}

	cfg, err := Parse(data)
	if err != nil {
		if explicit || !errors.HasCode(err, errors.ErrCodeConfigLoad) {
			return Config{}, err
		}

		log.Warn("config file not parsable, using defaults",
			zap.String("path", path),
			zap.Error(err))
		return DefaultConfig(), nil
	}

	return cfg, nil
}

// Parse decodes and validates a YAML configuration document.
func Parse(data []byte) (Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, errors.Wrap(errors.ErrCodeConfigLoad, "failed to parse config YAML", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// Validate checks struct tags plus the relations the tags cannot express.
func (c *Config) Validate() error {
	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		return errors.Wrap(errors.ErrCodeConfigInvalid, "invalid configuration", err)
	}

	if pct, err := c.StopLossPct.Take(); err == nil && (pct <= 0 || pct >= 1) {
		return errors.Newf(errors.ErrCodeConfigInvalid, "stop_loss_pct must be in (0, 1), got %f", pct)
	}
	if pct, err := c.TakeProfitPct.Take(); err == nil && pct <= 0 {
		return errors.Newf(errors.ErrCodeConfigInvalid, "take_profit_pct must be positive, got %f", pct)
	}

	start, startErr := c.StartDate.Take()
	end, endErr := c.EndDate.Take()
	if startErr == nil && endErr == nil && end.Before(start) {
		return errors.Newf(errors.ErrCodeConfigInvalid, "end_date %s is before start_date %s", end.Format(time.DateOnly), start.Format(time.DateOnly))
	}

	return nil
}

// GenerateSchema builds the JSON schema for the configuration file format.
func (c *Config) GenerateSchema() (*jsonschema.Schema, error) {
	reflector := jsonschema.Reflector{
		RequiredFromJSONSchemaTags: true,
		ExpandedStruct:             true,
		AllowAdditionalProperties:  false,
		Mapper: func(t reflect.Type) *jsonschema.Schema {
			switch t.String() {
			case "optional.Option[time.Time]":
				return &jsonschema.Schema{
					Type:   "string",
					Format: "date-time",
				}
			case "optional.Option[float64]":
				return &jsonschema.Schema{
					Type: "number",
				}
			}
			return nil
		},
	}

	schema := reflector.Reflect(c)
	schema.Title = "backtest-config"
	schema.Description = "Configuration schema for a backtest run"
	schema.Version = "http://json-schema.org/draft-07/schema#"

	return schema, nil
}

// GenerateSchemaJSON renders the configuration schema as indented JSON.
func (c *Config) GenerateSchemaJSON() (string, error) {
	schema, err := c.GenerateSchema()
	if err != nil {
		return "", err
	}

	schemaBytes, err := json.MarshalIndent(schema, "", "  ")
	if err != nil {
		return "", err
	}

	return string(schemaBytes), nil
}
