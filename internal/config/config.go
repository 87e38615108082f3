package config

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/danielpatrickdp/tensile-props/go-analyzer/internal/analysis"
	"github.com/danielpatrickdp/tensile-props/go-analyzer/internal/smooth"
	"github.com/danielpatrickdp/tensile-props/go-analyzer/internal/specimen"
)

// EnvPrefix prefixes every environment override, e.g. TENSILE_DB.
const EnvPrefix = "TENSILE"

// #region types
// Config is the process configuration shared by every command.
type Config struct {
	DB           string  `mapstructure:"db" validate:"required"`
	GaugeLength  float64 `mapstructure:"gauge_length" validate:"gt=0"`
	Smoothing    string  `mapstructure:"smoothing" validate:"oneof=savitzky_golay moving_average"`
	LogLevel     string  `mapstructure:"log_level" validate:"oneof=trace debug info warn warning error"`
	LogFormat    string  `mapstructure:"log_format" validate:"oneof=text json"`
	GRPCAddr     string  `mapstructure:"grpc_addr" validate:"required"`
	MetricsAddr  string  `mapstructure:"metrics_addr"`
	Workers      int     `mapstructure:"workers" validate:"gte=0"`
	SpecimenFile string  `mapstructure:"specimen_file"`
}

// EngineConfig derives the analysis settings.
func (c Config) EngineConfig() analysis.EngineConfig {
	return analysis.EngineConfig{
		GaugeLength: c.GaugeLength,
		Smoothing:   smooth.Mode(c.Smoothing),
	}
}
// #endregion types

// #region defaults
func setDefaults(v *viper.Viper) {
	v.SetDefault("db", "tensile.db")
	v.SetDefault("gauge_length", specimen.DefaultGaugeLength)
	v.SetDefault("smoothing", string(smooth.ModeSavitzkyGolay))
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "text")
	v.SetDefault("grpc_addr", "localhost:50061")
	v.SetDefault("metrics_addr", ":9464")
	v.SetDefault("workers", 0)
	v.SetDefault("specimen_file", "")
}
// #endregion defaults

// #region load
// Load resolves configuration from defaults, the optional file at path,
// TENSILE_* environment variables and any changed flags in flags whose
// names match config keys with dashes, in increasing precedence.
func Load(path string, flags *pflag.FlagSet) (Config, error) {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	if flags != nil {
		for _, key := range v.AllKeys() {
			if f := flags.Lookup(strings.ReplaceAll(key, "_", "-")); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return Config{}, fmt.Errorf("bind flag %s: %w", f.Name, err)
				}
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := Validate(cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
// #endregion load

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks field constraints.
func Validate(cfg Config) error {
	if err := validate.Struct(cfg); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}
