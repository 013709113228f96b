// Package config 从配置文件与环境变量加载求解配置
package config

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"powerflow/types"

	"github.com/spf13/viper"
)

// File 配置文件结构
type File struct {
	Solver SolverConfig `mapstructure:"solver"`
	Log    LogConfig    `mapstructure:"log"`
}

// SolverConfig 求解参数
type SolverConfig struct {
	Tolerance      float64 `mapstructure:"tolerance"`
	MaxIterations  int     `mapstructure:"max_iterations"`
	MaxLimitRounds int     `mapstructure:"max_limit_rounds"`
	FlatStart      bool    `mapstructure:"flat_start"`
	Factorization  string  `mapstructure:"factorization"`
	QLimitMode     string  `mapstructure:"q_limit_mode"`
}

// LogConfig 日志参数
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Validate 检查配置并返回警告
func (f *File) Validate() []string {
	var warnings []string
	if f.Solver.Tolerance > 1e-3 {
		warnings = append(warnings, fmt.Sprintf("solver tolerance %g is loose for per-unit mismatches", f.Solver.Tolerance))
	}
	if f.Solver.MaxIterations < 0 {
		warnings = append(warnings, fmt.Sprintf("solver max_iterations %d is negative, method default used", f.Solver.MaxIterations))
	}
	if f.Solver.MaxLimitRounds == 0 {
		warnings = append(warnings, "solver max_limit_rounds is 0, reactive limits are only reported")
	}
	switch strings.ToLower(f.Log.Format) {
	case "", "text", "json":
	default:
		warnings = append(warnings, fmt.Sprintf("log format %q is unknown, text used", f.Log.Format))
	}
	return warnings
}

// Config 转换为求解配置，日志写入 w
func (f *File) Config(w io.Writer) (types.Config, error) {
	if f.Solver.Tolerance <= 0 {
		return types.Config{}, fmt.Errorf("solver tolerance %g must be positive", f.Solver.Tolerance)
	}
	fact, err := types.ParseFactorization(f.Solver.Factorization)
	if err != nil {
		return types.Config{}, err
	}
	mode, err := types.ParseQLimitMode(f.Solver.QLimitMode)
	if err != nil {
		return types.Config{}, err
	}
	var level slog.Level
	if err := level.UnmarshalText([]byte(f.Log.Level)); err != nil {
		return types.Config{}, fmt.Errorf("log level: %w", err)
	}
	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler = slog.NewTextHandler(w, opts)
	if strings.EqualFold(f.Log.Format, "json") {
		handler = slog.NewJSONHandler(w, opts)
	}
	return types.NewConfig(
		types.WithTolerance(f.Solver.Tolerance),
		types.WithMaxIterations(max(f.Solver.MaxIterations, 0)),
		types.WithMaxLimitRounds(f.Solver.MaxLimitRounds),
		types.WithFlatStart(f.Solver.FlatStart),
		types.WithFactorization(fact),
		types.WithQLimitMode(mode),
		types.WithLogger(slog.New(handler)),
	), nil
}

// defaults 与 types.NewConfig 一致的默认值
func defaults(v *viper.Viper) {
	v.SetDefault("solver.tolerance", types.DefaultTolerance)
	v.SetDefault("solver.max_iterations", 0)
	v.SetDefault("solver.max_limit_rounds", types.DefaultLimitRounds)
	v.SetDefault("solver.flat_start", true)
	v.SetDefault("solver.factorization", types.Markowitz.String())
	v.SetDefault("solver.q_limit_mode", types.QLimitOne.String())
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
}

// Read 读取配置文件与 POWERFLOW_ 前缀的环境变量，path 为空时只读环境变量
func Read(path string) (*File, error) {
	v := viper.New()
	defaults(v)
	v.SetEnvPrefix("POWERFLOW")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	var f File
	if err := v.Unmarshal(&f); err != nil {
		return nil, fmt.Errorf("unmarshalling config: %w", err)
	}
	return &f, nil
}

// Load 读取配置并转换为求解配置，日志写入标准错误
func Load(path string) (types.Config, []string, error) {
	f, err := Read(path)
	if err != nil {
		return types.Config{}, nil, err
	}
	cfg, err := f.Config(os.Stderr)
	if err != nil {
		return types.Config{}, nil, err
	}
	return cfg, f.Validate(), nil
}
