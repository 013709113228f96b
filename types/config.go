package types

import (
	"fmt"
	"log/slog"
	"strings"
)

// Method 潮流求解方法
type Method int

// 求解方法常量定义
const (
	NewtonRaphson   Method = iota // 牛顿-拉夫逊法
	FastDecoupledXB               // 快速解耦法(XB)
	FastDecoupledBX               // 快速解耦法(BX)
	GaussSeidel                   // 高斯-赛德尔法
	DC                            // 直流潮流
)

// methodString 方法映射
var methodString = map[Method]string{
	NewtonRaphson:   "nr",
	FastDecoupledXB: "fdxb",
	FastDecoupledBX: "fdbx",
	GaussSeidel:     "gs",
	DC:              "dc",
}

// String 返回方法名称
func (m Method) String() string {
	if name, ok := methodString[m]; ok {
		return name
	}
	return fmt.Sprintf("Method(%d)", int(m))
}

// IsAC 是否为交流迭代方法
func (m Method) IsAC() bool { return m != DC }

// ParseMethod 通过名称获取方法
func ParseMethod(name string) (Method, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	for m, s := range methodString {
		if s == name {
			return m, nil
		}
	}
	return 0, fmt.Errorf("unknown method %q", name)
}

// Methods 返回全部方法(按定义顺序)
func Methods() []Method {
	return []Method{NewtonRaphson, FastDecoupledXB, FastDecoupledBX, GaussSeidel, DC}
}

// Factorization 线性方程组分解后端
type Factorization int

// 分解后端常量定义
const (
	Markowitz Factorization = iota // Markowitz 排序稀疏LU,可复用主元顺序
	Dense                          // 部分主元稠密LU
	Sparse                         // 部分主元稀疏LU
	Gonum                          // gonum mat.LU
)

var factorizationString = map[Factorization]string{
	Markowitz: "markowitz",
	Dense:     "dense",
	Sparse:    "sparse",
	Gonum:     "gonum",
}

// String 返回后端名称
func (f Factorization) String() string {
	if name, ok := factorizationString[f]; ok {
		return name
	}
	return fmt.Sprintf("Factorization(%d)", int(f))
}

// ParseFactorization 通过名称获取分解后端
func ParseFactorization(name string) (Factorization, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	for f, s := range factorizationString {
		if s == name {
			return f, nil
		}
	}
	return 0, fmt.Errorf("unknown factorization %q", name)
}

// QLimitMode 无功越限处理方式
type QLimitMode int

const (
	QLimitOne QLimitMode = iota // 每轮只转换越限最严重的一条母线
	QLimitAll                   // 每轮转换全部越限母线
)

var qLimitModeString = map[QLimitMode]string{
	QLimitOne: "one",
	QLimitAll: "all",
}

// String 返回处理方式名称
func (m QLimitMode) String() string {
	if name, ok := qLimitModeString[m]; ok {
		return name
	}
	return fmt.Sprintf("QLimitMode(%d)", int(m))
}

// ParseQLimitMode 通过名称获取无功越限处理方式
func ParseQLimitMode(name string) (QLimitMode, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	for m, s := range qLimitModeString {
		if s == name {
			return m, nil
		}
	}
	return 0, fmt.Errorf("unknown reactive limit mode %q", name)
}

// Config 求解配置,构造后不再修改,按值传递
type Config struct {
	Tolerance      float64       // 收敛容差
	MaxIterations  int           // 最大迭代次数,0表示按方法取默认值
	MaxLimitRounds int           // 无功越限处理最大轮数
	FlatStart      bool          // 平启动
	Factorization  Factorization // 分解后端
	QLimitMode     QLimitMode    // 无功越限处理方式
	Logger         *slog.Logger  // 日志
	Debug          Debug         // 迭代调试记录
}

// Option 配置选项
type Option func(*Config)

// NewConfig 创建配置
func NewConfig(opts ...Option) Config {
	cfg := Config{
		Tolerance:      DefaultTolerance,
		MaxLimitRounds: DefaultLimitRounds,
		FlatStart:      true,
		Factorization:  Markowitz,
		QLimitMode:     QLimitOne,
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg
}

// WithTolerance 设置收敛容差
func WithTolerance(tol float64) Option {
	return func(c *Config) { c.Tolerance = tol }
}

// WithMaxIterations 设置最大迭代次数
func WithMaxIterations(n int) Option {
	return func(c *Config) { c.MaxIterations = n }
}

// WithMaxLimitRounds 设置无功越限处理最大轮数
func WithMaxLimitRounds(n int) Option {
	return func(c *Config) { c.MaxLimitRounds = n }
}

// WithFlatStart 设置是否平启动
func WithFlatStart(flat bool) Option {
	return func(c *Config) { c.FlatStart = flat }
}

// WithFactorization 设置分解后端
func WithFactorization(f Factorization) Option {
	return func(c *Config) { c.Factorization = f }
}

// WithQLimitMode 设置无功越限处理方式
func WithQLimitMode(mode QLimitMode) Option {
	return func(c *Config) { c.QLimitMode = mode }
}

// WithLogger 设置日志
func WithLogger(logger *slog.Logger) Option {
	return func(c *Config) { c.Logger = logger }
}

// WithDebug 设置调试记录
func WithDebug(debug Debug) Option {
	return func(c *Config) { c.Debug = debug }
}

// Log 返回有效日志对象
func (c Config) Log() *slog.Logger {
	if c.Logger == nil {
		return slog.Default()
	}
	return c.Logger
}

// IterationsFor 返回指定方法的最大迭代次数
func (c Config) IterationsFor(m Method) int {
	if c.MaxIterations > 0 {
		return c.MaxIterations
	}
	switch m {
	case NewtonRaphson:
		return DefaultNewtonIter
	case FastDecoupledXB, FastDecoupledBX:
		return DefaultDecoupledIter
	case GaussSeidel:
		return DefaultGaussSeidelIter
	default:
		return 1
	}
}
