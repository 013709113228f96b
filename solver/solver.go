// Package solver 潮流迭代求解器
//
// 每个求解器持有一份输入快照与自己的矩阵及分解结果，调用方通过 Run 驱动迭代:
//
//	s := m.Initialize()
//	report, err := solver.Run(m, s, maxIter, tol, nil)
package solver

import (
	"errors"
	"fmt"
	"log/slog"
	"math"

	"powerflow/graph"
	"powerflow/maths"
	"powerflow/types"
	"powerflow/ybus"

	"gonum.org/v1/gonum/floats"
)

// Method 潮流求解方法
type Method interface {
	Name() string
	Initialize() *State                            // 生成初始状态
	Mismatch(s *State) (active, reactive float64) // 有功/无功最大不平衡量(只读)
	Step(s *State) error                           // 执行一次迭代
}

// State 母线电压状态(按母线位置索引)
type State struct {
	Magnitude []float64
	Angle     []float64
	Iteration int
}

// Clone 拷贝状态
func (s *State) Clone() *State {
	return &State{
		Magnitude: append([]float64(nil), s.Magnitude...),
		Angle:     append([]float64(nil), s.Angle...),
		Iteration: s.Iteration,
	}
}

// Factory 创建指定维度的线性求解器
type Factory func(n int) (maths.LU[float64], error)

// NewFactory 根据配置选择分解后端
func NewFactory(f types.Factorization) Factory {
	switch f {
	case types.Dense:
		return maths.NewLU[float64]
	case types.Sparse:
		return maths.NewLUSparse[float64]
	case types.Gonum:
		return maths.NewLUGonum
	default:
		return maths.NewLUMarkowitz
	}
}

// Input 求解器输入快照
type Input struct {
	System    *types.System // 原始数据(只读，快速解耦法据此构建B'/B'')
	Graph     *graph.Graph  // 索引与分类
	AC        *ybus.AC      // 交流模型
	DC        *ybus.DC      // 直流模型
	Active    []float64     // 注入有功设定(发电-负荷)
	Reactive  []float64     // 注入无功设定(发电-负荷)
	Magnitude []float64     // 母线存储的电压幅值
	Angle     []float64     // 母线存储的电压相角
	FlatStart bool
	Factory   Factory
	Logger    *slog.Logger
}

// NewInput 由系统数据计算注入功率设定，模型由调用方填充
func NewInput(sys *types.System, g *graph.Graph, cfg types.Config) (*Input, error) {
	n := g.Len()
	in := &Input{
		System:    sys,
		Graph:     g,
		Active:    make([]float64, n),
		Reactive:  make([]float64, n),
		Magnitude: make([]float64, n),
		Angle:     make([]float64, n),
		FlatStart: cfg.FlatStart,
		Factory:   NewFactory(cfg.Factorization),
		Logger:    cfg.Log(),
	}
	for i, bus := range sys.Buses {
		in.Active[i] = -bus.ActiveDemand
		in.Reactive[i] = -bus.ReactiveDemand
		in.Magnitude[i] = bus.Magnitude
		in.Angle[i] = bus.Angle
	}
	for _, gen := range sys.Generators {
		if !gen.Status {
			continue
		}
		i, err := g.Position(gen.Bus)
		if err != nil {
			return nil, fmt.Errorf("generator %d: %w", gen.ID, err)
		}
		in.Active[i] += gen.Active
		in.Reactive[i] += gen.Reactive
	}
	return in, nil
}

// initialState 平启动或使用母线存储值，PV与平衡母线幅值取设定值
func (in *Input) initialState() *State {
	n := in.Graph.Len()
	s := &State{Magnitude: make([]float64, n), Angle: make([]float64, n)}
	slack := in.Graph.Slack
	for i := range n {
		if in.FlatStart {
			s.Magnitude[i], s.Angle[i] = 1, in.Angle[slack]
		} else {
			s.Magnitude[i], s.Angle[i] = in.Magnitude[i], in.Angle[i]
			if s.Magnitude[i] <= 0 {
				s.Magnitude[i] = 1
			}
		}
		if in.Graph.Types[i] != types.PQ {
			s.Magnitude[i] = in.Graph.Setpoint[i]
		}
	}
	s.Angle[slack] = in.Angle[slack]
	return s
}

// injections 计算各母线注入功率
//
//	P_i = V_i Σ V_j (G_ij cosθ_ij + B_ij sinθ_ij)
//	Q_i = V_i Σ V_j (G_ij sinθ_ij - B_ij cosθ_ij)
func injections(y maths.Matrix[complex128], s *State, p, q []float64) {
	for i := range s.Magnitude {
		cols, vals := y.GetRow(i)
		var pi, qi float64
		for k, j := range cols {
			g, b := real(vals[k]), imag(vals[k])
			sin, cos := math.Sincos(s.Angle[i] - s.Angle[j])
			pi += s.Magnitude[j] * (g*cos + b*sin)
			qi += s.Magnitude[j] * (g*sin - b*cos)
		}
		p[i] = s.Magnitude[i] * pi
		q[i] = s.Magnitude[i] * qi
	}
}

// mismatch 不平衡量 f = 计算值 - 设定值，结果写入 fp(非平衡母线) 与 fq(PQ母线)
func (in *Input) mismatch(p, q, fp, fq []float64) (float64, float64) {
	for k, i := range in.Graph.NonSlack {
		fp[k] = p[i] - in.Active[i]
	}
	for k, i := range in.Graph.PQ {
		fq[k] = q[i] - in.Reactive[i]
	}
	return norm(fp), norm(fq)
}

// norm 无穷范数(空向量为0)
func norm(v []float64) float64 {
	if len(v) == 0 {
		return 0
	}
	return floats.Norm(v, math.Inf(1))
}

// positions 母线位置 -> 子集下标(不在子集中为-1)
func positions(n int, subset []int) []int {
	local := make([]int, n)
	for i := range local {
		local[i] = -1
	}
	for k, i := range subset {
		local[i] = k
	}
	return local
}

// reduce 取子矩阵 m[keep, keep]
func reduce(m maths.Matrix[float64], keep []int) maths.Matrix[float64] {
	local := positions(m.Rows(), keep)
	r := maths.NewSparseMatrix[float64](len(keep), len(keep))
	m.Each(func(i, j int, v float64) {
		if local[i] >= 0 && local[j] >= 0 {
			r.Set(local[i], local[j], v)
		}
	})
	return r
}

// factorize 分解矩阵，奇异时返回 *types.SingularError
func factorize(name string, lu maths.LU[float64], m maths.Matrix[float64]) error {
	if err := lu.Decompose(m); err != nil {
		if errors.Is(err, maths.ErrSingular) {
			return &types.SingularError{Solver: name, Err: err}
		}
		return fmt.Errorf("%s: %w", name, err)
	}
	return nil
}

// New 按方法创建求解器
func New(method types.Method, in *Input) (Method, error) {
	switch method {
	case types.NewtonRaphson:
		return NewNewtonRaphson(in)
	case types.FastDecoupledXB, types.FastDecoupledBX:
		return NewFastDecoupled(in, method)
	case types.GaussSeidel:
		return NewGaussSeidel(in)
	case types.DC:
		return NewDC(in)
	}
	return nil, fmt.Errorf("unknown method %v", method)
}
