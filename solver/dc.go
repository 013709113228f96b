package solver

import (
	"errors"
	"fmt"

	"powerflow/maths"
	"powerflow/types"
)

// Linear 直流潮流: B'θ = P - P_shift - G_s
type Linear struct {
	in       *Input
	lu       maths.LU[float64]
	revision uint64
	factored bool
	factors  int
	rhs, x   maths.Vector[float64]
	residual []float64
}

// NewDC 创建直流潮流求解器
func NewDC(in *Input) (*Linear, error) {
	if in.DC == nil {
		return nil, errors.New("dc: susceptance matrix missing")
	}
	n := len(in.Graph.NonSlack)
	dc := &Linear{
		in:       in,
		rhs:      maths.NewDenseVector[float64](n),
		x:        maths.NewDenseVector[float64](n),
		residual: make([]float64, n),
	}
	if n > 0 {
		lu, err := in.Factory(n)
		if err != nil {
			return nil, fmt.Errorf("dc: %w", err)
		}
		dc.lu = lu
	}
	return dc, nil
}

func (dc *Linear) Name() string { return types.DC.String() }

// Factorizations 返回分解次数
func (dc *Linear) Factorizations() int { return dc.factors }

// Initialize 幅值固定为1，相角平启动或取存储值
func (dc *Linear) Initialize() *State {
	s := dc.in.initialState()
	for i := range s.Magnitude {
		s.Magnitude[i] = 1
	}
	return s
}

// specified 母线净注入 P - P_shift - G_s
func (dc *Linear) specified(i int) float64 {
	return dc.in.Active[i] - dc.in.DC.ShiftPower[i] - dc.in.System.Buses[i].ShuntConductance
}

// Mismatch 非平衡母线 |B'θ - P| 的最大值，无功恒为0
func (dc *Linear) Mismatch(s *State) (float64, float64) {
	b := dc.in.DC.B
	for k, i := range dc.in.Graph.NonSlack {
		cols, vals := b.GetRow(i)
		sum := -dc.specified(i)
		for m, j := range cols {
			sum += vals[m] * s.Angle[j]
		}
		dc.residual[k] = sum
	}
	return norm(dc.residual), 0
}

// Step 一次求解，降阶矩阵在模型修改前复用分解结果
func (dc *Linear) Step(s *State) error {
	g := dc.in.Graph
	if len(g.NonSlack) == 0 {
		return nil
	}
	if !dc.factored || dc.revision != dc.in.DC.Revision {
		if err := factorize(dc.Name(), dc.lu, reduce(dc.in.DC.B, g.NonSlack)); err != nil {
			return err
		}
		dc.factored, dc.revision = true, dc.in.DC.Revision
		dc.factors++
	}
	slack := g.Slack
	ref := s.Angle[slack]
	for k, i := range g.NonSlack {
		dc.rhs.Set(k, dc.specified(i)-dc.in.DC.B.Get(i, slack)*ref)
	}
	if err := dc.lu.SolveReuse(dc.rhs, dc.x); err != nil {
		return fmt.Errorf("dc: %w", err)
	}
	for k, i := range g.NonSlack {
		s.Angle[i] = dc.x.Get(k)
	}
	return nil
}
