package solver

import (
	"errors"
	"math/cmplx"

	"powerflow/maths"
	"powerflow/types"
)

// GaussSeidel 高斯-赛德尔法，按节点顺序逐一更新电压
type GaussSeidel struct {
	in     *Input
	v      []complex128
	p, q   []float64
	fp, fq []float64
}

// NewGaussSeidel 创建高斯-赛德尔法求解器
func NewGaussSeidel(in *Input) (*GaussSeidel, error) {
	if in.AC == nil {
		return nil, errors.New("gauss-seidel: admittance matrix missing")
	}
	nb := in.Graph.Len()
	return &GaussSeidel{
		in: in,
		v:  make([]complex128, nb),
		p:  make([]float64, nb),
		q:  make([]float64, nb),
		fp: make([]float64, len(in.Graph.NonSlack)),
		fq: make([]float64, len(in.Graph.PQ)),
	}, nil
}

func (gs *GaussSeidel) Name() string { return types.GaussSeidel.String() }

func (gs *GaussSeidel) Initialize() *State { return gs.in.initialState() }

// Mismatch 不平衡量
func (gs *GaussSeidel) Mismatch(s *State) (float64, float64) {
	injections(gs.in.AC.Y, s, gs.p, gs.q)
	return gs.in.mismatch(gs.p, gs.q, gs.fp, gs.fq)
}

// Step 一次完整扫描，每条母线使用已更新的电压
//
//	V_i = ((P_i - jQ_i)/conj(V_i) - Σ_{j≠i} Y_ij V_j) / Y_ii
//
// PV 母线先由当前电压计算 Q_i，更新后将幅值恢复到设定值。
func (gs *GaussSeidel) Step(s *State) error {
	for i := range gs.v {
		gs.v[i] = cmplx.Rect(s.Magnitude[i], s.Angle[i])
	}
	y := gs.in.AC.Y
	g := gs.in.Graph
	for _, i := range g.NonSlack {
		yii := y.Get(i, i)
		if maths.Abs(yii) < maths.Epsilon {
			return &types.SingularError{Solver: gs.Name(), Err: maths.ErrSingular}
		}
		var sum complex128
		cols, vals := y.GetRow(i)
		for k, j := range cols {
			if j != i {
				sum += vals[k] * gs.v[j]
			}
		}
		q := gs.in.Reactive[i]
		if g.Types[i] == types.PV {
			q = -imag(cmplx.Conj(gs.v[i]) * (sum + yii*gs.v[i]))
		}
		vi := (complex(gs.in.Active[i], -q)/cmplx.Conj(gs.v[i]) - sum) / yii
		if g.Types[i] == types.PV {
			vi = cmplx.Rect(g.Setpoint[i], cmplx.Phase(vi))
		}
		gs.v[i] = vi
	}
	for _, i := range g.NonSlack {
		// 相角取增量，避免跨越 ±π 时跳变
		s.Angle[i] += cmplx.Phase(gs.v[i] * cmplx.Rect(1, -s.Angle[i]))
		s.Magnitude[i] = cmplx.Abs(gs.v[i])
	}
	return nil
}
