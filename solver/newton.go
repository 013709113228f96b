package solver

import (
	"errors"
	"fmt"
	"math"

	"powerflow/maths"
	"powerflow/types"
)

// Newton 完整牛顿-拉夫逊法，未知量为 [θ(非平衡母线); V(PQ母线)]
type Newton struct {
	in     *Input
	angle  []int // 母线位置 -> θ下标
	volt   []int // 母线位置 -> V下标(偏移前)
	n      int   // 未知量个数
	J      maths.Matrix[float64]
	lu     maths.LU[float64]
	f, dx  maths.Vector[float64]
	p, q   []float64
	fp, fq []float64
}

// NewNewtonRaphson 创建牛顿法求解器
func NewNewtonRaphson(in *Input) (*Newton, error) {
	if in.AC == nil {
		return nil, errors.New("newton: admittance matrix missing")
	}
	nb := in.Graph.Len()
	nr := &Newton{
		in:    in,
		angle: positions(nb, in.Graph.NonSlack),
		volt:  positions(nb, in.Graph.PQ),
		n:     len(in.Graph.NonSlack) + len(in.Graph.PQ),
		p:     make([]float64, nb),
		q:     make([]float64, nb),
		fp:    make([]float64, len(in.Graph.NonSlack)),
		fq:    make([]float64, len(in.Graph.PQ)),
	}
	if nr.n > 0 {
		lu, err := in.Factory(nr.n)
		if err != nil {
			return nil, fmt.Errorf("newton: %w", err)
		}
		nr.lu = lu
		nr.J = maths.NewSparseMatrix[float64](nr.n, nr.n)
		nr.f = maths.NewDenseVector[float64](nr.n)
		nr.dx = maths.NewDenseVector[float64](nr.n)
	}
	return nr, nil
}

func (nr *Newton) Name() string { return types.NewtonRaphson.String() }

func (nr *Newton) Initialize() *State { return nr.in.initialState() }

// Mismatch 不平衡量
func (nr *Newton) Mismatch(s *State) (float64, float64) {
	injections(nr.in.AC.Y, s, nr.p, nr.q)
	return nr.in.mismatch(nr.p, nr.q, nr.fp, nr.fq)
}

// Step 组装雅可比矩阵并求解 J·Δx = -f
func (nr *Newton) Step(s *State) error {
	if nr.n == 0 {
		return nil
	}
	nr.Mismatch(s)
	nr.jacobian(s)
	na := len(nr.fp)
	for k, v := range nr.fp {
		nr.f.Set(k, -v)
	}
	for k, v := range nr.fq {
		nr.f.Set(na+k, -v)
	}
	if err := factorize(nr.Name(), nr.lu, nr.J); err != nil {
		return err
	}
	if err := nr.lu.SolveReuse(nr.f, nr.dx); err != nil {
		return fmt.Errorf("newton: %w", err)
	}
	for k, i := range nr.in.Graph.NonSlack {
		s.Angle[i] += nr.dx.Get(k)
	}
	for k, i := range nr.in.Graph.PQ {
		s.Magnitude[i] += nr.dx.Get(na + k)
	}
	return nil
}

// jacobian 按解析式组装，需先计算注入功率
//
//	∂P_i/∂θ_j = V_i V_j (G sinθ - B cosθ)    ∂P_i/∂V_j = V_i (G cosθ + B sinθ)
//	∂Q_i/∂θ_j = -V_i V_j (G cosθ + B sinθ)   ∂Q_i/∂V_j = V_i (G sinθ - B cosθ)
func (nr *Newton) jacobian(s *State) {
	nr.J.Zero()
	na := len(nr.fp)
	y := nr.in.AC.Y
	V, th := s.Magnitude, s.Angle
	for i := range V {
		ri, qi := nr.angle[i], nr.volt[i]
		if ri < 0 {
			continue // 平衡母线没有方程
		}
		cols, vals := y.GetRow(i)
		for k, j := range cols {
			if j == i {
				continue
			}
			cj, vj := nr.angle[j], nr.volt[j]
			if cj < 0 {
				continue
			}
			g, b := real(vals[k]), imag(vals[k])
			sin, cos := math.Sincos(th[i] - th[j])
			a := g*sin - b*cos
			c := g*cos + b*sin
			nr.J.Set(ri, cj, V[i]*V[j]*a)
			if vj >= 0 {
				nr.J.Set(ri, na+vj, V[i]*c)
			}
			if qi >= 0 {
				nr.J.Set(na+qi, cj, -V[i]*V[j]*c)
				if vj >= 0 {
					nr.J.Set(na+qi, na+vj, V[i]*a)
				}
			}
		}
		yii := y.Get(i, i)
		gii, bii := real(yii), imag(yii)
		nr.J.Set(ri, ri, -nr.q[i]-bii*V[i]*V[i])
		if qi >= 0 {
			nr.J.Set(ri, na+qi, nr.p[i]/V[i]+gii*V[i])
			nr.J.Set(na+qi, ri, nr.p[i]-gii*V[i]*V[i])
			nr.J.Set(na+qi, na+qi, nr.q[i]/V[i]-bii*V[i])
		}
	}
}
