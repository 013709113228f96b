package solver

import (
	"errors"
	"fmt"

	"powerflow/maths"
	"powerflow/types"
	"powerflow/ybus"
)

// FastDecoupled 快速解耦法(XB/BX)
//
// B' 忽略母线并联、充电电纳与变比，B'' 忽略移相；
// XB 在 B' 中忽略电阻，BX 在 B'' 中忽略电阻。
type FastDecoupled struct {
	in       *Input
	variant  types.Method
	b1, b2   maths.Matrix[float64] // 降阶后的 B'(非平衡母线) 与 B''(PQ母线)
	lu1, lu2 maths.LU[float64]
	revision uint64
	factors  [2]int // B'/B'' 分解次数

	p, q   []float64
	fp, fq []float64
	rhs    [2]maths.Vector[float64]
	dx     [2]maths.Vector[float64]
}

// NewFastDecoupled 创建快速解耦法求解器，variant 为 FastDecoupledXB 或 FastDecoupledBX
func NewFastDecoupled(in *Input, variant types.Method) (*FastDecoupled, error) {
	if variant != types.FastDecoupledXB && variant != types.FastDecoupledBX {
		return nil, fmt.Errorf("fast decoupled: invalid variant %v", variant)
	}
	if in.AC == nil {
		return nil, errors.New("fast decoupled: admittance matrix missing")
	}
	nb := in.Graph.Len()
	fd := &FastDecoupled{
		in:      in,
		variant: variant,
		p:       make([]float64, nb),
		q:       make([]float64, nb),
		fp:      make([]float64, len(in.Graph.NonSlack)),
		fq:      make([]float64, len(in.Graph.PQ)),
	}
	for k, n := range []int{len(fd.fp), len(fd.fq)} {
		fd.rhs[k] = maths.NewDenseVector[float64](n)
		fd.dx[k] = maths.NewDenseVector[float64](n)
	}
	var err error
	if len(fd.fp) > 0 {
		if fd.lu1, err = in.Factory(len(fd.fp)); err != nil {
			return nil, fmt.Errorf("fast decoupled: %w", err)
		}
	}
	if len(fd.fq) > 0 {
		if fd.lu2, err = in.Factory(len(fd.fq)); err != nil {
			return nil, fmt.Errorf("fast decoupled: %w", err)
		}
	}
	if err := fd.refresh(); err != nil {
		return nil, err
	}
	return fd, nil
}

func (fd *FastDecoupled) Name() string { return fd.variant.String() }

func (fd *FastDecoupled) Initialize() *State { return fd.in.initialState() }

// Factorizations 返回 B' 与 B'' 的分解次数
func (fd *FastDecoupled) Factorizations() (int, int) { return fd.factors[0], fd.factors[1] }

// matrices 按方法构建 B' 与 B''
func (fd *FastDecoupled) matrices() (maths.Matrix[float64], maths.Matrix[float64], error) {
	s1 := ybus.NoCharging | ybus.NoTap
	s2 := ybus.NoShift
	if fd.variant == types.FastDecoupledXB {
		s1 |= ybus.NoResistance
	} else {
		s2 |= ybus.NoResistance
	}
	sys, idx := fd.in.System, fd.in.Graph.Index
	b1, err := ybus.BuildB(sys, idx, s1, false)
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", fd.Name(), err)
	}
	b2, err := ybus.BuildB(sys, idx, s2, true)
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", fd.Name(), err)
	}
	return reduce(b1, fd.in.Graph.NonSlack), reduce(b2, fd.in.Graph.PQ), nil
}

// refresh 重建 B'/B''，仅对数值变化的矩阵重新分解
func (fd *FastDecoupled) refresh() error {
	b1, b2, err := fd.matrices()
	if err != nil {
		return err
	}
	if fd.lu1 != nil && (fd.b1 == nil || !maths.Equal(fd.b1, b1, 0)) {
		if err := factorize(fd.Name(), fd.lu1, b1); err != nil {
			return err
		}
		fd.b1 = b1
		fd.factors[0]++
	}
	if fd.lu2 != nil && (fd.b2 == nil || !maths.Equal(fd.b2, b2, 0)) {
		if err := factorize(fd.Name(), fd.lu2, b2); err != nil {
			return err
		}
		fd.b2 = b2
		fd.factors[1]++
	}
	fd.revision = fd.in.AC.Revision
	return nil
}

// Mismatch 不平衡量
func (fd *FastDecoupled) Mismatch(s *State) (float64, float64) {
	injections(fd.in.AC.Y, s, fd.p, fd.q)
	return fd.in.mismatch(fd.p, fd.q, fd.fp, fd.fq)
}

// Step 先解 B'·Δθ = -ΔP/V，更新相角后再解 B''·ΔV = -ΔQ/V
func (fd *FastDecoupled) Step(s *State) error {
	if fd.revision != fd.in.AC.Revision {
		if err := fd.refresh(); err != nil {
			return err
		}
	}
	g := fd.in.Graph
	if len(g.NonSlack) > 0 {
		fd.Mismatch(s)
		for k, i := range g.NonSlack {
			fd.rhs[0].Set(k, -fd.fp[k]/s.Magnitude[i])
		}
		if err := fd.lu1.SolveReuse(fd.rhs[0], fd.dx[0]); err != nil {
			return fmt.Errorf("%s: %w", fd.Name(), err)
		}
		for k, i := range g.NonSlack {
			s.Angle[i] += fd.dx[0].Get(k)
		}
	}
	if len(g.PQ) > 0 {
		fd.Mismatch(s)
		for k, i := range g.PQ {
			fd.rhs[1].Set(k, -fd.fq[k]/s.Magnitude[i])
		}
		if err := fd.lu2.SolveReuse(fd.rhs[1], fd.dx[1]); err != nil {
			return fmt.Errorf("%s: %w", fd.Name(), err)
		}
		for k, i := range g.PQ {
			s.Magnitude[i] += fd.dx[1].Get(k)
		}
	}
	return nil
}
