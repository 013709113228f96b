// Package ybus 构建节点导纳矩阵(交流)与节点电纳矩阵(直流)
package ybus

import (
	"fmt"
	"math/cmplx"

	"powerflow/maths"
	"powerflow/types"
)

// Simplify 支路模型简化选项
type Simplify uint8

// 简化选项常量定义
const (
	NoResistance Simplify = 1 << iota // 忽略串联电阻
	NoCharging                        // 忽略充电导纳
	NoTap                             // 忽略变比幅值
	NoShift                           // 忽略移相角
)

// Has 是否包含选项
func (s Simplify) Has(flag Simplify) bool { return s&flag != 0 }

// Quadrant 支路π型等值的四个导纳分量
//
//	[If]   [FF FT] [Vf]
//	[It] = [TF TT] [Vt]
type Quadrant struct {
	FF, FT, TF, TT complex128
}

// Scale 缩放
func (q Quadrant) Scale(s complex128) Quadrant {
	return Quadrant{FF: q.FF * s, FT: q.FT * s, TF: q.TF * s, TT: q.TT * s}
}

// BranchQuadrant 计算支路导纳分量，串联阻抗为零时报错
func BranchQuadrant(br types.Branch, s Simplify) (Quadrant, error) {
	r, x := br.Resistance, br.Reactance
	if s.Has(NoResistance) {
		r = 0
	}
	if r == 0 && x == 0 {
		return Quadrant{}, fmt.Errorf("branch %d (%d-%d): %w", br.ID, br.From, br.To, types.ErrZeroImpedance)
	}
	ys := 1 / complex(r, x)
	var ysh complex128
	if !s.Has(NoCharging) {
		ysh = complex(br.Conductance/2, br.Susceptance/2)
	}
	tau, phi := br.Tap(), br.ShiftAngle
	if s.Has(NoTap) {
		tau = 1
	}
	if s.Has(NoShift) {
		phi = 0
	}
	t := cmplx.Rect(tau, phi)
	return Quadrant{
		FF: (ys + ysh) / complex(tau*tau, 0),
		FT: -ys / cmplx.Conj(t),
		TF: -ys / t,
		TT: ys + ysh,
	}, nil
}

// Stamp 将四个分量加盖到矩阵(f,t为母线位置)
func Stamp[T maths.Number](m maths.Matrix[T], f, t int, ff, ft, tf, tt T) {
	m.Increment(f, f, ff)
	m.Increment(f, t, ft)
	m.Increment(t, f, tf)
	m.Increment(t, t, tt)
}
