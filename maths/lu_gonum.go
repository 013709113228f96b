package maths

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// NewLUGonum 创建基于 gonum mat.LU 的稠密分解器（仅实数）
func NewLUGonum(n int) (LU[float64], error) {
	if n < 1 {
		return nil, errors.New("lu gonum dimension must be positive")
	}
	return &luGonum{
		n: n,
		a: mat.NewDense(n, n, nil),
		b: mat.NewVecDense(n, nil),
		x: mat.NewVecDense(n, nil),
	}, nil
}

// luGonum gonum 部分主元LU
type luGonum struct {
	n    int
	a    *mat.Dense
	b, x *mat.VecDense
	lu   mat.LU
}

// Decompose 分解，条件数超过 1/PivotTolerance 视为奇异
func (lu *luGonum) Decompose(matrix Matrix[float64]) error {
	if !matrix.IsSquare() || matrix.Rows() != lu.n {
		return errors.New("lu gonum decompose: matrix dimension mismatch")
	}
	lu.a.Zero()
	matrix.Each(func(i, j int, v float64) { lu.a.Set(i, j, v) })
	lu.lu.Factorize(lu.a)
	if cond := lu.lu.Cond(); math.IsInf(cond, 1) || math.IsNaN(cond) || cond > 1/PivotTolerance {
		return fmt.Errorf("lu gonum decompose: condition number %.3g: %w", cond, ErrSingular)
	}
	return nil
}

// SolveReuse 求解Ax=b
func (lu *luGonum) SolveReuse(b, x Vector[float64]) error {
	if b.Length() != lu.n || x.Length() != lu.n {
		return errors.New("lu gonum solve: vector dimension mismatch")
	}
	for i := 0; i < lu.n; i++ {
		lu.b.SetVec(i, b.Get(i))
	}
	if err := lu.lu.SolveVecTo(lu.x, false, lu.b); err != nil {
		// 病态但非奇异时 gonum 仍给出解
		var cond mat.Condition
		if !errors.As(err, &cond) || math.IsInf(float64(cond), 1) {
			return fmt.Errorf("lu gonum solve: %w", err)
		}
	}
	for i := 0; i < lu.n; i++ {
		x.Set(i, lu.x.AtVec(i))
	}
	return nil
}
