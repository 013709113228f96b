package maths

import (
	"errors"
	"fmt"
	"math"
	"slices"

	"github.com/edp1096/sparse"
)

// NewLUMarkowitz 创建基于 Markowitz 排序的稀疏分解器（仅实数）。
// 首次分解时完成排序，之后非零结构不变则复用主元顺序，只做数值分解。
func NewLUMarkowitz(n int) (LU[float64], error) {
	if n < 1 {
		return nil, errors.New("lu markowitz dimension must be positive")
	}
	return &luMarkowitz{
		n: n,
		config: sparse.Configuration{
			Real:           true,
			Complex:        false,
			Expandable:     true,
			Translate:      true,
			ModifiedNodal:  false,
			TiesMultiplier: 5,
			PrinterWidth:   140,
		},
		rhs: make([]float64, n+1),
	}, nil
}

// luMarkowitz 缓存元素指针，结构不变时 Clear 后原位重填
type luMarkowitz struct {
	n        int
	config   sparse.Configuration
	m        *sparse.Matrix
	pattern  []int             // 非零结构: row*n+col
	elements []*sparse.Element // 与 pattern 一一对应
	values   []float64
	rhs      []float64 // 求解右端项(下标从1开始)
	tiny     float64
	reorders int // 重新排序次数
}

// Reorders 返回完成排序的次数
func (lu *luMarkowitz) Reorders() int { return lu.reorders }

// Decompose 分解矩阵
func (lu *luMarkowitz) Decompose(matrix Matrix[float64]) error {
	if !matrix.IsSquare() || matrix.Rows() != lu.n {
		return errors.New("lu markowitz decompose: matrix dimension mismatch")
	}
	pattern := lu.pattern[:0:0]
	lu.values = lu.values[:0]
	matrix.Each(func(i, j int, v float64) {
		pattern = append(pattern, i*lu.n+j)
		lu.values = append(lu.values, v)
	})
	lu.tiny = max(PivotTolerance*matrix.MaxAbs(), Epsilon)
	if row := emptyRow(pattern, lu.n); row >= 0 {
		return fmt.Errorf("lu markowitz decompose: row %d empty: %w", row, ErrSingular)
	}
	if lu.m != nil && slices.Equal(pattern, lu.pattern) {
		lu.m.Clear()
		for k, e := range lu.elements {
			e.Real += lu.values[k]
		}
		if err := lu.m.Factor(); err == nil && lu.stable() {
			return nil
		}
		// 原主元顺序不再适用，重新排序
	}
	lu.pattern = pattern
	return lu.order()
}

// emptyRow 返回第一个没有非零元素的行，不存在时返回-1
func emptyRow(pattern []int, n int) int {
	row := 0
	for _, p := range pattern {
		switch r := p / n; {
		case r == row:
			row++
		case r > row:
			return row
		}
	}
	if row < n {
		return row
	}
	return -1
}

// order 重建矩阵并完成 Markowitz 排序分解
func (lu *luMarkowitz) order() error {
	if lu.m != nil {
		lu.m.Destroy()
		lu.m = nil
	}
	m, err := sparse.Create(int64(lu.n), &lu.config)
	if err != nil {
		return fmt.Errorf("lu markowitz create: %w", err)
	}
	lu.elements = lu.elements[:0]
	for k, p := range lu.pattern {
		e := m.GetElement(int64(p/lu.n+1), int64(p%lu.n+1))
		if e == nil {
			m.Destroy()
			return fmt.Errorf("lu markowitz: element (%d,%d) unavailable", p/lu.n, p%lu.n)
		}
		e.Real += lu.values[k]
		lu.elements = append(lu.elements, e)
	}
	lu.m = m
	lu.reorders++
	if err := m.Factor(); err != nil {
		return fmt.Errorf("lu markowitz decompose: %v: %w", err, ErrSingular)
	}
	if !lu.stable() {
		return fmt.Errorf("lu markowitz decompose: pivot below %.3g: %w", lu.tiny, ErrSingular)
	}
	return nil
}

// stable 检查分解后的主元（对角线存储主元倒数）
func (lu *luMarkowitz) stable() bool {
	if len(lu.m.Diags) <= lu.n {
		return false
	}
	for i := 1; i <= lu.n; i++ {
		d := lu.m.Diags[i]
		if d == nil || math.IsNaN(d.Real) || math.IsInf(d.Real, 0) || math.Abs(d.Real)*lu.tiny > 1 {
			return false
		}
	}
	return true
}

// SolveReuse 求解Ax=b（内部使用从1开始的下标）
func (lu *luMarkowitz) SolveReuse(b, x Vector[float64]) error {
	if b.Length() != lu.n || x.Length() != lu.n {
		return errors.New("lu markowitz solve: vector dimension mismatch")
	}
	if lu.m == nil {
		return errors.New("lu markowitz solve: matrix not factored")
	}
	lu.rhs[0] = 0
	for i := 0; i < lu.n; i++ {
		lu.rhs[i+1] = b.Get(i)
	}
	sol, err := lu.m.Solve(lu.rhs)
	if err != nil {
		return fmt.Errorf("lu markowitz solve: %w", err)
	}
	for i := 0; i < lu.n; i++ {
		x.Set(i, sol[i+1])
	}
	return nil
}
