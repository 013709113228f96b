package maths

import (
	"fmt"
	"strings"
)

// denseMatrix 稠密矩阵实现（行优先全量存储）
type denseMatrix[T Number] struct {
	rows, cols int
	data       DataManager[T]
}

// NewDenseMatrix 创建指定维度的空稠密矩阵
func NewDenseMatrix[T Number](rows, cols int) Matrix[T] {
	return &denseMatrix[T]{rows: rows, cols: cols, data: NewDataManager[T](rows * cols)}
}

func (m *denseMatrix[T]) Rows() int      { return m.rows }
func (m *denseMatrix[T]) Cols() int      { return m.cols }
func (m *denseMatrix[T]) IsSquare() bool { return m.rows == m.cols }

func (m *denseMatrix[T]) check(row, col int) {
	if row < 0 || row >= m.rows || col < 0 || col >= m.cols {
		panic(fmt.Sprintf("index out of range: (%d,%d) in %dx%d", row, col, m.rows, m.cols))
	}
}

// Get 获取指定行列元素值（越界panic）
func (m *denseMatrix[T]) Get(row, col int) T {
	m.check(row, col)
	return m.data.Get(row*m.cols + col)
}

// Set 设置指定行列元素值（越界panic）
func (m *denseMatrix[T]) Set(row, col int, value T) {
	m.check(row, col)
	m.data.Set(row*m.cols+col, value)
}

// Increment 增量更新矩阵元素
func (m *denseMatrix[T]) Increment(row, col int, value T) {
	m.check(row, col)
	m.data.Increment(row*m.cols+col, value)
}

// GetRow 获取指定行的非零元素
func (m *denseMatrix[T]) GetRow(row int) ([]int, []T) {
	var zero T
	cols := make([]int, 0, m.cols)
	values := make([]T, 0, m.cols)
	for j := 0; j < m.cols; j++ {
		if v := m.Get(row, j); v != zero {
			cols = append(cols, j)
			values = append(values, v)
		}
	}
	return cols, values
}

// Each 遍历非零元素
func (m *denseMatrix[T]) Each(fn func(row, col int, value T)) {
	var zero T
	data := m.data.DataPtr()
	for i := 0; i < m.rows; i++ {
		for j := 0; j < m.cols; j++ {
			if v := data[i*m.cols+j]; v != zero {
				fn(i, j, v)
			}
		}
	}
}

// Zero 清空矩阵为零矩阵
func (m *denseMatrix[T]) Zero() { m.data.Zero() }

// Copy 复制自身数据到目标矩阵（支持稠密/稀疏等类型）
func (m *denseMatrix[T]) Copy(a Matrix[T]) {
	if a.Rows() != m.rows || a.Cols() != m.cols {
		panic(fmt.Sprintf("dimension mismatch: source %dx%d, target %dx%d", m.rows, m.cols, a.Rows(), a.Cols()))
	}
	if target, ok := a.(*denseMatrix[T]); ok {
		m.data.Copy(target.data)
		return
	}
	a.Zero()
	m.Each(func(i, j int, v T) { a.Set(i, j, v) })
}

// Resize 重置矩阵大小和数据
func (m *denseMatrix[T]) Resize(rows, cols int) {
	m.rows, m.cols = rows, cols
	m.data.Resize(rows * cols)
	m.data.Zero()
}

// SwapRows 交换两行
func (m *denseMatrix[T]) SwapRows(row1, row2 int) {
	if row1 == row2 {
		return
	}
	data := m.data.DataPtr()
	r1 := data[row1*m.cols : (row1+1)*m.cols]
	r2 := data[row2*m.cols : (row2+1)*m.cols]
	for j := range r1 {
		r1[j], r2[j] = r2[j], r1[j]
	}
}

// MatrixVectorMultiply 矩阵向量乘法（A*x，返回新向量）
func (m *denseMatrix[T]) MatrixVectorMultiply(x Vector[T]) Vector[T] {
	if x.Length() != m.cols {
		panic(fmt.Sprintf("vector dimension mismatch: x length=%d, matrix cols=%d", x.Length(), m.cols))
	}
	result := NewDenseVector[T](m.rows)
	m.Each(func(i, j int, v T) { result.Increment(i, v*x.Get(j)) })
	return result
}

// NonZeroCount 统计非零元素数量
func (m *denseMatrix[T]) NonZeroCount() int { return m.data.NonZeroCount() }

// MaxAbs 最大元素模
func (m *denseMatrix[T]) MaxAbs() float64 {
	peak := 0.0
	m.Each(func(_, _ int, v T) {
		if a := Abs(v); a > peak {
			peak = a
		}
	})
	return peak
}

// String 格式化输出矩阵
func (m *denseMatrix[T]) String() string { return formatMatrix[T](m) }

// formatMatrix 按行输出
func formatMatrix[T Number](m Matrix[T]) string {
	var b strings.Builder
	for i := 0; i < m.Rows(); i++ {
		for j := 0; j < m.Cols(); j++ {
			fmt.Fprintf(&b, "%10.4g ", m.Get(i, j))
		}
		b.WriteByte('\n')
	}
	return b.String()
}
