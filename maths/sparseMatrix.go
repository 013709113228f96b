package maths

import (
	"fmt"
	"sort"
)

// cancelTolerance 增量累加后相对抵消到该比例以下时删除元素
const cancelTolerance = 1e-13

// sparseMatrix 稀疏矩阵数据结构
// 使用CSR (Compressed Sparse Row) 格式存储，基于DataManager管理底层数据
type sparseMatrix[T Number] struct {
	rows, cols int
	rowPtr     []int          // 行指针数组
	colInd     []int          // 列索引数组
	values     DataManager[T] // 非零元素值数据管理器
}

// NewSparseMatrix 创建新的稀疏矩阵
func NewSparseMatrix[T Number](rows, cols int) Matrix[T] {
	return &sparseMatrix[T]{
		rows:   rows,
		cols:   cols,
		rowPtr: make([]int, rows+1), // 多一个元素用于存储结束位置
		colInd: make([]int, 0),
		values: NewDataManager[T](0),
	}
}

func (m *sparseMatrix[T]) check(row, col int) {
	if row < 0 || row >= m.rows || col < 0 || col >= m.cols {
		panic(fmt.Sprintf("index out of range: (%d,%d) in %dx%d", row, col, m.rows, m.cols))
	}
}

// search 二分查找列索引，返回位置及是否存在
func (m *sparseMatrix[T]) search(row, col int) (int, bool) {
	start, end := m.rowPtr[row], m.rowPtr[row+1]
	pos := sort.Search(end-start, func(i int) bool {
		return m.colInd[start+i] >= col
	}) + start
	return pos, pos < end && m.colInd[pos] == col
}

// Set 设置矩阵元素，零值删除元素
func (m *sparseMatrix[T]) Set(row, col int, value T) {
	m.check(row, col)
	var zero T
	pos, ok := m.search(row, col)
	switch {
	case ok && value == zero:
		m.deleteElement(row, pos)
	case ok:
		m.values.Set(pos, value)
	case value != zero:
		m.insertElement(row, col, value, pos)
	}
}

// Increment 增量设置矩阵元素，累加后抵消则删除元素
func (m *sparseMatrix[T]) Increment(row, col int, value T) {
	m.check(row, col)
	var zero T
	if value == zero {
		return
	}
	pos, ok := m.search(row, col)
	if !ok {
		m.insertElement(row, col, value, pos)
		return
	}
	current := m.values.Get(pos)
	next := current + value
	if Abs(next) <= cancelTolerance*max(Abs(current), Abs(value)) {
		m.deleteElement(row, pos)
		return
	}
	m.values.Set(pos, next)
}

// Get 获取矩阵元素
func (m *sparseMatrix[T]) Get(row, col int) T {
	m.check(row, col)
	if pos, ok := m.search(row, col); ok {
		return m.values.Get(pos)
	}
	var zero T
	return zero
}

// deleteElement 删除指定位置的元素
func (m *sparseMatrix[T]) deleteElement(row, pos int) {
	m.colInd = append(m.colInd[:pos], m.colInd[pos+1:]...)
	m.values.RemoveInPlace(pos, 1)
	for i := row + 1; i <= m.rows; i++ {
		m.rowPtr[i]--
	}
}

// insertElement 在指定位置插入元素
func (m *sparseMatrix[T]) insertElement(row, col int, value T, pos int) {
	m.colInd = append(m.colInd, 0)
	copy(m.colInd[pos+1:], m.colInd[pos:])
	m.colInd[pos] = col
	m.values.InsertInPlace(pos, value)
	for i := row + 1; i <= m.rows; i++ {
		m.rowPtr[i]++
	}
}

func (m *sparseMatrix[T]) Rows() int      { return m.rows }
func (m *sparseMatrix[T]) Cols() int      { return m.cols }
func (m *sparseMatrix[T]) IsSquare() bool { return m.rows == m.cols }

// String 字符串表示
func (m *sparseMatrix[T]) String() string { return formatMatrix[T](m) }

// NonZeroCount 返回非零元素数量
func (m *sparseMatrix[T]) NonZeroCount() int { return m.values.Length() }

// GetRow 获取指定行的非零元素，返回切片引用底层存储，调用方不得修改
func (m *sparseMatrix[T]) GetRow(row int) ([]int, []T) {
	if row < 0 || row >= m.rows {
		panic("row index out of range")
	}
	start, end := m.rowPtr[row], m.rowPtr[row+1]
	return m.colInd[start:end], m.values.DataPtr()[start:end]
}

// Each 按行优先顺序遍历非零元素
func (m *sparseMatrix[T]) Each(fn func(row, col int, value T)) {
	values := m.values.DataPtr()
	for i := 0; i < m.rows; i++ {
		for k := m.rowPtr[i]; k < m.rowPtr[i+1]; k++ {
			fn(i, m.colInd[k], values[k])
		}
	}
}

// Copy 复制矩阵
func (m *sparseMatrix[T]) Copy(a Matrix[T]) {
	switch target := a.(type) {
	case *sparseMatrix[T]:
		target.rows, target.cols = m.rows, m.cols
		target.rowPtr = append(target.rowPtr[:0], m.rowPtr...)
		target.colInd = append(target.colInd[:0], m.colInd...)
		target.values = NewDataManagerWithData(m.values.DataCopy())
	default:
		if a.Rows() != m.rows || a.Cols() != m.cols {
			panic(fmt.Sprintf("dimension mismatch: source %dx%d, target %dx%d", m.rows, m.cols, a.Rows(), a.Cols()))
		}
		a.Zero()
		m.Each(func(i, j int, v T) { a.Set(i, j, v) })
	}
}

// SwapRows 交换两行
func (m *sparseMatrix[T]) SwapRows(row1, row2 int) {
	if row1 == row2 {
		return
	}
	if row1 > row2 {
		row1, row2 = row2, row1
	}
	values := m.values.DataPtr()
	s1, e1 := m.rowPtr[row1], m.rowPtr[row1+1]
	s2, e2 := m.rowPtr[row2], m.rowPtr[row2+1]
	// 重排区间 [s1,e2)：row2 | 中间行 | row1
	cols := make([]int, 0, e2-s1)
	vals := make([]T, 0, e2-s1)
	cols = append(cols, m.colInd[s2:e2]...)
	vals = append(vals, values[s2:e2]...)
	cols = append(cols, m.colInd[e1:s2]...)
	vals = append(vals, values[e1:s2]...)
	cols = append(cols, m.colInd[s1:e1]...)
	vals = append(vals, values[s1:e1]...)
	copy(m.colInd[s1:e2], cols)
	copy(values[s1:e2], vals)
	delta := (e2 - s2) - (e1 - s1)
	for i := row1 + 1; i <= row2; i++ {
		m.rowPtr[i] += delta
	}
}

// MatrixVectorMultiply 矩阵向量乘法
func (m *sparseMatrix[T]) MatrixVectorMultiply(x Vector[T]) Vector[T] {
	if x.Length() != m.cols {
		panic("vector dimension mismatch")
	}
	result := NewDenseVector[T](m.rows)
	m.Each(func(i, j int, v T) { result.Increment(i, v*x.Get(j)) })
	return result
}

// Zero 将矩阵重置为零矩阵（删除全部结构）
func (m *sparseMatrix[T]) Zero() {
	m.colInd = m.colInd[:0]
	m.values.Resize(0)
	clear(m.rowPtr)
}

// Resize 重置矩阵大小
func (m *sparseMatrix[T]) Resize(rows, cols int) {
	m.rows, m.cols = rows, cols
	m.rowPtr = make([]int, rows+1)
	m.colInd = m.colInd[:0]
	m.values.Resize(0)
}

// MaxAbs 最大元素模
func (m *sparseMatrix[T]) MaxAbs() float64 {
	peak := 0.0
	for _, v := range m.values.DataPtr() {
		if a := Abs(v); a > peak {
			peak = a
		}
	}
	return peak
}
