package maths

import (
	"errors"
	"math"
	"math/cmplx"
)

// Epsilon 浮点判零阈值
const Epsilon = 1e-16

// PivotTolerance 相对主元阈值,主元绝对值小于 PivotTolerance*max|A| 视为奇异
const PivotTolerance = 1e-12

// ErrSingular 矩阵奇异
var ErrSingular = errors.New("matrix is singular or nearly singular")

// Number 是一个约束，允许任何浮点或复数类型
type Number interface {
	~float32 | ~float64 | ~complex64 | ~complex128
}

// Abs 返回任何支持的 Number 类型的绝对值
func Abs[T Number](v T) float64 {
	switch x := any(v).(type) {
	case float32:
		return math.Abs(float64(x))
	case float64:
		return math.Abs(x)
	case complex64:
		return cmplx.Abs(complex128(x))
	case complex128:
		return cmplx.Abs(x)
	}
	return 0
}

// DataManager 一维数据管理器（底层存储核心）
type DataManager[T Number] interface {
	Length() int
	String() string

	Get(index int) T
	Set(index int, value T)
	Increment(index int, value T)

	DataCopy() []T // 返回数据的切片副本
	DataPtr() []T  // 返回数据的切片引用（直接操作底层数据）

	Zero()
	AppendInPlace(values ...T)
	InsertInPlace(index int, values ...T)
	RemoveInPlace(index int, count int)
	Resize(length int)

	NonZeroCount() int
	Copy(target DataManager[T])
}

// Vector 向量接口
type Vector[T Number] interface {
	Length() int
	String() string

	Get(index int) T
	Set(index int, value T)
	Increment(index int, value T)

	ToDense() []T             // 转换为稠密切片（副本）
	BuildFromDense(dense []T) // 从稠密切片构建向量

	Zero()
	Copy(a Vector[T]) // 复制自身数据到目标向量a

	DotProduct(other Vector[T]) T
	Scale(scalar T)
	Add(other Vector[T])

	NonZeroCount() int
	MaxAbs() float64 // 绝对值最大元素的模（无穷范数）
}

// Matrix 矩阵接口
type Matrix[T Number] interface {
	Rows() int
	Cols() int
	String() string
	IsSquare() bool

	Get(row, col int) T
	Set(row, col int, value T)
	Increment(row, col int, value T)
	GetRow(row int) ([]int, []T)          // 指定行非零元素（列索引+值，只读）
	Each(fn func(row, col int, value T)) // 按行优先顺序遍历非零元素

	Zero()
	Copy(a Matrix[T])        // 复制自身数据到目标矩阵a
	Resize(rows, cols int)   // 重置矩阵大小和数据（清空所有元素）
	SwapRows(row1, row2 int) // 交换两行

	MatrixVectorMultiply(x Vector[T]) Vector[T] // 矩阵向量乘法（返回A*x）

	NonZeroCount() int
	MaxAbs() float64
}

// LU 接口定义了 LU 分解和求解线性方程组的操作。
type LU[T Number] interface {
	Decompose(matrix Matrix[T]) error // 对输入方阵执行LU分解（A=PLU）
	SolveReuse(b, x Vector[T]) error  // 重用分解结果求解Ax=b
}

// Equal 判断两个矩阵在容差内是否相等
func Equal[T Number](a, b Matrix[T], tol float64) bool {
	if a.Rows() != b.Rows() || a.Cols() != b.Cols() {
		return false
	}
	equal := true
	a.Each(func(i, j int, v T) {
		if Abs(v-b.Get(i, j)) > tol {
			equal = false
		}
	})
	b.Each(func(i, j int, v T) {
		if Abs(v-a.Get(i, j)) > tol {
			equal = false
		}
	})
	return equal
}
