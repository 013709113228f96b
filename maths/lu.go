package maths

import (
	"errors"
	"fmt"
)

// NewLU 创建稠密矩阵LU分解器（输入矩阵维度n）
func NewLU[T Number](n int) (LU[T], error) {
	if n < 1 {
		return nil, errors.New("lu dimension must be positive")
	}
	return &luDense[T]{baseLU: newBaseLU(n, NewDenseMatrix[T](n, n), NewDenseMatrix[T](n, n))}, nil
}

// NewLUSparse 创建稀疏矩阵LU分解器（输入矩阵维度n）
func NewLUSparse[T Number](n int) (LU[T], error) {
	if n < 1 {
		return nil, errors.New("lu sparse dimension must be positive")
	}
	return &luSparse[T]{baseLU: newBaseLU(n, NewSparseMatrix[T](n, n), NewSparseMatrix[T](n, n))}, nil
}

// baseLU 公共LU分解结构体（存储共用字段）
// 实现PA = LU分解，其中：
//
//	P - 置换矩阵（用向量表示）
//	L - 单位下三角矩阵（对角线为1）
//	U - 上三角矩阵
type baseLU[T Number] struct {
	n        int       // 矩阵维度（方阵n×n）
	L        Matrix[T] // 下三角矩阵L（严格下三角存储消元因子）
	U        Matrix[T] // 上三角矩阵U
	Y        []T       // 中间变量：存储前向替换结果Ly=Pb
	P        []int     // 置换向量：P[i] = 分解后第i行对应的原始矩阵行索引
	pinverse []int     // 逆置换向量
	tiny     float64   // 本次分解的主元判零阈值
}

func newBaseLU[T Number](n int, l, u Matrix[T]) baseLU[T] {
	return baseLU[T]{
		n:        n,
		L:        l,
		U:        u,
		Y:        make([]T, n),
		P:        make([]int, n),
		pinverse: make([]int, n),
	}
}

// Dim 获取矩阵维度
func (lu *baseLU[T]) Dim() int { return lu.n }

// init 校验输入，将A拷贝到U并初始化置换向量
func (lu *baseLU[T]) init(matrix Matrix[T], name string) error {
	if !matrix.IsSquare() {
		return fmt.Errorf("lu %s decompose: input must be square matrix", name)
	}
	if matrix.Rows() != lu.n {
		return fmt.Errorf("lu %s decompose: matrix dimension mismatch", name)
	}
	lu.L.Zero()
	matrix.Copy(lu.U) // 在U上进行原位消元
	for i := 0; i < lu.n; i++ {
		lu.P[i] = i
		lu.pinverse[i] = i
	}
	lu.tiny = max(PivotTolerance*matrix.MaxAbs(), Epsilon)
	return nil
}

// pivot 在U的第k列中[k, n-1]行选取绝对值最大的主元
func (lu *baseLU[T]) pivot(k int, name string) (int, error) {
	maxRow := k
	maxAbsVal := Abs(lu.U.Get(k, k))
	for i := k + 1; i < lu.n; i++ {
		if v := Abs(lu.U.Get(i, k)); v > maxAbsVal {
			maxAbsVal = v
			maxRow = i
		}
	}
	if maxAbsVal < lu.tiny {
		return 0, fmt.Errorf("lu %s decompose: column %d: %w", name, k, ErrSingular)
	}
	return maxRow, nil
}

// updatePermutation 更新置换向量（交换并同步更新逆置换）
func (lu *baseLU[T]) updatePermutation(k, maxRow int) {
	lu.P[k], lu.P[maxRow] = lu.P[maxRow], lu.P[k]
	lu.pinverse[lu.P[k]] = k
	lu.pinverse[lu.P[maxRow]] = maxRow
}

// solve 前向替换Ly=Pb，后向替换Ux=y
func (lu *baseLU[T]) solve(b, x Vector[T], name string) error {
	if b.Length() != lu.n || x.Length() != lu.n {
		return fmt.Errorf("lu %s solve: vector dimension mismatch", name)
	}
	for i := 0; i < lu.n; i++ {
		sum := b.Get(lu.P[i])
		cols, vals := lu.L.GetRow(i)
		for idx, j := range cols {
			if j < i {
				sum -= vals[idx] * lu.Y[j]
			}
		}
		lu.Y[i] = sum
	}
	for i := lu.n - 1; i >= 0; i-- {
		sum := lu.Y[i]
		var diag T
		cols, vals := lu.U.GetRow(i)
		for idx, j := range cols {
			switch {
			case j > i:
				sum -= vals[idx] * x.Get(j)
			case j == i:
				diag = vals[idx]
			}
		}
		if Abs(diag) < Epsilon {
			return fmt.Errorf("lu %s solve: zero diagonal at %d: %w", name, i, ErrSingular)
		}
		x.Set(i, sum/diag)
	}
	return nil
}

// luDense 稠密矩阵LU分解实现（A=PLU，带部分主元）
type luDense[T Number] struct {
	baseLU[T]
}

// Decompose 执行稠密矩阵LU分解（高斯消元+部分主元）
func (lu *luDense[T]) Decompose(matrix Matrix[T]) error {
	if err := lu.init(matrix, "dense"); err != nil {
		return err
	}
	for k := 0; k < lu.n; k++ {
		maxRow, err := lu.pivot(k, "dense")
		if err != nil {
			return err
		}
		if maxRow != k {
			lu.U.SwapRows(k, maxRow)
			lu.L.SwapRows(k, maxRow) // L只填充了前k列，整行交换是安全的
			lu.updatePermutation(k, maxRow)
		}
		pivotVal := lu.U.Get(k, k)
		for i := k + 1; i < lu.n; i++ {
			factor := lu.U.Get(i, k) / pivotVal
			lu.L.Set(i, k, factor)
			lu.U.Set(i, k, 0)
			for j := k + 1; j < lu.n; j++ {
				lu.U.Set(i, j, lu.U.Get(i, j)-factor*lu.U.Get(k, j))
			}
		}
	}
	return nil
}

// SolveReuse 利用分解结果求解Ax=b
func (lu *luDense[T]) SolveReuse(b, x Vector[T]) error { return lu.solve(b, x, "dense") }

// luSparse 稀疏矩阵LU分解实现（A=PLU，带部分主元+稀疏优化）
type luSparse[T Number] struct {
	baseLU[T]
}

// Decompose 执行稀疏矩阵LU分解（仅处理非零元素）
func (lu *luSparse[T]) Decompose(matrix Matrix[T]) error {
	if err := lu.init(matrix, "sparse"); err != nil {
		return err
	}
	var zero T
	for k := 0; k < lu.n; k++ {
		maxRow, err := lu.pivot(k, "sparse")
		if err != nil {
			return err
		}
		if maxRow != k {
			lu.U.SwapRows(k, maxRow)
			lu.L.SwapRows(k, maxRow)
			lu.updatePermutation(k, maxRow)
		}
		pivotVal := lu.U.Get(k, k)
		// 主元行在消元过程中不变，先取副本
		rowCols, rowVals := lu.U.GetRow(k)
		pivotCols := append([]int(nil), rowCols...)
		pivotVals := append([]T(nil), rowVals...)
		for i := k + 1; i < lu.n; i++ {
			valIK := lu.U.Get(i, k)
			if valIK == zero {
				continue
			}
			factor := valIK / pivotVal
			lu.L.Set(i, k, factor)
			lu.U.Set(i, k, 0)
			for idx, j := range pivotCols {
				if j <= k {
					continue
				}
				updated := lu.U.Get(i, j) - factor*pivotVals[idx]
				if Abs(updated) < Epsilon {
					updated = zero
				}
				lu.U.Set(i, j, updated)
			}
		}
	}
	return nil
}

// SolveReuse 稀疏矩阵LU分解结果求解Ax=b
func (lu *luSparse[T]) SolveReuse(b, x Vector[T]) error { return lu.solve(b, x, "sparse") }
