package maths

import (
	"reflect"
	"testing"
)

func TestSparseMatrixResize(t *testing.T) {
	// 1. 创建一个稀疏矩阵并添加一些元素
	sm := NewSparseMatrix[float64](3, 3)
	sm.Set(0, 0, 1.0)
	sm.Set(1, 1, 2.0)
	sm.Set(2, 2, 3.0)

	if sm.NonZeroCount() != 3 {
		t.Fatalf("希望在调整大小前有3个非零元素, 得到 %d", sm.NonZeroCount())
	}

	// 2. 调整矩阵大小
	sm.Resize(5, 5)
	if sm.Rows() != 5 || sm.Cols() != 5 {
		t.Errorf("希望调整大小后为5x5, 得到 %dx%d", sm.Rows(), sm.Cols())
	}

	// 3. 验证矩阵是否为空
	if sm.NonZeroCount() != 0 {
		t.Errorf("希望调整大小后有0个非零元素, 得到 %d", sm.NonZeroCount())
	}
	for i := 0; i < 5; i++ {
		for j := 0; j < 5; j++ {
			if sm.Get(i, j) != 0.0 {
				t.Errorf("希望在(%d, %d)处的元素在调整大小后为0, 得到 %f", i, j, sm.Get(i, j))
			}
		}
	}
}

func TestDenseMatrixGetRow(t *testing.T) {
	dm := NewDenseMatrix[float64](3, 4)
	dm.Set(1, 0, 10.0)
	dm.Set(1, 1, 0.0) // 这应该被忽略
	dm.Set(1, 2, 30.0)
	dm.Set(1, 3, 0.0) // 这应该被忽略

	cols, values := dm.GetRow(1)
	expectedCols := []int{0, 2}
	expectedValues := []float64{10.0, 30.0}
	if !reflect.DeepEqual(cols, expectedCols) {
		t.Errorf("GetRow 返回了不正确的列. 希望得到 %v, 得到 %v", expectedCols, cols)
	}
	if !reflect.DeepEqual(values, expectedValues) {
		t.Errorf("GetRow 返回了不正确的值. 希望得到 %v, 得到 %v", expectedValues, values)
	}
}

// TestSparseIncrementCancel 增量抵消后元素被删除，再次累加重新插入
func TestSparseIncrementCancel(t *testing.T) {
	sm := NewSparseMatrix[complex128](2, 2)
	y := 1 / complex(0.01, 0.1)
	sm.Increment(0, 0, y)
	sm.Increment(0, 1, -y)
	sm.Increment(1, 0, -y)
	sm.Increment(1, 1, y)
	if sm.NonZeroCount() != 4 {
		t.Fatalf("希望有4个非零元素, 得到 %d", sm.NonZeroCount())
	}
	sm.Increment(0, 1, y)
	sm.Increment(1, 0, y)
	if sm.NonZeroCount() != 2 {
		t.Fatalf("抵消后希望有2个非零元素, 得到 %d", sm.NonZeroCount())
	}
	sm.Increment(0, 1, -2*y)
	if got := sm.Get(0, 1); Abs(got+2*y) > 1e-12 {
		t.Errorf("重新插入后 (0,1) = %v, 希望 %v", got, -2*y)
	}
}

// TestSparseSwapRows 交换行后与稠密矩阵一致
func TestSparseSwapRows(t *testing.T) {
	sm := NewSparseMatrix[float64](4, 4)
	dm := NewDenseMatrix[float64](4, 4)
	entries := [][3]float64{{0, 0, 1}, {0, 3, 2}, {1, 1, 3}, {2, 0, 4}, {2, 1, 5}, {2, 2, 6}, {3, 3, 7}}
	for _, e := range entries {
		sm.Set(int(e[0]), int(e[1]), e[2])
		dm.Set(int(e[0]), int(e[1]), e[2])
	}
	for _, pair := range [][2]int{{0, 2}, {3, 1}, {1, 2}, {0, 3}} {
		sm.SwapRows(pair[0], pair[1])
		dm.SwapRows(pair[0], pair[1])
		if !Equal(sm, dm, 0) {
			t.Fatalf("交换 %v 后不一致:\n%s\n%s", pair, sm, dm)
		}
	}
}

// TestMatrixCopy 稠密与稀疏之间相互复制
func TestMatrixCopy(t *testing.T) {
	sm := NewSparseMatrix[float64](3, 3)
	sm.Set(0, 1, 2)
	sm.Set(2, 2, -1)
	dm := NewDenseMatrix[float64](3, 3)
	dm.Set(1, 1, 9) // 复制前的数据应被覆盖
	sm.Copy(dm)
	if !Equal(sm, dm, 0) {
		t.Fatalf("稀疏复制到稠密失败:\n%s", dm)
	}
	back := NewSparseMatrix[float64](3, 3)
	dm.Copy(back)
	if !Equal(back, sm, 0) || back.NonZeroCount() != 2 {
		t.Fatalf("稠密复制到稀疏失败:\n%s", back)
	}
}
