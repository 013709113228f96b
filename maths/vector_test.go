package maths

import (
	"math/rand"
	"testing"
)

// TestDenseVectorOperations 函数测试密集向量 (denseVector) 的基本操作，
// 包括创建、设置/获取元素、点积、加法和标量乘法。
func TestDenseVectorOperations(t *testing.T) {
	v1 := NewDenseVector[float64](3)
	v1.Set(0, 1)
	v1.Set(1, 2)
	v1.Set(2, 3)

	if v1.Length() != 3 {
		t.Errorf("Expected length 3, got %d", v1.Length())
	}
	if v1.Get(1) != 2 {
		t.Errorf("Expected Get(1) to be 2, got %f", v1.Get(1))
	}

	v2 := NewDenseVectorWithData([]float64{4, 5, 6})

	dot := v1.DotProduct(v2)
	expectedDot := 1.0*4.0 + 2.0*5.0 + 3.0*6.0
	if dot != expectedDot {
		t.Errorf("Expected dot product %f, got %f", expectedDot, dot)
	}

	v1.Add(v2)
	if v1.Get(0) != 5 || v1.Get(1) != 7 || v1.Get(2) != 9 {
		t.Errorf("Vector Add failed. Got [%f, %f, %f]", v1.Get(0), v1.Get(1), v1.Get(2))
	}

	v1.Scale(2)
	if v1.Get(0) != 10 || v1.Get(1) != 14 || v1.Get(2) != 18 {
		t.Errorf("Vector Scale failed. Got [%f, %f, %f]", v1.Get(0), v1.Get(1), v1.Get(2))
	}
	if v1.MaxAbs() != 18 {
		t.Errorf("Expected MaxAbs 18, got %f", v1.MaxAbs())
	}
}

// TestComplexVectorMaxAbs 复数向量按模取最大值
func TestComplexVectorMaxAbs(t *testing.T) {
	v := NewDenseVectorWithData([]complex128{1 + 1i, -3 + 4i, 2})
	if got := v.MaxAbs(); got != 5 {
		t.Errorf("Expected MaxAbs 5, got %f", got)
	}
	cp := NewDenseVector[complex128](3)
	v.Copy(cp)
	if cp.Get(1) != -3+4i {
		t.Errorf("Copy failed, got %v", cp.Get(1))
	}
}

// BenchmarkDenseVectorSet 测试密集向量 Set 操作的性能。
func BenchmarkDenseVectorSet(b *testing.B) {
	size := 1000
	v := NewDenseVector[float64](size)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		index := i % size
		v.Set(index, rand.Float64())
	}
}
