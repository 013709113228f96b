package maths

import (
	"fmt"
	"strings"
)

// denseVector 稠密向量实现
// 基于 DataManager 实现 Vector 接口
type denseVector[T Number] struct {
	DataManager[T]
}

// NewDenseVector 创建新的稠密向量
func NewDenseVector[T Number](length int) Vector[T] {
	return &denseVector[T]{DataManager: NewDataManager[T](length)}
}

// NewDenseVectorWithData 从现有数据创建稠密向量（共享底层切片）
func NewDenseVectorWithData[T Number](data []T) Vector[T] {
	return &denseVector[T]{DataManager: NewDataManagerWithData(data)}
}

// BuildFromDense 从稠密切片构建向量
func (v *denseVector[T]) BuildFromDense(dense []T) {
	if len(dense) != v.Length() {
		panic(fmt.Sprintf("dimension mismatch: %d != %d", len(dense), v.Length()))
	}
	copy(v.DataPtr(), dense)
}

// ToDense 转换为稠密切片
func (v *denseVector[T]) ToDense() []T { return v.DataCopy() }

// Copy 将自身值复制到 a 向量
func (v *denseVector[T]) Copy(a Vector[T]) {
	switch target := a.(type) {
	case *denseVector[T]:
		v.DataManager.Copy(target.DataManager)
	default:
		for i := 0; i < v.Length(); i++ {
			a.Set(i, v.Get(i))
		}
	}
}

// DotProduct 点积
func (v *denseVector[T]) DotProduct(other Vector[T]) T {
	if v.Length() != other.Length() {
		panic("vector dimension mismatch")
	}
	var sum T
	for i, x := range v.DataPtr() {
		sum += x * other.Get(i)
	}
	return sum
}

// Scale 向量缩放
func (v *denseVector[T]) Scale(scalar T) {
	data := v.DataPtr()
	for i := range data {
		data[i] *= scalar
	}
}

// Add 向量加法（自身 += other）
func (v *denseVector[T]) Add(other Vector[T]) {
	if v.Length() != other.Length() {
		panic("vector dimension mismatch")
	}
	data := v.DataPtr()
	for i := range data {
		data[i] += other.Get(i)
	}
}

// MaxAbs 无穷范数
func (v *denseVector[T]) MaxAbs() float64 {
	m := 0.0
	for _, x := range v.DataPtr() {
		if a := Abs(x); a > m {
			m = a
		}
	}
	return m
}

// String 格式化输出
func (v *denseVector[T]) String() string {
	var b strings.Builder
	b.WriteByte('[')
	for i, x := range v.DataPtr() {
		if i > 0 {
			b.WriteByte(' ')
		}
		fmt.Fprintf(&b, "%.6g", x)
	}
	b.WriteByte(']')
	return b.String()
}
