package types

import "io"

// Debug 调试接口
type Debug interface {
	Init(method string, buses []int)
	IsDebug() bool
	SetDebug(is bool)
	Update(iter int, active, reactive float64, magnitude, angle []float64)
	Render(w io.Writer) error
	Error(err error)
}
