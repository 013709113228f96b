package types

import (
	"errors"
	"fmt"
	"strings"
)

// 配置错误,立即终止
var (
	ErrZeroImpedance = errors.New("zero series impedance")
	ErrMultipleSlack = errors.New("more than one slack bus")
	ErrNotFound      = errors.New("label not found")
	ErrInvalidLabel  = errors.New("label must be a positive integer")
)

// ErrSingular 数值错误: 降阶矩阵奇异(通常由孤岛引起)
var ErrSingular = errors.New("singular matrix")

// SingularError 描述一次因矩阵奇异而失败的求解
type SingularError struct {
	Solver  string  // 求解器名称
	Islands [][]int // 与平衡母线不连通的母线编号分组
	Err     error   // 底层分解错误
}

func (e *SingularError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s: %v", e.Solver, ErrSingular)
	if len(e.Islands) > 0 {
		b.WriteString(": buses not connected to slack")
		for _, island := range e.Islands {
			fmt.Fprintf(&b, " %v", island)
		}
	}
	if e.Err != nil {
		fmt.Fprintf(&b, ": %v", e.Err)
	}
	return b.String()
}

// Unwrap 支持 errors.Is(err, ErrSingular)
func (e *SingularError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrSingular}
	}
	return []error{ErrSingular, e.Err}
}
