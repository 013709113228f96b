package solver

import (
	"math"
	"time"

	"powerflow/types"
)

// Report 一次迭代求解的结果
type Report struct {
	Method     string        `json:"method"`
	Converged  bool          `json:"converged"`
	Iterations int           `json:"iterations"`
	Active     float64       `json:"active"`   // 最终有功不平衡量
	Reactive   float64       `json:"reactive"` // 最终无功不平衡量
	Elapsed    time.Duration `json:"elapsed"`
}

// Run 迭代直到不平衡量小于 tol 或达到 maxIter。
// 未收敛通过 Report.Converged 返回，只有迭代步失败(如矩阵奇异)才返回错误。
func Run(m Method, s *State, maxIter int, tol float64, rec types.Debug) (Report, error) {
	start := time.Now()
	report := Report{Method: m.Name()}
	debug := rec != nil && rec.IsDebug()
	for {
		active, reactive := m.Mismatch(s)
		report.Active, report.Reactive = active, reactive
		if debug {
			rec.Update(s.Iteration, active, reactive, s.Magnitude, s.Angle)
		}
		if active < tol && reactive < tol {
			report.Converged = true
			break
		}
		// 发散
		if math.IsNaN(active+reactive) || math.IsInf(active+reactive, 0) {
			break
		}
		if s.Iteration >= maxIter {
			break
		}
		if err := m.Step(s); err != nil {
			if debug {
				rec.Error(err)
			}
			report.Iterations = s.Iteration
			report.Elapsed = time.Since(start)
			return report, err
		}
		s.Iteration++
	}
	report.Iterations = s.Iteration
	report.Elapsed = time.Since(start)
	return report, nil
}

// AdjustAngles 平移全部相角，使 ref 位置的母线相角等于 angle
func AdjustAngles(s *State, ref int, angle float64) {
	offset := angle - s.Angle[ref]
	for i := range s.Angle {
		s.Angle[i] += offset
	}
}
